package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port  string
	Env   string
	Wasm  string
	Cache CacheConfig
	// DatabaseURL selects the postgres ledger; empty keeps it in memory.
	DatabaseURL   string
	LedgerEntries int
	PanicFailure  bool
	// AllowPlaceholderCorelib lets a real toolchain start on the stand-in
	// embedded corelib.
	AllowPlaceholderCorelib bool
	RateLimit               RateLimitConfig
	CORSOrigins             []string
	// TrustedProxies are the peers allowed to name the client via
	// X-Forwarded-For or X-Real-IP.
	TrustedProxies []string
	Kafka          KafkaConfig
}

type CacheConfig struct {
	// CompileEntries sizes the compile response cache. Zero disables it, so
	// every compile runs the compiler.
	CompileEntries int
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

func (c RateLimitConfig) Enabled() bool {
	return c.RPS > 0
}

type KafkaConfig struct {
	Brokers        []string
	RequestsTopic  string
	ResponsesTopic string
	GroupID        string
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

func Load() (*Config, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs reads .env, flags and the environment. Environment values win
// over flags, as in deployed containers the flags are never set.
func LoadArgs(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	port := fs.String("port", ":8081", "server port")
	wasm := fs.String("toolchain", "", "path to the compiler/VM WebAssembly module")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:          *port,
		Env:           env,
		Wasm:          firstNonEmpty(strings.TrimSpace(os.Getenv("CAIRO_TOOLCHAIN_WASM")), *wasm),
		DatabaseURL:   strings.TrimSpace(os.Getenv("LEDGER_DATABASE_URL")),
		LedgerEntries: envInt("LEDGER_MEMORY_ENTRIES", 256),
		Cache: CacheConfig{
			CompileEntries: envInt("COMPILE_CACHE_ENTRIES", 0),
		},
		PanicFailure:            envBool("RUN_PANIC_AS_FAILURE", true),
		AllowPlaceholderCorelib: envBool("ALLOW_PLACEHOLDER_CORELIB", false),
		RateLimit: RateLimitConfig{
			RPS:   envFloat("RATE_LIMIT_RPS", 0),
			Burst: envInt("RATE_LIMIT_BURST", 10),
		},
		CORSOrigins:    splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),
		Kafka:          loadKafkaConfig(),
	}, nil
}

func loadKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Brokers:        splitList(os.Getenv("KAFKA_BROKERS")),
		RequestsTopic:  firstNonEmpty(strings.TrimSpace(os.Getenv("KAFKA_REQUESTS_TOPIC")), "cairo-requests"),
		ResponsesTopic: firstNonEmpty(strings.TrimSpace(os.Getenv("KAFKA_RESPONSES_TOPIC")), "cairo-responses"),
		GroupID:        firstNonEmpty(strings.TrimSpace(os.Getenv("KAFKA_GROUP_ID")), "cairo-worker"),
	}
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
