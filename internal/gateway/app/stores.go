package app

import (
	"fmt"
	"log"
	"strings"

	"github.com/enitrat/cairo-wasm/internal/gateway/config"
	"github.com/enitrat/cairo-wasm/internal/gateway/repository/ledger"
)

type gatewayStores struct {
	ledger ledger.Store
	close  func() error
}

func initStores(cfg *config.Config) (*gatewayStores, error) {
	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		return initPostgresStores(dsn)
	}
	return initInMemoryStores(cfg), nil
}

func initPostgresStores(dsn string) (*gatewayStores, error) {
	store, err := ledger.NewPostgres(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger db: %w", err)
	}
	log.Printf("ledger store: postgres")
	return &gatewayStores{ledger: store, close: store.Close}, nil
}

func initInMemoryStores(cfg *config.Config) *gatewayStores {
	log.Printf("ledger store: in-memory (%d entries)", cfg.LedgerEntries)
	return &gatewayStores{
		ledger: ledger.NewMemoryStore(cfg.LedgerEntries),
		close:  func() error { return nil },
	}
}
