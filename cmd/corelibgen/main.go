// Command corelibgen captures a Cairo core library tree into
// internal/corelib/src, where go:embed bakes it into every binary.
//
//	corelibgen -src ../cairo/corelib/src
//	corelibgen -s3-version v2.9.0            # pull from the corelib bucket
//	corelibgen -src ./corelib -publish v2.9.0 # also upload for other builders
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/enitrat/cairo-wasm/internal/corelib"
	"github.com/enitrat/cairo-wasm/internal/corelib/archive"
	"github.com/enitrat/cairo-wasm/internal/safeio"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	src := flag.String("src", "", "local corelib source directory")
	version := flag.String("s3-version", "", "corelib version to download from the archive bucket")
	publish := flag.String("publish", "", "upload the captured tree to the archive bucket under this version")
	out := flag.String("out", filepath.Join("internal", "corelib", "src"), "output directory")
	flag.Parse()

	if err := run(context.Background(), *src, *version, *publish, *out); err != nil {
		log.Fatalf("corelibgen: %v", err)
	}
}

func run(ctx context.Context, src, version, publish, out string) error {
	snap, err := capture(ctx, src, version)
	if err != nil {
		return err
	}
	if snap.IsPlaceholder() {
		return fmt.Errorf("source tree is marked %s", corelib.PlaceholderMarker)
	}
	if snap.Len() == 0 {
		return fmt.Errorf("no %s files captured", corelib.SourceExt)
	}
	if _, ok := snap.Lookup("lib.cairo"); !ok {
		return fmt.Errorf("captured tree has no lib.cairo")
	}
	if err := write(out, snap); err != nil {
		return err
	}
	log.Printf("corelibgen: wrote %d files to %s", snap.Len(), out)

	if publish = strings.TrimSpace(publish); publish != "" {
		store, err := s3StoreFromEnv()
		if err != nil {
			return err
		}
		if err := archive.Publish(ctx, store, publish, snap); err != nil {
			return err
		}
		log.Printf("corelibgen: published %s", publish)
	}
	return nil
}

func capture(ctx context.Context, src, version string) (*corelib.Snapshot, error) {
	src = strings.TrimSpace(src)
	version = strings.TrimSpace(version)
	switch {
	case src != "" && version != "":
		return nil, fmt.Errorf("use either -src or -s3-version, not both")
	case src != "":
		fsys, err := safeio.NewSafeFS(src)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", src, err)
		}
		return corelib.Load(fsys, ".")
	case version != "":
		store, err := s3StoreFromEnv()
		if err != nil {
			return nil, err
		}
		return archive.Fetch(ctx, store, version)
	default:
		return nil, fmt.Errorf("one of -src or -s3-version is required")
	}
}

// write replaces every .cairo file under out with the snapshot and drops the
// placeholder marker.
func write(out string, snap *corelib.Snapshot) error {
	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(out, corelib.PlaceholderMarker)); err != nil && !os.IsNotExist(err) {
		return err
	}
	err := filepath.WalkDir(out, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(p) == corelib.SourceExt {
			return os.Remove(p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clean %s: %w", out, err)
	}
	files := snap.Files()
	for _, rel := range snap.Paths() {
		dst := filepath.Join(out, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dst, []byte(files[rel]), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func s3StoreFromEnv() (*archive.S3Store, error) {
	useSSL, err := strconv.ParseBool(firstNonEmpty(os.Getenv("CORELIB_S3_USE_SSL"), "true"))
	if err != nil {
		useSSL = true
	}
	return archive.NewS3Store(archive.S3Config{
		Endpoint:  strings.TrimSpace(os.Getenv("CORELIB_S3_ENDPOINT")),
		Region:    firstNonEmpty(os.Getenv("CORELIB_S3_REGION"), "us-east-1"),
		AccessKey: firstNonEmpty(os.Getenv("CORELIB_S3_ACCESS_KEY"), os.Getenv("MINIO_ROOT_USER")),
		SecretKey: firstNonEmpty(os.Getenv("CORELIB_S3_SECRET_KEY"), os.Getenv("MINIO_ROOT_PASSWORD")),
		Bucket:    firstNonEmpty(os.Getenv("CORELIB_S3_BUCKET"), "cairo-corelib"),
		UseSSL:    useSSL,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
