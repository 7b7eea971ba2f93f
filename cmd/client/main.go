package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/mzurek/zakupy/internal/client/cli"
)

func main() {
	serverURL := flag.String("server", envOr("SERVER_URL", "http://localhost:8080"), "backend base URL")
	cachePath := flag.String("cache", defaultCachePath(), "local cache database path")
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*cachePath), 0o700); err != nil {
		log.Fatalf("cache dir: %v", err)
	}

	ctx := context.Background()
	app, err := cli.NewApp(ctx, *serverURL, *cachePath)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer app.Close()

	app.Run(ctx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "zakupy.db"
	}
	return filepath.Join(dir, "zakupy", "cache.db")
}
