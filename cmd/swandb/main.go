package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/haibtran/swandb/internal"
	"github.com/haibtran/swandb/internal/engine"
)

func main() {
	cfgPath := flag.String("config", "", "Path to yaml config (optional)")
	workDir := flag.String("data-dir", "./data", "Working directory for database files")
	poolSize := flag.Int("pool-size", 128, "Number of buffer pool frames")
	flag.Parse()

	if *cfgPath != "" {
		cfg, err := internal.LoadConfig(*cfgPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		*workDir = cfg.Storage.Workdir
		*poolSize = cfg.Storage.PoolSize
		if cfg.Debug {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	db, err := engine.NewDatabase(*workDir, *poolSize)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	f, err := db.OpenFile("demo.db")
	if err != nil {
		log.Fatalf("Failed to open file: %v", err)
	}

	pageNo, page, err := db.Pool.AllocatePage(f)
	if err != nil {
		log.Fatalf("Failed to allocate page: %v", err)
	}
	copy(page.Data(), []byte("hello, swandb"))
	if err := db.Pool.UnpinPage(f, pageNo, true); err != nil {
		log.Fatalf("Failed to unpin page: %v", err)
	}

	page, err = db.Pool.FetchPage(f, pageNo)
	if err != nil {
		log.Fatalf("Failed to fetch page: %v", err)
	}
	fmt.Printf("page %d: %q\n", pageNo, string(page.Data()[:13]))
	if err := db.Pool.UnpinPage(f, pageNo, false); err != nil {
		log.Fatalf("Failed to unpin page: %v", err)
	}

	db.Pool.Dump(os.Stdout)
}
