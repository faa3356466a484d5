package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"backoffice.app/internal/config"
	"backoffice.app/internal/migrate"
	"backoffice.app/internal/store"
)

func main() {
	log.SetFlags(0)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	var (
		driver = flag.String("driver", cfg.StoreDriver, "store driver: postgres or sqlite")
		dsn    = flag.String("dsn", cfg.DatabaseURL, "PostgreSQL DSN")
		path   = flag.String("sqlite", cfg.SQLitePath, "SQLite database path")
		table  = flag.String("table", "", "migrations bookkeeping table")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: migrate [flags] up|down|status")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	cfg.StoreDriver, cfg.DatabaseURL, cfg.SQLitePath = *driver, *dsn, *path
	if cfg.StoreDriver == config.DriverMemory {
		log.Fatal("the memory driver has no schema; choose -driver postgres or sqlite")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backend, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer backend.Close()

	mgr, err := backend.Migrator(migrateOptions(*table)...)
	if err != nil {
		log.Fatalf("migrator: %v", err)
	}

	switch cmd := flag.Arg(0); cmd {
	case "up":
		applied, err := mgr.Up(ctx)
		if err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		if len(applied) == 0 {
			fmt.Println("nothing to apply")
		}
		for _, name := range applied {
			fmt.Println("applied", name)
		}
	case "down":
		name, err := mgr.Down(ctx)
		if err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		fmt.Println("rolled back", name)
	case "status":
		history, err := mgr.Status(ctx)
		if err != nil {
			log.Fatalf("migrate status: %v", err)
		}
		for _, item := range history {
			fmt.Println(item)
		}
	default:
		log.Fatalf("unknown command %q", cmd)
	}
}

func migrateOptions(table string) []migrate.Option {
	if table == "" {
		return nil
	}
	return []migrate.Option{migrate.WithMigrationsTable(table)}
}
