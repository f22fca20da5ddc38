package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/biileprince/Employme-sub001/internal/migrate"
	"github.com/biileprince/Employme-sub001/internal/store/pg"
)

func main() {
	var (
		dsn           = flag.String("dsn", os.Getenv("EMPLOYME_PG_DSN"), "Postgres DSN (defaults to EMPLOYME_PG_DSN)")
		migrationsDir = flag.String("migrations", "ops/migrations/sql", "directory with .up.sql/.down.sql files")
		seedsDir      = flag.String("seeds", "ops/migrations/seeds", "directory with seed .sql files")
		timeout       = flag.Duration("timeout", 2*time.Minute, "overall command timeout")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: migrate [flags] up|down|status|seed\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if *dsn == "" {
		log.Fatal("no DSN: set EMPLOYME_PG_DSN or pass -dsn")
	}

	db, err := pg.Open(*dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	mgr := migrate.NewManager(db.DB(), *migrationsDir, *seedsDir)

	switch cmd := flag.Arg(0); cmd {
	case "up":
		if err := mgr.Up(ctx); err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		fmt.Println("migrations applied")
	case "down":
		if err := mgr.Down(ctx); err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		fmt.Println("last migration rolled back")
	case "status":
		applied, err := mgr.Status(ctx)
		if err != nil {
			log.Fatalf("migrate status: %v", err)
		}
		pending, err := mgr.Pending(ctx)
		if err != nil {
			log.Fatalf("migrate status: %v", err)
		}
		for _, name := range applied {
			fmt.Printf("applied  %s\n", name)
		}
		for _, name := range pending {
			fmt.Printf("pending  %s\n", name)
		}
		if len(applied) == 0 && len(pending) == 0 {
			fmt.Println("no migrations found")
		}
	case "seed":
		if err := mgr.Seed(ctx); err != nil {
			log.Fatalf("seed: %v", err)
		}
		fmt.Println("seeds applied")
	default:
		log.Fatalf("unknown command %q", cmd)
	}
}
