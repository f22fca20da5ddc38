package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/biileprince/Employme-sub001/internal/auth"
	"github.com/biileprince/Employme-sub001/internal/board"
	"github.com/biileprince/Employme-sub001/internal/httpapi"
	"github.com/biileprince/Employme-sub001/internal/obs"
	"github.com/biileprince/Employme-sub001/internal/store/pg"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	if !auth.Enabled() {
		log.Fatal("EMPLOYME_AUTH_SECRET is not set")
	}

	// With a DSN the board is Postgres-backed; without one it runs on the
	// in-memory store, which is enough for local development.
	var (
		svc board.Service
		db  *sql.DB
	)
	if dsn := os.Getenv("EMPLOYME_PG_DSN"); dsn != "" {
		store, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		svc = store
		db = store.DB()
	} else {
		log.Print("EMPLOYME_PG_DSN not set, using in-memory store")
		svc = board.NewInMemory()
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, svc)
	api.SetTokenTTL(envDuration("EMPLOYME_TOKEN_TTL", time.Hour))
	api.SetRateLimit(envInt("EMPLOYME_RATE_BURST", 20), envInt("EMPLOYME_RATE_PER_SEC", 10))

	addr := os.Getenv("EMPLOYME_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting employme-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if db != nil {
		_ = db.Close()
	}
	log.Print("server stopped")
}

func envDuration(name string, def time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("invalid %s=%q, using %s", name, raw, def)
		return def
	}
	return d
}

func envInt(name string, def int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("invalid %s=%q, using %d", name, raw, def)
		return def
	}
	return n
}
