package api

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garagebot/partscout/internal/api/swagger"
	"github.com/garagebot/partscout/internal/compare"
	"github.com/garagebot/partscout/internal/cron"
	"github.com/garagebot/partscout/internal/migrate"
	"github.com/garagebot/partscout/internal/search"
	"github.com/garagebot/partscout/internal/storage"
	"github.com/garagebot/partscout/internal/tracking"
	"github.com/garagebot/partscout/internal/vendors"
)

// NewMux constructs the HTTP mux, wiring the vendor directory, compare
// service, catalog client, click tracker, metrics, and health endpoints.
func NewMux() *http.ServeMux {
	directory := vendors.MustLoad()

	driver := os.Getenv("PARTSCOUT_DB_DRIVER")
	dsn := os.Getenv("PARTSCOUT_DB_DSN")

	// Optional auto-migration: run `goose up` on startup when enabled.
	autoMig := strings.ToLower(os.Getenv("PARTSCOUT_AUTO_MIGRATE"))
	if autoMig == "1" || autoMig == "true" || autoMig == "yes" {
		mdriver := driver
		if mdriver == "" {
			mdriver = "sqlite"
		}
		mdsn := dsn
		if mdsn == "" {
			mdsn = "partscout.db"
		}
		if err := migrate.Up(context.Background(), mdriver, mdsn); err != nil {
			log.Printf("auto-migration failed: %v", err)
		}
	}

	// Open storage, falling back to the in-memory backend so a bad DSN
	// degrades the deployment instead of killing it.
	st, err := storage.Open(context.Background(), storage.Config{
		Driver:  driver,
		DSN:     dsn,
		Vendors: cron.MirrorVendors(directory),
	})
	if err != nil {
		log.Printf("storage.Open failed (driver=%s): %v; falling back to memory", driver, err)
		st, _ = storage.Open(context.Background(), storage.Config{
			Driver:  "memory",
			Vendors: cron.MirrorVendors(directory),
		})
	}

	h := &Handler{
		directory: directory,
		svc:       compare.NewServiceWithStorage(compare.FromEnv(), directory, st),
		catalog:   search.NewClient(search.FromEnv()),
		tracker:   tracking.NewTracker(tracking.FromEnv(), st),
		store:     st,
	}

	mux := http.NewServeMux()

	// Metrics endpoint.
	mux.Handle("/metrics", promhttp.Handler())

	// Health / readiness / liveness.
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			log.Printf("readyz: storage ping failed: %v", err)
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("live"))
	})

	h.Register(mux)

	// API docs.
	mux.Handle("/swagger/", http.StripPrefix("/swagger", swagger.Handler()))

	return mux
}
