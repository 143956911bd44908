package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/garagebot/partscout/internal/cron"
	"github.com/garagebot/partscout/internal/migrate"
)

func main() {
	driver := os.Getenv("PARTSCOUT_DB_DRIVER")
	dsn := os.Getenv("PARTSCOUT_DB_DSN")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	autoMig := strings.ToLower(os.Getenv("PARTSCOUT_AUTO_MIGRATE"))
	if (autoMig == "1" || autoMig == "true" || autoMig == "yes") && driver != "" && driver != "memory" {
		if err := migrate.Up(ctx, driver, dsn); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
	}

	if err := cron.Run(ctx, driver, dsn); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("worker failed: %v", err)
	}
	log.Printf("worker stopped")
}
