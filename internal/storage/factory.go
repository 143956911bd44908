package storage

import (
	"context"
	"fmt"
	"log"
)

// Config controls how the storage backend is opened.
type Config struct {
	Driver  string
	DSN     string
	Vendors []Vendor
}

// Open constructs a Storage based on the given configuration. The vendor
// directory, when provided, is mirrored into the backend so the affiliate
// dashboard can query it without the compiled defaults.
func Open(ctx context.Context, cfg Config) (Storage, error) {
	drv := cfg.Driver
	if drv == "" {
		drv = "memory"
	}
	switch drv {
	case "memory":
		log.Printf("storage: using in-memory backend")
		st := NewMemoryStorage()
		if err := seedVendors(ctx, st, cfg.Vendors); err != nil {
			return nil, err
		}
		return st, nil

	case "sqlite", "postgres":
		log.Printf("storage: using gorm driver=%s", drv)
		st, err := NewGormStorage(drv, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("storage migrate: %w", err)
		}
		if err := seedVendors(ctx, st, cfg.Vendors); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil

	case "postgrespool":
		log.Printf("storage: using pgx pool backend")
		st, err := OpenPostgresPool(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		// Schema is managed by goose migrations; the worker runs them.
		if err := seedVendors(ctx, st, cfg.Vendors); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", drv)
	}
}

func seedVendors(ctx context.Context, st Storage, vendors []Vendor) error {
	for _, v := range vendors {
		if err := st.UpsertVendor(ctx, v); err != nil {
			return fmt.Errorf("seed vendor %s: %w", v.ID, err)
		}
	}
	return nil
}
