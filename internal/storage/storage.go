package storage

import (
	"context"
	"time"
)

// Storage is the persistence surface shared by the API server and the
// worker. Backends: in-memory (default), GORM (sqlite/postgres), pgxpool.
// Getters return (nil, nil) when the record does not exist.
type Storage interface {
	// Vendor directory mirror.
	ListVendors(ctx context.Context) ([]Vendor, error)
	GetVendor(ctx context.Context, id string) (*Vendor, error)
	UpsertVendor(ctx context.Context, v Vendor) error

	// Comparison snapshots, keyed by query identity.
	GetOfferSnapshot(ctx context.Context, queryKey string) (*OfferSnapshot, error)
	SaveOfferSnapshot(ctx context.Context, snap OfferSnapshot) error
	DeleteOfferSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Click tracking.
	SaveClickEvent(ctx context.Context, ev ClickEvent) error
	ListClickEvents(ctx context.Context, since time.Time, limit int) ([]ClickEvent, error)

	// Price watches.
	ListPriceWatches(ctx context.Context) ([]PriceWatch, error)
	GetPriceWatch(ctx context.Context, id string) (*PriceWatch, error)
	SavePriceWatch(ctx context.Context, w PriceWatch) error
	DeletePriceWatch(ctx context.Context, id string) error
	MarkPriceWatchNotified(ctx context.Context, id string, at time.Time) error

	// Free-form settings (worker interval override and the like).
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Email configuration for notifications.
	GetEmailConfig(ctx context.Context) (*EmailConfig, error)
	SaveEmailConfig(ctx context.Context, cfg EmailConfig) error

	Ping(ctx context.Context) error
	Close() error
}
