package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Locker is satisfied by backends that support cross-instance job locking.
// SQLite-backed storage reports success unconditionally.
type Locker interface {
	AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error)
	ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error)
	UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error
}

type PostgresPoolStorage struct {
	pool *pgxpool.Pool
}

func OpenPostgresPool(ctx context.Context, dsn string) (*PostgresPoolStorage, error) {
	if dsn == "" {
		dsn = "postgres://localhost:5432/partscout?sslmode=disable"
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &PostgresPoolStorage{pool: pool}, nil
}

func (s *PostgresPoolStorage) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresPoolStorage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Vendors

func (s *PostgresPoolStorage) ListVendors(ctx context.Context) ([]Vendor, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, slug, categories, has_local_pickup, supports_oem,
		       supports_aftermarket, affiliate_network, priority, url_template, logo_color
		FROM vendors ORDER BY priority DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Vendor
	for rows.Next() {
		var v Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.Slug, &v.Categories, &v.HasLocalPickup,
			&v.SupportsOEM, &v.SupportsAftermarket, &v.AffiliateNetwork,
			&v.Priority, &v.URLTemplate, &v.LogoColor); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *PostgresPoolStorage) GetVendor(ctx context.Context, id string) (*Vendor, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, slug, categories, has_local_pickup, supports_oem,
		       supports_aftermarket, affiliate_network, priority, url_template, logo_color
		FROM vendors WHERE id=$1`, id)
	var v Vendor
	err := row.Scan(&v.ID, &v.Name, &v.Slug, &v.Categories, &v.HasLocalPickup,
		&v.SupportsOEM, &v.SupportsAftermarket, &v.AffiliateNetwork,
		&v.Priority, &v.URLTemplate, &v.LogoColor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (s *PostgresPoolStorage) UpsertVendor(ctx context.Context, v Vendor) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO vendors (id, name, slug, categories, has_local_pickup, supports_oem,
		                     supports_aftermarket, affiliate_network, priority, url_template, logo_color)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
			name=EXCLUDED.name,
			slug=EXCLUDED.slug,
			categories=EXCLUDED.categories,
			has_local_pickup=EXCLUDED.has_local_pickup,
			supports_oem=EXCLUDED.supports_oem,
			supports_aftermarket=EXCLUDED.supports_aftermarket,
			affiliate_network=EXCLUDED.affiliate_network,
			priority=EXCLUDED.priority,
			url_template=EXCLUDED.url_template,
			logo_color=EXCLUDED.logo_color
	`, v.ID, v.Name, v.Slug, v.Categories, v.HasLocalPickup, v.SupportsOEM,
		v.SupportsAftermarket, v.AffiliateNetwork, v.Priority, v.URLTemplate, v.LogoColor)
	return err
}

// Offer snapshots

func (s *PostgresPoolStorage) GetOfferSnapshot(ctx context.Context, queryKey string) (*OfferSnapshot, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, payload, fetched_at
		FROM offer_snapshots
		WHERE query_key=$1
		ORDER BY id DESC
		LIMIT 1
	`, queryKey)

	snap := OfferSnapshot{QueryKey: queryKey}
	if err := row.Scan(&snap.ID, &snap.Payload, &snap.FetchedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

func (s *PostgresPoolStorage) SaveOfferSnapshot(ctx context.Context, snap OfferSnapshot) error {
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO offer_snapshots (query_key, payload, fetched_at)
		VALUES ($1,$2,$3)
	`, snap.QueryKey, snap.Payload, snap.FetchedAt)
	return err
}

func (s *PostgresPoolStorage) DeleteOfferSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM offer_snapshots WHERE fetched_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Click events

func (s *PostgresPoolStorage) SaveClickEvent(ctx context.Context, ev ClickEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO click_events (id, partner_id, product_name, search_query, source_url, destination_url, click_context, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, ev.ID, ev.PartnerID, ev.ProductName, ev.SearchQuery, ev.SourceURL, ev.DestinationURL, ev.ClickContext, ev.CreatedAt)
	return err
}

func (s *PostgresPoolStorage) ListClickEvents(ctx context.Context, since time.Time, limit int) ([]ClickEvent, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, partner_id, product_name, search_query, source_url, destination_url, click_context, created_at
		FROM click_events
		WHERE created_at >= $1
		ORDER BY created_at DESC
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ClickEvent
	for rows.Next() {
		var ev ClickEvent
		if err := rows.Scan(&ev.ID, &ev.PartnerID, &ev.ProductName, &ev.SearchQuery,
			&ev.SourceURL, &ev.DestinationURL, &ev.ClickContext, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Price watches

func (s *PostgresPoolStorage) ListPriceWatches(ctx context.Context) ([]PriceWatch, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, email, query_text, year, make, model, vehicle_type, zip,
		       threshold_usd, created_at, last_notified_at
		FROM price_watches`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PriceWatch
	for rows.Next() {
		var w PriceWatch
		if err := rows.Scan(&w.ID, &w.Email, &w.QueryText, &w.Year, &w.Make, &w.Model,
			&w.VehicleType, &w.Zip, &w.ThresholdUSD, &w.CreatedAt, &w.LastNotifiedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *PostgresPoolStorage) GetPriceWatch(ctx context.Context, id string) (*PriceWatch, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, query_text, year, make, model, vehicle_type, zip,
		       threshold_usd, created_at, last_notified_at
		FROM price_watches WHERE id=$1`, id)
	var w PriceWatch
	err := row.Scan(&w.ID, &w.Email, &w.QueryText, &w.Year, &w.Make, &w.Model,
		&w.VehicleType, &w.Zip, &w.ThresholdUSD, &w.CreatedAt, &w.LastNotifiedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (s *PostgresPoolStorage) SavePriceWatch(ctx context.Context, w PriceWatch) error {
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO price_watches (id, email, query_text, year, make, model, vehicle_type, zip, threshold_usd, created_at, last_notified_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
			email=EXCLUDED.email,
			query_text=EXCLUDED.query_text,
			year=EXCLUDED.year,
			make=EXCLUDED.make,
			model=EXCLUDED.model,
			vehicle_type=EXCLUDED.vehicle_type,
			zip=EXCLUDED.zip,
			threshold_usd=EXCLUDED.threshold_usd
	`, w.ID, w.Email, w.QueryText, w.Year, w.Make, w.Model, w.VehicleType, w.Zip,
		w.ThresholdUSD, w.CreatedAt, w.LastNotifiedAt)
	return err
}

func (s *PostgresPoolStorage) DeletePriceWatch(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM price_watches WHERE id=$1`, id)
	return err
}

func (s *PostgresPoolStorage) MarkPriceWatchNotified(ctx context.Context, id string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `UPDATE price_watches SET last_notified_at=$2 WHERE id=$1`, id, at)
	return err
}

// Settings

func (s *PostgresPoolStorage) GetSetting(ctx context.Context, key string) (string, error) {
	row := s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key=$1`, key)
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (s *PostgresPoolStorage) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at
	`, key, value, time.Now())
	return err
}

// Email config

func (s *PostgresPoolStorage) GetEmailConfig(ctx context.Context) (*EmailConfig, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, provider, host, port, username, password, from_address, from_name,
		       api_key, encryption, enabled, created_at, updated_at
		FROM email_configs LIMIT 1`)
	var cfg EmailConfig
	err := row.Scan(&cfg.ID, &cfg.Provider, &cfg.Host, &cfg.Port, &cfg.Username, &cfg.Password,
		&cfg.FromAddress, &cfg.FromName, &cfg.APIKey, &cfg.Encryption, &cfg.Enabled,
		&cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (s *PostgresPoolStorage) SaveEmailConfig(ctx context.Context, cfg EmailConfig) error {
	if cfg.ID == "" {
		cfg.ID = "default"
	}
	now := time.Now()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now
	_, err := s.pool.Exec(ctx, `
		INSERT INTO email_configs (id, provider, host, port, username, password, from_address, from_name, api_key, encryption, enabled, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO UPDATE SET
			provider=EXCLUDED.provider,
			host=EXCLUDED.host,
			port=EXCLUDED.port,
			username=EXCLUDED.username,
			password=EXCLUDED.password,
			from_address=EXCLUDED.from_address,
			from_name=EXCLUDED.from_name,
			api_key=EXCLUDED.api_key,
			encryption=EXCLUDED.encryption,
			enabled=EXCLUDED.enabled,
			updated_at=EXCLUDED.updated_at
	`, cfg.ID, cfg.Provider, cfg.Host, cfg.Port, cfg.Username, cfg.Password,
		cfg.FromAddress, cfg.FromName, cfg.APIKey, cfg.Encryption, cfg.Enabled,
		cfg.CreatedAt, cfg.UpdatedAt)
	return err
}

// Locking & scheduled jobs

func (s *PostgresPoolStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&ok)
	return ok, err
}

func (s *PostgresPoolStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT pg_advisory_unlock($1)`, key).Scan(&ok)
	return ok, err
}

func (s *PostgresPoolStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	status := 0
	if success {
		status = 1
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scheduled_jobs (name, last_run_at, last_duration_ms, last_success, last_error)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (name) DO UPDATE SET
			last_run_at=EXCLUDED.last_run_at,
			last_duration_ms=EXCLUDED.last_duration_ms,
			last_success=EXCLUDED.last_success,
			last_error=EXCLUDED.last_error
	`, name, started, dur.Milliseconds(), status, errMsg)
	return err
}
