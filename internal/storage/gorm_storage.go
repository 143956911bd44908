package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type GormStorage struct {
	db *gorm.DB
}

func NewGormStorage(driver, dsn string) (*GormStorage, error) {
	var gormDialector gorm.Dialector
	if driver == "postgres" || driver == "postgrespool" {
		gormDialector = postgres.Open(dsn)
	} else if driver == "sqlite" {
		gormDialector = sqlite.Open(dsn)
	} else {
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := gorm.Open(gormDialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	return &GormStorage{db: db}, nil
}

func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&Vendor{},
		&OfferSnapshot{},
		&ClickEvent{},
		&PriceWatch{},
		&Setting{},
		&EmailConfig{},
		&ScheduledJob{},
	)
}

type Setting struct {
	Key       string    `gorm:"primaryKey;column:key"`
	Value     string    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

type ScheduledJob struct {
	Name           string    `gorm:"primaryKey;column:name"`
	LastRunAt      time.Time `gorm:"column:last_run_at"`
	LastDurationMs int64     `gorm:"column:last_duration_ms"`
	LastSuccess    int       `gorm:"column:last_success"`
	LastError      string    `gorm:"column:last_error"`
}

// Vendors

func (s *GormStorage) ListVendors(ctx context.Context) ([]Vendor, error) {
	var vendors []Vendor
	result := s.db.WithContext(ctx).Order("priority desc").Find(&vendors)
	return vendors, result.Error
}

func (s *GormStorage) GetVendor(ctx context.Context, id string) (*Vendor, error) {
	var vendor Vendor
	result := s.db.WithContext(ctx).First(&vendor, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &vendor, nil
}

func (s *GormStorage) UpsertVendor(ctx context.Context, v Vendor) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&v).Error
}

// Offer snapshots

func (s *GormStorage) GetOfferSnapshot(ctx context.Context, queryKey string) (*OfferSnapshot, error) {
	var snap OfferSnapshot
	result := s.db.WithContext(ctx).Order("fetched_at desc").First(&snap, "query_key = ?", queryKey)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &snap, nil
}

func (s *GormStorage) SaveOfferSnapshot(ctx context.Context, snap OfferSnapshot) error {
	return s.db.WithContext(ctx).Create(&snap).Error
}

func (s *GormStorage) DeleteOfferSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("fetched_at < ?", cutoff).Delete(&OfferSnapshot{})
	return result.RowsAffected, result.Error
}

// Click events

func (s *GormStorage) SaveClickEvent(ctx context.Context, ev ClickEvent) error {
	return s.db.WithContext(ctx).Create(&ev).Error
}

func (s *GormStorage) ListClickEvents(ctx context.Context, since time.Time, limit int) ([]ClickEvent, error) {
	var events []ClickEvent
	q := s.db.WithContext(ctx).Where("created_at >= ?", since).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	result := q.Find(&events)
	return events, result.Error
}

// Price watches

func (s *GormStorage) ListPriceWatches(ctx context.Context) ([]PriceWatch, error) {
	var watches []PriceWatch
	result := s.db.WithContext(ctx).Find(&watches)
	return watches, result.Error
}

func (s *GormStorage) GetPriceWatch(ctx context.Context, id string) (*PriceWatch, error) {
	var watch PriceWatch
	result := s.db.WithContext(ctx).First(&watch, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &watch, nil
}

func (s *GormStorage) SavePriceWatch(ctx context.Context, w PriceWatch) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&w).Error
}

func (s *GormStorage) DeletePriceWatch(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&PriceWatch{}, "id = ?", id).Error
}

func (s *GormStorage) MarkPriceWatchNotified(ctx context.Context, id string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&PriceWatch{}).Where("id = ?", id).Update("last_notified_at", at).Error
}

// Settings

func (s *GormStorage) GetSetting(ctx context.Context, key string) (string, error) {
	var setting Setting
	result := s.db.WithContext(ctx).First(&setting, "key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", result.Error
	}
	return setting.Value, nil
}

func (s *GormStorage) SetSetting(ctx context.Context, key, value string) error {
	setting := Setting{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&setting).Error
}

// Email config

func (s *GormStorage) GetEmailConfig(ctx context.Context) (*EmailConfig, error) {
	var config EmailConfig
	result := s.db.WithContext(ctx).First(&config)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &config, nil
}

func (s *GormStorage) SaveEmailConfig(ctx context.Context, config EmailConfig) error {
	// Single-row table; pin the ID so repeated saves overwrite.
	if config.ID == "" {
		config.ID = "default"
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&config).Error
}

// Close & Ping

func (s *GormStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStorage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Scheduled jobs & locking

func (s *GormStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	if s.db.Dialector.Name() == "postgres" {
		var ok bool
		err := s.db.WithContext(ctx).Raw("SELECT pg_try_advisory_lock(?)", key).Scan(&ok).Error
		return ok, err
	}
	// SQLite has no advisory locks; a single instance is assumed.
	return true, nil
}

func (s *GormStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	if s.db.Dialector.Name() == "postgres" {
		var ok bool
		err := s.db.WithContext(ctx).Raw("SELECT pg_advisory_unlock(?)", key).Scan(&ok).Error
		return ok, err
	}
	return true, nil
}

func (s *GormStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	status := 0
	if success {
		status = 1
	}
	job := ScheduledJob{
		Name:           name,
		LastRunAt:      started,
		LastDurationMs: dur.Milliseconds(),
		LastSuccess:    status,
		LastError:      errMsg,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		UpdateAll: true,
	}).Create(&job).Error
}
