package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStorage keeps everything in process memory. It is the default
// backend when no database is configured and backs most tests.
type MemoryStorage struct {
	mu          sync.RWMutex
	vendors     map[string]Vendor
	snapshots   map[string]OfferSnapshot
	snapshotSeq uint
	clicks      []ClickEvent
	watches     map[string]PriceWatch
	settings    map[string]string
	emailConfig *EmailConfig
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		vendors:   make(map[string]Vendor),
		snapshots: make(map[string]OfferSnapshot),
		watches:   make(map[string]PriceWatch),
		settings:  make(map[string]string),
	}
}

func (m *MemoryStorage) ListVendors(_ context.Context) ([]Vendor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Vendor, 0, len(m.vendors))
	for _, v := range m.vendors {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStorage) GetVendor(_ context.Context, id string) (*Vendor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vendors[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (m *MemoryStorage) UpsertVendor(_ context.Context, v Vendor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vendors[v.ID] = v
	return nil
}

func (m *MemoryStorage) GetOfferSnapshot(_ context.Context, queryKey string) (*OfferSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.snapshots[queryKey]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryStorage) SaveOfferSnapshot(_ context.Context, snap OfferSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if snap.ID == 0 {
		m.snapshotSeq++
		snap.ID = m.snapshotSeq
	}
	m.snapshots[snap.QueryKey] = snap
	return nil
}

func (m *MemoryStorage) DeleteOfferSnapshotsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for key, s := range m.snapshots {
		if s.FetchedAt.Before(cutoff) {
			delete(m.snapshots, key)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStorage) SaveClickEvent(_ context.Context, ev ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clicks = append(m.clicks, ev)
	return nil
}

func (m *MemoryStorage) ListClickEvents(_ context.Context, since time.Time, limit int) ([]ClickEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ClickEvent, 0, limit)
	for i := len(m.clicks) - 1; i >= 0; i-- {
		ev := m.clicks[i]
		if ev.CreatedAt.Before(since) {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStorage) ListPriceWatches(_ context.Context) ([]PriceWatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]PriceWatch, 0, len(m.watches))
	for _, w := range m.watches {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStorage) GetPriceWatch(_ context.Context, id string) (*PriceWatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.watches[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (m *MemoryStorage) SavePriceWatch(_ context.Context, w PriceWatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watches[w.ID] = w
	return nil
}

func (m *MemoryStorage) DeletePriceWatch(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.watches, id)
	return nil
}

func (m *MemoryStorage) MarkPriceWatchNotified(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.watches[id]
	if !ok {
		return nil
	}
	w.LastNotifiedAt = &at
	m.watches[id] = w
	return nil
}

func (m *MemoryStorage) GetSetting(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings[key], nil
}

func (m *MemoryStorage) SetSetting(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

func (m *MemoryStorage) GetEmailConfig(_ context.Context) (*EmailConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.emailConfig == nil {
		return nil, nil
	}
	cfg := *m.emailConfig
	return &cfg, nil
}

func (m *MemoryStorage) SaveEmailConfig(_ context.Context, cfg EmailConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emailConfig = &cfg
	return nil
}

func (m *MemoryStorage) Ping(_ context.Context) error { return nil }

func (m *MemoryStorage) Close() error { return nil }

// Single process, no contention to arbitrate.

func (m *MemoryStorage) AcquireAdvisoryLock(_ context.Context, _ int64) (bool, error) {
	return true, nil
}

func (m *MemoryStorage) ReleaseAdvisoryLock(_ context.Context, _ int64) (bool, error) {
	return true, nil
}

func (m *MemoryStorage) UpdateScheduledJob(_ context.Context, _ string, _ time.Time, _ time.Duration, _ bool, _ string) error {
	return nil
}
