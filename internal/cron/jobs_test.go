package cron

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/garagebot/partscout/internal/storage"
	"github.com/garagebot/partscout/internal/vendors"
	"github.com/garagebot/partscout/pkg/retailers"
)

func TestSweepSnapshots(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	for key, age := range map[string]time.Duration{
		"stale": 48 * time.Hour,
		"fresh": time.Minute,
	} {
		err := store.SaveOfferSnapshot(ctx, storage.OfferSnapshot{
			QueryKey:  key,
			Payload:   []byte("{}"),
			FetchedAt: time.Now().Add(-age),
		})
		if err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}

	t.Setenv("PARTSCOUT_SNAPSHOT_RETENTION", "24h")
	jobs := &Jobs{Store: store}
	if err := jobs.SweepSnapshots(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if s, _ := store.GetOfferSnapshot(ctx, "stale"); s != nil {
		t.Errorf("stale snapshot survived")
	}
	if s, _ := store.GetOfferSnapshot(ctx, "fresh"); s == nil {
		t.Errorf("fresh snapshot was swept")
	}
}

func TestLowestPriced(t *testing.T) {
	p := func(v float64) *float64 { return &v }
	offers := []retailers.Offer{
		{ID: "link"},
		{ID: "mid", Price: p(25)},
		{ID: "cheap", Price: p(9.99)},
		{ID: "zero", Price: p(0)},
	}
	best, ok := lowestPriced(offers)
	if !ok || best.ID != "cheap" {
		t.Fatalf("lowestPriced = %+v, %v", best, ok)
	}

	if _, ok := lowestPriced([]retailers.Offer{{ID: "link"}}); ok {
		t.Fatalf("unpriced offers must not produce a winner")
	}
}

func TestMirrorVendors(t *testing.T) {
	rows := MirrorVendors([]vendors.VendorRecord{
		{
			ID: "napa", Name: "NAPA Auto Parts", Slug: "napa",
			Categories: []string{"all"}, Priority: 70,
			URLTemplate: "https://napaonline.com/search?query={query}",
		},
	})
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	row := rows[0]
	if row.ID != "napa" || row.Name != "NAPA Auto Parts" {
		t.Errorf("row mismatch: %+v", row)
	}
	var cats []string
	if err := json.Unmarshal([]byte(row.Categories), &cats); err != nil {
		t.Fatalf("categories column is not json: %q", row.Categories)
	}
	if len(cats) != 1 || cats[0] != "all" {
		t.Errorf("categories = %v", cats)
	}
}
