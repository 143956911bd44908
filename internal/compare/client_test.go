package compare

import (
	"context"
	"errors"
	"testing"

	"github.com/garagebot/partscout/pkg/retailers"
)

// flakySource fails the first failCount fetches, then succeeds.
type flakySource struct {
	failCount int
	calls     int
}

func (f *flakySource) Slug() string         { return "flaky" }
func (f *flakySource) Name() string         { return "Flaky Parts" }
func (f *flakySource) Kind() retailers.Kind { return retailers.KindLive }
func (f *flakySource) Color() string        { return "#123456" }

func (f *flakySource) SearchURL(q retailers.Query) string {
	return "https://flaky.example.com/s?q=" + q.Text
}

func (f *flakySource) Fetch(_ context.Context, _ retailers.Query) ([]retailers.Offer, error) {
	f.calls++
	if f.calls <= f.failCount {
		return nil, errors.New("connection reset")
	}
	p := 14.99
	return []retailers.Offer{{ID: "flaky-1", Name: "Cabin Filter", Price: &p, RetailerSlug: "flaky"}}, nil
}

func TestFetchOne_RetriesOnceThenSucceeds(t *testing.T) {
	src := &flakySource{failCount: 1}
	offers := (&Client{}).fetchOne(context.Background(), src, retailers.Query{Text: "cabin filter"})

	if src.calls != 2 {
		t.Fatalf("fetch attempts = %d, want 2", src.calls)
	}
	if len(offers) != 1 || offers[0].ID != "flaky-1" {
		t.Fatalf("offers = %+v", offers)
	}
}

func TestFetchOne_FallsBackToSearchLink(t *testing.T) {
	src := &flakySource{failCount: 2}
	offers := (&Client{}).fetchOne(context.Background(), src, retailers.Query{Text: "cabin filter"})

	if src.calls != 2 {
		t.Fatalf("fetch attempts = %d, want 2 (one retry)", src.calls)
	}
	if len(offers) != 1 {
		t.Fatalf("degraded source must still contribute one link offer, got %d", len(offers))
	}
	o := offers[0]
	if o.ID != "flaky-search" || o.Priced() {
		t.Fatalf("fallback offer mismatch: %+v", o)
	}
	if o.Destination() != "https://flaky.example.com/s?q=cabin filter" {
		t.Fatalf("destination = %q", o.Destination())
	}
}

func TestFetchOne_NoRetryAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &flakySource{failCount: 2}
	(&Client{}).fetchOne(ctx, src, retailers.Query{Text: "cabin filter"})

	if src.calls != 1 {
		t.Fatalf("cancelled context must suppress the retry, got %d attempts", src.calls)
	}
}
