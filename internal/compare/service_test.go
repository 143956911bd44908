package compare

import (
	"context"
	"testing"
	"time"

	"github.com/garagebot/partscout/internal/storage"
	"github.com/garagebot/partscout/internal/vendors"
	"github.com/garagebot/partscout/pkg/retailers"
)

type countingFetcher struct {
	calls  int
	offers []retailers.Offer
}

func (f *countingFetcher) FetchAll(_ context.Context, _ retailers.Query) []retailers.Offer {
	f.calls++
	out := make([]retailers.Offer, len(f.offers))
	copy(out, f.offers)
	return out
}

func price(v float64) *float64 { return &v }

func testDirectory() []vendors.VendorRecord {
	return []vendors.VendorRecord{
		{
			ID: "partner", Name: "Partner", Slug: "partner",
			Categories: []string{vendors.CategoryAll}, AffiliateNetwork: "cj",
			Priority: 80, URLTemplate: "https://partner.example.com/s?q={query}",
		},
		{
			ID: "broken", Name: "Broken", Slug: "broken",
			Categories: []string{vendors.CategoryAll},
			Priority:   70, URLTemplate: "https://broken.example.com/s?q={unknown}",
		},
		{
			ID: "plain", Name: "Plain", Slug: "plain",
			Categories: []string{vendors.CategoryAll},
			Priority:   60, URLTemplate: "https://plain.example.com/s?q={query}",
		},
	}
}

func TestCompare_CachesWithinWindow(t *testing.T) {
	fetcher := &countingFetcher{offers: []retailers.Offer{
		{ID: "a", Name: "Pads", Price: price(19.99), Retailer: "AutoZone", RetailerSlug: "autozone"},
	}}
	svc := NewServiceWithStorage(Config{TTL: time.Minute}, testDirectory(), storage.NewMemoryStorage())
	svc.client = fetcher

	q := retailers.Query{Text: "brake pads", Year: "2019", Make: "Honda", Model: "Civic"}

	first, err := svc.Compare(context.Background(), q)
	if err != nil {
		t.Fatalf("first compare: %v", err)
	}
	second, err := svc.Compare(context.Background(), q)
	if err != nil {
		t.Fatalf("second compare: %v", err)
	}

	if fetcher.calls != 1 {
		t.Fatalf("fetched %d times within the window, want 1", fetcher.calls)
	}
	if !first.Timestamp.Equal(second.Timestamp) {
		t.Errorf("cached result must be returned verbatim: %v vs %v", first.Timestamp, second.Timestamp)
	}
	if len(second.Products) != 1 || second.Products[0].ID != "a" {
		t.Errorf("cached products mismatch: %+v", second.Products)
	}
}

func TestCompare_RefetchesAfterWindow(t *testing.T) {
	fetcher := &countingFetcher{}
	svc := NewServiceWithStorage(Config{TTL: 10 * time.Millisecond}, testDirectory(), storage.NewMemoryStorage())
	svc.client = fetcher

	q := retailers.Query{Text: "oil filter"}
	if _, err := svc.Compare(context.Background(), q); err != nil {
		t.Fatalf("first compare: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := svc.Compare(context.Background(), q); err != nil {
		t.Fatalf("second compare: %v", err)
	}
	if fetcher.calls != 2 {
		t.Fatalf("fetched %d times across an expired window, want 2", fetcher.calls)
	}
}

func TestCompare_DistinctQueriesDistinctSnapshots(t *testing.T) {
	fetcher := &countingFetcher{}
	svc := NewServiceWithStorage(Config{TTL: time.Minute}, testDirectory(), storage.NewMemoryStorage())
	svc.client = fetcher

	if _, err := svc.Compare(context.Background(), retailers.Query{Text: "brake pads"}); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if _, err := svc.Compare(context.Background(), retailers.Query{Text: "brake pads", Zip: "90210"}); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if fetcher.calls != 2 {
		t.Fatalf("queries differing in zip share a snapshot: %d fetches", fetcher.calls)
	}
}

func TestCompare_NoStorageStillWorks(t *testing.T) {
	fetcher := &countingFetcher{offers: []retailers.Offer{
		{ID: "x", Name: "Filter", Price: price(7.49), Retailer: "Walmart", RetailerSlug: "walmart"},
	}}
	svc := NewService(Config{TTL: time.Minute}, testDirectory())
	svc.client = fetcher

	res, err := svc.Compare(context.Background(), retailers.Query{Text: "air filter"})
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(res.Products) != 1 {
		t.Fatalf("got %d products, want 1", len(res.Products))
	}
	// Without a backend every call fetches.
	if _, err := svc.Compare(context.Background(), retailers.Query{Text: "air filter"}); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if fetcher.calls != 2 {
		t.Fatalf("fetched %d times without storage, want 2", fetcher.calls)
	}
}

func TestCompare_LinksRankedAndBrokenTemplateSkipped(t *testing.T) {
	svc := NewService(Config{TTL: time.Minute}, testDirectory())
	svc.client = &countingFetcher{}

	res, err := svc.Compare(context.Background(), retailers.Query{Text: "spark plug"})
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(res.RetailerLinks) != 2 {
		t.Fatalf("got %d links, want 2 (broken template skipped): %+v", len(res.RetailerLinks), res.RetailerLinks)
	}
	if res.RetailerLinks[0].Slug != "partner" || !res.RetailerLinks[0].IsAffiliate {
		t.Errorf("affiliate vendor must rank first: %+v", res.RetailerLinks[0])
	}
	if res.RetailerLinks[1].Slug != "plain" {
		t.Errorf("second link = %q, want plain", res.RetailerLinks[1].Slug)
	}
}

func TestSortOffers_PricedAscendingBeforeUnpriced(t *testing.T) {
	offers := []retailers.Offer{
		{ID: "link-a"},
		{ID: "dear", Price: price(99)},
		{ID: "cheap", Price: price(4.5)},
		{ID: "link-b"},
		{ID: "mid", Price: price(20)},
	}
	SortOffers(offers)

	want := []string{"cheap", "mid", "dear", "link-a", "link-b"}
	for i, id := range want {
		if offers[i].ID != id {
			t.Fatalf("position %d: got %s, want %s", i, offers[i].ID, id)
		}
	}
}

func TestFromEnv_TTL(t *testing.T) {
	t.Setenv("PARTSCOUT_COMPARE_TTL", "90s")
	if got := FromEnv().TTL; got != 90*time.Second {
		t.Fatalf("TTL = %v, want 90s", got)
	}

	t.Setenv("PARTSCOUT_COMPARE_TTL", "not-a-duration")
	if got := FromEnv().TTL; got != 5*time.Minute {
		t.Fatalf("invalid TTL must fall back to default, got %v", got)
	}
}
