package compare

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/garagebot/partscout/internal/metrics"
	"github.com/garagebot/partscout/pkg/retailers"

	_ "github.com/garagebot/partscout/pkg/retailers/advance"
	_ "github.com/garagebot/partscout/pkg/retailers/amazon"
	_ "github.com/garagebot/partscout/pkg/retailers/autozone"
	_ "github.com/garagebot/partscout/pkg/retailers/ebay"
	_ "github.com/garagebot/partscout/pkg/retailers/napa"
	_ "github.com/garagebot/partscout/pkg/retailers/oreilly"
	_ "github.com/garagebot/partscout/pkg/retailers/rockauto"
	_ "github.com/garagebot/partscout/pkg/retailers/walmart"
)

// Client fans a query out to every registered retailer source concurrently.
// A live source that errors gets one retry; if that also fails the source
// degrades to its search link so the comparison never loses a storefront.
type Client struct{}

func NewClient() *Client { return &Client{} }

// FetchAll returns the combined offers in registry (slug) order, so repeated
// calls for the same query produce identically ordered slices.
func (c *Client) FetchAll(ctx context.Context, q retailers.Query) []retailers.Offer {
	all := retailers.All()
	results := make([][]retailers.Offer, len(all))

	var wg sync.WaitGroup
	for i, r := range all {
		wg.Add(1)
		go func(i int, r retailers.Retailer) {
			defer wg.Done()
			results[i] = c.fetchOne(ctx, r, q)
		}(i, r)
	}
	wg.Wait()

	var out []retailers.Offer
	for _, offers := range results {
		out = append(out, offers...)
	}
	return out
}

func (c *Client) fetchOne(ctx context.Context, r retailers.Retailer, q retailers.Query) []retailers.Offer {
	start := time.Now()
	offers, err := r.Fetch(ctx, q)
	if err != nil && ctx.Err() == nil {
		log.Printf("compare: %s fetch failed, retrying: %v", r.Slug(), err)
		offers, err = r.Fetch(ctx, q)
	}
	metrics.RetailerFetchDurationSeconds.WithLabelValues(r.Slug()).Observe(time.Since(start).Seconds())

	if err != nil {
		log.Printf("compare: %s unavailable, degrading to search link: %v", r.Slug(), err)
		metrics.RetailerFetchesTotal.WithLabelValues(r.Slug(), "fallback").Inc()
		return []retailers.Offer{retailers.FallbackOffer(r, q)}
	}
	metrics.RetailerFetchesTotal.WithLabelValues(r.Slug(), "ok").Inc()
	return offers
}
