package compare

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/garagebot/partscout/internal/metrics"
	"github.com/garagebot/partscout/internal/storage"
	"github.com/garagebot/partscout/internal/vendors"
	"github.com/garagebot/partscout/pkg/retailers"
)

// Config controls how the compare service behaves.
type Config struct {
	// TTL is the staleness window: a stored result younger than this is
	// returned verbatim instead of re-fetching.
	TTL time.Duration
}

// FromEnv reads PARTSCOUT_COMPARE_TTL (a Go duration, default 5m).
func FromEnv() Config {
	cfg := Config{TTL: 5 * time.Minute}
	if v := os.Getenv("PARTSCOUT_COMPARE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.TTL = d
		} else {
			log.Printf("compare: ignoring invalid PARTSCOUT_COMPARE_TTL=%q", v)
		}
	}
	return cfg
}

// Fetcher gathers offers from the retailer sources. Client is the real one.
type Fetcher interface {
	FetchAll(ctx context.Context, q retailers.Query) []retailers.Offer
}

// Service coordinates fetching, caching, and link rendering for comparisons.
type Service struct {
	cfg       Config
	client    Fetcher
	store     storage.Storage // may be nil; disables snapshot caching
	directory []vendors.VendorRecord
}

func NewService(cfg Config, directory []vendors.VendorRecord) *Service {
	return &Service{cfg: cfg, client: NewClient(), directory: directory}
}

// NewServiceWithStorage returns a Service that reads and writes offer
// snapshots through the given backend.
func NewServiceWithStorage(cfg Config, directory []vendors.VendorRecord, st storage.Storage) *Service {
	s := NewService(cfg, directory)
	s.store = st
	return s
}

// Compare returns the offers and directory links for a query. Within the
// staleness window identical queries get the identical stored result; after
// it expires the sources are fetched again and the snapshot replaced.
func (s *Service) Compare(ctx context.Context, q retailers.Query) (*Result, error) {
	key := q.Key()

	if s.store != nil {
		snap, err := s.store.GetOfferSnapshot(ctx, key)
		if err == nil && snap != nil && len(snap.Payload) > 0 && time.Since(snap.FetchedAt) < s.cfg.TTL {
			var res Result
			if err := json.Unmarshal(snap.Payload, &res); err == nil {
				metrics.CompareCacheTotal.WithLabelValues("hit").Inc()
				return &res, nil
			}
			// Corrupt payload: fall through and re-fetch.
		}
	}
	metrics.CompareCacheTotal.WithLabelValues("miss").Inc()

	offers := s.client.FetchAll(ctx, q)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	SortOffers(offers)

	res := &Result{
		Query:         q.FullText(),
		Vehicle:       vehicleLabel(q),
		Products:      offers,
		RetailerLinks: s.links(q),
		Timestamp:     time.Now().UTC(),
	}

	// Best-effort write-back.
	if s.store != nil {
		if payload, err := json.Marshal(res); err == nil {
			if err := s.store.SaveOfferSnapshot(ctx, storage.OfferSnapshot{
				QueryKey:  key,
				Payload:   payload,
				FetchedAt: res.Timestamp,
			}); err != nil {
				log.Printf("compare: snapshot write-back failed: %v", err)
			}
		}
	}

	return res, nil
}

// SortOffers orders priced offers ascending by price ahead of unpriced link
// offers, keeping the incoming order among equals.
func SortOffers(offers []retailers.Offer) {
	sort.SliceStable(offers, func(i, j int) bool {
		pi, pj := offers[i].Price, offers[j].Price
		if pi != nil && pj != nil {
			return *pi < *pj
		}
		return pi != nil && pj == nil
	})
}

// links renders the directory's search URLs for the query, ranked the same
// way the vendor grid ranks them. A vendor whose template fails to render is
// skipped rather than failing the comparison.
func (s *Service) links(q retailers.Query) []RetailerLink {
	vctx := vendors.Context{
		Query:       q.FullText(),
		Year:        q.Year,
		Make:        q.Make,
		Model:       q.Model,
		Zip:         q.Zip,
		VehicleType: q.VehicleType,
	}
	ranked := vendors.Rank(vendors.Rankable(s.directory, vctx))

	out := make([]RetailerLink, 0, len(ranked))
	for _, v := range ranked {
		u, err := vendors.RenderSearchURL(v, vctx)
		if err != nil {
			log.Printf("compare: skipping vendor %s link: %v", v.ID, err)
			continue
		}
		out = append(out, RetailerLink{
			Name:        v.Name,
			Slug:        v.Slug,
			SearchURL:   u,
			Color:       v.LogoColor,
			IsAffiliate: vendors.IsAffiliate(v),
		})
	}
	return out
}

func vehicleLabel(q retailers.Query) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{q.Year, q.Make, q.Model} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
