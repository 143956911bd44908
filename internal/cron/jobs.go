package cron

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/garagebot/partscout/internal/alerting"
	"github.com/garagebot/partscout/internal/compare"
	"github.com/garagebot/partscout/internal/notification"
	"github.com/garagebot/partscout/internal/storage"
	"github.com/garagebot/partscout/pkg/retailers"
)

// Jobs bundles the maintenance tasks the worker runs each interval.
type Jobs struct {
	Store    storage.Storage
	Compare  *compare.Service
	Notifier *notification.Service
	Alerter  *alerting.Alerter
}

// RunAll executes every job in sequence, returning the first error while
// still running the rest.
func (j *Jobs) RunAll(ctx context.Context) error {
	var firstErr error
	record := func(name string, err error) {
		if err != nil {
			log.Printf("worker: job %s failed: %v", name, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	record("sweep_snapshots", j.SweepSnapshots(ctx))
	record("price_watches", j.EvaluatePriceWatches(ctx))
	record("probe_sources", j.ProbeSources(ctx))
	return firstErr
}

// SweepSnapshots deletes offer snapshots past their retention period
// (PARTSCOUT_SNAPSHOT_RETENTION, default 24h).
func (j *Jobs) SweepSnapshots(ctx context.Context) error {
	retention := 24 * time.Hour
	if v := os.Getenv("PARTSCOUT_SNAPSHOT_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			retention = d
		}
	}
	n, err := j.Store.DeleteOfferSnapshotsBefore(ctx, time.Now().Add(-retention))
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("worker: swept %d expired offer snapshots", n)
	}
	return nil
}

// EvaluatePriceWatches re-runs each saved watch and emails the owner when
// the lowest priced offer falls below the threshold. A watch is notified at
// most once per 24h.
func (j *Jobs) EvaluatePriceWatches(ctx context.Context) error {
	watches, err := j.Store.ListPriceWatches(ctx)
	if err != nil {
		return err
	}

	var firstErr error
	for _, w := range watches {
		if w.LastNotifiedAt != nil && time.Since(*w.LastNotifiedAt) < 24*time.Hour {
			continue
		}

		q := retailers.Query{
			Text:        w.QueryText,
			Year:        w.Year,
			Make:        w.Make,
			Model:       w.Model,
			VehicleType: w.VehicleType,
			Zip:         w.Zip,
		}
		res, err := j.Compare.Compare(ctx, q)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		best, ok := lowestPriced(res.Products)
		if !ok || *best.Price >= w.ThresholdUSD {
			continue
		}

		if err := j.Notifier.SendPriceDropAlert(ctx, w, best.Retailer, *best.Price, best.Destination()); err != nil {
			log.Printf("worker: price drop email for watch %s failed: %v", w.ID, err)
			continue
		}
		if err := j.Store.MarkPriceWatchNotified(ctx, w.ID, time.Now().UTC()); err != nil {
			log.Printf("worker: mark watch %s notified failed: %v", w.ID, err)
		}
	}
	return firstErr
}

// probeQuery is a cheap part every retailer stocks, used purely to verify
// the source answers at all.
const probeQuery = "oil filter"

// ProbeSources fetches a canonical query from each live retailer source and
// alerts when any of them keep failing.
func (j *Jobs) ProbeSources(ctx context.Context) error {
	started := time.Now()
	var (
		total    int
		failures []alerting.SourceFailure
	)

	for _, r := range retailers.All() {
		if r.Kind() != retailers.KindLive {
			continue
		}
		total++
		q := retailers.Query{Text: probeQuery}
		_, err := r.Fetch(ctx, q)
		attempts := 1
		if err != nil {
			attempts = 2
			_, err = r.Fetch(ctx, q)
		}
		if err != nil {
			failures = append(failures, alerting.SourceFailure{
				Retailer: r.Slug(),
				Error:    err.Error(),
				Attempts: attempts,
			})
		}
	}

	if len(failures) == 0 {
		return nil
	}
	return j.Alerter.SendSourceAlert(ctx, alerting.SourceAlert{
		JobName:       "probe_sources",
		TotalCount:    total,
		SuccessCount:  total - len(failures),
		FailedCount:   len(failures),
		Duration:      time.Since(started),
		FailedDetails: failures,
		Timestamp:     time.Now().UTC(),
	})
}

func lowestPriced(offers []retailers.Offer) (retailers.Offer, bool) {
	var best retailers.Offer
	found := false
	for _, o := range offers {
		if !o.Priced() {
			continue
		}
		if !found || *o.Price < *best.Price {
			best = o
			found = true
		}
	}
	return best, found
}
