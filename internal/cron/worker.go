package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/garagebot/partscout/internal/alerting"
	"github.com/garagebot/partscout/internal/compare"
	"github.com/garagebot/partscout/internal/metrics"
	"github.com/garagebot/partscout/internal/notification"
	"github.com/garagebot/partscout/internal/storage"
	"github.com/garagebot/partscout/internal/vendors"
)

const (
	jobName         = "partscout_maintenance"
	lockKey   int64 = 420031
	settingKey      = "worker_interval"
)

// Run starts the maintenance worker: it sweeps expired offer snapshots,
// re-runs price watches, and probes retailer sources. A Postgres advisory
// lock keeps multi-replica deployments down to one active worker per job.
func Run(ctx context.Context, driver, dsn string) error {
	directory := vendors.MustLoad()
	st, err := storage.Open(ctx, storage.Config{
		Driver:  driver,
		DSN:     dsn,
		Vendors: MirrorVendors(directory),
	})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer st.Close()

	locker, ok := st.(storage.Locker)
	if !ok {
		return fmt.Errorf("storage driver %q does not support job locking", driver)
	}

	jobs := &Jobs{
		Store:    st,
		Compare:  compare.NewServiceWithStorage(compare.FromEnv(), directory, st),
		Notifier: notification.NewService(st),
		Alerter:  alerting.NewAlerter(alerting.DefaultAlertConfig()),
	}

	// Interval can be integer seconds or a cron expression. Env default,
	// DB setting override.
	intervalSetting := "300"
	if raw := os.Getenv("PARTSCOUT_WORKER_INTERVAL"); raw != "" {
		intervalSetting = raw
	}
	if val, err := st.GetSetting(ctx, settingKey); err == nil && val != "" {
		intervalSetting = val
	}

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	getNextRun := func(setting string, lastRun time.Time) time.Time {
		if v, err := strconv.Atoi(setting); err == nil && v > 0 {
			return lastRun.Add(time.Duration(v) * time.Second)
		}
		if sched, err := cron.ParseStandard(setting); err == nil {
			return sched.Next(lastRun)
		}
		return lastRun.Add(5 * time.Minute)
	}

	nextRun := time.Now()
	log.Printf("worker starting, initial setting=%q driver=%s", intervalSetting, driver)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if val, err := st.GetSetting(ctx, settingKey); err == nil && val != "" && val != intervalSetting {
				log.Printf("worker: interval updated from %q to %q", intervalSetting, val)
				intervalSetting = val
				nextRun = getNextRun(intervalSetting, time.Now())
			}

			if time.Now().Before(nextRun) {
				continue
			}

			started := time.Now()

			ok, err := locker.AcquireAdvisoryLock(ctx, lockKey)
			if err != nil {
				log.Printf("worker: acquire advisory lock failed: %v", err)
				metrics.UpdateJobMetrics(jobName, started, err)
				nextRun = getNextRun(intervalSetting, time.Now())
				continue
			}
			if !ok {
				log.Printf("worker: advisory lock held by another worker, skipping run")
				nextRun = getNextRun(intervalSetting, time.Now())
				continue
			}

			var runErr error
			func() {
				defer func() {
					if _, err := locker.ReleaseAdvisoryLock(ctx, lockKey); err != nil {
						log.Printf("worker: release advisory lock failed: %v", err)
					}
				}()
				runErr = jobs.RunAll(ctx)
			}()

			metrics.UpdateJobMetrics(jobName, started, runErr)
			dur := time.Since(started)
			errMsg := ""
			if runErr != nil {
				errMsg = runErr.Error()
			}
			if err := locker.UpdateScheduledJob(ctx, jobName, started, dur, runErr == nil, errMsg); err != nil {
				log.Printf("worker: update scheduled_jobs failed: %v", err)
			}

			if runErr != nil {
				log.Printf("worker: job %s completed with error: %v (duration=%s)", jobName, runErr, dur)
			} else {
				log.Printf("worker: job %s completed successfully (duration=%s)", jobName, dur)
			}

			nextRun = getNextRun(intervalSetting, time.Now())
		}
	}
}

// MirrorVendors converts directory records into their storage mirror rows.
func MirrorVendors(list []vendors.VendorRecord) []storage.Vendor {
	out := make([]storage.Vendor, 0, len(list))
	for _, v := range list {
		cats, err := json.Marshal(v.Categories)
		if err != nil {
			cats = []byte("[]")
		}
		out = append(out, storage.Vendor{
			ID:                  v.ID,
			Name:                v.Name,
			Slug:                v.Slug,
			Categories:          string(cats),
			HasLocalPickup:      v.HasLocalPickup,
			SupportsOEM:         v.SupportsOEM,
			SupportsAftermarket: v.SupportsAftermarket,
			AffiliateNetwork:    v.AffiliateNetwork,
			Priority:            v.Priority,
			URLTemplate:         v.URLTemplate,
			LogoColor:           v.LogoColor,
		})
	}
	return out
}
