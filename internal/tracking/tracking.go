// Package tracking records outbound affiliate clicks. Recording is strictly
// fire-and-forget: the shopper's navigation must never wait on, or fail
// because of, attribution bookkeeping.
package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/garagebot/partscout/internal/metrics"
	"github.com/garagebot/partscout/internal/storage"
)

// Event is one outbound click.
type Event struct {
	ID             string    `json:"id"`
	PartnerID      string    `json:"partnerId"`
	ProductName    string    `json:"productName,omitempty"`
	SearchQuery    string    `json:"searchQuery,omitempty"`
	SourceURL      string    `json:"sourceUrl,omitempty"`
	DestinationURL string    `json:"destinationUrl"`
	Context        string    `json:"context,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Config controls the tracker.
type Config struct {
	// WebhookURL, when set, receives a JSON POST per event.
	WebhookURL string
	// QueueSize bounds the in-flight buffer; events past it are dropped.
	QueueSize int
}

// FromEnv reads PARTSCOUT_TRACKING_WEBHOOK_URL.
func FromEnv() Config {
	return Config{
		WebhookURL: os.Getenv("PARTSCOUT_TRACKING_WEBHOOK_URL"),
		QueueSize:  256,
	}
}

// Tracker persists click events on a single background goroutine. Each event
// gets exactly one attempt at storage and one at the webhook; a failure is
// counted and forgotten.
type Tracker struct {
	cfg    Config
	store  storage.Storage // may be nil
	client *http.Client
	queue  chan Event
	done   chan struct{}
}

func NewTracker(cfg Config, st storage.Storage) *Tracker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	t := &Tracker{
		cfg:    cfg,
		store:  st,
		client: &http.Client{Timeout: 5 * time.Second},
		queue:  make(chan Event, cfg.QueueSize),
		done:   make(chan struct{}),
	}
	go t.run()
	return t
}

// Record enqueues the event and returns immediately. A full queue drops the
// event rather than blocking the caller.
func (t *Tracker) Record(ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	select {
	case t.queue <- ev:
	default:
		metrics.ClickEventsTotal.WithLabelValues("dropped").Inc()
	}
}

// Close stops the worker after draining whatever is already queued.
func (t *Tracker) Close() {
	close(t.queue)
	<-t.done
}

func (t *Tracker) run() {
	defer close(t.done)
	for ev := range t.queue {
		t.deliver(ev)
	}
}

func (t *Tracker) deliver(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if t.store != nil {
		err := t.store.SaveClickEvent(ctx, storage.ClickEvent{
			ID:             ev.ID,
			PartnerID:      ev.PartnerID,
			ProductName:    ev.ProductName,
			SearchQuery:    ev.SearchQuery,
			SourceURL:      ev.SourceURL,
			DestinationURL: ev.DestinationURL,
			ClickContext:   ev.Context,
			CreatedAt:      ev.CreatedAt,
		})
		if err != nil {
			log.Printf("tracking: persist failed for %s: %v", ev.ID, err)
			metrics.ClickEventsTotal.WithLabelValues("store_error").Inc()
		} else {
			metrics.ClickEventsTotal.WithLabelValues("stored").Inc()
		}
	}

	if t.cfg.WebhookURL == "" {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		log.Printf("tracking: webhook post failed for %s: %v", ev.ID, err)
		metrics.ClickEventsTotal.WithLabelValues("webhook_error").Inc()
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		metrics.ClickEventsTotal.WithLabelValues("webhook_error").Inc()
		return
	}
	metrics.ClickEventsTotal.WithLabelValues("webhook_ok").Inc()
}
