package engine

import (
	"context"
	"testing"
	"time"

	"github.com/garagebot/partscout/internal/compare"
	"github.com/garagebot/partscout/internal/progress"
	"github.com/garagebot/partscout/internal/vendors"
	"github.com/garagebot/partscout/pkg/retailers"
)

// blockingComparer serves each query after a per-query delay, tagging the
// result so tests can see which query produced the final view.
type blockingComparer struct {
	delays map[string]time.Duration
}

func (c *blockingComparer) Compare(ctx context.Context, q retailers.Query) (*compare.Result, error) {
	d := c.delays[q.Text]
	select {
	case <-time.After(d):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	price := 10.0
	return &compare.Result{
		Query:    q.Text,
		Products: []retailers.Offer{{ID: q.Text, Name: q.Text, Price: &price}},
	}, nil
}

func fastProgress() []progress.Option {
	return []progress.Option{
		progress.WithStep(5 * time.Millisecond),
		progress.WithFloor(10 * time.Millisecond),
	}
}

func waitForView(t *testing.T, s *Session, timeout time.Duration) *View {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if v := s.View(); v != nil {
			return v
		}
		time.Sleep(5 * time.Millisecond)
	}
	return s.View()
}

func TestSession_LastQueryWins(t *testing.T) {
	cmp := &blockingComparer{delays: map[string]time.Duration{
		"slow": 150 * time.Millisecond,
		"fast": 10 * time.Millisecond,
	}}
	s := NewSession(cmp, nil, directory(), 0, fastProgress()...)

	s.Submit(context.Background(), retailers.Query{Text: "slow"}, vendors.Filters{})
	s.Submit(context.Background(), retailers.Query{Text: "fast"}, vendors.Filters{})

	view := waitForView(t, s, time.Second)
	if view == nil {
		t.Fatalf("no view resolved")
	}
	if view.Query != "fast" {
		t.Fatalf("view belongs to %q, want the latest query", view.Query)
	}

	// Give the slow resolution time to (wrongly) land, then re-check.
	time.Sleep(250 * time.Millisecond)
	if got := s.View().Query; got != "fast" {
		t.Fatalf("stale resolution overwrote the view: %q", got)
	}
}

func TestSession_SequenceIncreases(t *testing.T) {
	cmp := &blockingComparer{delays: map[string]time.Duration{}}
	s := NewSession(cmp, nil, directory(), 0, fastProgress()...)

	a := s.Submit(context.Background(), retailers.Query{Text: "one"}, vendors.Filters{})
	b := s.Submit(context.Background(), retailers.Query{Text: "two"}, vendors.Filters{})
	if b <= a {
		t.Fatalf("sequence must increase: %d then %d", a, b)
	}
	if s.Seq() != b {
		t.Fatalf("Seq() = %d, want %d", s.Seq(), b)
	}
}

func TestSession_ViewNilBeforeFirstResolution(t *testing.T) {
	s := NewSession(&blockingComparer{delays: map[string]time.Duration{}}, nil, directory(), 0, fastProgress()...)
	if s.View() != nil {
		t.Fatalf("expected nil view before any submit")
	}
	if st := s.Progress(); st.State != progress.StateIdle {
		t.Fatalf("expected idle progress before any submit, got %v", st.State)
	}
}
