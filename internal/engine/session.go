package engine

import (
	"context"
	"log"
	"strconv"
	"sync"

	"github.com/garagebot/partscout/internal/compare"
	"github.com/garagebot/partscout/internal/progress"
	"github.com/garagebot/partscout/internal/search"
	"github.com/garagebot/partscout/internal/vendors"
	"github.com/garagebot/partscout/pkg/retailers"
)

// Comparer resolves a query to offers. Implemented by compare.Service.
type Comparer interface {
	Compare(ctx context.Context, q retailers.Query) (*compare.Result, error)
}

// Searcher provides advisory catalog hits. Implemented by search.Client.
type Searcher interface {
	SearchParts(ctx context.Context, query string, vehicle *search.Vehicle) []search.Part
}

// Session owns the derived state for one shopper's comparison screen. Each
// Submit supersedes the previous one: the old context is cancelled and any
// late resolution carrying a stale sequence is discarded, so the view can
// only ever reflect the most recent query.
type Session struct {
	comparer   Comparer
	searcher   Searcher
	directory  []vendors.VendorRecord
	visibleCap int
	progOpts   []progress.Option

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	machine *progress.Machine
	view    *View
	parts   []search.Part
}

func NewSession(comparer Comparer, searcher Searcher, directory []vendors.VendorRecord, visibleCap int, progOpts ...progress.Option) *Session {
	if visibleCap <= 0 {
		visibleCap = vendors.DefaultVisibleOthers
	}
	return &Session{
		comparer:   comparer,
		searcher:   searcher,
		directory:  directory,
		visibleCap: visibleCap,
		progOpts:   progOpts,
	}
}

// Submit starts resolving a new query and returns its sequence number. The
// previous in-flight query, if any, is cancelled and its progress indicator
// aborted.
func (s *Session) Submit(ctx context.Context, q retailers.Query, filters vendors.Filters) uint64 {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	if s.cancel != nil {
		s.cancel()
	}
	if s.machine != nil {
		s.machine.Abort()
	}
	qctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	machine := progress.NewMachine(s.progOpts...)
	s.machine = machine
	s.mu.Unlock()

	machine.Start()
	go s.resolve(qctx, seq, q, filters, machine)
	return seq
}

func (s *Session) resolve(ctx context.Context, seq uint64, q retailers.Query, filters vendors.Filters, machine *progress.Machine) {
	var (
		wg     sync.WaitGroup
		result *compare.Result
		parts  []search.Part
	)

	// The two calls are independent: one failing or lagging never cancels
	// the other.
	wg.Add(1)
	go func() {
		defer wg.Done()
		res, err := s.comparer.Compare(ctx, q)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("engine: compare failed for seq %d: %v", seq, err)
			}
			return
		}
		result = res
	}()

	if s.searcher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			parts = s.searcher.SearchParts(ctx, q.Text, vehicleOf(q))
		}()
	}
	wg.Wait()

	var offers []retailers.Offer
	if result != nil {
		offers = result.Products
	}
	view := Build(q, filters, offers, s.directory, s.visibleCap)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		// A newer query took over while we were fetching.
		return
	}
	s.view = &view
	s.parts = parts
	machine.Settle()
}

// View returns the most recent completed view, or nil before the first
// resolution.
func (s *Session) View() *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// CatalogParts returns the advisory catalog hits for the current view.
func (s *Session) CatalogParts() []search.Part {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parts
}

// Progress reports the current query's loading indicator.
func (s *Session) Progress() progress.Status {
	s.mu.Lock()
	machine := s.machine
	s.mu.Unlock()
	if machine == nil {
		return progress.Status{State: progress.StateIdle}
	}
	return machine.Status()
}

// Seq returns the sequence number of the most recent submission.
func (s *Session) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

func vehicleOf(q retailers.Query) *search.Vehicle {
	if q.Make == "" || q.Model == "" {
		return nil
	}
	v := &search.Vehicle{Make: q.Make, Model: q.Model}
	if year, err := strconv.Atoi(q.Year); err == nil {
		v.Year = year
	}
	return v
}
