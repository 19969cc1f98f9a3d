// Package store owns the trial list shown in the explorer: the filter
// state, the fetch lifecycle, and the client-side PTS range view. Fetches
// carry a monotonic sequence number; only the result matching the latest
// issued request commits, so overlapping requests can never publish stale
// data.
package store

import (
	"net/url"

	"github.com/ptscope/ptscope/pkg/filter"
	"github.com/ptscope/ptscope/pkg/model"
)

// Phase is the fetch lifecycle of the trial list.
type Phase int

const (
	// PhaseLoading means a request is in flight (including the initial one).
	PhaseLoading Phase = iota
	// PhaseReady means the last committed fetch succeeded.
	PhaseReady
	// PhaseError means the last committed fetch failed; the UI shows a
	// blocking panel with a retry action.
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Store is single-owner state: all methods must be called from the owning
// event loop.
type Store struct {
	Filter filter.State

	seq    uint64
	phase  Phase
	err    error
	trials []model.Trial
}

// New returns a store with default filters, waiting for its first fetch.
func New() *Store {
	return &Store{
		Filter: filter.New(),
		phase:  PhaseLoading,
	}
}

// Begin starts a new fetch: the sequence advances, the phase moves to
// loading, and the caller gets the token plus the query parameters frozen
// at this instant. Filter changes after Begin do not affect the in-flight
// request.
func (s *Store) Begin() (uint64, url.Values) {
	s.seq++
	s.phase = PhaseLoading
	s.err = nil
	return s.seq, s.Filter.Params()
}

// Commit publishes a fetch result. A result whose token no longer matches
// the latest Begin is dropped entirely; neither data nor error state moves.
// Returns true when the result was committed.
func (s *Store) Commit(seq uint64, trials []model.Trial, err error) bool {
	if seq != s.seq {
		return false
	}
	if err != nil {
		s.phase = PhaseError
		s.err = err
		return true
	}
	s.trials = trials
	s.phase = PhaseReady
	s.err = nil
	return true
}

// Seq returns the latest issued request token.
func (s *Store) Seq() uint64 { return s.seq }

// Phase returns the current fetch lifecycle state.
func (s *Store) Phase() Phase { return s.phase }

// Err returns the committed fetch error, nil outside PhaseError.
func (s *Store) Err() error { return s.err }

// Raw returns the trial list exactly as the server sent it.
func (s *Store) Raw() []model.Trial { return s.trials }

// Filtered returns the server list with the client-side PTS range applied.
func (s *Store) Filtered() []model.Trial {
	return s.Filter.ApplyPTSRange(s.trials)
}

// Page returns the slice of Filtered visible on the current page.
func (s *Store) Page() []model.Trial {
	return s.Filter.PageSlice(s.Filtered())
}

// Total returns how many trials survive the PTS range filter.
func (s *Store) Total() int { return len(s.Filtered()) }

// TotalPages returns the page count of the filtered list.
func (s *Store) TotalPages() int {
	return s.Filter.TotalPages(s.Total())
}
