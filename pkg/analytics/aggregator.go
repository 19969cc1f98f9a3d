// Package analytics derives dashboard views from the aggregate snapshot:
// headline metrics, the PTS histogram, sponsor and area rollups. Derived
// views are memoized against a content hash of the snapshot so repeated
// renders never recompute.
package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"

	"github.com/ptscope/ptscope/pkg/model"
)

// Metrics is the headline row of the overview tab. MediumRisk is always
// derived, never stored: total minus high minus low.
type Metrics struct {
	TotalTrials int
	AveragePTS  float64
	HighRisk    int
	MediumRisk  int
	LowRisk     int
}

// Aggregator owns one analytics snapshot and memoizes everything derived
// from it. Thread-safe for concurrent access.
type Aggregator struct {
	mu   sync.RWMutex
	snap *model.AnalyticsSnapshot
	hash string

	// lazily computed, reset when the snapshot hash changes
	metrics  *Metrics
	sponsors []model.SponsorRollup
	areas    []model.AreaRollup
}

// NewAggregator returns an empty aggregator; views yield zero values until
// Set is called.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// snapshotHash is a deterministic content key; identical snapshots keep the
// memoized views alive across refetches.
func snapshotHash(snap *model.AnalyticsSnapshot) string {
	if snap == nil {
		return "empty"
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return "unhashable"
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])[:16]
}

// Set replaces the snapshot. Memoized views are invalidated only when the
// content actually changed.
func (a *Aggregator) Set(snap *model.AnalyticsSnapshot) {
	hash := snapshotHash(snap)

	a.mu.Lock()
	defer a.mu.Unlock()
	if hash == a.hash && a.snap != nil {
		return
	}
	a.snap = snap
	a.hash = hash
	a.metrics = nil
	a.sponsors = nil
	a.areas = nil
}

// Ready reports whether a snapshot has been loaded.
func (a *Aggregator) Ready() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snap != nil
}

// Hash returns the current content hash, or "empty" before the first Set.
func (a *Aggregator) Hash() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.hash == "" {
		return "empty"
	}
	return a.hash
}

// Metrics returns the headline numbers. With no snapshot loaded every field
// is zero.
func (a *Aggregator) Metrics() Metrics {
	a.mu.RLock()
	if a.metrics != nil {
		m := *a.metrics
		a.mu.RUnlock()
		return m
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.metrics == nil {
		m := Metrics{}
		if a.snap != nil {
			s := a.snap.Summary
			m = Metrics{
				TotalTrials: s.TotalTrials,
				AveragePTS:  s.AveragePTS,
				HighRisk:    s.HighRiskTrials,
				MediumRisk:  s.TotalTrials - s.HighRiskTrials - s.LowRiskTrials,
				LowRisk:     s.LowRiskTrials,
			}
		}
		a.metrics = &m
	}
	return *a.metrics
}

// Histogram returns the PTS distribution exactly as the server sent it.
func (a *Aggregator) Histogram() []model.HistogramBucket {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.snap == nil {
		return nil
	}
	return a.snap.PTSDistribution
}

// MaxBucket returns the largest bucket count, used to scale histogram bars.
func (a *Aggregator) MaxBucket() int {
	max := 0
	for _, b := range a.Histogram() {
		if b.Count > max {
			max = b.Count
		}
	}
	return max
}

// sortedSponsors memoizes the sponsor rollups ordered by trial count
// descending, ties broken by name for stable rendering.
func (a *Aggregator) sortedSponsors() []model.SponsorRollup {
	a.mu.RLock()
	if a.sponsors != nil {
		s := a.sponsors
		a.mu.RUnlock()
		return s
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sponsors == nil {
		if a.snap == nil {
			a.sponsors = []model.SponsorRollup{}
		} else {
			s := append([]model.SponsorRollup(nil), a.snap.BySponsor...)
			sort.SliceStable(s, func(i, j int) bool {
				if s[i].Trials != s[j].Trials {
					return s[i].Trials > s[j].Trials
				}
				return s[i].Sponsor < s[j].Sponsor
			})
			a.sponsors = s
		}
	}
	return a.sponsors
}

// TopSponsors returns the n sponsors with the most trials.
func (a *Aggregator) TopSponsors(n int) []model.SponsorRollup {
	s := a.sortedSponsors()
	if n < 0 {
		n = 0
	}
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

// SponsorTable returns every sponsor rollup, most active first.
func (a *Aggregator) SponsorTable() []model.SponsorRollup {
	return a.sortedSponsors()
}

// Areas returns all therapeutic areas ordered by trial count descending.
func (a *Aggregator) Areas() []model.AreaRollup {
	a.mu.RLock()
	if a.areas != nil {
		s := a.areas
		a.mu.RUnlock()
		return s
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.areas == nil {
		if a.snap == nil {
			a.areas = []model.AreaRollup{}
		} else {
			s := append([]model.AreaRollup(nil), a.snap.ByTherapeuticArea...)
			sort.SliceStable(s, func(i, j int) bool {
				if s[i].Trials != s[j].Trials {
					return s[i].Trials > s[j].Trials
				}
				return s[i].Area < s[j].Area
			})
			a.areas = s
		}
	}
	return a.areas
}
