// Package filter holds the explorer's query state: server-side selectors,
// text search, sort, pagination, and the client-side PTS range. The state is
// a plain value owned by whoever embeds it; there is no package-level state.
package filter

import (
	"fmt"
	"net/url"

	"github.com/ptscope/ptscope/pkg/model"
)

// SortField enumerates the server-supported sort keys.
type SortField string

const (
	SortPTS        SortField = "pts"
	SortEnrollment SortField = "enrollment"
	SortDuration   SortField = "duration"
	SortSponsor    SortField = "sponsor"
)

// IsValid returns true if the field is one of the supported sort keys.
func (f SortField) IsValid() bool {
	switch f {
	case SortPTS, SortEnrollment, SortDuration, SortSponsor:
		return true
	}
	return false
}

// Order is the sort direction sent to the server.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Toggle returns the opposite direction.
func (o Order) Toggle() Order {
	if o == Asc {
		return Desc
	}
	return Asc
}

// DefaultPageSize is the number of trials shown per page.
const DefaultPageSize = 20

// State is the complete query state of the trial explorer. Every selector
// change resets pagination to the first page; only SetPage moves within the
// current result set.
type State struct {
	TherapeuticArea string
	Status          string
	Sponsor         string
	Search          string

	// PTS range is applied client-side after the fetch.
	PTSMin float64
	PTSMax float64

	SortBy SortField
	Order  Order

	Page     int
	PageSize int
}

// New returns the default state: no selectors, full PTS range, first page,
// sorted by PTS descending.
func New() State {
	return State{
		PTSMin:   0,
		PTSMax:   100,
		SortBy:   SortPTS,
		Order:    Desc,
		Page:     1,
		PageSize: DefaultPageSize,
	}
}

// Clear resets every selector and the sort back to defaults.
func (s *State) Clear() {
	*s = New()
}

// SetArea selects a therapeutic area ("" clears the selector).
func (s *State) SetArea(area string) {
	s.TherapeuticArea = area
	s.Page = 1
}

// SetStatus selects a trial status ("" clears the selector).
func (s *State) SetStatus(status string) {
	s.Status = status
	s.Page = 1
}

// SetSponsor selects a sponsor ("" clears the selector).
func (s *State) SetSponsor(sponsor string) {
	s.Sponsor = sponsor
	s.Page = 1
}

// SetSearch replaces the free-text query.
func (s *State) SetSearch(q string) {
	s.Search = q
	s.Page = 1
}

// SetPTSRange sets the inclusive client-side PTS window. Bounds are clamped
// to [0,100] and swapped if inverted.
func (s *State) SetPTSRange(min, max float64) {
	if min > max {
		min, max = max, min
	}
	if min < 0 {
		min = 0
	}
	if max > 100 {
		max = 100
	}
	s.PTSMin, s.PTSMax = min, max
	s.Page = 1
}

// SetSort sets the sort field and direction. Unknown fields are ignored.
func (s *State) SetSort(field SortField, order Order) {
	if !field.IsValid() {
		return
	}
	s.SortBy = field
	s.Order = order
	s.Page = 1
}

// CycleSort toggles direction when re-sorting on the same field, otherwise
// switches to the new field descending.
func (s *State) CycleSort(field SortField) {
	if !field.IsValid() {
		return
	}
	if s.SortBy == field {
		s.Order = s.Order.Toggle()
	} else {
		s.SortBy = field
		s.Order = Desc
	}
	s.Page = 1
}

// SetPage moves within the current result set without touching selectors.
// Pages below 1 clamp to 1.
func (s *State) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.Page = page
}

// SetPageSize changes how many trials one page holds and returns to the
// first page.
func (s *State) SetPageSize(n int) {
	if n < 1 {
		n = DefaultPageSize
	}
	s.PageSize = n
	s.Page = 1
}

// Params encodes the server-side portion of the state as query parameters.
// The PTS range and pagination stay local and are never sent.
func (s State) Params() url.Values {
	v := url.Values{}
	v.Set("sort", string(s.SortBy))
	v.Set("order", string(s.Order))
	if s.TherapeuticArea != "" {
		v.Set("filter[therapeuticArea]", s.TherapeuticArea)
	}
	if s.Status != "" {
		v.Set("filter[status]", s.Status)
	}
	if s.Sponsor != "" {
		v.Set("filter[sponsor]", s.Sponsor)
	}
	if s.Search != "" {
		v.Set("search", s.Search)
	}
	return v
}

// Signature is a stable key for the server-side portion of the state. Two
// states with equal signatures fetch identical result sets.
func (s State) Signature() string {
	return s.Params().Encode()
}

// FullRange reports whether the PTS window spans [0,100], i.e. filters
// nothing.
func (s State) FullRange() bool {
	return s.PTSMin <= 0 && s.PTSMax >= 100
}

// ApplyPTSRange returns the trials whose PTS lies inside the inclusive
// window. A full-range window returns the input slice unchanged; a nil
// input stays nil.
func (s State) ApplyPTSRange(trials []model.Trial) []model.Trial {
	if trials == nil || s.FullRange() {
		return trials
	}
	out := make([]model.Trial, 0, len(trials))
	for _, t := range trials {
		if t.PTS >= s.PTSMin && t.PTS <= s.PTSMax {
			out = append(out, t)
		}
	}
	return out
}

// TotalPages returns how many pages n trials occupy, at least 1.
func (s State) TotalPages(n int) int {
	if s.PageSize <= 0 || n <= 0 {
		return 1
	}
	pages := (n + s.PageSize - 1) / s.PageSize
	if pages < 1 {
		pages = 1
	}
	return pages
}

// PageSlice returns the window of trials visible on the current page. A page
// past the end yields the last non-empty page rather than an empty view.
func (s State) PageSlice(trials []model.Trial) []model.Trial {
	if len(trials) == 0 {
		return trials
	}
	page := s.Page
	if last := s.TotalPages(len(trials)); page > last {
		page = last
	}
	start := (page - 1) * s.PageSize
	end := start + s.PageSize
	if end > len(trials) {
		end = len(trials)
	}
	return trials[start:end]
}

// Describe returns a short human-readable summary of the active selectors,
// used in the explorer status line.
func (s State) Describe() string {
	parts := ""
	add := func(label, val string) {
		if val == "" {
			return
		}
		if parts != "" {
			parts += ", "
		}
		parts += label + "=" + val
	}
	add("area", s.TherapeuticArea)
	add("status", s.Status)
	add("sponsor", s.Sponsor)
	add("search", s.Search)
	if !s.FullRange() {
		if parts != "" {
			parts += ", "
		}
		parts += fmt.Sprintf("pts=%.0f-%.0f", s.PTSMin, s.PTSMax)
	}
	if parts == "" {
		return "no filters"
	}
	return parts
}
