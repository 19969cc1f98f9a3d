// Package offline serves the dashboard from a local JSONL dataset with no
// network at all. It implements the same gateway surface as the HTTP
// client and mirrors the service's filter, sort, and search semantics, so
// the UI cannot tell the two apart.
package offline

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/ptscope/ptscope/pkg/analytics"
	"github.com/ptscope/ptscope/pkg/api"
	"github.com/ptscope/ptscope/pkg/assistant"
	"github.com/ptscope/ptscope/pkg/model"
)

// Source answers gateway calls from an in-memory trial set.
type Source struct {
	trials    []model.Trial
	base      float64
	th        analytics.RiskThresholds
	responder assistant.Responder
}

var _ api.Gateway = (*Source)(nil)

// NewSource wraps a loaded dataset. The SHAP baseline is the dataset's
// mean PTS, so synthesized explanations stay centered on the portfolio.
func NewSource(trials []model.Trial) *Source {
	base := 50.0
	if len(trials) > 0 {
		sum := 0.0
		for _, t := range trials {
			sum += t.PTS
		}
		base = sum / float64(len(trials))
	}
	return &Source{
		trials:    trials,
		base:      base,
		th:        analytics.DefaultThresholds,
		responder: assistant.NewCanned(),
	}
}

// Len returns the dataset size.
func (s *Source) Len() int { return len(s.trials) }

// ListTrials implements api.Gateway against the local dataset.
func (s *Source) ListTrials(_ context.Context, query url.Values) ([]model.Trial, error) {
	return Apply(s.trials, query), nil
}

// Explanation implements api.Gateway; unknown IDs fail exactly like the
// remote service's 404.
func (s *Source) Explanation(_ context.Context, trialID string) (*model.SHAPExplanation, error) {
	for _, t := range s.trials {
		if t.ID == trialID {
			return Synthesize(t, s.base), nil
		}
	}
	return nil, &api.RequestError{StatusCode: http.StatusNotFound, Message: "trial not found"}
}

// Analytics implements api.Gateway.
func (s *Source) Analytics(_ context.Context) (*model.AnalyticsSnapshot, error) {
	return analytics.BuildSnapshot(s.trials, s.th), nil
}

// Chat implements api.Gateway via the canned responder.
func (s *Source) Chat(ctx context.Context, message string) (*model.ChatResponse, error) {
	return s.responder.Respond(ctx, message, s.trials)
}

// Apply runs the service-side query semantics over an in-memory list:
// exact selectors, case-insensitive search across ID, title, sponsor, and
// area, then sort. The input is never mutated.
func Apply(trials []model.Trial, query url.Values) []model.Trial {
	area := query.Get("filter[therapeuticArea]")
	status := query.Get("filter[status]")
	sponsor := query.Get("filter[sponsor]")
	search := strings.ToLower(query.Get("search"))

	out := make([]model.Trial, 0, len(trials))
	for _, t := range trials {
		if area != "" && !strings.EqualFold(t.TherapeuticArea, area) {
			continue
		}
		if status != "" && !strings.EqualFold(string(t.Status), status) {
			continue
		}
		if sponsor != "" && !strings.EqualFold(t.Sponsor, sponsor) {
			continue
		}
		if search != "" && !matchesSearch(t, search) {
			continue
		}
		out = append(out, t)
	}

	sortTrials(out, query.Get("sort"), query.Get("order"))
	return out
}

func matchesSearch(t model.Trial, q string) bool {
	for _, field := range []string{t.ID, t.Title, t.Sponsor, t.TherapeuticArea} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// sortTrials orders in place; unknown fields fall back to PTS and unknown
// directions to descending, matching the service defaults. Ties break by
// ID so repeated queries render identically.
func sortTrials(trials []model.Trial, field, order string) {
	asc := order == "asc"
	less := func(a, b model.Trial) bool { return a.PTS < b.PTS }
	switch field {
	case "enrollment":
		less = func(a, b model.Trial) bool { return a.Enrollment < b.Enrollment }
	case "duration":
		less = func(a, b model.Trial) bool { return a.DurationDays < b.DurationDays }
	case "sponsor":
		less = func(a, b model.Trial) bool { return a.Sponsor < b.Sponsor }
	}
	sort.SliceStable(trials, func(i, j int) bool {
		a, b := trials[i], trials[j]
		if less(a, b) != less(b, a) {
			if asc {
				return less(a, b)
			}
			return less(b, a)
		}
		return a.ID < b.ID
	})
}
