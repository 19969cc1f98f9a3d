package offline

import (
	"sort"

	"github.com/ptscope/ptscope/pkg/model"
)

// Feature names used by synthesized explanations. The residual bucket
// absorbs whatever the design heuristics cannot account for, keeping the
// additivity identity exact.
const (
	featEnrollment = "enrollment"
	featDuration   = "durationDays"
	featCountries  = "countries"
	featEndpoints  = "endpointDesign"
	featStatus     = "trialStatus"
	featResidual   = "priorEvidence"
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Synthesize builds a deterministic additive explanation for one trial:
// heuristic contributions from the design fields, plus a residual term so
// base + sum(contributions) == predicted PTS exactly. The same trial and
// baseline always yield the same explanation.
func Synthesize(t model.Trial, base float64) *model.SHAPExplanation {
	feats := []model.SHAPFeature{
		{Name: featEnrollment, Contribution: clamp((float64(t.Enrollment)-300)/300*6, -8, 8)},
		{Name: featDuration, Contribution: clamp((540-float64(t.DurationDays))/540*4, -6, 6)},
		{Name: featCountries, Contribution: clamp((float64(t.Countries)-5)/5*3, -5, 5)},
		{Name: featEndpoints, Contribution: endpointScore(t.Endpoints)},
		{Name: featStatus, Contribution: statusScore(t.Status)},
	}

	sum := 0.0
	for _, f := range feats {
		sum += f.Contribution
	}
	feats = append(feats, model.SHAPFeature{
		Name:         featResidual,
		Contribution: t.PTS - base - sum,
	})

	// Largest absolute contribution first, the order force plots expect.
	sort.SliceStable(feats, func(i, j int) bool {
		ai, aj := feats[i].Contribution, feats[j].Contribution
		if ai < 0 {
			ai = -ai
		}
		if aj < 0 {
			aj = -aj
		}
		return ai > aj
	})

	return &model.SHAPExplanation{
		TrialID:      t.ID,
		BaseValue:    base,
		PredictedPTS: t.PTS,
		Features:     feats,
	}
}

func endpointScore(e model.Endpoints) float64 {
	if !e.OS && !e.PFS && !e.ORR {
		return -1.5
	}
	score := 0.0
	if e.OS {
		score += 2.5
	}
	if e.PFS {
		score += 1.5
	}
	if e.ORR {
		score += 1.0
	}
	return score
}

func statusScore(s model.Status) float64 {
	switch s {
	case model.StatusTerminated:
		return -4
	case model.StatusCompleted:
		return 2
	case model.StatusActive:
		return 1
	default:
		return 0
	}
}
