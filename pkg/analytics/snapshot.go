package analytics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ptscope/ptscope/pkg/model"
)

// RiskThresholds splits the PTS scale into risk bands. A trial is high risk
// below High and low risk at Low or above; everything between is medium.
type RiskThresholds struct {
	High float64
	Low  float64
}

// DefaultThresholds matches the bands the analytics service uses.
var DefaultThresholds = RiskThresholds{High: 40, Low: 70}

// Band returns "high", "medium", or "low" for a PTS score.
func (r RiskThresholds) Band(pts float64) string {
	switch {
	case pts < r.High:
		return "high"
	case pts >= r.Low:
		return "low"
	default:
		return "medium"
	}
}

// histogramEdges are the bucket boundaries of the PTS distribution. A score
// of exactly 100 lands in the last bucket.
var histogramEdges = [...]float64{0, 20, 40, 60, 80, 100}

// BuildSnapshot computes the aggregate snapshot locally from raw trials.
// The offline source and the mock service both use it, so local mode and
// the live API agree bucket for bucket.
func BuildSnapshot(trials []model.Trial, th RiskThresholds) *model.AnalyticsSnapshot {
	snap := &model.AnalyticsSnapshot{
		PTSDistribution:   make([]model.HistogramBucket, len(histogramEdges)-1),
		BySponsor:         []model.SponsorRollup{},
		ByTherapeuticArea: []model.AreaRollup{},
	}
	for i := range snap.PTSDistribution {
		snap.PTSDistribution[i].Range = fmt.Sprintf("%.0f-%.0f", histogramEdges[i], histogramEdges[i+1])
	}
	if len(trials) == 0 {
		return snap
	}

	scores := make([]float64, 0, len(trials))
	high, low := 0, 0
	for _, t := range trials {
		scores = append(scores, t.PTS)
		switch th.Band(t.PTS) {
		case "high":
			high++
		case "low":
			low++
		}
		for i := range snap.PTSDistribution {
			last := i == len(snap.PTSDistribution)-1
			if t.PTS >= histogramEdges[i] && (t.PTS < histogramEdges[i+1] || (last && t.PTS == histogramEdges[i+1])) {
				snap.PTSDistribution[i].Count++
				break
			}
		}
	}

	snap.Summary = model.Summary{
		TotalTrials:    len(trials),
		AveragePTS:     stat.Mean(scores, nil),
		HighRiskTrials: high,
		LowRiskTrials:  low,
	}

	type group struct {
		scores []float64
		wins   int
	}
	bySponsor := map[string]*group{}
	byArea := map[string]*group{}
	add := func(m map[string]*group, key string, t model.Trial) {
		if key == "" {
			return
		}
		g := m[key]
		if g == nil {
			g = &group{}
			m[key] = g
		}
		g.scores = append(g.scores, t.PTS)
		if t.PTS >= th.Low {
			g.wins++
		}
	}
	for _, t := range trials {
		add(bySponsor, t.Sponsor, t)
		add(byArea, t.TherapeuticArea, t)
	}

	for name, g := range bySponsor {
		snap.BySponsor = append(snap.BySponsor, model.SponsorRollup{
			Sponsor:     name,
			Trials:      len(g.scores),
			AvgPTS:      stat.Mean(g.scores, nil),
			SuccessRate: float64(g.wins) / float64(len(g.scores)),
		})
	}
	sort.SliceStable(snap.BySponsor, func(i, j int) bool {
		if snap.BySponsor[i].Trials != snap.BySponsor[j].Trials {
			return snap.BySponsor[i].Trials > snap.BySponsor[j].Trials
		}
		return snap.BySponsor[i].Sponsor < snap.BySponsor[j].Sponsor
	})

	for name, g := range byArea {
		snap.ByTherapeuticArea = append(snap.ByTherapeuticArea, model.AreaRollup{
			Area:   name,
			Trials: len(g.scores),
			AvgPTS: stat.Mean(g.scores, nil),
		})
	}
	sort.SliceStable(snap.ByTherapeuticArea, func(i, j int) bool {
		if snap.ByTherapeuticArea[i].Trials != snap.ByTherapeuticArea[j].Trials {
			return snap.ByTherapeuticArea[i].Trials > snap.ByTherapeuticArea[j].Trials
		}
		return snap.ByTherapeuticArea[i].Area < snap.ByTherapeuticArea[j].Area
	})

	return snap
}

// FactorCorrelation is the Pearson correlation between one design factor
// and the PTS score across a trial set.
type FactorCorrelation struct {
	Factor string  `json:"factor"`
	R      float64 `json:"r"`
}

// Correlations measures how enrollment, duration, and country count move
// with PTS. Degenerate inputs (under two trials, zero variance) yield 0.
func Correlations(trials []model.Trial) []FactorCorrelation {
	factors := []struct {
		name string
		get  func(model.Trial) float64
	}{
		{"enrollment", func(t model.Trial) float64 { return float64(t.Enrollment) }},
		{"durationDays", func(t model.Trial) float64 { return float64(t.DurationDays) }},
		{"countries", func(t model.Trial) float64 { return float64(t.Countries) }},
	}

	out := make([]FactorCorrelation, 0, len(factors))
	pts := make([]float64, len(trials))
	for i, t := range trials {
		pts[i] = t.PTS
	}
	for _, f := range factors {
		r := 0.0
		if len(trials) >= 2 {
			xs := make([]float64, len(trials))
			for i, t := range trials {
				xs[i] = f.get(t)
			}
			r = stat.Correlation(xs, pts, nil)
			if math.IsNaN(r) {
				r = 0
			}
		}
		out = append(out, FactorCorrelation{Factor: f.name, R: r})
	}
	return out
}
