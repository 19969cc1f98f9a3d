package analytics

import (
	"math"
	"testing"

	"github.com/ptscope/ptscope/pkg/model"
)

func snapshotFixture() *model.AnalyticsSnapshot {
	return &model.AnalyticsSnapshot{
		Summary: model.Summary{
			TotalTrials:    100,
			AveragePTS:     55.55,
			HighRiskTrials: 30,
			LowRiskTrials:  40,
		},
		PTSDistribution: []model.HistogramBucket{
			{Range: "0-20", Count: 5},
			{Range: "20-40", Count: 25},
			{Range: "40-60", Count: 30},
			{Range: "60-80", Count: 25},
			{Range: "80-100", Count: 15},
		},
		BySponsor: []model.SponsorRollup{
			{Sponsor: "Biomed", Trials: 10, AvgPTS: 48.2, SuccessRate: 0.3},
			{Sponsor: "Novarex", Trials: 25, AvgPTS: 61.7, SuccessRate: 0.52},
			{Sponsor: "Genodyne", Trials: 25, AvgPTS: 55.0, SuccessRate: 0.44},
		},
		ByTherapeuticArea: []model.AreaRollup{
			{Area: "Cardiology", Trials: 20, AvgPTS: 58.1},
			{Area: "Oncology", Trials: 50, AvgPTS: 49.9},
		},
	}
}

func TestAggregator_Metrics(t *testing.T) {
	a := NewAggregator()
	a.Set(snapshotFixture())

	m := a.Metrics()
	if m.HighRisk != 30 || m.MediumRisk != 30 || m.LowRisk != 40 {
		t.Errorf("risk split = %d/%d/%d, want 30/30/40", m.HighRisk, m.MediumRisk, m.LowRisk)
	}
	if m.TotalTrials != 100 {
		t.Errorf("TotalTrials = %d, want 100", m.TotalTrials)
	}
	if got := FormatScore(m.AveragePTS); got != "55.6" {
		t.Errorf("FormatScore(AveragePTS) = %q, want %q", got, "55.6")
	}
}

func TestAggregator_EmptyMetrics(t *testing.T) {
	a := NewAggregator()
	if a.Ready() {
		t.Errorf("Ready() = true before Set")
	}
	m := a.Metrics()
	if m != (Metrics{}) {
		t.Errorf("empty aggregator metrics = %+v, want zero value", m)
	}
	if a.Histogram() != nil {
		t.Errorf("empty aggregator histogram should be nil")
	}
	if got := a.TopSponsors(8); len(got) != 0 {
		t.Errorf("empty aggregator sponsors = %v", got)
	}
}

func TestAggregator_MemoInvalidation(t *testing.T) {
	a := NewAggregator()
	a.Set(snapshotFixture())
	h1 := a.Hash()

	// Same content under a fresh pointer must not invalidate.
	a.Set(snapshotFixture())
	if a.Hash() != h1 {
		t.Errorf("identical snapshot changed the hash")
	}

	changed := snapshotFixture()
	changed.Summary.TotalTrials = 101
	a.Set(changed)
	if a.Hash() == h1 {
		t.Errorf("changed snapshot kept the stale hash")
	}
	if got := a.Metrics().TotalTrials; got != 101 {
		t.Errorf("Metrics().TotalTrials = %d, want refreshed 101", got)
	}
}

func TestAggregator_TopSponsors(t *testing.T) {
	a := NewAggregator()
	a.Set(snapshotFixture())

	top := a.TopSponsors(2)
	if len(top) != 2 {
		t.Fatalf("TopSponsors(2) len = %d", len(top))
	}
	// 25-trial tie breaks alphabetically; Biomed's 10 comes last.
	if top[0].Sponsor != "Genodyne" || top[1].Sponsor != "Novarex" {
		t.Errorf("order = %s, %s; want Genodyne, Novarex", top[0].Sponsor, top[1].Sponsor)
	}

	if got := a.TopSponsors(50); len(got) != 3 {
		t.Errorf("TopSponsors over length = %d, want 3", len(got))
	}
	if got := a.TopSponsors(-1); len(got) != 0 {
		t.Errorf("TopSponsors(-1) = %v, want empty", got)
	}

	table := a.SponsorTable()
	if len(table) != 3 || table[2].Sponsor != "Biomed" {
		t.Errorf("SponsorTable tail = %+v", table)
	}
}

func TestAggregator_Areas(t *testing.T) {
	a := NewAggregator()
	a.Set(snapshotFixture())
	areas := a.Areas()
	if len(areas) != 2 || areas[0].Area != "Oncology" {
		t.Errorf("Areas() = %+v, want Oncology first", areas)
	}
}

func TestAggregator_Histogram(t *testing.T) {
	a := NewAggregator()
	a.Set(snapshotFixture())
	h := a.Histogram()
	if len(h) != 5 || h[2].Count != 30 {
		t.Errorf("Histogram() = %+v", h)
	}
	if got := a.MaxBucket(); got != 30 {
		t.Errorf("MaxBucket() = %d, want 30", got)
	}
}

func TestRiskThresholds_Band(t *testing.T) {
	tests := []struct {
		pts  float64
		want string
	}{
		{0, "high"},
		{39.99, "high"},
		{40, "medium"},
		{69.99, "medium"},
		{70, "low"},
		{100, "low"},
	}
	for _, tt := range tests {
		if got := DefaultThresholds.Band(tt.pts); got != tt.want {
			t.Errorf("Band(%v) = %q, want %q", tt.pts, got, tt.want)
		}
	}
}

func TestBuildSnapshot(t *testing.T) {
	trials := []model.Trial{
		{ID: "A", Sponsor: "Novarex", TherapeuticArea: "Oncology", PTS: 85},
		{ID: "B", Sponsor: "Novarex", TherapeuticArea: "Oncology", PTS: 35},
		{ID: "C", Sponsor: "Biomed", TherapeuticArea: "Cardiology", PTS: 55},
		{ID: "D", Sponsor: "Biomed", TherapeuticArea: "Oncology", PTS: 100},
	}
	snap := BuildSnapshot(trials, DefaultThresholds)

	s := snap.Summary
	if s.TotalTrials != 4 || s.HighRiskTrials != 1 || s.LowRiskTrials != 2 {
		t.Errorf("summary = %+v", s)
	}
	if math.Abs(s.AveragePTS-68.75) > 1e-9 {
		t.Errorf("AveragePTS = %v, want 68.75", s.AveragePTS)
	}

	// 100 belongs to the last bucket, not off the end.
	counts := map[string]int{}
	for _, b := range snap.PTSDistribution {
		counts[b.Range] = b.Count
	}
	if counts["20-40"] != 1 || counts["40-60"] != 1 || counts["80-100"] != 2 {
		t.Errorf("buckets = %v", counts)
	}

	if len(snap.BySponsor) != 2 {
		t.Fatalf("BySponsor = %+v", snap.BySponsor)
	}
	// Both sponsors have 2 trials; alphabetical tie-break puts Biomed first.
	if snap.BySponsor[0].Sponsor != "Biomed" {
		t.Errorf("sponsor order = %+v", snap.BySponsor)
	}
	for _, r := range snap.BySponsor {
		if math.Abs(r.SuccessRate-0.5) > 1e-9 {
			t.Errorf("%s SuccessRate = %v, want 0.5", r.Sponsor, r.SuccessRate)
		}
	}

	if len(snap.ByTherapeuticArea) != 2 || snap.ByTherapeuticArea[0].Area != "Oncology" {
		t.Errorf("areas = %+v", snap.ByTherapeuticArea)
	}
}

func TestBuildSnapshot_Empty(t *testing.T) {
	snap := BuildSnapshot(nil, DefaultThresholds)
	if snap.Summary.TotalTrials != 0 {
		t.Errorf("empty summary = %+v", snap.Summary)
	}
	if len(snap.PTSDistribution) != 5 {
		t.Errorf("empty snapshot should still carry labelled buckets: %+v", snap.PTSDistribution)
	}
}

func TestCorrelations(t *testing.T) {
	// Enrollment rises linearly with PTS; duration is flat.
	trials := []model.Trial{
		{ID: "A", PTS: 10, Enrollment: 100, DurationDays: 365, Countries: 3},
		{ID: "B", PTS: 30, Enrollment: 200, DurationDays: 365, Countries: 1},
		{ID: "C", PTS: 50, Enrollment: 300, DurationDays: 365, Countries: 9},
		{ID: "D", PTS: 70, Enrollment: 400, DurationDays: 365, Countries: 2},
	}
	got := Correlations(trials)
	if len(got) != 3 {
		t.Fatalf("Correlations len = %d", len(got))
	}
	byFactor := map[string]float64{}
	for _, c := range got {
		byFactor[c.Factor] = c.R
	}
	if math.Abs(byFactor["enrollment"]-1) > 1e-9 {
		t.Errorf("enrollment r = %v, want 1", byFactor["enrollment"])
	}
	if byFactor["durationDays"] != 0 {
		t.Errorf("zero-variance factor r = %v, want 0", byFactor["durationDays"])
	}
}

func TestCorrelations_Degenerate(t *testing.T) {
	for _, c := range Correlations([]model.Trial{{ID: "only", PTS: 50}}) {
		if c.R != 0 {
			t.Errorf("single-trial correlation %s = %v, want 0", c.Factor, c.R)
		}
	}
}

func TestFormatScore(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{55.55, "55.6"},
		{55.44, "55.4"},
		{0, "0.0"},
		{100, "100.0"},
		{2.25, "2.3"},
	}
	for _, tt := range tests {
		if got := FormatScore(tt.in); got != tt.want {
			t.Errorf("FormatScore(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(0.5); got != "50.0%" {
		t.Errorf("FormatPercent(0.5) = %q", got)
	}
	if got := FormatPercent(0.444); got != "44.4%" {
		t.Errorf("FormatPercent(0.444) = %q", got)
	}
}

func TestFormatDelta(t *testing.T) {
	if got := FormatDelta(12.5); got != "+12.5" {
		t.Errorf("FormatDelta(12.5) = %q", got)
	}
	if got := FormatDelta(-3.2); got != "-3.2" {
		t.Errorf("FormatDelta(-3.2) = %q", got)
	}
}
