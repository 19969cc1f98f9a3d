package assistant

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ptscope/ptscope/pkg/analytics"
	"github.com/ptscope/ptscope/pkg/model"
)

// Canned answers queries by case-insensitive substring matching against a
// fixed rule list. Rules are evaluated in order and the first match wins;
// anything ambiguous or unrecognized falls through to DefaultAnswer. It is
// deliberately not a parser.
type Canned struct{}

// NewCanned returns the fallback responder used when no chat service or
// LLM is configured.
func NewCanned() *Canned {
	return &Canned{}
}

// rule pairs a trigger predicate with a response builder.
type rule struct {
	match func(q string) bool
	build func(trials []model.Trial) *model.ChatResponse
}

func contains(q string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(q, s) {
			return true
		}
	}
	return false
}

// rules in precedence order. The oncology rule comes first so a query
// mentioning both "highest pts" and "oncology" resolves to the oncology
// table.
var rules = []rule{
	{
		match: func(q string) bool {
			return strings.Contains(q, "oncology") && contains(q, "top", "highest", "best")
		},
		build: topOncology,
	},
	{
		match: func(q string) bool {
			return strings.Contains(q, "sponsor") && contains(q, "80", "high pts")
		},
		build: sponsorsAbove80,
	},
	{
		match: func(q string) bool {
			return contains(q, "orr", "objective response")
		},
		build: orrSummary,
	},
	{
		match: func(q string) bool {
			return contains(q, "fail", "risk") && strings.Contains(q, "feature")
		},
		build: failureFeatures,
	},
}

// Respond implements Responder. It never fails.
func (c *Canned) Respond(_ context.Context, query string, trials []model.Trial) (*model.ChatResponse, error) {
	q := strings.ToLower(query)
	for _, r := range rules {
		if r.match(q) {
			return r.build(trials), nil
		}
	}
	return &model.ChatResponse{Kind: model.KindText, Text: DefaultAnswer}, nil
}

func topOncology(trials []model.Trial) *model.ChatResponse {
	onc := make([]model.Trial, 0, len(trials))
	for _, t := range trials {
		if strings.EqualFold(t.TherapeuticArea, "oncology") {
			onc = append(onc, t)
		}
	}
	sort.SliceStable(onc, func(i, j int) bool { return onc[i].PTS > onc[j].PTS })
	if len(onc) > 5 {
		onc = onc[:5]
	}

	rows := make([][]model.Cell, 0, len(onc))
	for _, t := range onc {
		rows = append(rows, []model.Cell{
			model.Cell(t.ID),
			model.Cell(t.Sponsor),
			model.Cell(analytics.FormatScore(t.PTS)),
			model.Cell(t.Status),
		})
	}
	return &model.ChatResponse{
		Kind:    model.KindTable,
		Title:   "Top oncology trials by PTS",
		Columns: []string{"Trial", "Sponsor", "PTS", "Status"},
		Rows:    rows,
	}
}

func sponsorsAbove80(trials []model.Trial) *model.ChatResponse {
	counts := map[string]int{}
	for _, t := range trials {
		if t.PTS > 80 {
			counts[t.Sponsor]++
		}
	}
	type entry struct {
		sponsor string
		n       int
	}
	entries := make([]entry, 0, len(counts))
	for s, n := range counts {
		entries = append(entries, entry{s, n})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].n != entries[j].n {
			return entries[i].n > entries[j].n
		}
		return entries[i].sponsor < entries[j].sponsor
	})

	rows := make([][]model.Cell, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []model.Cell{
			model.Cell(e.sponsor),
			model.Cell(fmt.Sprintf("%d", e.n)),
		})
	}
	return &model.ChatResponse{
		Kind:    model.KindTable,
		Title:   "Sponsors with trials above 80 PTS",
		Columns: []string{"Sponsor", "Trials > 80 PTS"},
		Rows:    rows,
	}
}

func orrSummary(trials []model.Trial) *model.ChatResponse {
	withORR := 0
	var sum float64
	for _, t := range trials {
		if t.Endpoints.ORR {
			withORR++
			sum += t.PTS
		}
	}
	avg, share := 0.0, 0.0
	if withORR > 0 {
		avg = sum / float64(withORR)
	}
	if len(trials) > 0 {
		share = float64(withORR) / float64(len(trials))
	}
	return &model.ChatResponse{
		Kind:  model.KindSummary,
		Title: "ORR endpoint summary",
		Text:  "Trials tracking objective response rate as an endpoint.",
		Stats: []model.Stat{
			{Label: "Trials with ORR endpoint", Value: model.Cell(fmt.Sprintf("%d", withORR))},
			{Label: "Share of current set", Value: model.Cell(analytics.FormatPercent(share))},
			{Label: "Average PTS", Value: model.Cell(analytics.FormatScore(avg))},
		},
	}
}

// failureFeatures is a fixed shape: the client has no per-trial SHAP data
// at hand, so the canned answer lists the globally dominant negative
// drivers the model reports.
func failureFeatures(_ []model.Trial) *model.ChatResponse {
	return &model.ChatResponse{
		Kind:  model.KindFeatures,
		Title: "Top 5 failure features",
		Features: []model.FeatureWeight{
			{Feature: "Low enrollment", Direction: "negative", Weight: 0.32},
			{Feature: "Single-region recruitment", Direction: "negative", Weight: 0.26},
			{Feature: "Extended trial duration", Direction: "negative", Weight: 0.19},
			{Feature: "No survival endpoint", Direction: "negative", Weight: 0.14},
			{Feature: "Sparse site coverage", Direction: "negative", Weight: 0.09},
		},
	}
}
