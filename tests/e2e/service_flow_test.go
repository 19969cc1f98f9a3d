package main_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ptscope/ptscope/pkg/analytics"
	"github.com/ptscope/ptscope/pkg/api"
	"github.com/ptscope/ptscope/pkg/filter"
	"github.com/ptscope/ptscope/pkg/model"
	"github.com/ptscope/ptscope/pkg/offline"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestE2E_TrialListMatchesOfflineSemantics drives the HTTP service with the
// same query the dashboard builds and checks the result against the offline
// source, which defines the filter semantics. The two backends must agree
// trial for trial.
func TestE2E_TrialListMatchesOfflineSemantics(t *testing.T) {
	baseURL := startService(t)
	gw := newGateway(t, baseURL)
	ctx := testContext(t)

	cases := []struct {
		name  string
		build func(f *filter.State)
	}{
		{"default_sort", func(f *filter.State) {}},
		{"area_filter_case_insensitive", func(f *filter.State) { f.SetArea("oncology") }},
		{"status_filter", func(f *filter.State) { f.SetStatus("recruiting") }},
		{"sponsor_filter", func(f *filter.State) { f.SetSponsor("Novarex") }},
		{"search", func(f *filter.State) { f.SetSearch("parkinson") }},
		{"sort_enrollment_asc", func(f *filter.State) { f.SetSort(filter.SortEnrollment, filter.Asc) }},
		{"sort_sponsor_asc", func(f *filter.State) { f.SetSort(filter.SortSponsor, filter.Asc) }},
		{"sort_duration_desc", func(f *filter.State) { f.SetSort(filter.SortDuration, filter.Desc) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := filter.New()
			tc.build(&f)
			params := f.Params()

			got, err := gw.ListTrials(ctx, params)
			require.NoError(t, err)

			want := offline.Apply(e2eTrials(), params)
			require.NotEmpty(t, want, "fixture query must match at least one trial")
			require.Equal(t, want, got)
		})
	}
}

// TestE2E_ExplanationAdditivity checks the SHAP contract over HTTP: the
// baseline plus every contribution reproduces the predicted score, and the
// baseline is the portfolio mean.
func TestE2E_ExplanationAdditivity(t *testing.T) {
	baseURL := startService(t)
	gw := newGateway(t, baseURL)
	ctx := testContext(t)

	trials := e2eTrials()
	mean := 0.0
	for _, trial := range trials {
		mean += trial.PTS
	}
	mean /= float64(len(trials))

	for _, trial := range trials[:3] {
		exp, err := gw.Explanation(ctx, trial.ID)
		require.NoError(t, err)
		require.Equal(t, trial.ID, exp.TrialID)
		require.NotEmpty(t, exp.Features)
		require.InDelta(t, mean, exp.BaseValue, 0.01)

		sum := exp.BaseValue
		for _, f := range exp.Features {
			sum += f.Contribution
		}
		require.InDelta(t, exp.PredictedPTS, sum, 0.01)
	}
}

func TestE2E_ExplanationUnknownTrial(t *testing.T) {
	baseURL := startService(t)
	gw := newGateway(t, baseURL)

	_, err := gw.Explanation(testContext(t), "NCT99999999")
	require.Error(t, err)

	var reqErr *api.RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, http.StatusNotFound, reqErr.StatusCode)
	require.Equal(t, "trial not found", reqErr.Message)
}

// TestE2E_AnalyticsMatchesLocalAggregation verifies the service snapshot is
// exactly what aggregating the raw trials locally produces.
func TestE2E_AnalyticsMatchesLocalAggregation(t *testing.T) {
	baseURL := startService(t)
	gw := newGateway(t, baseURL)

	snap, err := gw.Analytics(testContext(t))
	require.NoError(t, err)

	want := analytics.BuildSnapshot(e2eTrials(), analytics.DefaultThresholds)
	require.Equal(t, want.Summary.TotalTrials, snap.Summary.TotalTrials)
	require.Equal(t, want.Summary.HighRiskTrials, snap.Summary.HighRiskTrials)
	require.Equal(t, want.Summary.LowRiskTrials, snap.Summary.LowRiskTrials)
	require.InDelta(t, want.Summary.AveragePTS, snap.Summary.AveragePTS, 0.001)
	require.Equal(t, want.PTSDistribution, snap.PTSDistribution)

	require.Len(t, snap.BySponsor, len(want.BySponsor))
	for i, w := range want.BySponsor {
		require.Equal(t, w.Sponsor, snap.BySponsor[i].Sponsor)
		require.Equal(t, w.Trials, snap.BySponsor[i].Trials)
		require.InDelta(t, w.AvgPTS, snap.BySponsor[i].AvgPTS, 0.001)
	}
	require.Len(t, snap.ByTherapeuticArea, len(want.ByTherapeuticArea))
}

// TestE2E_ChatFlow exercises the assistant endpoint: data questions get
// structured answers, anything else a text fallback, and an empty message is
// rejected with a client error the gateway surfaces.
func TestE2E_ChatFlow(t *testing.T) {
	baseURL := startService(t)
	gw := newGateway(t, baseURL)
	ctx := testContext(t)

	resp, err := gw.Chat(ctx, "show me the top oncology trials")
	require.NoError(t, err)
	require.Equal(t, model.KindTable, resp.Kind)
	require.NotEmpty(t, resp.Rows)
	require.Contains(t, resp.Columns, "PTS")

	resp, err = gw.Chat(ctx, "good morning")
	require.NoError(t, err)
	require.Equal(t, model.KindText, resp.Kind)
	require.NotEmpty(t, resp.Text)

	_, err = gw.Chat(ctx, "   ")
	require.Error(t, err)
	var reqErr *api.RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, http.StatusBadRequest, reqErr.StatusCode)
}

// TestE2E_OfflineSourceFlow runs the same dashboard flows against the
// offline source, the backend behind --offline.
func TestE2E_OfflineSourceFlow(t *testing.T) {
	gw := offline.NewSource(e2eTrials())
	ctx := testContext(t)

	f := filter.New()
	f.SetArea("Oncology")
	trials, err := gw.ListTrials(ctx, f.Params())
	require.NoError(t, err)
	require.Len(t, trials, 3)
	require.Equal(t, "NCT30000001", trials[0].ID)

	exp, err := gw.Explanation(ctx, trials[0].ID)
	require.NoError(t, err)
	require.Equal(t, trials[0].ID, exp.TrialID)

	snap, err := gw.Analytics(ctx)
	require.NoError(t, err)
	require.Equal(t, len(e2eTrials()), snap.Summary.TotalTrials)

	resp, err := gw.Chat(ctx, "which sponsors have trials above 80 pts?")
	require.NoError(t, err)
	require.Equal(t, model.KindTable, resp.Kind)
}

// TestE2E_HealthAndMetrics hits the operational endpoints after real
// traffic and checks the request counter is exposed.
func TestE2E_HealthAndMetrics(t *testing.T) {
	baseURL := startService(t)
	gw := newGateway(t, baseURL)

	_, err := gw.ListTrials(testContext(t), nil)
	require.NoError(t, err)

	resp, err := http.Get(baseURL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(baseURL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "ptscope_mock_requests_total")
	require.Contains(t, string(body), `route="/api/trials"`)
}
