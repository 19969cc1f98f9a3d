package main_test

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ptscope/ptscope/pkg/api"
	"github.com/ptscope/ptscope/pkg/mockapi"
	"github.com/ptscope/ptscope/pkg/model"
)

// e2eTrials is the shared portfolio for the suite: three therapeutic areas,
// every status, and PTS scores spanning all three risk bands.
func e2eTrials() []model.Trial {
	return []model.Trial{
		{ID: "NCT30000001", Title: "Osimertinib maintenance in NSCLC", Sponsor: "Novarex", TherapeuticArea: "Oncology", Phase: "Phase 3", Status: model.StatusActive, PTS: 85.5, Enrollment: 720, Countries: 14, DurationDays: 1080, Endpoints: model.Endpoints{OS: true, PFS: true}},
		{ID: "NCT30000002", Title: "Cardiolol after acute MI", Sponsor: "Boreal Therapeutics", TherapeuticArea: "Cardiology", Phase: "Phase 3", Status: model.StatusRecruiting, PTS: 72.0, Enrollment: 1150, Countries: 22, DurationDays: 1460, Endpoints: model.Endpoints{OS: true}},
		{ID: "NCT30000003", Title: "Neurolide in Parkinson's disease", Sponsor: "CervoMed", TherapeuticArea: "Neurology", Phase: "Phase 2", Status: model.StatusActive, PTS: 38.9, Enrollment: 180, Countries: 4, DurationDays: 720, Endpoints: model.Endpoints{ORR: true}},
		{ID: "NCT30000004", Title: "Atezolizumab combo in TNBC", Sponsor: "Novarex", TherapeuticArea: "Oncology", Phase: "Phase 2", Status: model.StatusRecruiting, PTS: 66.4, Enrollment: 310, Countries: 8, DurationDays: 900, Endpoints: model.Endpoints{PFS: true, ORR: true}},
		{ID: "NCT30000005", Title: "Valsarem in chronic heart failure", Sponsor: "Boreal Therapeutics", TherapeuticArea: "Cardiology", Phase: "Phase 3", Status: model.StatusCompleted, PTS: 91.2, Enrollment: 2400, Countries: 31, DurationDays: 1820, Endpoints: model.Endpoints{OS: true, PFS: true}},
		{ID: "NCT30000006", Title: "Memantix in early Alzheimer's", Sponsor: "CervoMed", TherapeuticArea: "Neurology", Phase: "Phase 3", Status: model.StatusTerminated, PTS: 12.8, Enrollment: 940, Countries: 12, DurationDays: 1240, Endpoints: model.Endpoints{OS: true}},
		{ID: "NCT30000007", Title: "Pembrolizumab adjuvant melanoma", Sponsor: "Atlas Oncology", TherapeuticArea: "Oncology", Phase: "Phase 3", Status: model.StatusActive, PTS: 55.2, Enrollment: 560, Countries: 17, DurationDays: 1100, Endpoints: model.Endpoints{PFS: true}},
		{ID: "NCT30000008", Title: "Immunovex in severe asthma", Sponsor: "Novarex", TherapeuticArea: "Immunology", Phase: "Phase 2", Status: model.StatusCompleted, PTS: 24.5, Enrollment: 95, Countries: 3, DurationDays: 540, Endpoints: model.Endpoints{ORR: true}},
	}
}

// writeDataset marshals the fixture portfolio to a JSONL file under a temp
// directory and returns its path.
func writeDataset(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "trials.jsonl")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, trial := range e2eTrials() {
		require.NoError(t, enc.Encode(trial))
	}
	return path
}

// startService boots the mock analytics service in-process, seeded from the
// fixture dataset, and returns its base URL.
func startService(t *testing.T) string {
	t.Helper()
	server, err := mockapi.New(mockapi.Config{
		DBPath:   ":memory:",
		DataPath: writeDataset(t),
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func newGateway(t *testing.T, baseURL string) api.Gateway {
	t.Helper()
	return api.New(baseURL)
}
