package model

import (
	"encoding/json"
	"math"
	"testing"
)

func TestStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{"Recruiting", StatusRecruiting, true},
		{"Active", StatusActive, true},
		{"Completed", StatusCompleted, true},
		{"Terminated", StatusTerminated, true},
		{"Invalid", "paused", false},
		{"Empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.want {
				t.Errorf("Status.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatus_IsClosed(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{"Recruiting", StatusRecruiting, false},
		{"Active", StatusActive, false},
		{"Completed", StatusCompleted, true},
		{"Terminated", StatusTerminated, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsClosed(); got != tt.want {
				t.Errorf("Status.IsClosed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEndpoints_Labels(t *testing.T) {
	tests := []struct {
		name string
		e    Endpoints
		want []string
	}{
		{"None", Endpoints{}, nil},
		{"All", Endpoints{OS: true, PFS: true, ORR: true}, []string{"OS", "PFS", "ORR"}},
		{"ORROnly", Endpoints{ORR: true}, []string{"ORR"}},
		{"OSAndORR", Endpoints{OS: true, ORR: true}, []string{"OS", "ORR"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.e.Labels()
			if len(got) != len(tt.want) {
				t.Fatalf("Labels() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Labels()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTrial_Validate(t *testing.T) {
	tests := []struct {
		name    string
		trial   Trial
		wantErr bool
	}{
		{
			name:    "Valid",
			trial:   Trial{ID: "NCT001", Sponsor: "Novarex", Status: StatusActive, PTS: 74.2},
			wantErr: false,
		},
		{
			name:    "ValidEmptyStatus",
			trial:   Trial{ID: "NCT002", Sponsor: "Novarex", PTS: 10},
			wantErr: false,
		},
		{
			name:    "EmptyID",
			trial:   Trial{Sponsor: "Novarex", PTS: 50},
			wantErr: true,
		},
		{
			name:    "EmptySponsor",
			trial:   Trial{ID: "NCT003", PTS: 50},
			wantErr: true,
		},
		{
			name:    "PTSBelowRange",
			trial:   Trial{ID: "NCT004", Sponsor: "Novarex", PTS: -1},
			wantErr: true,
		},
		{
			name:    "PTSAboveRange",
			trial:   Trial{ID: "NCT005", Sponsor: "Novarex", PTS: 100.01},
			wantErr: true,
		},
		{
			name:    "UnknownStatus",
			trial:   Trial{ID: "NCT006", Sponsor: "Novarex", PTS: 50, Status: "on-hold"},
			wantErr: true,
		},
		{
			name:    "PTSBoundsInclusive",
			trial:   Trial{ID: "NCT007", Sponsor: "Novarex", PTS: 100},
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.trial.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Trial.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSHAPExplanation_Additivity(t *testing.T) {
	e := SHAPExplanation{
		TrialID:      "NCT001",
		BaseValue:    52.0,
		PredictedPTS: 74.5,
		Features: []SHAPFeature{
			{Name: "enrollment", Contribution: 12.5},
			{Name: "durationDays", Contribution: -3.0},
			{Name: "countries", Contribution: 13.0},
		},
	}
	if got := e.Additivity(); math.Abs(got-74.5) > 1e-9 {
		t.Errorf("Additivity() = %v, want 74.5", got)
	}
}

func TestResponseKind_IsValid(t *testing.T) {
	for _, k := range []ResponseKind{KindText, KindTable, KindList, KindSummary, KindFeatures, KindWhatIf} {
		if !k.IsValid() {
			t.Errorf("ResponseKind(%q).IsValid() = false, want true", k)
		}
	}
	if ResponseKind("chart").IsValid() {
		t.Errorf("unknown kind reported valid")
	}
}

func TestCell_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Cell
	}{
		{"String", `"hello"`, "hello"},
		{"Int", `42`, "42"},
		{"Float", `85.5`, "85.5"},
		{"Bool", `true`, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Cell
			if err := json.Unmarshal([]byte(tt.in), &c); err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tt.in, err)
			}
			if c != tt.want {
				t.Errorf("Unmarshal(%s) = %q, want %q", tt.in, c, tt.want)
			}
		})
	}
}

func TestChatResponse_DecodeTable(t *testing.T) {
	in := `{"type":"table","title":"Top trials","columns":["ID","PTS"],"rows":[["NCT1",85.5],["NCT2","72.1"]]}`
	var r ChatResponse
	if err := json.Unmarshal([]byte(in), &r); err != nil {
		t.Fatalf("Unmarshal chat response: %v", err)
	}
	if r.Kind != KindTable {
		t.Errorf("Kind = %q, want %q", r.Kind, KindTable)
	}
	if len(r.Rows) != 2 || r.Rows[0][1] != "85.5" || r.Rows[1][1] != "72.1" {
		t.Errorf("rows decoded wrong: %+v", r.Rows)
	}
}

func TestTrial_JSONRoundTrip(t *testing.T) {
	in := `{"id":"NCT04123456","title":"Phase 3 NSCLC Study","sponsor":"Novarex Therapeutics","therapeuticArea":"Oncology","phase":"Phase 3","status":"active","pts":74.2,"enrollment":420,"countries":14,"durationDays":730,"endpoints":{"os":true,"pfs":true,"orr":false}}`
	var tr Trial
	if err := json.Unmarshal([]byte(in), &tr); err != nil {
		t.Fatalf("Unmarshal trial: %v", err)
	}
	if tr.ID != "NCT04123456" || tr.TherapeuticArea != "Oncology" || tr.PTS != 74.2 {
		t.Errorf("unexpected decode: %+v", tr)
	}
	if !tr.Endpoints.OS || !tr.Endpoints.PFS || tr.Endpoints.ORR {
		t.Errorf("endpoint flags mismatched: %+v", tr.Endpoints)
	}
	if err := tr.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}
