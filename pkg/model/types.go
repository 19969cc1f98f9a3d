// Package model defines the core domain types shared by every layer:
// trials, SHAP explanations, analytics snapshots, and chat messages.
// JSON tags mirror the analytics API wire format (camelCase).
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the recruitment/lifecycle status of a trial.
type Status string

const (
	StatusRecruiting Status = "recruiting"
	StatusActive     Status = "active"
	StatusCompleted  Status = "completed"
	StatusTerminated Status = "terminated"
)

// IsValid returns true if the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusRecruiting, StatusActive, StatusCompleted, StatusTerminated:
		return true
	}
	return false
}

// IsClosed returns true for statuses that no longer accrue data.
func (s Status) IsClosed() bool {
	return s == StatusCompleted || s == StatusTerminated
}

// Endpoints holds the boolean endpoint flags of a trial design.
type Endpoints struct {
	OS  bool `json:"os"`  // overall survival
	PFS bool `json:"pfs"` // progression-free survival
	ORR bool `json:"orr"` // objective response rate
}

// Labels returns the names of the endpoints that are set, in fixed order.
func (e Endpoints) Labels() []string {
	var out []string
	if e.OS {
		out = append(out, "OS")
	}
	if e.PFS {
		out = append(out, "PFS")
	}
	if e.ORR {
		out = append(out, "ORR")
	}
	return out
}

// Trial is an immutable snapshot of one clinical trial as served by the
// analytics API. It is never mutated locally.
type Trial struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Sponsor         string    `json:"sponsor"`
	TherapeuticArea string    `json:"therapeuticArea"`
	Phase           string    `json:"phase"`
	Status          Status    `json:"status"`
	PTS             float64   `json:"pts"`
	Enrollment      int       `json:"enrollment"`
	Countries       int       `json:"countries"`
	DurationDays    int       `json:"durationDays"`
	Endpoints       Endpoints `json:"endpoints"`
}

// Validate checks structural invariants before a trial enters the dataset.
func (t *Trial) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("trial has empty ID")
	}
	if t.Sponsor == "" {
		return fmt.Errorf("trial %s has empty sponsor", t.ID)
	}
	if t.PTS < 0 || t.PTS > 100 {
		return fmt.Errorf("trial %s has PTS %.2f outside [0,100]", t.ID, t.PTS)
	}
	if t.Status != "" && !t.Status.IsValid() {
		return fmt.Errorf("trial %s has unknown status %q", t.ID, t.Status)
	}
	return nil
}

// SHAPFeature is one (feature, signed contribution) pair of an explanation.
type SHAPFeature struct {
	Name         string  `json:"feature"`
	Contribution float64 `json:"contribution"`
}

// SHAPExplanation is the per-trial feature attribution fetched lazily when
// a detail view opens and discarded when it closes.
type SHAPExplanation struct {
	TrialID      string        `json:"trialId"`
	BaseValue    float64       `json:"baseValue"`
	PredictedPTS float64       `json:"predictedPTS"`
	Features     []SHAPFeature `json:"features"`
}

// Additivity returns base value plus the sum of all contributions. For a
// well-formed explanation this equals the predicted PTS.
func (e *SHAPExplanation) Additivity() float64 {
	sum := e.BaseValue
	for _, f := range e.Features {
		sum += f.Contribution
	}
	return sum
}

// Summary is the aggregate header of an analytics snapshot.
type Summary struct {
	TotalTrials    int     `json:"totalTrials"`
	AveragePTS     float64 `json:"averagePTS"`
	HighRiskTrials int     `json:"highRiskTrials"`
	LowRiskTrials  int     `json:"lowRiskTrials"`
}

// HistogramBucket is one bar of the PTS distribution.
type HistogramBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// SponsorRollup is the per-sponsor aggregate computed server-side.
type SponsorRollup struct {
	Sponsor     string  `json:"sponsor"`
	Trials      int     `json:"trials"`
	AvgPTS      float64 `json:"avgPTS"`
	SuccessRate float64 `json:"successRate"`
}

// AreaRollup is the per-therapeutic-area aggregate computed server-side.
type AreaRollup struct {
	Area   string  `json:"area"`
	Trials int     `json:"trials"`
	AvgPTS float64 `json:"avgPTS"`
}

// AnalyticsSnapshot is the aggregate payload of GET /api/trials/analytics.
// The client treats it as read-only.
type AnalyticsSnapshot struct {
	Summary           Summary           `json:"summary"`
	PTSDistribution   []HistogramBucket `json:"ptsDistribution"`
	BySponsor         []SponsorRollup   `json:"bySponsor"`
	ByTherapeuticArea []AreaRollup      `json:"byTherapeuticArea"`
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ResponseKind tags the payload shape of an assistant answer. The set is
// closed; renderers switch over every kind and treat the zero value as text.
type ResponseKind string

const (
	KindText     ResponseKind = "text"
	KindTable    ResponseKind = "table"
	KindList     ResponseKind = "list"
	KindSummary  ResponseKind = "summary"
	KindFeatures ResponseKind = "features"
	KindWhatIf   ResponseKind = "whatif"
)

// IsValid returns true if the kind is one of the six known payload shapes.
func (k ResponseKind) IsValid() bool {
	switch k {
	case KindText, KindTable, KindList, KindSummary, KindFeatures, KindWhatIf:
		return true
	}
	return false
}

// Cell is a table cell that tolerates any scalar JSON value; non-strings
// keep their literal text so numeric cells survive decoding.
type Cell string

func (c *Cell) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = Cell(s)
		return nil
	}
	*c = Cell(b)
	return nil
}

// Stat is one labelled value of a summary response.
type Stat struct {
	Label string `json:"label"`
	Value Cell   `json:"value"`
}

// FeatureWeight is one entry of a features response.
type FeatureWeight struct {
	Feature   string  `json:"feature"`
	Direction string  `json:"direction"` // "positive" or "negative"
	Weight    float64 `json:"weight"`
}

// ChatResponse is the tagged union returned by the chat endpoint and the
// canned responder. Only the fields relevant to Kind are populated.
type ChatResponse struct {
	Kind  ResponseKind `json:"type"`
	Title string       `json:"title,omitempty"`
	Text  string       `json:"text,omitempty"`

	// table
	Columns []string `json:"columns,omitempty"`
	Rows    [][]Cell `json:"rows,omitempty"`

	// list
	Items []string `json:"items,omitempty"`

	// summary
	Stats []Stat `json:"stats,omitempty"`

	// features
	Features []FeatureWeight `json:"features,omitempty"`

	// whatif
	Baseline float64 `json:"baseline,omitempty"`
	Adjusted float64 `json:"adjusted,omitempty"`
	Delta    float64 `json:"delta,omitempty"`
}

// ChatMessage is one entry of the append-only assistant log.
type ChatMessage struct {
	ID        string        `json:"id"`
	Role      Role          `json:"role"`
	Content   string        `json:"content,omitempty"`
	Response  *ChatResponse `json:"response,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}
