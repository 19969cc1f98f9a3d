package mockapi

import "github.com/ptscope/ptscope/pkg/model"

// trialRecord is the sqlite row behind one trial. Endpoint flags flatten
// into columns so they stay queryable.
type trialRecord struct {
	ID              string  `gorm:"primaryKey"`
	Title           string
	Sponsor         string  `gorm:"index"`
	TherapeuticArea string  `gorm:"index;column:therapeutic_area"`
	Phase           string
	Status          string  `gorm:"index"`
	PTS             float64 `gorm:"column:pts"`
	Enrollment      int
	Countries       int
	DurationDays    int  `gorm:"column:duration_days"`
	EndpointOS      bool `gorm:"column:endpoint_os"`
	EndpointPFS     bool `gorm:"column:endpoint_pfs"`
	EndpointORR     bool `gorm:"column:endpoint_orr"`
}

func (trialRecord) TableName() string { return "trials" }

func toRecord(t model.Trial) trialRecord {
	return trialRecord{
		ID:              t.ID,
		Title:           t.Title,
		Sponsor:         t.Sponsor,
		TherapeuticArea: t.TherapeuticArea,
		Phase:           t.Phase,
		Status:          string(t.Status),
		PTS:             t.PTS,
		Enrollment:      t.Enrollment,
		Countries:       t.Countries,
		DurationDays:    t.DurationDays,
		EndpointOS:      t.Endpoints.OS,
		EndpointPFS:     t.Endpoints.PFS,
		EndpointORR:     t.Endpoints.ORR,
	}
}

func (r trialRecord) toTrial() model.Trial {
	return model.Trial{
		ID:              r.ID,
		Title:           r.Title,
		Sponsor:         r.Sponsor,
		TherapeuticArea: r.TherapeuticArea,
		Phase:           r.Phase,
		Status:          model.Status(r.Status),
		PTS:             r.PTS,
		Enrollment:      r.Enrollment,
		Countries:       r.Countries,
		DurationDays:    r.DurationDays,
		Endpoints: model.Endpoints{
			OS:  r.EndpointOS,
			PFS: r.EndpointPFS,
			ORR: r.EndpointORR,
		},
	}
}

func toTrials(recs []trialRecord) []model.Trial {
	out := make([]model.Trial, len(recs))
	for i, r := range recs {
		out[i] = r.toTrial()
	}
	return out
}
