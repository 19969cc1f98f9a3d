package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/ptscope/ptscope/pkg/model"
)

// csvHeader mirrors the explorer columns plus the endpoint flags.
var csvHeader = []string{
	"id", "title", "sponsor", "therapeuticArea", "phase", "status",
	"pts", "enrollment", "countries", "durationDays", "os", "pfs", "orr",
}

// SaveCSVToFile writes one row per trial, suitable for spreadsheet import.
func SaveCSVToFile(trials []model.Trial, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, t := range trials {
		row := []string{
			t.ID,
			t.Title,
			t.Sponsor,
			t.TherapeuticArea,
			t.Phase,
			string(t.Status),
			strconv.FormatFloat(t.PTS, 'f', 1, 64),
			strconv.Itoa(t.Enrollment),
			strconv.Itoa(t.Countries),
			strconv.Itoa(t.DurationDays),
			strconv.FormatBool(t.Endpoints.OS),
			strconv.FormatBool(t.Endpoints.PFS),
			strconv.FormatBool(t.Endpoints.ORR),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing csv row for %s: %w", t.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}
