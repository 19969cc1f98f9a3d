package export

import (
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/ptscope/ptscope/pkg/analytics"
	"github.com/ptscope/ptscope/pkg/model"
)

// SavePDFToFile writes a printable report: summary block, sponsor table and
// the full trial table. Core fonts only, so no font files ship with the
// binary.
func SavePDFToFile(trials []model.Trial, snap *model.AnalyticsSnapshot, path string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; trial titles arrive as UTF-8.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Clinical Trial PTS Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, 5, "Generated "+time.Now().Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	if snap != nil {
		writePDFSummary(pdf, snap.Summary)
		writePDFSponsors(pdf, tr, snap.BySponsor)
	}
	writePDFTrials(pdf, tr, trials)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("writing pdf report: %w", err)
	}
	return nil
}

func writePDFSummary(pdf *gofpdf.Fpdf, s model.Summary) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)

	rows := [][2]string{
		{"Trials", fmt.Sprintf("%d", s.TotalTrials)},
		{"Average PTS", analytics.FormatScore(s.AveragePTS)},
		{fmt.Sprintf("High risk (PTS < %.0f)", analytics.DefaultThresholds.High), fmt.Sprintf("%d", s.HighRiskTrials)},
		{fmt.Sprintf("Low risk (PTS >= %.0f)", analytics.DefaultThresholds.Low), fmt.Sprintf("%d", s.LowRiskTrials)},
	}
	for _, r := range rows {
		pdf.CellFormat(50, 6, r[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, r[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func writePDFSponsors(pdf *gofpdf.Fpdf, tr func(string) string, sponsors []model.SponsorRollup) {
	if len(sponsors) == 0 {
		return
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Top Sponsors", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(70, 6, "Sponsor", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 6, "Trials", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 6, "Avg PTS", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 6, "Success rate", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetFillColor(245, 245, 245)
	for i, sp := range sponsors {
		if i == maxSponsorRows {
			break
		}
		fill := i%2 == 1
		pdf.CellFormat(70, 6, tr(clipText(sp.Sponsor, 40)), "1", 0, "L", fill, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", sp.Trials), "1", 0, "R", fill, 0, "")
		pdf.CellFormat(30, 6, analytics.FormatScore(sp.AvgPTS), "1", 0, "R", fill, 0, "")
		pdf.CellFormat(35, 6, analytics.FormatPercent(sp.SuccessRate), "1", 1, "R", fill, 0, "")
	}
	pdf.Ln(4)
}

func writePDFTrials(pdf *gofpdf.Fpdf, tr func(string) string, trials []model.Trial) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Trials (%d)", len(trials)), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(26, 6, "ID", "1", 0, "L", true, 0, "")
	pdf.CellFormat(44, 6, "Title", "1", 0, "L", true, 0, "")
	pdf.CellFormat(32, 6, "Sponsor", "1", 0, "L", true, 0, "")
	pdf.CellFormat(26, 6, "Area", "1", 0, "L", true, 0, "")
	pdf.CellFormat(16, 6, "Phase", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 6, "Status", "1", 0, "L", true, 0, "")
	pdf.CellFormat(12, 6, "PTS", "1", 0, "R", true, 0, "")
	pdf.CellFormat(14, 6, "Risk", "1", 1, "L", true, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetFillColor(245, 245, 245)
	for i, t := range trials {
		fill := i%2 == 1
		band := analytics.DefaultThresholds.Band(t.PTS)

		pdf.CellFormat(26, 6, t.ID, "1", 0, "L", fill, 0, "")
		pdf.CellFormat(44, 6, tr(clipText(t.Title, 28)), "1", 0, "L", fill, 0, "")
		pdf.CellFormat(32, 6, tr(clipText(t.Sponsor, 20)), "1", 0, "L", fill, 0, "")
		pdf.CellFormat(26, 6, tr(clipText(t.TherapeuticArea, 16)), "1", 0, "L", fill, 0, "")
		pdf.CellFormat(16, 6, t.Phase, "1", 0, "L", fill, 0, "")
		pdf.CellFormat(20, 6, string(t.Status), "1", 0, "L", fill, 0, "")

		switch band {
		case "high":
			pdf.SetTextColor(198, 60, 60)
		case "medium":
			pdf.SetTextColor(196, 138, 0)
		default:
			pdf.SetTextColor(0, 148, 88)
		}
		pdf.CellFormat(12, 6, analytics.FormatScore(t.PTS), "1", 0, "R", fill, 0, "")
		pdf.SetTextColor(0, 0, 0)

		pdf.CellFormat(14, 6, band, "1", 1, "L", fill, 0, "")
	}
}

// clipText caps a free-text field so it stays inside its column.
func clipText(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
