package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/ptscope/ptscope/pkg/api"
	"github.com/ptscope/ptscope/pkg/assistant"
	"github.com/ptscope/ptscope/pkg/config"
	"github.com/ptscope/ptscope/pkg/export"
	"github.com/ptscope/ptscope/pkg/filter"
	"github.com/ptscope/ptscope/pkg/loader"
	"github.com/ptscope/ptscope/pkg/model"
	"github.com/ptscope/ptscope/pkg/offline"
	"github.com/ptscope/ptscope/pkg/ui"
	"github.com/ptscope/ptscope/pkg/version"
)

func main() {
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	apiURL := flag.String("api", "", "Analytics service base URL (overrides PTS_API_BASE_URL)")
	offlinePath := flag.String("offline", "", "Serve from a local JSONL dataset instead of the API (file or directory)")
	// Agent interface
	robotHelp := flag.Bool("robot-help", false, "Show AI agent help")
	robotTrials := flag.Bool("robot-trials", false, "Output the trial list as JSON for AI agents")
	robotAnalytics := flag.Bool("robot-analytics", false, "Output the analytics snapshot as JSON for AI agents")
	robotSHAP := flag.String("robot-shap", "", "Output the SHAP explanation for a trial ID as JSON")
	robotAsk := flag.String("robot-ask", "", "Ask the assistant one question and output the answer as JSON")
	sortField := flag.String("sort", "pts", "Sort field for --robot-trials: pts, enrollment, duration, sponsor")
	sortOrder := flag.String("order", "desc", "Sort order for --robot-trials: asc, desc")
	searchQuery := flag.String("search", "", "Search filter for --robot-trials")
	// Report exports
	exportMD := flag.String("export-md", "", "Export a Markdown report to a file (e.g., report.md)")
	exportCSV := flag.String("export-csv", "", "Export the trial table to a CSV file")
	exportPDF := flag.String("export-pdf", "", "Export a PDF report to a file")
	exportHist := flag.String("export-hist", "", "Export the PTS histogram to a PNG file")
	flag.Parse()

	if *help {
		fmt.Println("Usage: pts [options]")
		fmt.Println("\nA terminal dashboard for clinical trial PTS analytics.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("pts %s\n", version.Version)
		os.Exit(0)
	}

	if *robotHelp {
		printRobotHelp()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log, closeLog, err := newLogger(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	gw, sourceName, err := buildGateway(cfg, *apiURL, *offlinePath, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var responder assistant.Responder
	if cfg.LLMAPIKey != "" {
		responder = assistant.NewLLM(cfg.LLMAPIKey, cfg.LLMModel, log)
	}

	// Robot modes print JSON and exit; agents never see the TUI.
	if *robotTrials {
		f := filter.New()
		sf := filter.SortField(*sortField)
		if !sf.IsValid() {
			fmt.Fprintf(os.Stderr, "Error: unknown sort field %q\n", *sortField)
			os.Exit(1)
		}
		order := filter.Desc
		if *sortOrder == "asc" {
			order = filter.Asc
		}
		f.SetSort(sf, order)
		if *searchQuery != "" {
			f.SetSearch(*searchQuery)
		}

		trials := mustListTrials(gw, cfg.APITimeout, f.Params())
		output := struct {
			GeneratedAt time.Time     `json:"generated_at"`
			Source      string        `json:"source"`
			Count       int           `json:"count"`
			Trials      []model.Trial `json:"trials"`
		}{time.Now().UTC(), sourceName, len(trials), trials}
		printJSON(output)
		os.Exit(0)
	}

	if *robotAnalytics {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout)
		defer cancel()
		snap, err := gw.Analytics(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching analytics: %v\n", err)
			os.Exit(1)
		}
		printJSON(snap)
		os.Exit(0)
	}

	if *robotSHAP != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout)
		defer cancel()
		exp, err := gw.Explanation(ctx, *robotSHAP)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching explanation for %s: %v\n", *robotSHAP, err)
			os.Exit(1)
		}
		printJSON(exp)
		os.Exit(0)
	}

	if *robotAsk != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout)
		defer cancel()
		var resp *model.ChatResponse
		if responder != nil {
			trials := mustListTrials(gw, cfg.APITimeout, nil)
			resp, err = responder.Respond(ctx, *robotAsk, trials)
		} else {
			resp, err = gw.Chat(ctx, *robotAsk)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error asking assistant: %v\n", err)
			os.Exit(1)
		}
		printJSON(resp)
		os.Exit(0)
	}

	if *exportMD != "" || *exportCSV != "" || *exportPDF != "" || *exportHist != "" {
		runExports(gw, cfg.APITimeout, *exportMD, *exportCSV, *exportPDF, *exportHist)
		os.Exit(0)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Refusing to start the TUI without a terminal.")
		fmt.Fprintln(os.Stderr, "Use --robot-trials, --robot-analytics, or an --export-* flag for non-interactive output.")
		os.Exit(1)
	}

	m := ui.NewModel(ui.Config{
		Gateway:    gw,
		Responder:  responder,
		PageSize:   cfg.PageSize,
		SourceName: sourceName,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	// Optional auto-quit for automated tests: set PTS_TUI_AUTOCLOSE_MS
	if v := os.Getenv("PTS_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				time.Sleep(time.Duration(ms) * time.Millisecond)
				p.Send(tea.Quit())
				// Failsafe: hard exit soon after to avoid hanging tests
				time.Sleep(2 * time.Second)
				os.Exit(0)
			}()
		}
	}
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running dashboard: %v\n", err)
		os.Exit(1)
	}
}

// buildGateway picks the data source: an explicit offline dataset, the
// configured dataset path, or the HTTP service.
func buildGateway(cfg *config.Config, apiURL, offlinePath string, log zerolog.Logger) (api.Gateway, string, error) {
	dataPath := offlinePath
	if dataPath == "" {
		dataPath = cfg.DataPath
	}
	if dataPath != "" {
		trials, err := loader.LoadTrials(dataPath)
		if err != nil {
			return nil, "", err
		}
		if len(trials) == 0 {
			return nil, "", fmt.Errorf("dataset %s contains no valid trials", dataPath)
		}
		return offline.NewSource(trials), fmt.Sprintf("offline (%d trials)", len(trials)), nil
	}

	baseURL := cfg.APIBaseURL
	if apiURL != "" {
		baseURL = apiURL
	}
	client := api.New(baseURL, api.WithTimeout(cfg.APITimeout), api.WithLogger(log))
	return client, baseURL, nil
}

func mustListTrials(gw api.Gateway, timeout time.Duration, params url.Values) []model.Trial {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	trials, err := gw.ListTrials(ctx, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching trials: %v\n", err)
		os.Exit(1)
	}
	return trials
}

// runExports writes every requested report format over the same fetch.
func runExports(gw api.Gateway, timeout time.Duration, md, csv, pdf, hist string) {
	trials := mustListTrials(gw, timeout, nil)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	snap, err := gw.Analytics(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching analytics: %v\n", err)
		os.Exit(1)
	}

	type job struct {
		path string
		run  func(string) error
		kind string
	}
	jobs := []job{
		{md, func(p string) error { return export.SaveMarkdownToFile(trials, snap, p) }, "Markdown report"},
		{csv, func(p string) error { return export.SaveCSVToFile(trials, p) }, "CSV table"},
		{pdf, func(p string) error { return export.SavePDFToFile(trials, snap, p) }, "PDF report"},
		{hist, func(p string) error { return export.SaveHistogramPNG(snap, p) }, "PTS histogram"},
	}
	for _, j := range jobs {
		if j.path == "" {
			continue
		}
		if err := j.run(j.path); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Exported %s (%d trials) to %s\n", j.kind, len(trials), j.path)
	}
}

func printJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
		os.Exit(1)
	}
}

// newLogger writes structured logs to the configured file. The TUI owns
// stdout, so without a file the logger is a no-op.
func newLogger(path string) (zerolog.Logger, func(), error) {
	if path == "" {
		return zerolog.Nop(), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	log := zerolog.New(f).With().Timestamp().Logger()
	return log, func() { _ = f.Close() }, nil
}

func printRobotHelp() {
	fmt.Println("pts AI Agent Interface")
	fmt.Println("======================")
	fmt.Println("Structured access to the trial portfolio without parsing the TUI.")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  --robot-trials [--sort=F] [--order=asc|desc] [--search=Q]")
	fmt.Println("      Outputs the trial list as JSON.")
	fmt.Println("      Sort fields: pts, enrollment, duration, sponsor.")
	fmt.Println("      Key fields per trial: id, pts, sponsor, therapeuticArea, status, endpoints.")
	fmt.Println("")
	fmt.Println("  --robot-analytics")
	fmt.Println("      Outputs the aggregate snapshot as JSON.")
	fmt.Println("      Key sections:")
	fmt.Println("      - summary: totals, average PTS, high/low risk counts (high < 40, low >= 70)")
	fmt.Println("      - ptsDistribution: histogram buckets over 0-100")
	fmt.Println("      - bySponsor / byTherapeuticArea: rollups with average PTS")
	fmt.Println("")
	fmt.Println("  --robot-shap <trial-id>")
	fmt.Println("      Outputs the feature attribution for one trial as JSON.")
	fmt.Println("      baseValue plus the signed contributions sums to predictedPts.")
	fmt.Println("")
	fmt.Println("  --robot-ask \"<question>\"")
	fmt.Println("      Asks the assistant one question, outputs the structured answer as JSON.")
	fmt.Println("      The type field selects the payload shape: text, table, list, summary,")
	fmt.Println("      features, or whatif.")
	fmt.Println("")
	fmt.Println("Add --offline <trials.jsonl> to run everything against a local dataset.")
}
