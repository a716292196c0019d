// Command journal evaluates legs and builds reports from journal exports
// without a running server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"strategy-journal/internal/domain"
	"strategy-journal/internal/metrics"
	"strategy-journal/internal/reporting"
)

var version = "dev"

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	timezoneFlag := &cli.StringFlag{
		Name:  "timezone",
		Usage: "IANA timezone used to bucket trading days",
		Value: "UTC",
	}
	return &cli.App{
		Name:    "journal",
		Usage:   "Strategy journal tools",
		Version: version,
		Writer:  out,
		Commands: []*cli.Command{
			{
				Name:  "evaluate",
				Usage: "Summarize a JSON array of legs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "legs", Usage: "Path to a legs JSON file (- for stdin)", Required: true},
				},
				Action: evaluate,
			},
			{
				Name:  "metrics",
				Usage: "Print recomputed metrics for every strategy of an export",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Path to the export JSON file", Required: true},
					timezoneFlag,
				},
				Action: printMetrics,
			},
			{
				Name:  "report",
				Usage: "Write markdown and CSV reports for an export",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Path to the export JSON file", Required: true},
					&cli.StringFlag{Name: "out", Usage: "Output directory", Value: "reports"},
					timezoneFlag,
				},
				Action: writeReport,
			},
		},
	}
}

type legSummaryOutput struct {
	NetQuantity      float64       `json:"netQuantity"`
	Risk             float64       `json:"risk"`
	Return           float64       `json:"return"`
	ReturnPercentage float64       `json:"returnPercentage"`
	Status           domain.Status `json:"status"`
}

type strategyMetricsOutput struct {
	StrategyID string               `json:"strategyId"`
	Name       string               `json:"name"`
	Metrics    domain.MetricsRecord `json:"metrics"`
}

func evaluate(cCtx *cli.Context) error {
	data, err := readInput(cCtx.String("legs"))
	if err != nil {
		return err
	}

	var inputs []domain.LegInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return fmt.Errorf("parse legs: %w", err)
	}

	legs := make([]domain.Leg, len(inputs))
	for i, in := range inputs {
		legs[i] = domain.NewLeg(fmt.Sprintf("leg-%d", i+1), in)
	}
	s := metrics.Summarize(legs)

	return writeJSON(cCtx.App.Writer, legSummaryOutput{
		NetQuantity:      s.NetQuantity,
		Risk:             s.Risk,
		Return:           s.Return,
		ReturnPercentage: s.ReturnPercentage,
		Status:           s.Status,
	})
}

func printMetrics(cCtx *cli.Context) error {
	report, err := buildReport(cCtx)
	if err != nil {
		return err
	}

	out := make([]strategyMetricsOutput, 0, len(report.Strategies))
	for _, s := range report.Strategies {
		out = append(out, strategyMetricsOutput{
			StrategyID: s.StrategyID,
			Name:       s.Name,
			Metrics:    s.Metrics,
		})
	}
	return writeJSON(cCtx.App.Writer, out)
}

func writeReport(cCtx *cli.Context) error {
	report, err := buildReport(cCtx)
	if err != nil {
		return err
	}

	outDir := cCtx.String("out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := []struct {
		name    string
		content string
	}{
		{"report.md", reporting.RenderMarkdown(report)},
		{"metrics.csv", reporting.RenderMetricsCSV(report)},
		{"bets.csv", reporting.RenderBetsCSV(report)},
		{"pnl.csv", reporting.RenderPnLCSV(report)},
	}
	for _, f := range files {
		path := filepath.Join(outDir, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(cCtx.App.Writer, "Written: %s\n", path)
	}
	return nil
}

func buildReport(cCtx *cli.Context) (*reporting.Report, error) {
	loc, err := time.LoadLocation(cCtx.String("timezone"))
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cCtx.String("timezone"), err)
	}

	f, err := os.Open(cCtx.String("file"))
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	export, err := reporting.ReadExport(f)
	if err != nil {
		return nil, err
	}
	return reporting.NewGenerator(loc).Generate(export), nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
