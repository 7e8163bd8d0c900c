package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/prepwise/interview-intel/internal/infrastructure/monitoring/logging"
	types "github.com/prepwise/interview-intel/pkg/types/insight"
)

// AnalyzeOptions holds flags of the analyze command.
type AnalyzeOptions struct {
	InputPath  string
	Company    string
	OutputPath string
}

// NewAnalyzeCmd creates the analyze command: read experience records from a
// JSON file, run the pipeline, and emit run reports.
func NewAnalyzeCmd() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze interview-experience records into a study report",
		Long:  "analyze reads a JSON array of experience records, runs topic\nextraction, scoring, trend analysis, and recommendation ranking, and\nemits one report per company.  With --company only that company's\nrecords are analyzed; otherwise records are grouped by company.",
		Example: `  insight analyze --input records.json --company acme
  insight analyze --input records.json --output reports.json
  insight analyze --input records.json -o table`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.InputPath, "input", "i", "", "path to a JSON array of experience records (required)")
	f.StringVar(&opts.Company, "company", "", "analyze only this company's records")
	f.StringVar(&opts.OutputPath, "output-file", "", "write the report JSON to this file instead of stdout")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *AnalyzeOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	records, err := readRecords(opts.InputPath)
	if err != nil {
		return err
	}
	cliCtx.Logger.Debug("records loaded",
		logging.String("path", opts.InputPath),
		logging.Int("count", len(records)),
	)

	ctx := cmd.Context()
	var reports []*types.RunReport
	if opts.Company != "" {
		report, err := cliCtx.Engine.AnalyzeCompany(ctx, opts.Company, records)
		if err != nil {
			return err
		}
		reports = []*types.RunReport{report}
	} else {
		reports, err = cliCtx.Engine.AnalyzeCompanies(ctx, records)
		if err != nil {
			return err
		}
	}

	if opts.OutputPath != "" {
		if err := writeReports(opts.OutputPath, reports); err != nil {
			return err
		}
		PrintSuccess(cmd, fmt.Sprintf("%d report(s) written to %s", len(reports), opts.OutputPath))
		return nil
	}

	if cliCtx.OutputFormat == "table" {
		for _, report := range reports {
			if err := PrintResult(cmd, reportTable{report}); err != nil {
				return err
			}
		}
		return nil
	}
	return PrintResult(cmd, reports)
}

// readRecords loads and decodes a JSON array of experience records.
func readRecords(path string) ([]types.ExperienceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file %q: %w", path, err)
	}

	var records []types.ExperienceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse input file %q: %w", path, err)
	}
	return records, nil
}

// writeReports writes reports as indented JSON.  A single report is written
// as an object, multiple reports as an array.
func writeReports(path string, reports []*types.RunReport) error {
	var payload interface{} = reports
	if len(reports) == 1 {
		payload = reports[0]
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode reports: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write output file %q: %w", path, err)
	}
	return nil
}

// reportTable renders a run report's recommendations as a table.
type reportTable struct {
	report *types.RunReport
}

func (r reportTable) TableHeaders() []string {
	return []string{"COMPANY", "TOPIC", "CATEGORY", "PRIORITY", "SCORE", "FREQ", "TREND", "HOURS"}
}

func (r reportTable) TableRows() [][]string {
	trendByTopic := make(map[string]types.TrendResult, len(r.report.Trends))
	for _, tr := range r.report.Trends {
		trendByTopic[tr.TopicID] = tr
	}

	rows := make([][]string, 0, len(r.report.Recommendations))
	for _, rec := range r.report.Recommendations {
		direction := string(types.TrendStable)
		if tr, ok := trendByTopic[rec.Topic.ID]; ok && tr.Significant {
			direction = string(tr.Direction)
		}
		rows = append(rows, []string{
			r.report.Company,
			rec.Topic.RepresentativeTerm,
			string(rec.Topic.Category),
			string(rec.Topic.PriorityLevel),
			strconv.FormatFloat(rec.PriorityScore, 'f', 2, 64),
			strconv.FormatFloat(rec.Topic.WeightedFrequency, 'f', 1, 64),
			direction,
			strconv.FormatFloat(rec.EstimatedHours, 'f', 1, 64),
		})
	}
	return rows
}
