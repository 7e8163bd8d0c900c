package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	types "github.com/prepwise/interview-intel/pkg/types/insight"
)

// writeRecordsFile marshals records into a temp JSON file and returns its path.
func writeRecordsFile(t *testing.T, records []types.ExperienceRecord) string {
	t.Helper()
	data, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("marshal records: %v", err)
	}
	path := filepath.Join(t.TempDir(), "records.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write records: %v", err)
	}
	return path
}

func sampleRecords() []types.ExperienceRecord {
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	return []types.ExperienceRecord{
		{Company: "acme", Date: base, RawText: "kafka consumer group question", Outcome: types.OutcomeSuccess},
		{Company: "acme", Date: base.AddDate(0, 1, 0), RawText: "redis caching and kafka streams", Outcome: types.OutcomeFail},
		{Company: "acme", Date: base.AddDate(0, 2, 0), RawText: "system design with kafka", Outcome: types.OutcomeUnknown},
		{Company: "globex", Date: base, RawText: "binary tree traversal", Outcome: types.OutcomeSuccess},
	}
}

// runCLI executes the root command with args and returns captured stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAnalyze_SingleCompanyJSON(t *testing.T) {
	path := writeRecordsFile(t, sampleRecords())

	out, err := runCLI(t, "analyze", "--input", path, "--company", "acme")
	if err != nil {
		t.Fatalf("analyze: %v\n%s", err, out)
	}

	var reports []types.RunReport
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("output is not a JSON report array: %v\n%s", err, out)
	}
	if len(reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(reports))
	}
	if reports[0].Company != "acme" {
		t.Errorf("company = %q, want acme", reports[0].Company)
	}
	if reports[0].DocumentCount != 3 {
		t.Errorf("document count = %d, want 3", reports[0].DocumentCount)
	}
	// The globex record does not belong to the requested company.
	if reports[0].SkipReasons["company_mismatch"] != 1 {
		t.Errorf("skip reasons = %v, want one company_mismatch", reports[0].SkipReasons)
	}
}

func TestAnalyze_AllCompanies(t *testing.T) {
	path := writeRecordsFile(t, sampleRecords())

	out, err := runCLI(t, "analyze", "--input", path)
	if err != nil {
		t.Fatalf("analyze: %v\n%s", err, out)
	}

	var reports []types.RunReport
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("output is not a JSON report array: %v\n%s", err, out)
	}
	if len(reports) != 2 {
		t.Fatalf("reports = %d, want 2", len(reports))
	}
	if reports[0].Company != "acme" || reports[1].Company != "globex" {
		t.Errorf("companies = [%s, %s], want [acme, globex]", reports[0].Company, reports[1].Company)
	}
}

func TestAnalyze_OutputFile(t *testing.T) {
	inPath := writeRecordsFile(t, sampleRecords())
	outPath := filepath.Join(t.TempDir(), "report.json")

	out, err := runCLI(t, "analyze", "--input", inPath, "--company", "acme", "--output-file", outPath)
	if err != nil {
		t.Fatalf("analyze: %v\n%s", err, out)
	}
	if !strings.Contains(out, "OK:") {
		t.Errorf("expected success message, got %q", out)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output file: %v", err)
	}
	var report types.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("output file is not a JSON report: %v", err)
	}
	if report.RunID == "" {
		t.Error("report must carry a run ID")
	}
}

func TestAnalyze_TableOutput(t *testing.T) {
	path := writeRecordsFile(t, sampleRecords())

	out, err := runCLI(t, "analyze", "--input", path, "--company", "acme", "-o", "table")
	if err != nil {
		t.Fatalf("analyze: %v\n%s", err, out)
	}
	if !strings.Contains(out, "COMPANY") || !strings.Contains(out, "PRIORITY") {
		t.Errorf("expected table header, got:\n%s", out)
	}
	if !strings.Contains(out, "acme") {
		t.Errorf("expected company rows, got:\n%s", out)
	}
}

func TestAnalyze_MissingInputFile(t *testing.T) {
	out, err := runCLI(t, "analyze", "--input", filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatalf("expected error for missing input file, got:\n%s", out)
	}
}

func TestAnalyze_MalformedInputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := runCLI(t, "analyze", "--input", path); err == nil {
		t.Fatal("expected error for malformed input")
	}
}

func TestAnalyze_RequiresInputFlag(t *testing.T) {
	if _, err := runCLI(t, "analyze"); err == nil {
		t.Fatal("expected error when --input is missing")
	}
}
