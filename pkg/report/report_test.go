package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rvlab/rvcheck/pkg/meter"
	"github.com/rvlab/rvcheck/pkg/session"
)

func f(x float64) *float64 { return &x }

func testSnapshot() session.Snapshot {
	return session.Snapshot{
		Model: "ACME-42",
		Unit:  meter.UnitMilliOhm,
		Limits: meter.Limits{
			R: meter.Bounds{Min: 9.5, Max: 10.5},
			V: meter.Bounds{Min: 4.9, Max: 5.1},
		},
		Points: []session.Point{
			{Resistance: f(10.1), Voltage: f(5.0), Passed: true},
			{},
		},
		Taken: time.Date(2026, 8, 27, 13, 14, 15, 0, time.UTC),
	}
}

func TestNarrative(t *testing.T) {
	out := Narrative(testSnapshot())
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	if lines[0] != "Model\tACME-42" {
		t.Errorf("unexpected model line: %q", lines[0])
	}
	if lines[1] != "Time\t2026-08-27 13:14:15" {
		t.Errorf("unexpected time line: %q", lines[1])
	}

	if !strings.Contains(out, "1\t10.100000\t5.000000\tPASS") {
		t.Errorf("complete row missing or malformed:\n%s", out)
	}
	if !strings.Contains(out, "2\t\t\tN/A") {
		t.Errorf("incomplete row not rendered as N/A:\n%s", out)
	}
	if !strings.HasSuffix(strings.TrimRight(out, "\n"), "Overall\tNOT PASS") {
		t.Errorf("incomplete session not overall NOT PASS:\n%s", out)
	}
}

func TestNarrativeOverallPass(t *testing.T) {
	s := testSnapshot()
	s.Points[1] = session.Point{Resistance: f(9.8), Voltage: f(5.05), Passed: true}

	out := Narrative(s)
	if !strings.HasSuffix(strings.TrimRight(out, "\n"), "Overall\tPASS") {
		t.Errorf("all-passing session not overall PASS:\n%s", out)
	}
}

func TestNarrativeBlankModel(t *testing.T) {
	s := testSnapshot()
	s.Model = "  "

	out := Narrative(s)
	if !strings.HasPrefix(out, "Model\t-\n") {
		t.Errorf("blank model not rendered as dash:\n%s", out)
	}
}

func TestTable(t *testing.T) {
	out := Table(testSnapshot())

	if !strings.Contains(out, "Items") || !strings.Contains(out, "Pt") {
		t.Errorf("column header missing:\n%s", out)
	}
	if !strings.Contains(out, "Cell1") {
		t.Errorf("first row missing:\n%s", out)
	}
	// Static bounds repeat on every row, readings use 2 / 4 decimals
	if !strings.Contains(out, "9.50") || !strings.Contains(out, "10.50") {
		t.Errorf("resistance bounds missing:\n%s", out)
	}
	if !strings.Contains(out, "10.10") {
		t.Errorf("resistance reading missing:\n%s", out)
	}
	if !strings.Contains(out, "4.9000") || !strings.Contains(out, "5.0000") {
		t.Errorf("voltage fields missing:\n%s", out)
	}

	// Second point has no readings, but its bounds still render
	rows := strings.Split(strings.TrimRight(out, "\n"), "\n")
	last := rows[len(rows)-1]
	if !strings.HasPrefix(last, "2 ") || !strings.Contains(last, "Cell2") {
		t.Errorf("unexpected final row: %q", last)
	}
}

func TestRender(t *testing.T) {
	s := testSnapshot()
	if Render(FormatNarrative, s) != Narrative(s) {
		t.Errorf("narrative format not honored")
	}
	if Render(FormatTable, s) != Table(s) {
		t.Errorf("table format not honored")
	}
	// Unknown / empty format falls back to narrative
	if Render("", s) != Narrative(s) {
		t.Errorf("empty format does not default to narrative")
	}
}

func TestFilename(t *testing.T) {
	ts := time.Date(2026, 8, 27, 13, 14, 15, 0, time.UTC)

	if got := Filename("ACME-42", ts); got != "ACME-42_20260827_131415.txt" {
		t.Errorf("unexpected filename: %q", got)
	}
	if got := Filename("  ", ts); got != "model_20260827_131415.txt" {
		t.Errorf("blank model not defaulted: %q", got)
	}
}

func TestWriterExportAuto(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	w := Writer{Dir: dir}

	path, err := w.ExportAuto(testSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if filepath.Base(path) != "ACME-42_20260827_131415.txt" {
		t.Errorf("unexpected report path: %q", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("report not written: %s", err)
	}
	if string(raw) != Narrative(testSnapshot()) {
		t.Errorf("written report differs from rendering")
	}
}

func TestWriterExportFailure(t *testing.T) {
	w := Writer{}
	err := w.Export(testSnapshot(), filepath.Join(t.TempDir(), "missing", "report.txt"))
	if err == nil {
		t.Fatalf("write into missing folder unexpectedly succeeded")
	}
}
