// Package report renders a measurement session into a fixed-format text
// file. Rendering is a pure projection of a session snapshot; nothing here
// mutates session state.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/rvlab/rvcheck/pkg/session"
)

const (
	labelPass = "PASS"
	labelFail = "NOT PASS"

	timeLayout     = "2006-01-02 15:04:05"
	filenameLayout = "20060102_150405"
)

// Format selects the report layout
type Format string

const (

	// FormatNarrative is the tab-separated layout with a trailing
	// Overall verdict
	FormatNarrative Format = "narrative"

	// FormatTable is the fixed-width column layout repeating the static
	// bounds on every row
	FormatTable Format = "table"
)

// Filename builds the conventional report file name for a model and
// timestamp: <model-or-"model">_<YYYYMMDD_HHMMSS>.txt
func Filename(model string, t time.Time) string {
	model = strings.TrimSpace(model)
	if model == "" {
		model = "model"
	}
	return fmt.Sprintf("%s_%s.txt", model, t.Format(filenameLayout))
}

// Render produces the report text for the given format
func Render(format Format, s session.Snapshot) string {
	if format == FormatTable {
		return Table(s)
	}
	return Narrative(s)
}

// Narrative renders the tab-separated report: metadata header, limit
// summary, one row per point (6-decimal readings, N/A for incomplete
// rows) and a trailing Overall verdict
func Narrative(s session.Snapshot) string {

	var lines []string
	lines = append(lines, "Model\t"+modelOrDash(s.Model))
	lines = append(lines, "Time\t"+s.Taken.Format(timeLayout))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("R Limits\tmin=%g %s\tmax=%g %s", s.Limits.R.Min, s.Unit, s.Limits.R.Max, s.Unit))
	lines = append(lines, fmt.Sprintf("V Limits\tmin=%g V\tmax=%g V", s.Limits.V.Min, s.Limits.V.Max))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("Cell\tR(%s)\tV(V)\tResult", s.Unit))

	for i, p := range s.Points {
		if p.Resistance == nil || p.Voltage == nil {
			lines = append(lines, fmt.Sprintf("%d\t\t\tN/A", i+1))
			continue
		}
		result := labelFail
		if p.Passed {
			result = labelPass
		}
		lines = append(lines, fmt.Sprintf("%d\t%.6f\t%.6f\t%s", i+1, *p.Resistance, *p.Voltage, result))
	}

	overall := labelFail
	if s.Overall() {
		overall = labelPass
	}
	lines = append(lines, "")
	lines = append(lines, "Overall\t"+overall)

	return strings.Join(lines, "\n") + "\n"
}

// Table renders the fixed-width column report, repeating the static bounds
// on every row (resistance to 2 decimals, voltage to 4)
func Table(s session.Snapshot) string {

	cols := []struct {
		name  string
		width int
	}{
		{"Items", 6},
		{"Cell", 6},
		{"Pt", 4},
		{fmt.Sprintf("min(%s)", s.Unit), 8},
		{fmt.Sprintf("R(%s)", s.Unit), 8},
		{fmt.Sprintf("max(%s)", s.Unit), 8},
		{"min(V)", 10},
		{"V(V)", 10},
		{"max(V)", 10},
	}

	var lines []string
	lines = append(lines, "Model : "+modelOrDash(s.Model))
	lines = append(lines, "Time  : "+s.Taken.Format(timeLayout))
	lines = append(lines, fmt.Sprintf("R Limits : min=%.3f %s  max=%.3f %s", s.Limits.R.Min, s.Unit, s.Limits.R.Max, s.Unit))
	lines = append(lines, fmt.Sprintf("V Limits : min=%.4f V  max=%.4f V", s.Limits.V.Min, s.Limits.V.Max))
	lines = append(lines, "")

	var header []string
	for _, col := range cols {
		header = append(header, pad(col.name, col.width))
	}
	headerLine := strings.Join(header, " ")
	lines = append(lines, headerLine)
	lines = append(lines, strings.Repeat("-", len([]rune(headerLine))))

	for i, p := range s.Points {
		fields := []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("Cell%d", i+1),
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%.2f", s.Limits.R.Min),
			formatOptional(p.Resistance, 2),
			fmt.Sprintf("%.2f", s.Limits.R.Max),
			fmt.Sprintf("%.4f", s.Limits.V.Min),
			formatOptional(p.Voltage, 4),
			fmt.Sprintf("%.4f", s.Limits.V.Max),
		}
		var row []string
		for j, field := range fields {
			row = append(row, pad(field, cols[j].width))
		}
		lines = append(lines, strings.Join(row, " "))
	}

	return strings.Join(lines, "\n") + "\n"
}

////////////////////////////////////////////////////////////////////////////////

func modelOrDash(model string) string {
	if strings.TrimSpace(model) == "" {
		return "-"
	}
	return model
}

func formatOptional(v *float64, decimals int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.*f", decimals, *v)
}

func pad(s string, width int) string {
	if n := width - len([]rune(s)); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}
