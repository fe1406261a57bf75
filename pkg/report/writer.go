package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rvlab/rvcheck/pkg/session"
)

// Writer persists rendered reports to the filesystem. It implements
// session.Exporter for the automatic export path.
type Writer struct {

	// Dir is the destination folder; empty means the process working
	// directory
	Dir string

	// Format selects the report layout (narrative when unset)
	Format Format
}

// ExportAuto writes a report with a generated timestamped filename into
// the configured folder and returns the written path. It never prompts.
func (w Writer) ExportAuto(s session.Snapshot) (string, error) {

	dir := w.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export folder: %w", err)
	}

	path := filepath.Join(dir, Filename(s.Model, s.Taken))
	if err := w.Export(s, path); err != nil {
		return "", err
	}
	return path, nil
}

// Export writes a report to an explicit destination path
func (w Writer) Export(s session.Snapshot, path string) error {
	if err := os.WriteFile(path, []byte(Render(w.Format, s)), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
