package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pauljones0/graph-feed-export/internal/models"
)

// fileTimeLayout renders the run timestamp as YYYYMMDD_HHMMSS.
const fileTimeLayout = "20060102_150405"

type CSVExporter struct {
	dir    string
	prefix string
	now    func() time.Time
}

func New(dir, prefix string) *CSVExporter {
	return &CSVExporter{
		dir:    dir,
		prefix: prefix,
		now:    time.Now,
	}
}

// FileName returns <prefix>_<groupID>_<YYYYMMDD_HHMMSS>.csv.
func FileName(prefix, groupID string, t time.Time) string {
	return fmt.Sprintf("%s_%s_%s.csv", prefix, groupID, t.Format(fileTimeLayout))
}

// WriteRows writes the header followed by one record per row, in order.
func WriteRows(w io.Writer, rows []models.PostRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.PostRowHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(row.Record()); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Export writes rows to a new file in the output directory and returns its
// path. The file appears under its final name only once fully written.
func (e *CSVExporter) Export(groupID string, rows []models.PostRow) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", e.dir, err)
	}

	path := filepath.Join(e.dir, FileName(e.prefix, groupID, e.now()))

	tmp, err := os.CreateTemp(e.dir, ".export-*.csv.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := WriteRows(tmp, rows); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move export into place at %s: %w", path, err)
	}
	return path, nil
}
