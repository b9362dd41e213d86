package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

var csvHeader = []string{
	"id", "category", "model", "timestamp", "outcome",
	"success", "elapsed_seconds", "refused", "reason",
	"error", "prompt", "response",
}

// WriteCSV exports entries to path, one row per prompt. An existing file is overwritten.
func WriteCSV(path string, entries []Entry) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: error creating csv directory %s: %w", ErrStorage, dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: error creating csv file %s: %w", ErrStorage, path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("%w: error writing csv header: %w", ErrStorage, err)
	}
	for _, e := range entries {
		if err := w.Write(csvRow(e)); err != nil {
			return fmt.Errorf("%w: error writing csv row %s: %w", ErrStorage, e.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: error flushing csv file %s: %w", ErrStorage, path, err)
	}
	return f.Close()
}

func csvRow(e Entry) []string {
	refused, reason := "", ""
	if e.Analysis != nil {
		refused = strconv.FormatBool(e.Analysis.Refused)
		reason = e.Analysis.ReasonText()
	}
	return []string{
		e.ID,
		e.Category,
		e.Model,
		e.Timestamp,
		e.Outcome().String(),
		strconv.FormatBool(e.Response.Success),
		fmt.Sprintf("%.2f", e.Response.ElapsedSeconds),
		refused,
		reason,
		e.Response.ErrorText(),
		e.Prompt,
		e.Response.ResponseText(),
	}
}
