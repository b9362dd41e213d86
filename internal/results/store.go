// Package results persists runs: one indented JSON file per run, a JSONL session log
// with one line per prompt, and an optional CSV export.
package results

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/mwiater/refusalbench/internal/appconfig"
)

// ErrStorage marks a failure to write or read persisted results.
var ErrStorage = errors.New("result storage failure")

const (
	// FilePrefix starts every run file name.
	FilePrefix = "results_"
	// FileStampLayout is the timestamp embedded in run and session file names.
	FileStampLayout = "20060102_150405"
)

var fileStampPattern = regexp.MustCompile(`_(\d{8}_\d{6})\.json$`)

// Paths lists the files written for a run.
type Paths struct {
	RunFile    string
	SessionLog string
}

// NewRecord starts a record for model with a fresh run id.
func NewRecord(model string, at time.Time) RunRecord {
	return RunRecord{
		RunID:     uuid.NewString(),
		Model:     model,
		Timestamp: at.Format(time.RFC3339),
		Results:   []Entry{},
	}
}

// RunFileName returns the file name a run of model finished at `at` is stored under.
func RunFileName(model string, at time.Time) string {
	return fmt.Sprintf("%s%s_%s.json", FilePrefix, appconfig.ModelDirName(model), at.Format(FileStampLayout))
}

// ParseFileTimestamp extracts the timestamp embedded in a run file name.
func ParseFileTimestamp(name string) (time.Time, bool) {
	m := fileStampPattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(FileStampLayout, m[1], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// SaveRun writes record into dir and returns the file path. The file is written once.
func SaveRun(dir string, record RunRecord, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: error creating results directory %s: %w", ErrStorage, dir, err)
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(record); err != nil {
		return "", fmt.Errorf("%w: error encoding run: %w", ErrStorage, err)
	}

	path := filepath.Join(dir, RunFileName(record.Model, at))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("%w: error writing run file %s: %w", ErrStorage, path, err)
	}
	return path, nil
}

// WriteSessionLog writes entries, one JSON document per line, into logsDir.
func WriteSessionLog(logsDir string, entries []Entry, at time.Time) (string, error) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: error creating logs directory %s: %w", ErrStorage, logsDir, err)
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	for _, e := range entries {
		if err := encoder.Encode(e); err != nil {
			return "", fmt.Errorf("%w: error encoding session entry %s: %w", ErrStorage, e.ID, err)
		}
	}

	path := filepath.Join(logsDir, fmt.Sprintf("session_%s.jsonl", at.Format(FileStampLayout)))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("%w: error writing session log %s: %w", ErrStorage, path, err)
	}
	return path, nil
}

// Persist writes the run file and the session log. A failed run file does not stop
// the session log from being written, so the per-prompt records survive; the first
// error is returned.
func Persist(runDir, logsDir string, record RunRecord, at time.Time) (Paths, error) {
	var paths Paths
	runFile, runErr := SaveRun(runDir, record, at)
	paths.RunFile = runFile

	sessionLog, logErr := WriteSessionLog(logsDir, record.Results, at)
	paths.SessionLog = sessionLog

	if runErr != nil {
		return paths, runErr
	}
	return paths, logErr
}

// Load reads a run file.
func Load(path string) (RunRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RunRecord{}, fmt.Errorf("%w: error reading run file %s: %w", ErrStorage, path, err)
	}
	var record RunRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return RunRecord{}, fmt.Errorf("%w: error parsing run file %s: %w", ErrStorage, path, err)
	}
	if err := record.Stats.Validate(); err != nil {
		return RunRecord{}, fmt.Errorf("%w: run file %s: %w", ErrStorage, path, err)
	}
	return record, nil
}
