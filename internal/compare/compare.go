// internal/compare/compare.go
// Package compare loads the newest stored run of each model and renders them side by side.
package compare

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mwiater/refusalbench/internal/appconfig"
	"github.com/mwiater/refusalbench/internal/logging"
	"github.com/mwiater/refusalbench/internal/results"
	"github.com/mwiater/refusalbench/internal/stats"
)

// ErrNoResults is returned by Latest when a directory holds no run file.
var ErrNoResults = errors.New("no results found")

const runFilePattern = results.FilePrefix + "*.json"

// ModelRun is the newest stored run of one model.
type ModelRun struct {
	Model   string
	File    string
	ModTime time.Time
	Stats   stats.RunStats
}

// Comparison is an ordered set of model runs.
type Comparison struct {
	Runs []ModelRun
}

// Empty reports whether no model had results.
func (c *Comparison) Empty() bool {
	return c == nil || len(c.Runs) == 0
}

// Categories returns the union of every run's categories, sorted.
func (c *Comparison) Categories() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, run := range c.Runs {
		for _, name := range run.Stats.Categories() {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

type candidate struct {
	path    string
	modTime time.Time
	stamp   time.Time
}

// Latest returns the run file in dir with the newest modification time. Ties break by
// the timestamp embedded in the file name, then by the file name itself.
func Latest(dir string) (string, time.Time, error) {
	matches, err := filepath.Glob(filepath.Join(dir, runFilePattern))
	if err != nil {
		return "", time.Time{}, err
	}

	var candidates []candidate
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		stamp, _ := results.ParseFileTimestamp(path)
		candidates = append(candidates, candidate{path: path, modTime: info.ModTime(), stamp: stamp})
	}
	if len(candidates) == 0 {
		return "", time.Time{}, fmt.Errorf("%w in %s", ErrNoResults, dir)
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.modTime.Equal(b.modTime) {
			return a.modTime.After(b.modTime)
		}
		if !a.stamp.Equal(b.stamp) {
			return a.stamp.After(b.stamp)
		}
		return a.path > b.path
	})
	return candidates[0].path, candidates[0].modTime, nil
}

// ModelDirs lists the model directories under resultsRoot, sorted by name. The
// generated-report directory is skipped and a missing root yields no directories.
func ModelDirs(resultsRoot string) ([]string, error) {
	entries, err := os.ReadDir(resultsRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading results root %s: %w", resultsRoot, err)
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() || appconfig.IsComparisonDir(e.Name()) {
			continue
		}
		dirs = append(dirs, filepath.Join(resultsRoot, e.Name()))
	}
	return dirs, nil
}

// Compare loads the newest run of every directory in dirs, in order. The model name is
// the directory's base name; directories without results are skipped.
func Compare(dirs []string) (*Comparison, error) {
	cmp := &Comparison{}
	for _, dir := range dirs {
		path, modTime, err := Latest(dir)
		if errors.Is(err, ErrNoResults) {
			logging.Logger().Debug().Str("dir", dir).Msg("no results, skipping")
			continue
		}
		if err != nil {
			return nil, err
		}

		record, err := results.Load(path)
		if err != nil {
			return nil, err
		}
		cmp.Runs = append(cmp.Runs, ModelRun{
			Model:   filepath.Base(filepath.Clean(dir)),
			File:    path,
			ModTime: modTime,
			Stats:   record.Stats,
		})
	}
	return cmp, nil
}
