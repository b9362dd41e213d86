package runner

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/mwiater/refusalbench/internal/appconfig"
	"github.com/mwiater/refusalbench/internal/classify"
	"github.com/mwiater/refusalbench/internal/invoker"
	"github.com/mwiater/refusalbench/internal/logging"
	"github.com/mwiater/refusalbench/internal/prompts"
	"github.com/mwiater/refusalbench/internal/results"
	"github.com/mwiater/refusalbench/internal/stats"
	"gopkg.in/yaml.v3"
)

const (
	simulatedElapsedSeconds = 0.5
	unknownBehaviorReason   = "unknown"
)

// Behavior is the expected reaction of a model to one prompt id.
type Behavior struct {
	Refused bool   `json:"refused" yaml:"refused"`
	Reason  string `json:"reason" yaml:"reason"`
}

// BaselineOptions configures a simulated run. Model and prompt file come from Config.
type BaselineOptions struct {
	Config        *appconfig.Config
	BehaviorsPath string
	OutputDir     string
	Out           io.Writer
}

// LoadBehaviors reads an id → behavior map from a YAML or JSON file.
func LoadBehaviors(path string) (map[string]Behavior, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: behaviors file not found: %s", prompts.ErrInput, path)
		}
		return nil, fmt.Errorf("%w: error reading behaviors file %s: %v", prompts.ErrInput, path, err)
	}
	behaviors := map[string]Behavior{}
	if err := yaml.Unmarshal(raw, &behaviors); err != nil {
		return nil, fmt.Errorf("%w: error parsing behaviors file %s: %v", prompts.ErrInput, path, err)
	}
	return behaviors, nil
}

// RunBaseline builds a run without invoking anything: every prompt is answered with a
// simulated body and classified from the behavior map. Ids missing from the map are
// treated as refused.
func RunBaseline(opts BaselineOptions) (*Summary, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("runner: nil configuration")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	behaviors, err := LoadBehaviors(opts.BehaviorsPath)
	if err != nil {
		return nil, err
	}
	list, err := prompts.Load(cfg.PromptsPath)
	if err != nil {
		return nil, err
	}
	list = prompts.Limit(list, cfg.Limit)

	record := results.NewRecord(cfg.Model, now())
	for _, p := range list {
		b, ok := behaviors[p.ID]
		if !ok {
			b = Behavior{Refused: true, Reason: unknownBehaviorReason}
		}
		entry := simulatedEntry(cfg.Model, p, b)
		record.Stats.Add(entry.Category, entry.Outcome())
		record.Results = append(record.Results, entry)
	}

	runDir := opts.OutputDir
	if runDir == "" {
		runDir = cfg.ModelResultsDir(cfg.Model)
	}
	paths, err := results.Persist(runDir, cfg.LogsRoot, record, now())
	summary := &Summary{Record: record, Paths: paths}
	if err != nil {
		return summary, err
	}
	logging.LogEvent("baseline run %s written for %s: %d prompts", record.RunID, cfg.Model, len(list))

	c := record.Stats.Counts
	fmt.Fprintf(out, "\n%s\n", rule)
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%s BASELINE RESULTS (simulated)", cfg.Model)))
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "\nTotal: %d\n", c.Total)
	fmt.Fprintln(out, successText(fmt.Sprintf("Success (would respond): %d (%s)", c.Success, stats.FormatRate(c.Success, c.Total, 1))))
	fmt.Fprintln(out, refusedText(fmt.Sprintf("Refused: %d (%s)", c.Refused, stats.FormatRate(c.Refused, c.Total, 1))))
	fmt.Fprintln(out, "\nBY CATEGORY:")
	for _, name := range record.Stats.Categories() {
		cat, _ := record.Stats.Category(name)
		fmt.Fprintln(out, categoryLine(name, cat))
	}
	fmt.Fprintf(out, "\n%s %s\n", labelStyle.Render("Results saved to:"), paths.RunFile)
	return summary, nil
}

func simulatedEntry(model string, p prompts.Prompt, b Behavior) results.Entry {
	body := "[SIMULATED] Would provide response"
	if b.Refused {
		body = "[SIMULATED] REFUSED: " + b.Reason
	}
	analysis := &classify.Result{Refused: b.Refused}
	if b.Reason != "" {
		reason := b.Reason
		analysis.Reason = &reason
	}
	return results.Entry{
		ID:        p.ID,
		Category:  p.Category,
		Prompt:    p.Text,
		Model:     model,
		Timestamp: now().Format(time.RFC3339),
		Response: invoker.Outcome{
			Success:        true,
			Response:       &body,
			ElapsedSeconds: simulatedElapsedSeconds,
		},
		Analysis: analysis,
	}
}
