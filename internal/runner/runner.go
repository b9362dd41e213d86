// internal/runner/runner.go
// Package runner drives a prompt set through a model and persists the outcome.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mwiater/refusalbench/internal/appconfig"
	"github.com/mwiater/refusalbench/internal/classify"
	"github.com/mwiater/refusalbench/internal/invoker"
	"github.com/mwiater/refusalbench/internal/logging"
	"github.com/mwiater/refusalbench/internal/metrics"
	"github.com/mwiater/refusalbench/internal/prompts"
	"github.com/mwiater/refusalbench/internal/results"
	"github.com/mwiater/refusalbench/internal/stats"
)

var (
	now        = time.Now
	newInvoker = func(cfg *appconfig.Config) invoker.Invoker {
		return invoker.New(cfg.Executable, cfg.ExecutableArgs, cfg.InvocationTimeout())
	}

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	labelStyle  = lipgloss.NewStyle().Faint(true)

	successText = color.New(color.FgGreen).SprintFunc()
	refusedText = color.New(color.FgYellow).SprintFunc()
	errorText   = color.New(color.FgRed).SprintFunc()
)

const rule = "============================================================"

// Options configures a run. Model, prompt file, limit and timeout come from Config.
type Options struct {
	Config *appconfig.Config
	// OutputDir overrides the per-model results directory.
	OutputDir string
	// CSVPath, when set, receives a CSV export of the run.
	CSVPath string
	// Invoker replaces the external process, mainly for tests.
	Invoker invoker.Invoker
	Out     io.Writer
}

// Summary is what a finished run produced.
type Summary struct {
	Record results.RunRecord
	Paths  results.Paths
}

// Run evaluates every prompt in order. Invocation failures are recorded and never stop
// the run; a cancelled ctx stops it after the current prompt and the partial run is
// still persisted.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("runner: nil configuration")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	list, err := prompts.Load(cfg.PromptsPath)
	if err != nil {
		return nil, err
	}
	list = prompts.Limit(list, cfg.Limit)

	inv := opts.Invoker
	if inv == nil {
		inv = newInvoker(cfg)
	}
	classifier := Classifier(cfg)
	logging.Logger().Debug().Int("patterns", len(classifier.Patterns())).Int("min_length", cfg.MinLength()).Msg("classifier ready")
	recorder := metrics.NewRecorder()

	record := results.NewRecord(cfg.Model, now())
	logging.LogEvent("run %s started: model=%s prompts=%d", record.RunID, cfg.Model, len(list))

	fmt.Fprintf(out, "\n%s\n", rule)
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Testing %d prompts on model: %s", len(list), cfg.Model)))
	fmt.Fprintf(out, "%s\n\n", rule)

	var interrupted error
	for i, p := range list {
		if err := ctx.Err(); err != nil {
			interrupted = err
			fmt.Fprintln(out, errorText(fmt.Sprintf("Interrupted after %d of %d prompts", i, len(list))))
			break
		}
		fmt.Fprintf(out, "[%d/%d] Testing: %s (%s)\n", i+1, len(list), p.ID, p.Category)

		startedAt := now()
		outcome := inv.Invoke(ctx, cfg.Model, p.Text)
		entry := results.Entry{
			ID:        p.ID,
			Category:  p.Category,
			Prompt:    p.Text,
			Model:     cfg.Model,
			Timestamp: startedAt.Format(time.RFC3339),
			Response:  outcome,
		}
		if outcome.Success {
			analysis := classifier.Classify(outcome.ResponseText())
			entry.Analysis = &analysis
		}

		o := entry.Outcome()
		record.Stats.Add(entry.Category, o)
		record.Results = append(record.Results, entry)
		recorder.Observe(cfg.Model, entry.Category, o, outcome.ElapsedSeconds)
		logging.LogInvocation(cfg.Model, p.ID, outcome.Success, outcome.ElapsedSeconds, outcome.ErrorText())

		fmt.Fprintln(out, statusLine(entry))
	}

	summary := &Summary{Record: record}
	runDir := opts.OutputDir
	if runDir == "" {
		runDir = cfg.ModelResultsDir(cfg.Model)
	}
	finishedAt := now()
	paths, err := results.Persist(runDir, cfg.LogsRoot, record, finishedAt)
	summary.Paths = paths
	if err != nil {
		if paths.SessionLog != "" {
			fmt.Fprintf(out, "Per-prompt records salvaged to: %s\n", paths.SessionLog)
		}
		return summary, err
	}

	if opts.CSVPath != "" {
		if err := results.WriteCSV(opts.CSVPath, record.Results); err != nil {
			return summary, err
		}
	}
	if cfg.MetricsTextfile != "" {
		if err := recorder.WriteTextfile(cfg.MetricsTextfile); err != nil {
			return summary, err
		}
	}

	printSummary(out, record.Stats.Counts)
	fmt.Fprintf(out, "\n%s %s\n", labelStyle.Render("Results saved to:"), paths.RunFile)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Logs saved to:"), paths.SessionLog)
	if opts.CSVPath != "" {
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("CSV saved to:"), opts.CSVPath)
	}
	logging.LogEvent("run %s finished: total=%d success=%d refused=%d error=%d",
		record.RunID, record.Stats.Total, record.Stats.Success, record.Stats.Refused, record.Stats.Error)

	if interrupted != nil {
		return summary, fmt.Errorf("run interrupted: %w", interrupted)
	}
	return summary, nil
}

// Classifier builds the response classifier described by cfg, falling back to the
// built-in phrase list when none is configured.
func Classifier(cfg *appconfig.Config) *classify.Classifier {
	if len(cfg.RefusalPatterns) == 0 {
		return classify.New(classify.DefaultPatterns(), cfg.MinLength())
	}
	patterns := make([]classify.Pattern, 0, len(cfg.RefusalPatterns))
	for _, p := range cfg.RefusalPatterns {
		patterns = append(patterns, classify.Pattern{Phrase: p.Phrase, Label: p.Label})
	}
	return classify.New(patterns, cfg.MinLength())
}

func statusLine(e results.Entry) string {
	switch e.Outcome() {
	case stats.Errored:
		msg := e.Response.ErrorText()
		if msg == "" {
			msg = "unknown"
		}
		return errorText("    Error: " + msg)
	case stats.Refused:
		return refusedText("    Refused: " + e.Analysis.ReasonText())
	default:
		return successText(fmt.Sprintf("    Success (%.2fs)", e.Response.ElapsedSeconds))
	}
}

func printSummary(out io.Writer, c stats.Counts) {
	fmt.Fprintf(out, "\n%s\n", rule)
	fmt.Fprintln(out, headerStyle.Render("SUMMARY"))
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "Total: %d\n", c.Total)
	fmt.Fprintln(out, successText(fmt.Sprintf("Success: %d (%s)", c.Success, stats.FormatRate(c.Success, c.Total, 1))))
	fmt.Fprintln(out, refusedText(fmt.Sprintf("Refused: %d (%s)", c.Refused, stats.FormatRate(c.Refused, c.Total, 1))))
	fmt.Fprintln(out, errorText(fmt.Sprintf("Errors: %d (%s)", c.Error, stats.FormatRate(c.Error, c.Total, 1))))
}

func categoryLine(name string, c stats.Counts) string {
	return fmt.Sprintf("  %-12s: %d/%d success (%s), %d refused",
		name, c.Success, c.Total, stats.FormatRate(c.Success, c.Total, 0), c.Refused)
}
