// Package invoker runs a single prompt against a model through an external inference
// process and captures what happened.
package invoker

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os/exec"
	"strings"
	"time"

	"github.com/mwiater/refusalbench/internal/logging"
)

// TimeoutError is the error text recorded when a call exceeds its timeout.
const TimeoutError = "Timeout"

// waitDelay bounds how long Wait blocks on output pipes held open by grandchildren
// after the process itself has been killed.
const waitDelay = time.Second

// Outcome is the result of one invocation. Response and Error are nil when the
// corresponding text was never produced.
type Outcome struct {
	Success        bool    `json:"success"`
	Response       *string `json:"response,omitempty"`
	Error          *string `json:"error"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// ResponseText returns the captured response, or "" when there is none.
func (o Outcome) ResponseText() string {
	if o.Response == nil {
		return ""
	}
	return *o.Response
}

// ErrorText returns the captured error, or "" when there is none.
func (o Outcome) ErrorText() string {
	if o.Error == nil {
		return ""
	}
	return *o.Error
}

// Invoker executes one prompt against one model.
type Invoker interface {
	Invoke(ctx context.Context, model, prompt string) Outcome
}

// Process invokes `Executable Args... <model> <prompt>` once per call.
type Process struct {
	Executable string
	Args       []string
	Timeout    time.Duration
}

// New returns a Process invoker.
func New(executable string, args []string, timeout time.Duration) *Process {
	return &Process{
		Executable: executable,
		Args:       append([]string(nil), args...),
		Timeout:    timeout,
	}
}

// Invoke blocks until the process exits, the timeout elapses, or ctx is cancelled.
func (p *Process) Invoke(ctx context.Context, model, prompt string) Outcome {
	start := time.Now()

	runCtx := ctx
	cancel := func() {}
	if p.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, p.Timeout)
	}
	defer cancel()

	argv := make([]string, 0, len(p.Args)+2)
	argv = append(argv, p.Args...)
	argv = append(argv, model, prompt)

	cmd := exec.CommandContext(runCtx, p.Executable, argv...)
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	elapsed := roundSeconds(time.Since(start))

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		logging.Logger().Debug().Str("model", model).Float64("elapsed_seconds", elapsed).Msg("process exited cleanly")
		return Outcome{
			Success:        true,
			Response:       text(strings.TrimSpace(stdout.String())),
			ElapsedSeconds: elapsed,
		}
	case ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return Outcome{
			Error:          text(TimeoutError),
			ElapsedSeconds: p.Timeout.Seconds(),
		}
	case ctx.Err() == nil && errors.As(err, &exitErr):
		return Outcome{
			Response:       text(strings.TrimSpace(stdout.String())),
			Error:          text(strings.TrimSpace(stderr.String())),
			ElapsedSeconds: elapsed,
		}
	case ctx.Err() != nil:
		return Outcome{Error: text(ctx.Err().Error()), ElapsedSeconds: elapsed}
	default:
		return Outcome{Error: text(err.Error()), ElapsedSeconds: elapsed}
	}
}

func text(s string) *string { return &s }

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
