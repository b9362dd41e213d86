package invoker

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shell returns a Process that runs script with $1 bound to the model and $2 to the prompt.
func shell(t *testing.T, script string, timeout time.Duration) *Process {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	return New("sh", []string{"-c", script, "sh"}, timeout)
}

func TestInvokeSuccessTrimsStdout(t *testing.T) {
	p := shell(t, `printf '  %s answered: %s  \n' "$1" "$2"`, 5*time.Second)

	out := p.Invoke(context.Background(), "dolphin-llama3:8b", "hi")

	require.True(t, out.Success)
	assert.Equal(t, "dolphin-llama3:8b answered: hi", out.ResponseText())
	assert.Nil(t, out.Error)
	assert.GreaterOrEqual(t, out.ElapsedSeconds, 0.0)
}

func TestInvokeNonZeroExitCapturesStderr(t *testing.T) {
	p := shell(t, `echo partial; echo "  model not found  " >&2; exit 3`, 5*time.Second)

	out := p.Invoke(context.Background(), "m", "p")

	assert.False(t, out.Success)
	assert.Equal(t, "model not found", out.ErrorText())
	assert.Equal(t, "partial", out.ResponseText())
}

func TestInvokeTimeoutReportsConfiguredDuration(t *testing.T) {
	p := shell(t, `sleep 5`, 150*time.Millisecond)

	start := time.Now()
	out := p.Invoke(context.Background(), "m", "p")

	assert.False(t, out.Success)
	assert.Equal(t, TimeoutError, out.ErrorText())
	assert.Nil(t, out.Response)
	assert.Equal(t, 0.15, out.ElapsedSeconds)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestInvokeLaunchFailure(t *testing.T) {
	p := New("refusalbench-no-such-binary", nil, time.Second)

	out := p.Invoke(context.Background(), "m", "p")

	assert.False(t, out.Success)
	assert.Contains(t, out.ErrorText(), "refusalbench-no-such-binary")
	assert.Nil(t, out.Response)
}

func TestInvokeParentCancellation(t *testing.T) {
	p := shell(t, `sleep 5`, 10*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := p.Invoke(ctx, "m", "p")

	assert.False(t, out.Success)
	assert.Equal(t, context.Canceled.Error(), out.ErrorText())
}

func TestNewCopiesArgs(t *testing.T) {
	args := []string{"run"}
	p := New("ollama", args, time.Second)
	args[0] = "changed"
	assert.Equal(t, []string{"run"}, p.Args)
}

func TestOutcomeAccessorsOnNil(t *testing.T) {
	var out Outcome
	assert.Equal(t, "", out.ResponseText())
	assert.Equal(t, "", out.ErrorText())
}
