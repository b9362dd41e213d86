package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwiater/refusalbench/internal/stats"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	r := NewRecorder()
	r.Observe("m", "osint", stats.Succeeded, 1.5)
	r.Observe("m", "osint", stats.Succeeded, 2)
	r.Observe("m", "malware", stats.Refused, 0.25)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.prompts.WithLabelValues("m", "osint", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.prompts.WithLabelValues("m", "malware", "refused")))
	assert.Equal(t, 3.75, testutil.ToFloat64(r.seconds.WithLabelValues("m")))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Observe("dolphin-llama3:8b", "osint", stats.Errored, 120)

	path := filepath.Join(t.TempDir(), "textfile", "refusalbench.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "# TYPE refusalbench_prompts_total counter")
	assert.Contains(t, out, `refusalbench_prompts_total{category="osint",model="dolphin-llama3:8b",outcome="error"} 1`)
	assert.Contains(t, out, `refusalbench_invocation_seconds_total{model="dolphin-llama3:8b"} 120`)

	expected := `
# HELP refusalbench_invocation_seconds_total Total wall time spent invoking each model, in seconds.
# TYPE refusalbench_invocation_seconds_total counter
refusalbench_invocation_seconds_total{model="dolphin-llama3:8b"} 120
`
	require.NoError(t, testutil.GatherAndCompare(r.registry, strings.NewReader(expected), "refusalbench_invocation_seconds_total"))
}
