// internal/appconfig/appconfig_test.go
package appconfig

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaults verifies that the zero-configuration values point at the
// conventional data/results/logs/charts layout and that the helper methods
// derive timeouts and report paths from them.
func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.PromptsPath != filepath.Join("data", "prompts.json") {
		t.Fatalf("unexpected prompts path %q", cfg.PromptsPath)
	}
	if cfg.InvocationTimeout() != 120*time.Second {
		t.Fatalf("expected default timeout of 120s, got %v", cfg.InvocationTimeout())
	}
	if cfg.MinLength() != 50 {
		t.Fatalf("expected default min length of 50, got %d", cfg.MinLength())
	}
	if got := cfg.ReportFilePath(); got != filepath.Join("results", "comparison", "report.md") {
		t.Fatalf("unexpected report path %q", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestFallbacksForUnsetValues(t *testing.T) {
	cfg := Config{}
	if cfg.InvocationTimeout() != 120*time.Second {
		t.Fatalf("expected fallback timeout, got %v", cfg.InvocationTimeout())
	}
	if cfg.MinLength() != 50 {
		t.Fatalf("expected fallback min length, got %d", cfg.MinLength())
	}
	if cfg.LogFilePath() != "refusalbench.log" {
		t.Fatalf("expected fallback log file, got %q", cfg.LogFilePath())
	}
	cfg.LogsRoot = filepath.Join("var", "logs")
	if want := filepath.Join("var", "logs", "refusalbench.log"); cfg.LogFilePath() != want {
		t.Fatalf("expected log file under logsRoot %q, got %q", want, cfg.LogFilePath())
	}
	if d := Defaults(); d.LogFilePath() != filepath.Join("logs", "refusalbench.log") {
		t.Fatalf("expected default log file under logs/, got %q", d.LogFilePath())
	}
	cfg.LogFile = "custom.log"
	if cfg.LogFilePath() != "custom.log" {
		t.Fatalf("expected explicit log file, got %q", cfg.LogFilePath())
	}

	cfg.TimeoutSeconds = 5
	cfg.ReportPath = "out/report.md"
	if cfg.InvocationTimeout() != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %v", cfg.InvocationTimeout())
	}
	if cfg.ReportFilePath() != "out/report.md" {
		t.Fatalf("expected explicit report path, got %q", cfg.ReportFilePath())
	}
}

func TestModelDirName(t *testing.T) {
	cases := map[string]string{
		"dolphin-llama3:8b":  "dolphin-llama3_8b",
		"library/mistral:7b": "library_mistral_7b",
		"claude-3.5-sonnet":  "claude-3.5-sonnet",
	}
	for input, expected := range cases {
		if got := ModelDirName(input); got != expected {
			t.Fatalf("ModelDirName(%q) = %q, want %q", input, got, expected)
		}
	}

	cfg := Config{ResultsRoot: "results"}
	if got := cfg.ModelResultsDir("a:b"); got != filepath.Join("results", "a_b") {
		t.Fatalf("unexpected model results dir %q", got)
	}
	if !IsComparisonDir("comparison") || IsComparisonDir("a_b") {
		t.Fatal("comparison directory detection is wrong")
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Config{Limit: -1, RefusalPatterns: []RefusalPattern{{Phrase: " "}}}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"promptsPath", "resultsRoot", "logsRoot", "executable", "limit", "refusalPatterns[0]"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in error, got: %v", want, err)
		}
	}
}

func TestShowConfig(t *testing.T) {
	var buf bytes.Buffer
	cfg := Defaults()
	cfg.Model = "qwen3:1.7b"
	ShowConfig(&buf, "config/config.json", &cfg)

	out := buf.String()
	if !strings.Contains(out, "Config file: config/config.json") {
		t.Fatalf("expected config file line, got: %s", out)
	}
	if !strings.Contains(out, "qwen3:1.7b") {
		t.Fatalf("expected model in output, got: %s", out)
	}

	buf.Reset()
	ShowConfig(&buf, "", nil)
	if !strings.Contains(buf.String(), "No config file loaded") {
		t.Fatalf("expected defaults notice, got: %s", buf.String())
	}
}
