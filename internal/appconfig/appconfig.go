// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// EnvPrefix is the prefix of environment variables that override configuration keys.
	EnvPrefix = "REFUSALBENCH"
	// defaultInvocationTimeout bounds a single model invocation when the config omits it.
	defaultInvocationTimeout = 120 * time.Second
	// defaultMinResponseLength is the length below which a response counts as a refusal.
	defaultMinResponseLength = 50
	// comparisonDirName is the results subdirectory holding generated reports.
	comparisonDirName = "comparison"
	// defaultLogFileName is the application log created under LogsRoot.
	defaultLogFileName = "refusalbench.log"
)

// Config represents the top-level application configuration.
type Config struct {
	PromptsPath       string           `json:"promptsPath" mapstructure:"promptsPath"`
	ResultsRoot       string           `json:"resultsRoot" mapstructure:"resultsRoot"`
	LogsRoot          string           `json:"logsRoot" mapstructure:"logsRoot"`
	ChartsRoot        string           `json:"chartsRoot" mapstructure:"chartsRoot"`
	ReportPath        string           `json:"reportPath,omitempty" mapstructure:"reportPath"`
	Model             string           `json:"model" mapstructure:"model"`
	Executable        string           `json:"executable" mapstructure:"executable"`
	ExecutableArgs    []string         `json:"executableArgs" mapstructure:"executableArgs"`
	TimeoutSeconds    int              `json:"timeout,omitempty" mapstructure:"timeout"`
	Limit             int              `json:"limit,omitempty" mapstructure:"limit"`
	MinResponseLength int              `json:"minResponseLength,omitempty" mapstructure:"minResponseLength"`
	RefusalPatterns   []RefusalPattern `json:"refusalPatterns,omitempty" mapstructure:"refusalPatterns"`
	LogFile           string           `json:"logFile,omitempty" mapstructure:"logFile"`
	Debug             bool             `json:"debug" mapstructure:"debug"`
	MetricsTextfile   string           `json:"metricsTextfile,omitempty" mapstructure:"metricsTextfile"`
	ConfigPath        string           `json:"-" mapstructure:"-"`
}

// RefusalPattern is one configurable refusal phrase. Label, when set, replaces the
// phrase in the reported reason.
type RefusalPattern struct {
	Phrase string `json:"phrase" mapstructure:"phrase" yaml:"phrase"`
	Label  string `json:"label,omitempty" mapstructure:"label" yaml:"label,omitempty"`
}

// Defaults returns the configuration used when neither a file, the environment nor
// flags provide a value.
func Defaults() Config {
	return Config{
		PromptsPath:       filepath.Join("data", "prompts.json"),
		ResultsRoot:       "results",
		LogsRoot:          "logs",
		ChartsRoot:        "charts",
		Model:             "dolphin-llama3:8b",
		Executable:        "ollama",
		ExecutableArgs:    []string{"run"},
		TimeoutSeconds:    int(defaultInvocationTimeout.Seconds()),
		MinResponseLength: defaultMinResponseLength,
	}
}

// InvocationTimeout returns the per-prompt timeout, falling back to the default if not specified.
func (c Config) InvocationTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultInvocationTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MinLength returns the minimum accepted response length.
func (c Config) MinLength() int {
	if c.MinResponseLength <= 0 {
		return defaultMinResponseLength
	}
	return c.MinResponseLength
}

// LogFilePath returns the path to the application log file. Unless set explicitly it
// lives under LogsRoot next to the session logs.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return filepath.Join(c.LogsRoot, defaultLogFileName)
}

// ModelResultsDir returns the directory holding every stored run for model.
func (c Config) ModelResultsDir(model string) string {
	return filepath.Join(c.ResultsRoot, ModelDirName(model))
}

// ComparisonDir returns the results subdirectory that holds generated reports.
func (c Config) ComparisonDir() string {
	return filepath.Join(c.ResultsRoot, comparisonDirName)
}

// ReportFilePath returns the markdown report location.
func (c Config) ReportFilePath() string {
	if path := strings.TrimSpace(c.ReportPath); path != "" {
		return path
	}
	return filepath.Join(c.ComparisonDir(), "report.md")
}

// Validate reports configuration values that would make every run fail.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.PromptsPath) == "" {
		errs = append(errs, errors.New("promptsPath must not be empty"))
	}
	if strings.TrimSpace(c.ResultsRoot) == "" {
		errs = append(errs, errors.New("resultsRoot must not be empty"))
	}
	if strings.TrimSpace(c.LogsRoot) == "" {
		errs = append(errs, errors.New("logsRoot must not be empty"))
	}
	if strings.TrimSpace(c.Executable) == "" {
		errs = append(errs, errors.New("executable must not be empty"))
	}
	if c.Limit < 0 {
		errs = append(errs, fmt.Errorf("limit must not be negative, got %d", c.Limit))
	}
	for i, p := range c.RefusalPatterns {
		if strings.TrimSpace(p.Phrase) == "" {
			errs = append(errs, fmt.Errorf("refusalPatterns[%d] has an empty phrase", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// ModelDirName maps a model identifier to its results directory name.
func ModelDirName(model string) string {
	return strings.NewReplacer(":", "_", "/", "_").Replace(model)
}

// IsComparisonDir reports whether name is the generated-report directory that must be
// skipped when scanning the results root.
func IsComparisonDir(name string) bool {
	return name == comparisonDirName
}
