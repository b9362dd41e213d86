package appconfig

import (
	"fmt"
	"io"

	"github.com/k0kubun/pp"
)

// ShowConfig prints the merged configuration and where it came from.
func ShowConfig(out io.Writer, file string, cfg *Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	if cfg == nil {
		fallback := Defaults()
		cfg = &fallback
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Model:               %s\n", cfg.Model)
	fmt.Fprintf(out, "  Prompts:             %s\n", cfg.PromptsPath)
	fmt.Fprintf(out, "  Results root:        %s\n", cfg.ResultsRoot)
	fmt.Fprintf(out, "  Logs root:           %s\n", cfg.LogsRoot)
	fmt.Fprintf(out, "  Charts root:         %s\n", cfg.ChartsRoot)
	fmt.Fprintf(out, "  Report:              %s\n", cfg.ReportFilePath())
	fmt.Fprintf(out, "  Log file:            %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Invocation timeout:  %s\n", cfg.InvocationTimeout())
	fmt.Fprintf(out, "  Min response length: %d\n", cfg.MinLength())
	fmt.Fprintln(out)

	coloring := pp.ColoringEnabled
	pp.ColoringEnabled = false
	defer func() { pp.ColoringEnabled = coloring }()
	_, _ = pp.Fprintln(out, cfg)
}
