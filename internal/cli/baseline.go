// internal/cli/baseline.go
package refusalbench

import (
	"github.com/mwiater/refusalbench/internal/runner"
	"github.com/spf13/cobra"
)

var runBaseline = runner.RunBaseline

// baselineCmd writes a simulated run from a table of known behaviors, for models that
// cannot be invoked locally.
var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Store a simulated run built from known model behaviors",
	Long: `Baseline builds a run without invoking anything. Each prompt id is looked up
in the behaviors file (YAML or JSON, id -> {refused, reason}); ids missing from
the file are recorded as refused with reason "unknown". The run is stored like a
real one so it shows up in compare and charts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		behaviors, _ := cmd.Flags().GetString("behaviors")
		outputDir, _ := cmd.Flags().GetString("output")
		_, err := runBaseline(runner.BaselineOptions{
			Config:        GetConfig(),
			BehaviorsPath: behaviors,
			OutputDir:     outputDir,
			Out:           cmd.OutOrStdout(),
		})
		return err
	},
}

func init() {
	rootCmd.AddCommand(baselineCmd)

	baselineCmd.Flags().StringP("behaviors", "b", "", "behaviors file mapping prompt ids to {refused, reason}")
	baselineCmd.Flags().StringP("model", "m", "", "model name to store the run under (default from config)")
	baselineCmd.Flags().StringP("prompts", "p", "", "prompt set file, JSON or YAML (default from config)")
	baselineCmd.Flags().IntP("limit", "l", 0, "only include the first N prompts (0 = all)")
	baselineCmd.Flags().StringP("output", "o", "", "directory for the run file (default <resultsRoot>/<model>)")
	_ = baselineCmd.MarkFlagRequired("behaviors")
}
