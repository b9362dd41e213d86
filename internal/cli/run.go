// internal/cli/run.go
package refusalbench

import (
	"os"
	"os/signal"

	"github.com/mwiater/refusalbench/internal/runner"
	"github.com/spf13/cobra"
)

var runBenchmark = runner.Run

// runCmd sends every prompt to the configured model and stores the classified results.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the prompt set against a model",
	Long: `Run sends each prompt of the prompt set to the model through the configured
executable (ollama run <model> <prompt> by default), classifies every answer as
success, refused or error, prints a summary, and writes the run file and the
per-prompt session log.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
		defer stop()

		outputDir, _ := cmd.Flags().GetString("output")
		csvPath, _ := cmd.Flags().GetString("csv")
		_, err := runBenchmark(ctx, runner.Options{
			Config:    GetConfig(),
			OutputDir: outputDir,
			CSVPath:   csvPath,
			Out:       cmd.OutOrStdout(),
		})
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("model", "m", "", "model to test (default from config)")
	runCmd.Flags().StringP("prompts", "p", "", "prompt set file, JSON or YAML (default from config)")
	runCmd.Flags().IntP("limit", "l", 0, "only run the first N prompts (0 = all)")
	runCmd.Flags().IntP("timeout", "t", 0, "per-prompt timeout in seconds")
	runCmd.Flags().StringP("output", "o", "", "directory for the run file (default <resultsRoot>/<model>)")
	runCmd.Flags().String("csv", "", "also export the run as CSV to this file")
	runCmd.Flags().String("metrics-textfile", "", "write Prometheus metrics to this textfile")
}
