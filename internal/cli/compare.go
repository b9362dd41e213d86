// internal/cli/compare.go
package refusalbench

import (
	"fmt"
	"time"

	"github.com/mwiater/refusalbench/internal/compare"
	"github.com/mwiater/refusalbench/internal/logging"
	"github.com/spf13/cobra"
)

// compareCmd prints the newest run of every model side by side and writes the report.
var compareCmd = &cobra.Command{
	Use:   "compare [DIR...]",
	Short: "Compare the latest run of each model",
	Long: `Compare loads the most recently modified run file of each model directory
(every directory under resultsRoot when none are given), prints a comparison
table with a per-category breakdown, and overwrites the markdown report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		out := cmd.OutOrStdout()

		cmp, err := loadComparison(cfg.ResultsRoot, args)
		if err != nil {
			return err
		}
		plain, _ := cmd.Flags().GetBool("plain")
		compare.RenderConsole(out, cmp, plain)
		if cmp.Empty() {
			return nil
		}

		reportPath, _ := cmd.Flags().GetString("output")
		if reportPath == "" {
			reportPath = cfg.ReportFilePath()
		}
		if err := compare.WriteMarkdown(reportPath, cmp, time.Now()); err != nil {
			return err
		}
		logging.LogEvent("comparison report written to %s (%d models)", reportPath, len(cmp.Runs))
		fmt.Fprintf(out, "\nMarkdown report saved to: %s\n", reportPath)
		return nil
	},
}

// loadComparison compares dirs, or every model directory under resultsRoot when dirs
// is empty.
func loadComparison(resultsRoot string, dirs []string) (*compare.Comparison, error) {
	if len(dirs) == 0 {
		found, err := compare.ModelDirs(resultsRoot)
		if err != nil {
			return nil, err
		}
		dirs = found
	}
	return compare.Compare(dirs)
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringP("output", "o", "", "markdown report path (default <resultsRoot>/comparison/report.md)")
	compareCmd.Flags().Bool("plain", false, "print fixed-width text without styling")
}
