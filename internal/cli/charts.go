// internal/cli/charts.go
package refusalbench

import (
	"fmt"

	"github.com/mwiater/refusalbench/internal/charts"
	"github.com/spf13/cobra"
)

// chartsCmd renders the comparison as SVG charts.
var chartsCmd = &cobra.Command{
	Use:   "charts [DIR...]",
	Short: "Render comparison charts as SVG",
	Long: `Charts draws the latest run of each model as a grouped bar chart of response
rates (comparison_bar.svg) and a category by model success-rate heatmap
(category_heatmap.svg).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		out := cmd.OutOrStdout()

		cmp, err := loadComparison(cfg.ResultsRoot, args)
		if err != nil {
			return err
		}
		if cmp.Empty() {
			fmt.Fprintln(out, "No results found to visualize")
			return nil
		}

		dir, _ := cmd.Flags().GetString("output")
		if dir == "" {
			dir = cfg.ChartsRoot
		}
		paths, err := charts.Write(dir, cmp)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintf(out, "Chart saved to: %s\n", p)
		}
		fmt.Fprintf(out, "\nAll charts saved to: %s\n", dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartsCmd)

	chartsCmd.Flags().StringP("output", "o", "", "directory for the SVG files (default chartsRoot)")
}
