package compare

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mwiater/refusalbench/internal/stats"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NoResultsMessage is printed when there is nothing to compare.
const NoResultsMessage = "No results found to compare"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	categoryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	headerCell    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell          = lipgloss.NewStyle().Padding(0, 1)
	numberCell    = cell.Align(lipgloss.Right)
	borderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	wide   = strings.Repeat("=", 80)
	narrow = strings.Repeat("-", 60)
)

// RenderConsole writes the comparison as a global table followed by a per-category
// breakdown. plain selects fixed-width text without styling.
func RenderConsole(w io.Writer, cmp *Comparison, plain bool) {
	if cmp.Empty() {
		fmt.Fprintln(w, NoResultsMessage)
		return
	}
	if plain {
		renderPlain(w, cmp)
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("MODEL COMPARISON"))
	rows := make([][]string, 0, len(cmp.Runs))
	for _, run := range cmp.Runs {
		c := run.Stats.Counts
		rows = append(rows, []string{
			run.Model,
			fmt.Sprint(c.Total),
			fmt.Sprint(c.Success),
			fmt.Sprint(c.Refused),
			fmt.Sprint(c.Error),
			c.SuccessRate(1),
		})
	}
	fmt.Fprintln(w, styledTable([]string{"Model", "Total", "Success", "Refused", "Error", "Rate"}, rows))

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("BY CATEGORY"))
	for _, category := range cmp.Categories() {
		var catRows [][]string
		for _, run := range cmp.Runs {
			c, ok := run.Stats.Category(category)
			if !ok {
				continue
			}
			catRows = append(catRows, []string{run.Model, fmt.Sprintf("%d/%d", c.Success, c.Total), c.SuccessRate(0)})
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, categoryStyle.Render(strings.ToUpper(category)))
		fmt.Fprintln(w, styledTable([]string{"Model", "Success", "Rate"}, catRows))
	}
}

func styledTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerCell
			case col == 0:
				return cell
			default:
				return numberCell
			}
		}).
		Headers(headers...).
		Rows(rows...)
	return t.String()
}

func renderPlain(w io.Writer, cmp *Comparison) {
	fmt.Fprintf(w, "\n%s\nMODEL COMPARISON\n%s\n", wide, wide)
	fmt.Fprintf(w, "%-30s %10s %10s %10s %10s %10s\n", "Model", "Total", "Success", "Refused", "Error", "Rate")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, run := range cmp.Runs {
		c := run.Stats.Counts
		fmt.Fprintf(w, "%-30s %10d %10d %10d %10d %10s\n", run.Model, c.Total, c.Success, c.Refused, c.Error, c.SuccessRate(1))
	}
	fmt.Fprintln(w, strings.Repeat("-", 80))
	fmt.Fprintln(w, "Sources:")
	for _, run := range cmp.Runs {
		fmt.Fprintf(w, "  %s -> %s\n", run.Model, run.File)
	}

	fmt.Fprintf(w, "\n%s\nBY CATEGORY\n%s\n", wide, wide)
	for _, category := range cmp.Categories() {
		fmt.Fprintf(w, "\n%s\n%s\n", strings.ToUpper(category), narrow)
		for _, run := range cmp.Runs {
			c, ok := run.Stats.Category(category)
			if !ok {
				continue
			}
			fmt.Fprintf(w, "  %-25s: %d/%d (%s)\n", run.Model, c.Success, c.Total, c.SuccessRate(0))
		}
	}
}

// RenderMarkdown returns the comparison as a markdown report: a global summary with
// one-decimal rates and a table per category, sorted by name, with integer rates.
func RenderMarkdown(cmp *Comparison, generatedAt time.Time) string {
	lines := []string{
		"# Refusal Benchmark - Comparison Report",
		"",
		fmt.Sprintf("*Generated: %s*", generatedAt.Format("2006-01-02 15:04")),
		"",
		"## Global Summary",
		"",
		"| Model | Total | Success | Refused | Error | Success Rate |",
		"|-------|-------|---------|---------|-------|--------------|",
	}
	for _, run := range cmp.Runs {
		c := run.Stats.Counts
		lines = append(lines, fmt.Sprintf("| %s | %d | %d | %d | %d | %s |",
			run.Model, c.Total, c.Success, c.Refused, c.Error, stats.FormatRate(c.Success, c.Total, 1)))
	}

	lines = append(lines, "", "## By Category", "")
	for _, category := range cmp.Categories() {
		lines = append(lines,
			"### "+categoryTitle(category),
			"",
			"| Model | Success | Refused | Rate |",
			"|-------|---------|---------|------|",
		)
		for _, run := range cmp.Runs {
			c, ok := run.Stats.Category(category)
			if !ok {
				continue
			}
			lines = append(lines, fmt.Sprintf("| %s | %d | %d | %s |",
				run.Model, c.Success, c.Refused, stats.FormatRate(c.Success, c.Total, 0)))
		}
		lines = append(lines, "")
	}

	lines = append(lines,
		"## Sources",
		"",
		"| Model | Run File | Modified |",
		"|-------|----------|----------|",
	)
	for _, run := range cmp.Runs {
		lines = append(lines, fmt.Sprintf("| %s | %s | %s |",
			run.Model, filepath.ToSlash(run.File), run.ModTime.Format("2006-01-02 15:04:05")))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// categoryTitle title-cases every underscore-separated word: social_engineering
// becomes Social_Engineering.
func categoryTitle(category string) string {
	title := cases.Title(language.English)
	words := strings.Split(category, "_")
	for i, w := range words {
		words[i] = title.String(w)
	}
	return strings.Join(words, "_")
}

// WriteMarkdown renders the report and overwrites path with it.
func WriteMarkdown(path string, cmp *Comparison, generatedAt time.Time) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating report directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(RenderMarkdown(cmp, generatedAt)), 0o644); err != nil {
		return fmt.Errorf("error writing report %s: %w", path, err)
	}
	return nil
}
