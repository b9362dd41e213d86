package stats

import "fmt"

// NotAvailable is rendered in place of a rate whose total is zero.
const NotAvailable = "N/A"

// Percent returns part/total as a percentage, or 0 when total is zero.
func Percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// FormatRate renders part/total as a percentage with the given number of decimals,
// or NotAvailable when total is zero.
func FormatRate(part, total, decimals int) string {
	if total <= 0 {
		return NotAvailable
	}
	return fmt.Sprintf("%.*f%%", decimals, Percent(part, total))
}

// SuccessRate renders the success share of c.
func (c Counts) SuccessRate(decimals int) string {
	return FormatRate(c.Success, c.Total, decimals)
}
