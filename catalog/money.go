package catalog

import "fmt"

// FormatCents renders an integer cent amount as a decimal string:
// 10997 -> "109.97", -50 -> "-0.50". Money is carried as integer cents
// everywhere so aggregates stay exact in SQL.
func FormatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
