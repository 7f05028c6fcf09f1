package web

import "fmt"

func formatPercent(f float64) string {
	return fmt.Sprintf("%.0f%%", f*100)
}
