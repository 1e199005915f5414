package view

import (
	"fmt"
	"math"
)

// FormatDuration renders seconds the way the stat cards show them:
// "1d 2h 3m", "2h 5m", "4m" or "12s".
func FormatDuration(seconds float64) string {
	days := int64(math.Floor(seconds / 86400))
	hours := int64(math.Floor(math.Mod(seconds, 86400) / 3600))
	minutes := int64(math.Floor(math.Mod(seconds, 3600) / 60))

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return fmt.Sprintf("%ds", int64(math.Round(seconds)))
	}
}

func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}
