package utils

import (
	"fmt"
)

// FormatShortNotation formats a number using short notation (e.g., 50k instead of 50000)
func FormatShortNotation(value int64) string {
	absValue := value
	sign := ""
	if value < 0 {
		absValue = -value
		sign = "-"
	}

	switch {
	case absValue >= 1_000_000_000_000:
		return fmt.Sprintf("%s%.2fT", sign, float64(absValue)/1_000_000_000_000)
	case absValue >= 1_000_000_000:
		return fmt.Sprintf("%s%.2fB", sign, float64(absValue)/1_000_000_000)
	case absValue >= 1_000_000:
		return fmt.Sprintf("%s%.2fM", sign, float64(absValue)/1_000_000)
	case absValue >= 10_000:
		// No decimal places between 10k and 1M
		return fmt.Sprintf("%s%dk", sign, absValue/1_000)
	case absValue >= 1_000:
		// One decimal place under 10k
		return fmt.Sprintf("%s%.1fk", sign, float64(absValue)/1_000)
	default:
		return fmt.Sprintf("%s%d", sign, absValue)
	}
}

// FormatOdds renders the implied multiplier for a side of a market given
// its pool and the total pool, e.g. "2.50x". A zero side pool has no
// defined multiplier.
func FormatOdds(sidePool, totalPool int64) string {
	if sidePool <= 0 || totalPool <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2fx", float64(totalPool)/float64(sidePool))
}

// FormatPercent renders one pool's share of the total, e.g. "67%"
func FormatPercent(sidePool, totalPool int64) string {
	if totalPool <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%d%%", (sidePool*100)/totalPool)
}
