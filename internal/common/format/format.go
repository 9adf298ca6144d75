// Package format renders dates, counts and staffing shortfalls in Czech.
package format

import (
	"fmt"
	"strings"
	"time"

	"montaz-workers/internal/coverage"
)

// DateCZ formats t as "15. 10. 2026".
func DateCZ(t time.Time) string {
	return fmt.Sprintf("%d. %d. %d", t.Day(), int(t.Month()), t.Year())
}

// Plural picks the Czech form for n: one for 1, few for 2-4, many otherwise.
func Plural(n int, one, few, many string) string {
	switch abs(n) {
	case 1:
		return one
	case 2, 3, 4:
		return few
	default:
		return many
	}
}

// Count renders n together with its plural form, e.g. "3 pozice".
func Count(n int, one, few, many string) string {
	return fmt.Sprintf("%d %s", n, Plural(n, one, few, many))
}

// MissingSummary groups missing slots per tier in order of first appearance:
// "1× senior, 2× junior".
func MissingSummary(missing []coverage.Tier) string {
	if len(missing) == 0 {
		return ""
	}

	counts := make(map[coverage.Tier]int, len(missing))
	order := make([]coverage.Tier, 0, len(missing))
	for _, t := range missing {
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}

	parts := make([]string, 0, len(order))
	for _, t := range order {
		parts = append(parts, fmt.Sprintf("%d× %s", counts[t], t))
	}
	return strings.Join(parts, ", ")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
