package profiler

import (
	"fmt"
	"time"
)

// FormatTime renders d as microseconds, milliseconds or seconds with three
// decimals, picking the largest unit that keeps the value at or above one.
func FormatTime(d time.Duration) string {
	us := float64(d) / float64(time.Microsecond)
	switch {
	case us >= 1e6:
		return fmt.Sprintf("%.3fs", us/1e6)
	case us >= 1e3:
		return fmt.Sprintf("%.3fms", us/1e3)
	default:
		return fmt.Sprintf("%.3fus", us)
	}
}

const (
	kb = 1024
	mb = 1024 * kb
	gb = 1024 * mb
)

// FormatMemory renders a byte count in b, Kb, Mb or Gb. Negative values
// keep their sign.
func FormatMemory(n int64) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= gb:
		return fmt.Sprintf("%.2f Gb", float64(n)/gb)
	case abs >= mb:
		return fmt.Sprintf("%.2f Mb", float64(n)/mb)
	case abs >= kb:
		return fmt.Sprintf("%.2f Kb", float64(n)/kb)
	default:
		return fmt.Sprintf("%d b", n)
	}
}

// formatPercent renders part/total as a percentage with two decimals.
func formatPercent(part, total time.Duration) string {
	if total == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(part)*100/float64(total))
}
