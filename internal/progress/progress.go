// Package progress derives the display numbers of a goal. Every surface that
// shows a goal (admin table, public board, summary endpoint) goes through here
// so that percentages and colors never disagree between views.
package progress

import (
	"unicode/utf16"

	"github.com/educacao-adventista/matriculometro/internal/model"
)

// Buckets is the number of color slots a category can map to.
const Buckets = 4

type Metrics struct {
	ProgressPercent float64 `json:"progressPercent"`
	Remaining       int     `json:"remaining"`
	ColorBucket     int     `json:"colorBucket"`
}

// Percent returns achieved/target as a percentage clamped to [0, 100].
// A zero target yields 0.
func Percent(target, achieved int) float64 {
	if target <= 0 || achieved <= 0 {
		return 0
	}
	p := float64(achieved) / float64(target) * 100
	if p > 100 {
		return 100
	}
	return p
}

// Remaining returns how many enrollments are still missing, never negative.
func Remaining(target, achieved int) int {
	return max(0, target-achieved)
}

// ColorBucket maps a category to a stable color slot in [0, Buckets).
// It sums the leading UTF-16 code unit of every code point, the same value a
// browser reports for charCodeAt(0) on each character.
func ColorBucket(category string) int {
	sum := 0
	for _, r := range category {
		if r > 0xFFFF {
			hi, _ := utf16.EncodeRune(r)
			sum += int(hi)
			continue
		}
		sum += int(r)
	}
	return sum % Buckets
}

func Of(goal *model.Goal) Metrics {
	return Metrics{
		ProgressPercent: Percent(goal.Target, goal.Achieved),
		Remaining:       Remaining(goal.Target, goal.Achieved),
		ColorBucket:     ColorBucket(goal.Category),
	}
}
