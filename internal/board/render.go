package board

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/educacao-adventista/matriculometro/internal/progress"
)

const barWidth = 40

// ANSI colors indexed by progress.ColorBucket.
var bucketColors = [progress.Buckets]string{
	"\033[34m", // blue
	"\033[32m", // green
	"\033[35m", // magenta
	"\033[33m", // yellow
}

const colorReset = "\033[0m"

type Options struct {
	Color bool
}

// Render writes the overall bar followed by one line per goal.
func Render(w io.Writer, s progress.Summary, opts Options) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Matriculômetro  %d/%d  %s\n", s.TotalAchieved, s.TotalTarget, formatPercent(s.OverallPercent))
	b.WriteString(bar(math.Min(s.OverallPercent, 100), barWidth, "", opts))
	fmt.Fprintf(&b, "\n%d of %d goals complete, %d remaining\n\n", s.CompletedGoals, len(s.Segments), s.TotalRemaining)

	if len(s.Segments) == 0 {
		b.WriteString("No goals yet.\n")
	}

	width := 0
	for _, seg := range s.Segments {
		width = max(width, utf8.RuneCountInString(seg.Category))
	}

	for _, seg := range s.Segments {
		color := ""
		if opts.Color {
			color = bucketColors[seg.ColorBucket%progress.Buckets]
		}

		mark := " "
		if seg.Complete {
			mark = "✓"
		}

		pad := strings.Repeat(" ", width-utf8.RuneCountInString(seg.Category))
		fmt.Fprintf(&b, "%s %s%s  %s  %4d/%-4d %7s  %d left\n",
			mark, seg.Category, pad,
			bar(seg.ProgressPercent, barWidth/2, color, opts),
			seg.Achieved, seg.Target, formatPercent(seg.ProgressPercent), seg.Remaining)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func bar(percent float64, width int, color string, opts Options) string {
	filled := int(math.Round(percent / 100 * float64(width)))
	filled = min(max(filled, 0), width)

	body := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	if opts.Color && color != "" {
		body = color + body + colorReset
	}
	return "[" + body + "]"
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}
