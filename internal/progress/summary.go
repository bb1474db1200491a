package progress

import (
	"github.com/educacao-adventista/matriculometro/internal/model"
)

// Segment is one goal as drawn on the public board.
type Segment struct {
	ID       int64  `json:"id"`
	Category string `json:"category"`
	Target   int    `json:"target"`
	Achieved int    `json:"achieved"`
	Metrics
	// WidthPercent is the goal's share of the summed targets.
	WidthPercent float64 `json:"widthPercent"`
	Complete     bool    `json:"complete"`
}

// Summary aggregates all goals. Totals are raw sums and are not clamped.
type Summary struct {
	TotalTarget    int       `json:"totalTarget"`
	TotalAchieved  int       `json:"totalAchieved"`
	TotalRemaining int       `json:"totalRemaining"`
	OverallPercent float64   `json:"overallPercent"`
	CompletedGoals int       `json:"completedGoals"`
	Segments       []Segment `json:"segments"`
}

func Summarize(goals []*model.Goal) Summary {
	s := Summary{Segments: make([]Segment, 0, len(goals))}
	for _, g := range goals {
		s.TotalTarget += g.Target
		s.TotalAchieved += g.Achieved
	}

	if s.TotalTarget > 0 {
		s.OverallPercent = float64(s.TotalAchieved) / float64(s.TotalTarget) * 100
	}

	for _, g := range goals {
		m := Of(g)
		seg := Segment{
			ID:       g.ID,
			Category: g.Category,
			Target:   g.Target,
			Achieved: g.Achieved,
			Metrics:  m,
			Complete: m.ProgressPercent >= 100,
		}
		if s.TotalTarget > 0 {
			seg.WidthPercent = float64(g.Target) / float64(s.TotalTarget) * 100
		}
		if seg.Complete {
			s.CompletedGoals++
		}
		s.TotalRemaining += m.Remaining
		s.Segments = append(s.Segments, seg)
	}

	return s
}
