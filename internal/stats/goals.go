package stats

import "github.com/p-blackswan/lifeos/internal/models"

// AverageProgress is the mean ProgressPercent of goals. ok is false for an
// empty slice; callers show an empty state instead of a number.
func AverageProgress(goals []models.Goal) (avg float64, ok bool) {
	if len(goals) == 0 {
		return 0, false
	}
	var sum float64
	for _, g := range goals {
		sum += g.ProgressPercent
	}
	return sum / float64(len(goals)), true
}

// ProgressSummary is the goals overview.
type ProgressSummary struct {
	Count     int     `json:"count"`
	Active    int     `json:"active"`
	Completed int     `json:"completed"`
	Average   float64 `json:"average"`
	Empty     bool    `json:"empty"`
}

// Summarize rolls up goals. Average is 0 and Empty is true when there are none.
func Summarize(goals []models.Goal) ProgressSummary {
	s := ProgressSummary{Count: len(goals)}
	for _, g := range goals {
		switch g.Status {
		case models.GoalActive:
			s.Active++
		case models.GoalCompleted:
			s.Completed++
		}
	}
	avg, ok := AverageProgress(goals)
	s.Average = avg
	s.Empty = !ok
	return s
}
