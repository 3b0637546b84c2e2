package stats

import (
	"math"
	"time"

	"github.com/p-blackswan/lifeos/internal/models"
)

// MaxStreakLookback bounds the backwards walk of Streak. A habit completed
// every day for longer than this reports MaxStreakLookback.
const MaxStreakLookback = 365

// Streak counts consecutive completed days ending today. If today is not
// completed the streak is 0.
func Streak(h models.Habit, today time.Time) int {
	done := dateSet(h.CompletedDates)
	day := civil(today)
	count := 0
	for i := 0; i < MaxStreakLookback; i++ {
		if _, ok := done[dateKey(day)]; !ok {
			break
		}
		count++
		day = day.AddDate(0, 0, -1)
	}
	return count
}

// CompletionRate is the percentage of days since the habit was created
// (creation day and today both included) on which it was completed. Dates
// outside that window are ignored. The result is in [0, 100].
func CompletionRate(h models.Habit, today time.Time) int {
	created := h.CreatedAt.In(today.Location())
	days := daysBetween(created, today) + 1
	if days < 1 {
		days = 1
	}

	from, to := dateKey(created), dateKey(today)
	valid := 0
	for d := range dateSet(h.CompletedDates) {
		if d >= from && d <= to {
			valid++
		}
	}

	rate := int(math.Round(100 * float64(valid) / float64(days)))
	if rate > 100 {
		rate = 100
	}
	return rate
}

// HabitStats is the per-habit summary shown on the habits page.
type HabitStats struct {
	HabitID        string `json:"habit_id"`
	Name           string `json:"name"`
	Streak         int    `json:"streak"`
	CompletionRate int    `json:"completion_rate"`
	CompletedToday bool   `json:"completed_today"`
}

// Habits summarizes every habit as of today.
func Habits(habits []models.Habit, today time.Time) []HabitStats {
	out := make([]HabitStats, 0, len(habits))
	key := dateKey(today)
	for _, h := range habits {
		_, doneToday := dateSet(h.CompletedDates)[key]
		out = append(out, HabitStats{
			HabitID:        h.ID,
			Name:           h.Name,
			Streak:         Streak(h, today),
			CompletionRate: CompletionRate(h, today),
			CompletedToday: doneToday,
		})
	}
	return out
}
