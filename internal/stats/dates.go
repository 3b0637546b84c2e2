// Package stats computes display-ready aggregates from raw entities: habit
// streaks and completion rates, goal progress roll-ups, and calendar grids.
// Everything here is pure; callers inject "today" and the viewer's location.
package stats

import (
	"time"

	"github.com/p-blackswan/lifeos/internal/models"
)

// dateKey is the calendar date of t in t's own location.
func dateKey(t time.Time) string {
	return t.Format(models.DateLayout)
}

// civil returns t's calendar date as UTC midnight so day arithmetic is not
// affected by DST transitions in t's location.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(civil(to).Sub(civil(from)).Hours() / 24)
}

// dateSet de-duplicates completion dates. Entries that are not valid dates
// are ignored.
func dateSet(dates []string) map[string]struct{} {
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		if _, err := time.Parse(models.DateLayout, d); err != nil {
			continue
		}
		set[d] = struct{}{}
	}
	return set
}
