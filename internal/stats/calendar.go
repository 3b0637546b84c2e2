package stats

import (
	"time"

	"github.com/p-blackswan/lifeos/internal/models"
)

// EventsForDate returns the events whose start falls on date's calendar day,
// both compared in loc (the viewer's wall clock, not UTC).
func EventsForDate(events []models.Event, date time.Time, loc *time.Location) []models.Event {
	if loc == nil {
		loc = time.Local
	}
	want := dateKey(date.In(loc))
	var out []models.Event
	for _, e := range events {
		if dateKey(e.StartDate.In(loc)) == want {
			out = append(out, e)
		}
	}
	return out
}

// CalendarDays returns every day of monthAnchor's month, first to last, as UTC
// midnights.
func CalendarDays(monthAnchor time.Time) []time.Time {
	first := time.Date(monthAnchor.Year(), monthAnchor.Month(), 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)
	days := make([]time.Time, 0, 31)
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// GridDay is one cell of a month grid.
type GridDay struct {
	Date    string         `json:"date"`
	InMonth bool           `json:"in_month"`
	IsToday bool           `json:"is_today"`
	Events  []models.Event `json:"events"`
}

// MonthGrid lays monthAnchor's month out in whole weeks starting on Sunday,
// padding with days of the neighbouring months. InMonth and IsToday are
// independent per cell.
func MonthGrid(monthAnchor, today time.Time, events []models.Event, loc *time.Location) []GridDay {
	if loc == nil {
		loc = time.Local
	}
	days := CalendarDays(monthAnchor)
	first, last := days[0], days[len(days)-1]
	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))

	todayKey := dateKey(today.In(loc))

	var grid []GridDay
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		k := dateKey(d)
		// Noon keeps the cell on its wall-clock day across DST shifts.
		evs := EventsForDate(events, time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, loc), loc)
		if evs == nil {
			evs = []models.Event{}
		}
		grid = append(grid, GridDay{
			Date:    k,
			InMonth: d.Month() == first.Month(),
			IsToday: k == todayKey,
			Events:  evs,
		})
	}
	return grid
}
