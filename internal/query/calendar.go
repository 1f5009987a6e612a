// Package query holds pure derivations over loaded records: the month
// calendar grid, task completion and list filtering/sorting.
package query

import (
	"time"

	"github.com/vbonduro/traincheck/internal/domain"
)

type Day struct {
	Date     time.Time         `json:"-"`
	Key      string            `json:"date"`
	InMonth  bool              `json:"inMonth"`
	Checkins []*domain.Checkin `json:"checkins"`
}

// Calendar is a Sunday-first month grid made of whole weeks.
type Calendar struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Weeks [][]Day    `json:"weeks"`
}

// DateKey returns the YYYY-MM-DD calendar date of t in loc.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(domain.DateLayout)
}

// MonthGrid lays out the given month from the Sunday on or before the 1st to
// the Saturday on or after the last day, attaching each check-in to the day
// its event time falls on in loc.
func MonthGrid(year int, month time.Month, checkins []*domain.Checkin, loc *time.Location) Calendar {
	if loc == nil {
		loc = time.Local
	}

	byDate := make(map[string][]*domain.Checkin)
	for _, c := range checkins {
		key := DateKey(c.Timestamp, loc)
		byDate[key] = append(byDate[key], c)
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, 6-int(last.Weekday()))

	cal := Calendar{Year: first.Year(), Month: first.Month()}
	var week []Day
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(domain.DateLayout)
		week = append(week, Day{
			Date:     d,
			Key:      key,
			InMonth:  d.Month() == first.Month(),
			Checkins: byDate[key],
		})
		if len(week) == 7 {
			cal.Weeks = append(cal.Weeks, week)
			week = nil
		}
	}
	return cal
}

// TodayRange returns the first and last instant of now's calendar day in loc.
func TodayRange(now time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	n := now.In(loc)
	start := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}
