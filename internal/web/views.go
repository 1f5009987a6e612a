package web

import (
	"github.com/vbonduro/traincheck/internal/query"
)

// calendarView is the month grid with check-ins reduced to their ids.
type calendarView struct {
	Year  int         `json:"year"`
	Month int         `json:"month"`
	Weeks [][]dayView `json:"weeks"`
}

type dayView struct {
	Date     string   `json:"date"`
	InMonth  bool     `json:"inMonth"`
	Checkins []string `json:"checkinIds"`
}

func newCalendarView(cal query.Calendar) calendarView {
	v := calendarView{Year: cal.Year, Month: int(cal.Month)}
	for _, week := range cal.Weeks {
		days := make([]dayView, 0, len(week))
		for _, d := range week {
			ids := make([]string, 0, len(d.Checkins))
			for _, c := range d.Checkins {
				ids = append(ids, c.ID)
			}
			days = append(days, dayView{Date: d.Key, InMonth: d.InMonth, Checkins: ids})
		}
		v.Weeks = append(v.Weeks, days)
	}
	return v
}
