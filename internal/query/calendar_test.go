package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/traincheck/internal/domain"
)

func TestMonthGrid_Shape(t *testing.T) {
	tests := []struct {
		name     string
		year     int
		month    time.Month
		weeks    int
		firstKey string
		lastKey  string
		leadDays int
	}{
		// March 2026 starts on a Sunday and ends on a Tuesday.
		{name: "starts on sunday", year: 2026, month: time.March, weeks: 5, firstKey: "2026-03-01", lastKey: "2026-04-04", leadDays: 0},
		// February 2026 starts on a Sunday and ends on a Saturday.
		{name: "exact four weeks", year: 2026, month: time.February, weeks: 4, firstKey: "2026-02-01", lastKey: "2026-02-28", leadDays: 0},
		// May 2026 starts on a Friday.
		{name: "leading days", year: 2026, month: time.May, weeks: 6, firstKey: "2026-04-26", lastKey: "2026-06-06", leadDays: 5},
		{name: "year boundary", year: 2026, month: time.December, weeks: 5, firstKey: "2026-11-29", lastKey: "2027-01-02", leadDays: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal := MonthGrid(tt.year, tt.month, nil, time.UTC)

			require.Len(t, cal.Weeks, tt.weeks)
			for _, w := range cal.Weeks {
				require.Len(t, w, 7)
				assert.Equal(t, time.Sunday, w[0].Date.Weekday())
			}
			assert.Equal(t, tt.firstKey, cal.Weeks[0][0].Key)
			assert.Equal(t, tt.lastKey, cal.Weeks[len(cal.Weeks)-1][6].Key)

			lead := 0
			for _, d := range cal.Weeks[0] {
				if d.InMonth {
					break
				}
				lead++
			}
			assert.Equal(t, tt.leadDays, lead)
		})
	}
}

func TestMonthGrid_BucketsByLocalDate(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	late := &domain.Checkin{ID: "late", Timestamp: time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)} // 10th in KST
	early := &domain.Checkin{ID: "early", Timestamp: time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)}
	outside := &domain.Checkin{ID: "outside", Timestamp: time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)}

	cal := MonthGrid(2026, time.March, []*domain.Checkin{late, early, outside}, seoul)

	var tenth, ninth *Day
	for wi := range cal.Weeks {
		for di := range cal.Weeks[wi] {
			d := &cal.Weeks[wi][di]
			switch d.Key {
			case "2026-03-10":
				tenth = d
			case "2026-03-09":
				ninth = d
			}
		}
	}
	require.NotNil(t, tenth)
	require.NotNil(t, ninth)
	assert.Equal(t, []*domain.Checkin{late, early}, tenth.Checkins)
	assert.Empty(t, ninth.Checkins)
}

func TestMonthGrid_TrailingDaysCarryCheckins(t *testing.T) {
	c := &domain.Checkin{ID: "apr", Timestamp: time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)}

	cal := MonthGrid(2026, time.March, []*domain.Checkin{c}, time.UTC)

	last := cal.Weeks[len(cal.Weeks)-1]
	for _, d := range last {
		if d.Key == "2026-04-02" {
			assert.False(t, d.InMonth)
			assert.Len(t, d.Checkins, 1)
			return
		}
	}
	t.Fatal("trailing day not found")
}

func TestTodayRange(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 4, 5, 0, time.UTC)

	start, end := TodayRange(now, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 14, 23, 59, 59, 999_000_000, time.UTC), end)
}
