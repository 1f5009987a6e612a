package exchange

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vbonduro/traincheck/internal/domain"
)

func TestReadableReport(t *testing.T) {
	trains := []*domain.Train{{ID: "368"}}
	checkins := []*domain.Checkin{
		{
			ID:        "c1",
			TrainID:   "368",
			Platform:  domain.Platform10,
			Timestamp: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
			Notes:     "door seal worn",
		},
		{
			ID:        "c2",
			TrainID:   "deleted-unit",
			Platform:  domain.Platform1,
			Timestamp: time.Date(2026, 3, 13, 17, 5, 0, 0, time.UTC),
		},
	}

	got := ReadableReport(trains, checkins, exportTime, time.UTC)

	want := strings.Join([]string{
		"📊 Train check-in log",
		"Date: 2026-03-14",
		"Total: 2",
		"",
		"==============================",
		"",
		"[1] 2026-03-14 09:30",
		"🚇 Train: 368",
		"📍 Platform: 10",
		"📝 Notes: door seal worn",
		"",
		"[2] 2026-03-13 17:05",
		"🚇 Train: deleted-unit",
		"📍 Platform: 1",
		"",
		"",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestReadableReport_UsesLocation(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	checkins := []*domain.Checkin{{
		ID:        "c1",
		TrainID:   "368",
		Platform:  domain.Platform1,
		Timestamp: time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC),
	}}

	got := ReadableReport(nil, checkins, exportTime, seoul)
	assert.Contains(t, got, "[1] 2026-03-15 05:00")
}

func TestReadableReport_Empty(t *testing.T) {
	got := ReadableReport(nil, nil, exportTime, time.UTC)
	assert.Contains(t, got, "Total: 0\n")
	assert.NotContains(t, got, "[1]")
}
