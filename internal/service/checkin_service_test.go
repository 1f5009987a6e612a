package service

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/traincheck/internal/domain"
	"github.com/vbonduro/traincheck/internal/imaging"
	"github.com/vbonduro/traincheck/internal/query"
)

func TestCheckinServiceSubmit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerTrains(t, "368")

	checkin, err := env.set.Checkins.Submit(ctx, SubmitRequest{
		TrainID:  "368",
		Platform: domain.Platform10,
		Date:     "2026-03-10",
		Notes:    "door 3 sticky",
		Photos:   [][]byte{pngBytes(t), pngBytes(t)},
	})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 3, 10, 9, 30, 15, 0, time.UTC), checkin.Timestamp)
	assert.Len(t, checkin.PhotoKeys, 2)
	assert.Equal(t, 2, env.blobs.count())

	got, err := env.set.Checkins.Get(ctx, checkin.ID)
	require.NoError(t, err)
	assert.Equal(t, checkin.PhotoKeys, got.PhotoKeys)
	assert.Equal(t, "door 3 sticky", got.Notes)

	photos, err := env.set.Checkins.Photos(ctx, checkin.ID)
	require.NoError(t, err)
	require.Len(t, photos, 2)
	for _, p := range photos {
		assert.Equal(t, imaging.OutputMIME, p.MimeType)
		assert.Positive(t, p.SizeBytes)
	}
}

func TestCheckinServiceSubmit_DefaultsToNow(t *testing.T) {
	env := newTestEnv(t)
	env.registerTrains(t, "368")

	checkin, err := env.set.Checkins.Submit(context.Background(), SubmitRequest{TrainID: "368", Platform: domain.Platform1})
	require.NoError(t, err)
	assert.True(t, checkin.Timestamp.Equal(env.clock.Now()))
	assert.Empty(t, checkin.PhotoKeys)
}

func TestCheckinServiceSubmit_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.registerTrains(t, "368")

	tests := []struct {
		name string
		req  SubmitRequest
		want error
	}{
		{"empty train", SubmitRequest{Platform: domain.Platform1}, domain.ErrInvalidInput},
		{"unknown train", SubmitRequest{TrainID: "999", Platform: domain.Platform1}, domain.ErrNotFound},
		{"bad platform", SubmitRequest{TrainID: "368", Platform: 5}, domain.ErrInvalidInput},
		{"unknown task", SubmitRequest{TrainID: "368", Platform: domain.Platform1, TaskID: "nope"}, domain.ErrNotFound},
		{"bad date", SubmitRequest{TrainID: "368", Platform: domain.Platform1, Date: "10/03/2026"}, domain.ErrInvalidInput},
		{"not an image", SubmitRequest{TrainID: "368", Platform: domain.Platform1, Photos: [][]byte{[]byte("hello")}}, domain.ErrInvalidInput},
		{"too many photos", SubmitRequest{TrainID: "368", Platform: domain.Platform1, Photos: make([][]byte, domain.MaxPhotosPerCheckin+1)}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.set.Checkins.Submit(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	all, err := env.set.Checkins.List(context.Background(), query.Options{})
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Zero(t, env.blobs.count())
}

func TestCheckinServiceSubmit_PartialWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerTrains(t, "368")
	env.blobs.saveErr = errDiskFull
	env.blobs.failOnSave = 2

	checkin, err := env.set.Checkins.Submit(ctx, SubmitRequest{
		TrainID:  "368",
		Platform: domain.Platform1,
		Photos:   [][]byte{pngBytes(t), pngBytes(t), pngBytes(t)},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPartialWrite)
	assert.ErrorIs(t, err, errDiskFull)

	var pw *domain.PartialWriteError
	require.ErrorAs(t, err, &pw)
	assert.Equal(t, 1, pw.Stored)
	assert.Equal(t, 3, pw.Total)

	require.NotNil(t, checkin)
	assert.Equal(t, checkin.ID, pw.CheckinID)

	got, err := env.set.Checkins.Get(ctx, checkin.ID)
	require.NoError(t, err)
	assert.Len(t, got.PhotoKeys, 3)
	assert.Equal(t, 1, env.photoRowCount(t))
	assert.Equal(t, 1, env.blobs.count())
}

func TestCheckinServiceSubmit_AtomicRollsBack(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.AtomicSubmit = true })
	ctx := context.Background()
	env.registerTrains(t, "368")
	env.blobs.saveErr = errDiskFull
	env.blobs.failOnSave = 2

	checkin, err := env.set.Checkins.Submit(ctx, SubmitRequest{
		TrainID:  "368",
		Platform: domain.Platform1,
		Photos:   [][]byte{pngBytes(t), pngBytes(t)},
	})
	require.Error(t, err)
	assert.Nil(t, checkin)
	assert.ErrorIs(t, err, errDiskFull)
	assert.NotErrorIs(t, err, domain.ErrPartialWrite)

	all, err := env.set.Checkins.List(ctx, query.Options{})
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Zero(t, env.photoRowCount(t))
	assert.Zero(t, env.blobs.count())
}

func TestCheckinServiceSubmit_AtomicSuccess(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.AtomicSubmit = true })
	env.registerTrains(t, "368")

	checkin, err := env.set.Checkins.Submit(context.Background(), SubmitRequest{
		TrainID:  "368",
		Platform: domain.Platform1,
		Photos:   [][]byte{pngBytes(t)},
	})
	require.NoError(t, err)
	assert.Len(t, checkin.PhotoKeys, 1)
	assert.Equal(t, 1, env.photoRowCount(t))
}

func TestCheckinServiceUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerTrains(t, "368", "369")

	task, err := env.set.Tasks.Create(ctx, "2026-03-14", "")
	require.NoError(t, err)
	original, err := env.set.Checkins.Submit(ctx, SubmitRequest{
		TrainID:  "368",
		Platform: domain.Platform1,
		TaskID:   task.ID,
		Photos:   [][]byte{pngBytes(t)},
	})
	require.NoError(t, err)

	env.clock.Advance(5 * time.Hour)
	updated, err := env.set.Checkins.Update(ctx, original.ID, UpdateRequest{
		TrainID:  "369",
		Platform: domain.Platform10,
		Date:     "2026-03-20",
		Notes:    "rechecked",
	})
	require.NoError(t, err)

	got, err := env.set.Checkins.Get(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.ID, got.ID)
	assert.Equal(t, "369", got.TrainID)
	assert.Equal(t, domain.Platform10, got.Platform)
	assert.Equal(t, "rechecked", got.Notes)
	assert.Equal(t, time.Date(2026, 3, 20, 9, 30, 15, 0, time.UTC), got.Timestamp)
	assert.Equal(t, original.PhotoKeys, got.PhotoKeys)
	assert.Equal(t, task.ID, got.TaskID)
	assert.True(t, got.CreatedAt.Equal(original.CreatedAt))
}

func TestCheckinServiceUpdate_KeepsDanglingTrain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerTrains(t, "368")

	checkin, err := env.set.Checkins.Submit(ctx, SubmitRequest{TrainID: "368", Platform: domain.Platform1})
	require.NoError(t, err)
	require.NoError(t, env.set.Trains.Delete(ctx, "368"))

	_, err = env.set.Checkins.Update(ctx, checkin.ID, UpdateRequest{TrainID: "368", Platform: domain.Platform1, Notes: "ok"})
	require.NoError(t, err)

	_, err = env.set.Checkins.Update(ctx, checkin.ID, UpdateRequest{TrainID: "999", Platform: domain.Platform1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckinServiceUpdate_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.set.Checkins.Update(context.Background(), "missing", UpdateRequest{TrainID: "368", Platform: domain.Platform1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckinServiceDelete_RemovesPhotos(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerTrains(t, "368")

	checkin, err := env.set.Checkins.Submit(ctx, SubmitRequest{
		TrainID:  "368",
		Platform: domain.Platform1,
		Photos:   [][]byte{pngBytes(t), pngBytes(t)},
	})
	require.NoError(t, err)
	require.Equal(t, 2, env.blobs.count())

	require.NoError(t, env.set.Checkins.Delete(ctx, checkin.ID))

	_, err = env.set.Checkins.Get(ctx, checkin.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, env.photoRowCount(t))
	assert.Zero(t, env.blobs.count())
}

func TestCheckinServiceDelete_Absent(t *testing.T) {
	env := newTestEnv(t)

	assert.NoError(t, env.set.Checkins.Delete(context.Background(), "missing"))
}

func TestCheckinServiceList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerTrains(t, "361", "368")

	first, err := env.set.Checkins.Submit(ctx, SubmitRequest{TrainID: "368", Platform: domain.Platform1, Date: "2026-03-01"})
	require.NoError(t, err)
	second, err := env.set.Checkins.Submit(ctx, SubmitRequest{TrainID: "361", Platform: domain.Platform1, Date: "2026-03-05"})
	require.NoError(t, err)

	all, err := env.set.Checkins.List(ctx, query.Options{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	asc, err := env.set.Checkins.List(ctx, query.Options{Ascending: true})
	require.NoError(t, err)
	assert.Equal(t, first.ID, asc[0].ID)

	filtered, err := env.set.Checkins.List(ctx, query.Options{TrainID: "368"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, first.ID, filtered[0].ID)
}

func TestCheckinServiceToday(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerTrains(t, "368")

	_, err := env.set.Checkins.Submit(ctx, SubmitRequest{TrainID: "368", Platform: domain.Platform1, Date: "2026-03-13"})
	require.NoError(t, err)
	today, err := env.set.Checkins.Submit(ctx, SubmitRequest{TrainID: "368", Platform: domain.Platform1})
	require.NoError(t, err)

	got, err := env.set.Checkins.Today(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, today.ID, got[0].ID)
}

func TestCheckinServiceCalendar(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerTrains(t, "368")

	_, err := env.set.Checkins.Submit(ctx, SubmitRequest{TrainID: "368", Platform: domain.Platform1, Date: "2026-03-10"})
	require.NoError(t, err)

	cal, err := env.set.Checkins.Calendar(ctx, 2026, time.March, query.Options{})
	require.NoError(t, err)

	var found int
	for _, week := range cal.Weeks {
		for _, day := range week {
			if day.Key == "2026-03-10" {
				found += len(day.Checkins)
			}
		}
	}
	assert.Equal(t, 1, found)
}

func TestCheckinServicePhoto(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerTrains(t, "368")

	checkin, err := env.set.Checkins.Submit(ctx, SubmitRequest{TrainID: "368", Platform: domain.Platform1, Photos: [][]byte{pngBytes(t)}})
	require.NoError(t, err)

	photo, r, err := env.set.Checkins.Photo(ctx, checkin.PhotoKeys[0])
	require.NoError(t, err)
	defer func() { assert.NoError(t, r.Close()) }()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Len(t, data, int(photo.SizeBytes))

	_, _, err = env.set.Checkins.Photo(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckinServiceSubmit_OversizedPhotoWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerTrains(t, "368")

	// A valid PNG whose header claims 40000x40000 pixels.
	forged := bytes.Clone(pngBytes(t))
	binary.BigEndian.PutUint32(forged[16:20], 40000)
	binary.BigEndian.PutUint32(forged[20:24], 40000)
	binary.BigEndian.PutUint32(forged[29:33], crc32.ChecksumIEEE(forged[12:29]))

	checkin, err := env.set.Checkins.Submit(ctx, SubmitRequest{TrainID: "368", Platform: domain.Platform1, Photos: [][]byte{pngBytes(t), forged}})
	require.Error(t, err)
	assert.Nil(t, checkin)
	assert.ErrorIs(t, err, imaging.ErrTooLarge)
	assert.NotErrorIs(t, err, domain.ErrPartialWrite)

	all, err := env.set.Checkins.List(ctx, query.Options{})
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Zero(t, env.photoRowCount(t))
	assert.Zero(t, env.blobs.count())
}
