package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/traincheck/internal/domain"
)

func TestTaskServiceCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	task, err := env.set.Tasks.Create(ctx, "2026-03-10", " Brake audit ")
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "2026-03-10", task.Date)
	assert.Equal(t, "Brake audit", task.Name)

	got, err := env.set.Tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Date, got.Date)
}

func TestTaskServiceCreate_DefaultsToToday(t *testing.T) {
	env := newTestEnv(t)

	task, err := env.set.Tasks.Create(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14", task.Date)
}

func TestTaskServiceCreate_InvalidDate(t *testing.T) {
	env := newTestEnv(t)

	for _, date := range []string{"2026-13-01", "14/03/2026", "yesterday"} {
		_, err := env.set.Tasks.Create(context.Background(), date, "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput, date)
	}
}

func TestTaskServiceListByDate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.set.Tasks.Create(ctx, "2026-03-10", "a")
	require.NoError(t, err)
	_, err = env.set.Tasks.Create(ctx, "2026-03-11", "b")
	require.NoError(t, err)

	tasks, err := env.set.Tasks.ListByDate(ctx, "2026-03-10")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "a", tasks[0].Name)
}

func TestTaskServiceDelete_KeepsCheckinReference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerTrains(t, "368")

	task, err := env.set.Tasks.Create(ctx, "2026-03-10", "")
	require.NoError(t, err)
	checkin, err := env.set.Checkins.Submit(ctx, SubmitRequest{TrainID: "368", Platform: domain.Platform1, TaskID: task.ID})
	require.NoError(t, err)

	require.NoError(t, env.set.Tasks.Delete(ctx, task.ID))

	got, err := env.set.Checkins.Get(ctx, checkin.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.TaskID)
}

func TestTaskServiceProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerTrains(t, "A", "B", "C", "D")

	task, err := env.set.Tasks.Create(ctx, "2026-03-10", "")
	require.NoError(t, err)
	for _, trainID := range []string{"A", "C", "A"} {
		_, err := env.set.Checkins.Submit(ctx, SubmitRequest{TrainID: trainID, Platform: domain.Platform10, TaskID: task.ID})
		require.NoError(t, err)
	}
	_, err = env.set.Checkins.Submit(ctx, SubmitRequest{TrainID: "B", Platform: domain.Platform1})
	require.NoError(t, err)

	progress, err := env.set.Tasks.Progress(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, progress.Completed)
	assert.Equal(t, 4, progress.Total)
	assert.Equal(t, 50, progress.Percent)
	assert.Equal(t, []string{"A", "C"}, progress.CompletedTrainIDs)
}

func TestTaskServiceProgress_UnknownTask(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.set.Tasks.Progress(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
