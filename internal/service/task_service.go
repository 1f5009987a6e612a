package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vbonduro/traincheck/internal/domain"
	"github.com/vbonduro/traincheck/internal/query"
)

// taskRepository is the subset of store.TaskStore that TaskService requires.
type taskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context) ([]*domain.Task, error)
	ListByDate(ctx context.Context, date string) ([]*domain.Task, error)
	Delete(ctx context.Context, id string) error
}

type taskCheckinRepository interface {
	ListByTaskID(ctx context.Context, taskID string) ([]*domain.Checkin, error)
}

type trainLister interface {
	List(ctx context.Context) ([]*domain.Train, error)
}

type TaskService struct {
	tasks    taskRepository
	checkins taskCheckinRepository
	trains   trainLister
	now      func() time.Time
	newID    func() string
	loc      *time.Location
	logger   *slog.Logger
}

func NewTaskService(tasks taskRepository, checkins taskCheckinRepository, trains trainLister, opts Options, logger *slog.Logger) *TaskService {
	opts = opts.withDefaults()
	return &TaskService{
		tasks:    tasks,
		checkins: checkins,
		trains:   trains,
		now:      opts.Now,
		newID:    opts.NewID,
		loc:      opts.Location,
		logger:   logger,
	}
}

// Create adds a task for the work-order date. An empty date means today.
func (s *TaskService) Create(ctx context.Context, date, name string) (*domain.Task, error) {
	now := s.now()
	date = strings.TrimSpace(date)
	if date == "" {
		date = query.DateKey(now, s.loc)
	}
	if _, err := parseDate(date, s.loc); err != nil {
		return nil, err
	}

	task := &domain.Task{
		ID:        s.newID(),
		Date:      date,
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	s.logger.Info("task created", "task_id", task.ID, "date", task.Date)
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, id string) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	return task, nil
}

func (s *TaskService) List(ctx context.Context) ([]*domain.Task, error) {
	return s.tasks.List(ctx)
}

func (s *TaskService) ListByDate(ctx context.Context, date string) ([]*domain.Task, error) {
	if _, err := parseDate(date, s.loc); err != nil {
		return nil, err
	}
	return s.tasks.ListByDate(ctx, strings.TrimSpace(date))
}

// Delete removes the task. Check-ins keep their task reference.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("task deleted", "task_id", id)
	return nil
}

// Progress reports how many registered trains have a check-in under the task.
func (s *TaskService) Progress(ctx context.Context, taskID string) (query.Progress, error) {
	if _, err := s.Get(ctx, taskID); err != nil {
		return query.Progress{}, err
	}
	checkins, err := s.checkins.ListByTaskID(ctx, taskID)
	if err != nil {
		return query.Progress{}, fmt.Errorf("failed to list task checkins: %w", err)
	}
	trains, err := s.trains.List(ctx)
	if err != nil {
		return query.Progress{}, fmt.Errorf("failed to list trains: %w", err)
	}
	return query.TaskCompletion(taskID, checkins, trains), nil
}
