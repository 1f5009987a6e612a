package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vbonduro/traincheck/internal/dbx"
	"github.com/vbonduro/traincheck/internal/domain"
)

type TaskStore struct {
	db dbx.DBTX
}

func NewTaskStore(db dbx.DBTX) *TaskStore {
	return &TaskStore{db: db}
}

const taskColumns = `id, date, name, created_at`

func scanTask(row interface{ Scan(...any) error }) (*domain.Task, error) {
	task := &domain.Task{}
	var createdAt int64
	if err := row.Scan(&task.ID, &task.Date, &task.Name, &createdAt); err != nil {
		return nil, err
	}
	task.CreatedAt = fromMillis(createdAt)
	return task, nil
}

func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, date, name, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, task.ID, task.Date, task.Name, toMillis(task.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return checkInserted(result, "task", task.ID)
}

func (s *TaskStore) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	task, err := scanTask(s.db.QueryRowContext(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// List returns every task, most recent work-order date first.
func (s *TaskStore) List(ctx context.Context) ([]*domain.Task, error) {
	return s.query(ctx, `
		SELECT `+taskColumns+` FROM tasks ORDER BY date DESC, created_at DESC
	`)
}

func (s *TaskStore) ListByDate(ctx context.Context, date string) ([]*domain.Task, error) {
	return s.query(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE date = ? ORDER BY created_at ASC
	`, date)
}

func (s *TaskStore) query(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer closeRows(rows)

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// Delete removes a task. Deleting an unknown id is a no-op.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *TaskStore) IDs(ctx context.Context) (map[string]struct{}, error) {
	ids, err := collectIDs(ctx, s.db, `SELECT id FROM tasks`)
	if err != nil {
		return nil, fmt.Errorf("failed to list task ids: %w", err)
	}
	return ids, nil
}
