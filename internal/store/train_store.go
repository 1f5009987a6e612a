package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vbonduro/traincheck/internal/dbx"
	"github.com/vbonduro/traincheck/internal/domain"
)

type TrainStore struct {
	db dbx.DBTX
}

func NewTrainStore(db dbx.DBTX) *TrainStore {
	return &TrainStore{db: db}
}

// Create inserts a train. An existing id yields domain.ErrDuplicateKey.
func (s *TrainStore) Create(ctx context.Context, train *domain.Train) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO trains (id, created_at) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, train.ID, toMillis(train.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create train: %w", err)
	}
	return checkInserted(result, "train", train.ID)
}

func (s *TrainStore) GetByID(ctx context.Context, id string) (*domain.Train, error) {
	train := &domain.Train{}
	var createdAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at FROM trains WHERE id = ?
	`, id).Scan(&train.ID, &createdAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get train: %w", err)
	}

	train.CreatedAt = fromMillis(createdAt)
	return train, nil
}

// List returns every train in registration order.
func (s *TrainStore) List(ctx context.Context) ([]*domain.Train, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at FROM trains ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list trains: %w", err)
	}
	defer closeRows(rows)

	var trains []*domain.Train
	for rows.Next() {
		train := &domain.Train{}
		var createdAt int64
		if err := rows.Scan(&train.ID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan train: %w", err)
		}
		train.CreatedAt = fromMillis(createdAt)
		trains = append(trains, train)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trains: %w", err)
	}

	return trains, nil
}

// Delete removes a train. Deleting an unknown id is a no-op.
func (s *TrainStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM trains WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete train: %w", err)
	}
	return nil
}

func (s *TrainStore) IDs(ctx context.Context) (map[string]struct{}, error) {
	ids, err := collectIDs(ctx, s.db, `SELECT id FROM trains`)
	if err != nil {
		return nil, fmt.Errorf("failed to list train ids: %w", err)
	}
	return ids, nil
}
