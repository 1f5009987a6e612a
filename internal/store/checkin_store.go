package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vbonduro/traincheck/internal/dbx"
	"github.com/vbonduro/traincheck/internal/domain"
)

type CheckinStore struct {
	db dbx.DBTX
}

func NewCheckinStore(db dbx.DBTX) *CheckinStore {
	return &CheckinStore{db: db}
}

const checkinColumns = `id, train_id, platform, timestamp, notes, photo_keys, task_id, created_at`

func scanCheckin(row interface{ Scan(...any) error }) (*domain.Checkin, error) {
	c := &domain.Checkin{}
	var (
		timestamp, createdAt int64
		photoKeys            string
		taskID               sql.NullString
	)
	if err := row.Scan(&c.ID, &c.TrainID, &c.Platform, &timestamp, &c.Notes, &photoKeys, &taskID, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(photoKeys), &c.PhotoKeys); err != nil {
		return nil, fmt.Errorf("failed to decode photo keys for checkin %s: %w", c.ID, err)
	}
	if c.PhotoKeys == nil {
		c.PhotoKeys = []string{}
	}
	c.Timestamp = fromMillis(timestamp)
	c.CreatedAt = fromMillis(createdAt)
	c.TaskID = taskID.String
	return c, nil
}

func encodePhotoKeys(keys []string) (string, error) {
	if keys == nil {
		keys = []string{}
	}
	data, err := json.Marshal(keys)
	if err != nil {
		return "", fmt.Errorf("failed to encode photo keys: %w", err)
	}
	return string(data), nil
}

// Create inserts a check-in. An existing id yields domain.ErrDuplicateKey.
func (s *CheckinStore) Create(ctx context.Context, c *domain.Checkin) error {
	keys, err := encodePhotoKeys(c.PhotoKeys)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO checkins (`+checkinColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, c.ID, c.TrainID, int(c.Platform), toMillis(c.Timestamp), c.Notes, keys, nullString(c.TaskID), toMillis(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create checkin: %w", err)
	}
	return checkInserted(result, "checkin", c.ID)
}

// Put inserts the check-in or replaces the stored record with the same id.
func (s *CheckinStore) Put(ctx context.Context, c *domain.Checkin) error {
	keys, err := encodePhotoKeys(c.PhotoKeys)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkins (`+checkinColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			train_id = excluded.train_id,
			platform = excluded.platform,
			timestamp = excluded.timestamp,
			notes = excluded.notes,
			photo_keys = excluded.photo_keys,
			task_id = excluded.task_id,
			created_at = excluded.created_at
	`, c.ID, c.TrainID, int(c.Platform), toMillis(c.Timestamp), c.Notes, keys, nullString(c.TaskID), toMillis(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to put checkin: %w", err)
	}
	return nil
}

func (s *CheckinStore) GetByID(ctx context.Context, id string) (*domain.Checkin, error) {
	c, err := scanCheckin(s.db.QueryRowContext(ctx, `
		SELECT `+checkinColumns+` FROM checkins WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkin: %w", err)
	}
	return c, nil
}

// List returns every check-in, most recent event first.
func (s *CheckinStore) List(ctx context.Context) ([]*domain.Checkin, error) {
	return s.query(ctx, `
		SELECT `+checkinColumns+` FROM checkins ORDER BY timestamp DESC, id DESC
	`)
}

func (s *CheckinStore) ListByTrainID(ctx context.Context, trainID string) ([]*domain.Checkin, error) {
	return s.query(ctx, `
		SELECT `+checkinColumns+` FROM checkins WHERE train_id = ? ORDER BY timestamp DESC, id DESC
	`, trainID)
}

func (s *CheckinStore) ListByTaskID(ctx context.Context, taskID string) ([]*domain.Checkin, error) {
	return s.query(ctx, `
		SELECT `+checkinColumns+` FROM checkins WHERE task_id = ? ORDER BY timestamp DESC, id DESC
	`, taskID)
}

func (s *CheckinStore) query(ctx context.Context, query string, args ...any) ([]*domain.Checkin, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkins: %w", err)
	}
	defer closeRows(rows)

	var checkins []*domain.Checkin
	for rows.Next() {
		c, err := scanCheckin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkin: %w", err)
		}
		checkins = append(checkins, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checkins: %w", err)
	}

	return checkins, nil
}

// Delete removes a check-in row only; photo cleanup is the caller's job.
// Deleting an unknown id is a no-op.
func (s *CheckinStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkins WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete checkin: %w", err)
	}
	return nil
}

func (s *CheckinStore) IDs(ctx context.Context) (map[string]struct{}, error) {
	ids, err := collectIDs(ctx, s.db, `SELECT id FROM checkins`)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkin ids: %w", err)
	}
	return ids, nil
}
