package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vbonduro/traincheck/internal/dbx"
	"github.com/vbonduro/traincheck/internal/domain"
)

type PhotoStore struct {
	db dbx.DBTX
}

func NewPhotoStore(db dbx.DBTX) *PhotoStore {
	return &PhotoStore{db: db}
}

const photoColumns = `id, checkin_id, storage_key, mime_type, size_bytes, created_at`

func scanPhoto(row interface{ Scan(...any) error }) (*domain.Photo, error) {
	photo := &domain.Photo{}
	var createdAt int64
	if err := row.Scan(&photo.ID, &photo.CheckinID, &photo.StorageKey, &photo.MimeType, &photo.SizeBytes, &createdAt); err != nil {
		return nil, err
	}
	photo.CreatedAt = fromMillis(createdAt)
	return photo, nil
}

func (s *PhotoStore) Create(ctx context.Context, photo *domain.Photo) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO photos (`+photoColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, photo.ID, photo.CheckinID, photo.StorageKey, photo.MimeType, photo.SizeBytes, toMillis(photo.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}
	return checkInserted(result, "photo", photo.ID)
}

func (s *PhotoStore) GetByID(ctx context.Context, id string) (*domain.Photo, error) {
	photo, err := scanPhoto(s.db.QueryRowContext(ctx, `
		SELECT `+photoColumns+` FROM photos WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return photo, nil
}

func (s *PhotoStore) List(ctx context.Context) ([]*domain.Photo, error) {
	return s.query(ctx, `
		SELECT `+photoColumns+` FROM photos ORDER BY created_at ASC, id ASC
	`)
}

func (s *PhotoStore) ListByCheckinID(ctx context.Context, checkinID string) ([]*domain.Photo, error) {
	return s.query(ctx, `
		SELECT `+photoColumns+` FROM photos WHERE checkin_id = ? ORDER BY created_at ASC, id ASC
	`, checkinID)
}

// ListCreatedBefore returns photos created strictly before cutoff.
func (s *PhotoStore) ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Photo, error) {
	return s.query(ctx, `
		SELECT `+photoColumns+` FROM photos WHERE created_at < ? ORDER BY created_at ASC, id ASC
	`, toMillis(cutoff))
}

func (s *PhotoStore) query(ctx context.Context, query string, args ...any) ([]*domain.Photo, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer closeRows(rows)

	var photos []*domain.Photo
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, photo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}

	return photos, nil
}

// TotalSize returns the summed size of every stored photo in bytes.
func (s *PhotoStore) TotalSize(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size_bytes), 0) FROM photos`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum photo sizes: %w", err)
	}
	return total, nil
}

// Delete removes a photo row. Deleting an unknown id is a no-op.
func (s *PhotoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM photos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return nil
}
