package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/vbonduro/traincheck/internal/dbx"
	"github.com/vbonduro/traincheck/internal/domain"
	"github.com/vbonduro/traincheck/internal/imaging"
	"github.com/vbonduro/traincheck/internal/photostore"
	"github.com/vbonduro/traincheck/internal/query"
	"github.com/vbonduro/traincheck/internal/store"
)

// SubmitRequest describes a new check-in. Date is a YYYY-MM-DD calendar date;
// empty means today. Photos hold raw image bytes in any accepted format.
type SubmitRequest struct {
	TrainID  string
	Platform domain.Platform
	Date     string
	Notes    string
	TaskID   string
	Photos   [][]byte
}

// UpdateRequest carries the editable fields of a check-in. An empty Date
// keeps the stored calendar date.
type UpdateRequest struct {
	TrainID  string
	Platform domain.Platform
	Date     string
	Notes    string
}

type CheckinService struct {
	db     *sql.DB
	repos  *store.Repos
	blobs  photostore.PhotoStore
	opts   Options
	logger *slog.Logger
}

func NewCheckinService(db *sql.DB, blobs photostore.PhotoStore, opts Options, logger *slog.Logger) *CheckinService {
	return &CheckinService{
		db:     db,
		repos:  store.NewRepos(db),
		blobs:  blobs,
		opts:   opts.withDefaults(),
		logger: logger,
	}
}

// Submit records a check-in and its photos.
//
// The check-in row is written first, then each photo (blob, then row). If a
// photo fails after the check-in was written, the stored check-in is returned
// together with a *domain.PartialWriteError and nothing is rolled back. With
// AtomicSubmit the rows share one transaction and a failure leaves nothing
// behind.
func (s *CheckinService) Submit(ctx context.Context, req SubmitRequest) (*domain.Checkin, error) {
	trainID := strings.TrimSpace(req.TrainID)
	s.logger.Info("submit checkin started", "train_id", trainID, "photos", len(req.Photos))

	if err := s.requireTrain(ctx, trainID); err != nil {
		return nil, err
	}
	if !req.Platform.Valid() {
		return nil, fmt.Errorf("%w: platform must be 1 or 10", domain.ErrInvalidInput)
	}
	if len(req.Photos) > domain.MaxPhotosPerCheckin {
		return nil, fmt.Errorf("%w: at most %d photos per checkin", domain.ErrInvalidInput, domain.MaxPhotosPerCheckin)
	}
	taskID := strings.TrimSpace(req.TaskID)
	if taskID != "" {
		task, err := s.repos.Tasks.GetByID(ctx, taskID)
		if err != nil {
			return nil, fmt.Errorf("failed to get task: %w", err)
		}
		if task == nil {
			return nil, fmt.Errorf("task %s: %w", taskID, domain.ErrNotFound)
		}
	}

	now := s.opts.Now()
	timestamp := now
	if strings.TrimSpace(req.Date) != "" {
		var err error
		if timestamp, err = withDate(req.Date, now, s.opts.Location); err != nil {
			return nil, err
		}
	}

	photos := make([][]byte, 0, len(req.Photos))
	for i, data := range req.Photos {
		compressed, err := imaging.Compress(data, s.opts.Image)
		if err != nil {
			return nil, fmt.Errorf("photo %d: %w", i+1, err)
		}
		s.logger.Debug("photo compressed", "index", i, "original_bytes", len(data), "compressed_bytes", len(compressed))
		photos = append(photos, compressed)
	}

	checkin := &domain.Checkin{
		ID:        s.opts.NewID(),
		TrainID:   trainID,
		Platform:  req.Platform,
		Timestamp: timestamp,
		Notes:     req.Notes,
		PhotoKeys: make([]string, 0, len(photos)),
		TaskID:    taskID,
		CreatedAt: now,
	}
	for range photos {
		checkin.PhotoKeys = append(checkin.PhotoKeys, s.opts.NewID())
	}

	if s.opts.AtomicSubmit {
		if err := s.submitAtomic(ctx, checkin, photos); err != nil {
			return nil, err
		}
	} else if err := s.submitSteps(ctx, checkin, photos); err != nil {
		if errors.Is(err, domain.ErrPartialWrite) {
			return checkin, err
		}
		return nil, err
	}

	s.logger.Info("submit checkin complete", "checkin_id", checkin.ID, "photos_stored", len(photos))
	return checkin, nil
}

func (s *CheckinService) submitSteps(ctx context.Context, checkin *domain.Checkin, photos [][]byte) error {
	if err := s.repos.Checkins.Create(ctx, checkin); err != nil {
		return fmt.Errorf("failed to create checkin: %w", err)
	}

	for i, data := range photos {
		if _, err := s.storePhoto(ctx, s.repos.Photos, checkin.ID, checkin.PhotoKeys[i], data); err != nil {
			s.logger.Error("photo write failed after checkin was stored",
				"checkin_id", checkin.ID, "stored", i, "total", len(photos), "error", err)
			return &domain.PartialWriteError{CheckinID: checkin.ID, Stored: i, Total: len(photos), Err: err}
		}
	}
	return nil
}

func (s *CheckinService) submitAtomic(ctx context.Context, checkin *domain.Checkin, photos [][]byte) error {
	var saved []string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repos := store.NewRepos(tx)
		if err := repos.Checkins.Create(ctx, checkin); err != nil {
			return fmt.Errorf("failed to create checkin: %w", err)
		}
		for i, data := range photos {
			photo, err := s.storePhoto(ctx, repos.Photos, checkin.ID, checkin.PhotoKeys[i], data)
			if err != nil {
				return err
			}
			saved = append(saved, photo.StorageKey)
		}
		return nil
	})
	if err != nil {
		for _, key := range saved {
			if derr := s.blobs.Delete(ctx, key); derr != nil {
				s.logger.Error("failed to roll back photo file", "storage_key", key, "error", derr)
			}
		}
		return err
	}
	return nil
}

// storePhoto saves the blob and then its row. A failed row insert removes
// the blob again.
func (s *CheckinService) storePhoto(ctx context.Context, photos *store.PhotoStore, checkinID, photoID string, data []byte) (*domain.Photo, error) {
	key, err := s.blobs.Save(ctx, photoID, imaging.OutputMIME, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}

	photo := &domain.Photo{
		ID:         photoID,
		CheckinID:  checkinID,
		MimeType:   imaging.OutputMIME,
		SizeBytes:  int64(len(data)),
		StorageKey: key,
		CreatedAt:  s.opts.Now(),
	}
	if err := photos.Create(ctx, photo); err != nil {
		if derr := s.blobs.Delete(ctx, key); derr != nil {
			s.logger.Error("failed to remove photo file after record error", "storage_key", key, "error", derr)
		}
		return nil, fmt.Errorf("failed to create photo record: %w", err)
	}
	return photo, nil
}

func (s *CheckinService) requireTrain(ctx context.Context, trainID string) error {
	if trainID == "" {
		return fmt.Errorf("%w: train id is required", domain.ErrInvalidInput)
	}
	train, err := s.repos.Trains.GetByID(ctx, trainID)
	if err != nil {
		return fmt.Errorf("failed to get train: %w", err)
	}
	if train == nil {
		return fmt.Errorf("train %s is not registered: %w", trainID, domain.ErrNotFound)
	}
	return nil
}

// Update edits a check-in. The id, photos, task, creation time and
// time-of-day of the event are preserved.
func (s *CheckinService) Update(ctx context.Context, id string, req UpdateRequest) (*domain.Checkin, error) {
	checkin, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	trainID := strings.TrimSpace(req.TrainID)
	if trainID != checkin.TrainID {
		if err := s.requireTrain(ctx, trainID); err != nil {
			return nil, err
		}
	}
	if !req.Platform.Valid() {
		return nil, fmt.Errorf("%w: platform must be 1 or 10", domain.ErrInvalidInput)
	}

	if strings.TrimSpace(req.Date) != "" {
		timestamp, err := withDate(req.Date, checkin.Timestamp, s.opts.Location)
		if err != nil {
			return nil, err
		}
		checkin.Timestamp = timestamp
	}
	checkin.TrainID = trainID
	checkin.Platform = req.Platform
	checkin.Notes = req.Notes

	if err := s.repos.Checkins.Put(ctx, checkin); err != nil {
		return nil, err
	}
	s.logger.Info("checkin updated", "checkin_id", id)
	return checkin, nil
}

// Delete removes the check-in after its photos. Deleting an unknown id is a
// no-op.
func (s *CheckinService) Delete(ctx context.Context, id string) error {
	checkin, err := s.repos.Checkins.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get checkin: %w", err)
	}
	if checkin == nil {
		return nil
	}

	photoIDs := append([]string{}, checkin.PhotoKeys...)
	indexed, err := s.repos.Photos.ListByCheckinID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list checkin photos: %w", err)
	}
	for _, p := range indexed {
		photoIDs = append(photoIDs, p.ID)
	}

	seen := make(map[string]struct{}, len(photoIDs))
	for _, photoID := range photoIDs {
		if _, dup := seen[photoID]; dup {
			continue
		}
		seen[photoID] = struct{}{}
		if err := s.deletePhoto(ctx, photoID); err != nil {
			return err
		}
	}

	if err := s.repos.Checkins.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("checkin deleted", "checkin_id", id, "photos_deleted", len(seen))
	return nil
}

func (s *CheckinService) deletePhoto(ctx context.Context, photoID string) error {
	photo, err := s.repos.Photos.GetByID(ctx, photoID)
	if err != nil {
		return fmt.Errorf("failed to get photo: %w", err)
	}
	if photo == nil {
		return nil
	}
	if err := s.blobs.Delete(ctx, photo.StorageKey); err != nil {
		s.logger.Error("failed to delete photo file", "storage_key", photo.StorageKey, "error", err)
	}
	return s.repos.Photos.Delete(ctx, photoID)
}

func (s *CheckinService) Get(ctx context.Context, id string) (*domain.Checkin, error) {
	checkin, err := s.repos.Checkins.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if checkin == nil {
		return nil, fmt.Errorf("checkin %s: %w", id, domain.ErrNotFound)
	}
	return checkin, nil
}

// List returns check-ins filtered and ordered by opts. Single-field filters
// are served from the train and task indexes.
func (s *CheckinService) List(ctx context.Context, opts query.Options) ([]*domain.Checkin, error) {
	var (
		checkins []*domain.Checkin
		err      error
	)
	switch {
	case opts.TrainID != "":
		checkins, err = s.repos.Checkins.ListByTrainID(ctx, opts.TrainID)
	case opts.TaskID != "":
		checkins, err = s.repos.Checkins.ListByTaskID(ctx, opts.TaskID)
	default:
		checkins, err = s.repos.Checkins.List(ctx)
	}
	if err != nil {
		return nil, err
	}

	var tasks []*domain.Task
	if opts.Mode == query.SortByTaskDate {
		if tasks, err = s.repos.Tasks.List(ctx); err != nil {
			return nil, err
		}
	}
	return query.Apply(checkins, tasks, opts), nil
}

// Today returns the check-ins whose event time falls on the current day.
func (s *CheckinService) Today(ctx context.Context) ([]*domain.Checkin, error) {
	all, err := s.repos.Checkins.List(ctx)
	if err != nil {
		return nil, err
	}
	start, end := query.TodayRange(s.opts.Now(), s.opts.Location)
	var today []*domain.Checkin
	for _, c := range all {
		if !c.Timestamp.Before(start) && !c.Timestamp.After(end) {
			today = append(today, c)
		}
	}
	return today, nil
}

// Calendar lays out the month's check-ins matching opts.
func (s *CheckinService) Calendar(ctx context.Context, year int, month time.Month, opts query.Options) (query.Calendar, error) {
	checkins, err := s.List(ctx, opts)
	if err != nil {
		return query.Calendar{}, err
	}
	return query.MonthGrid(year, month, checkins, s.opts.Location), nil
}

// Photos returns the stored photo records of a check-in.
func (s *CheckinService) Photos(ctx context.Context, checkinID string) ([]*domain.Photo, error) {
	return s.repos.Photos.ListByCheckinID(ctx, checkinID)
}

// Photo opens a stored photo. The caller must close the reader.
func (s *CheckinService) Photo(ctx context.Context, photoID string) (*domain.Photo, io.ReadCloser, error) {
	photo, err := s.repos.Photos.GetByID(ctx, photoID)
	if err != nil {
		return nil, nil, err
	}
	if photo == nil {
		return nil, nil, fmt.Errorf("photo %s: %w", photoID, domain.ErrNotFound)
	}
	r, _, err := s.blobs.Get(ctx, photo.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return photo, r, nil
}
