package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/vbonduro/traincheck/internal/domain"
	"github.com/vbonduro/traincheck/internal/photostore"
	"github.com/vbonduro/traincheck/internal/store"
)

// Usage is the approximate storage footprint in bytes. Data is the length of
// the serialized check-ins and trains, not the on-disk size.
type Usage struct {
	Total  int64 `json:"total"`
	Photos int64 `json:"photos"`
	Data   int64 `json:"data"`
}

const dayMillis = 86_400_000

type StorageService struct {
	repos  *store.Repos
	blobs  photostore.PhotoStore
	now    func() time.Time
	logger *slog.Logger
}

func NewStorageService(repos *store.Repos, blobs photostore.PhotoStore, opts Options, logger *slog.Logger) *StorageService {
	opts = opts.withDefaults()
	return &StorageService{repos: repos, blobs: blobs, now: opts.Now, logger: logger}
}

func (s *StorageService) ComputeUsage(ctx context.Context) (Usage, error) {
	photos, err := s.repos.Photos.TotalSize(ctx)
	if err != nil {
		return Usage{}, err
	}

	checkins, err := s.repos.Checkins.List(ctx)
	if err != nil {
		return Usage{}, err
	}
	trains, err := s.repos.Trains.List(ctx)
	if err != nil {
		return Usage{}, err
	}

	data, err := serializedSize(checkins, trains)
	if err != nil {
		return Usage{}, err
	}
	return Usage{Total: photos + data, Photos: photos, Data: data}, nil
}

func serializedSize(checkins []*domain.Checkin, trains []*domain.Train) (int64, error) {
	if checkins == nil {
		checkins = []*domain.Checkin{}
	}
	if trains == nil {
		trains = []*domain.Train{}
	}
	c, err := json.Marshal(checkins)
	if err != nil {
		return 0, fmt.Errorf("failed to measure checkins: %w", err)
	}
	t, err := json.Marshal(trains)
	if err != nil {
		return 0, fmt.Errorf("failed to measure trains: %w", err)
	}
	return int64(len(c) + len(t)), nil
}

// PurgeOlderThan deletes every photo created strictly more than days ago and
// returns how many were removed. The owning check-ins keep their photo keys.
func (s *StorageService) PurgeOlderThan(ctx context.Context, days int) (int, error) {
	if days < 0 {
		return 0, fmt.Errorf("%w: days must not be negative", domain.ErrInvalidInput)
	}
	cutoff, ok := purgeCutoff(s.now(), days)
	if !ok {
		s.logger.Info("purged old photos", "days", days, "deleted", 0)
		return 0, nil
	}

	photos, err := s.repos.Photos.ListCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, photo := range photos {
		if err := s.blobs.Delete(ctx, photo.StorageKey); err != nil {
			s.logger.Error("failed to delete photo file", "photo_id", photo.ID, "storage_key", photo.StorageKey, "error", err)
		}
		if err := s.repos.Photos.Delete(ctx, photo.ID); err != nil {
			return deleted, err
		}
		deleted++
	}

	s.logger.Info("purged old photos", "days", days, "cutoff", cutoff, "deleted", deleted)
	return deleted, nil
}

// purgeCutoff returns now minus days. It reports false when that instant is
// not representable in epoch milliseconds, in which case no photo is older.
func purgeCutoff(now time.Time, days int) (time.Time, bool) {
	if int64(days) > math.MaxInt64/dayMillis {
		return time.Time{}, false
	}
	span := int64(days) * dayMillis
	nowMillis := now.UnixMilli()
	if nowMillis < math.MinInt64+span {
		return time.Time{}, false
	}
	return time.UnixMilli(nowMillis - span), true
}
