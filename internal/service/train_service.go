package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vbonduro/traincheck/internal/domain"
)

// trainRepository is the subset of store.TrainStore that TrainService requires.
type trainRepository interface {
	Create(ctx context.Context, train *domain.Train) error
	GetByID(ctx context.Context, id string) (*domain.Train, error)
	List(ctx context.Context) ([]*domain.Train, error)
	Delete(ctx context.Context, id string) error
}

type TrainService struct {
	trains trainRepository
	now    func() time.Time
	logger *slog.Logger
}

func NewTrainService(trains trainRepository, opts Options, logger *slog.Logger) *TrainService {
	opts = opts.withDefaults()
	return &TrainService{trains: trains, now: opts.Now, logger: logger}
}

// Register adds a train under the trimmed label.
func (s *TrainService) Register(ctx context.Context, label string) (*domain.Train, error) {
	id := strings.TrimSpace(label)
	if id == "" {
		return nil, fmt.Errorf("%w: train id is required", domain.ErrInvalidInput)
	}

	train := &domain.Train{ID: id, CreatedAt: s.now()}
	if err := s.trains.Create(ctx, train); err != nil {
		return nil, err
	}
	s.logger.Info("train registered", "train_id", id)
	return train, nil
}

// Seed registers every label not already present and returns how many were
// added. Registration order follows the order of labels.
func (s *TrainService) Seed(ctx context.Context, labels []string) (int, error) {
	base := s.now()
	added := 0
	for i, label := range labels {
		id := strings.TrimSpace(label)
		if id == "" {
			continue
		}
		train := &domain.Train{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Millisecond)}
		err := s.trains.Create(ctx, train)
		if errors.Is(err, domain.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return added, fmt.Errorf("failed to seed train %s: %w", id, err)
		}
		added++
	}
	s.logger.Info("trains seeded", "requested", len(labels), "added", added)
	return added, nil
}

func (s *TrainService) List(ctx context.Context) ([]*domain.Train, error) {
	return s.trains.List(ctx)
}

func (s *TrainService) Get(ctx context.Context, id string) (*domain.Train, error) {
	train, err := s.trains.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if train == nil {
		return nil, fmt.Errorf("train %s: %w", id, domain.ErrNotFound)
	}
	return train, nil
}

// Delete removes the train. Check-ins that reference it are kept.
func (s *TrainService) Delete(ctx context.Context, id string) error {
	if err := s.trains.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("train deleted", "train_id", id)
	return nil
}
