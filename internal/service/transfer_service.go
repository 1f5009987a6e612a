package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/traincheck/internal/dbx"
	"github.com/vbonduro/traincheck/internal/exchange"
	"github.com/vbonduro/traincheck/internal/store"
)

// ImportResult counts the records an import added.
type ImportResult struct {
	Trains   int `json:"trains"`
	Tasks    int `json:"tasks"`
	Checkins int `json:"checkins"`
}

type TransferService struct {
	db     *sql.DB
	repos  *store.Repos
	now    func() time.Time
	loc    *time.Location
	logger *slog.Logger
}

func NewTransferService(db *sql.DB, opts Options, logger *slog.Logger) *TransferService {
	opts = opts.withDefaults()
	return &TransferService{
		db:     db,
		repos:  store.NewRepos(db),
		now:    opts.Now,
		loc:    opts.Location,
		logger: logger,
	}
}

// Export renders every train, task and check-in as an export document.
func (s *TransferService) Export(ctx context.Context) ([]byte, error) {
	trains, err := s.repos.Trains.List(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.repos.Tasks.List(ctx)
	if err != nil {
		return nil, err
	}
	checkins, err := s.repos.Checkins.List(ctx)
	if err != nil {
		return nil, err
	}

	data, err := exchange.Serialize(trains, tasks, checkins, s.now())
	if err != nil {
		return nil, err
	}
	s.logger.Info("export complete", "trains", len(trains), "tasks", len(tasks), "checkins", len(checkins), "bytes", len(data))
	return data, nil
}

// Report renders every check-in, newest first, as the readable text report.
func (s *TransferService) Report(ctx context.Context) (string, error) {
	trains, err := s.repos.Trains.List(ctx)
	if err != nil {
		return "", err
	}
	checkins, err := s.repos.Checkins.List(ctx)
	if err != nil {
		return "", err
	}
	return exchange.ReadableReport(trains, checkins, s.now(), s.loc), nil
}

// Import merges an export document. Records whose id already exists are
// skipped; imported check-ins have no photos. The text is fully validated
// before anything is written and the merge runs in one transaction.
func (s *TransferService) Import(ctx context.Context, text string) (ImportResult, error) {
	doc, err := exchange.Deserialize(text)
	if err != nil {
		return ImportResult{}, err
	}

	var result ImportResult
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		result = ImportResult{}
		repos := store.NewRepos(tx)

		trainIDs, err := repos.Trains.IDs(ctx)
		if err != nil {
			return err
		}
		for _, train := range doc.DomainTrains() {
			if _, exists := trainIDs[train.ID]; exists {
				continue
			}
			if err := repos.Trains.Create(ctx, train); err != nil {
				return fmt.Errorf("failed to import train %s: %w", train.ID, err)
			}
			trainIDs[train.ID] = struct{}{}
			result.Trains++
		}

		taskIDs, err := repos.Tasks.IDs(ctx)
		if err != nil {
			return err
		}
		for _, task := range doc.DomainTasks() {
			if _, exists := taskIDs[task.ID]; exists {
				continue
			}
			if err := repos.Tasks.Create(ctx, task); err != nil {
				return fmt.Errorf("failed to import task %s: %w", task.ID, err)
			}
			taskIDs[task.ID] = struct{}{}
			result.Tasks++
		}

		checkinIDs, err := repos.Checkins.IDs(ctx)
		if err != nil {
			return err
		}
		for _, checkin := range doc.DomainCheckins() {
			if _, exists := checkinIDs[checkin.ID]; exists {
				continue
			}
			if err := repos.Checkins.Create(ctx, checkin); err != nil {
				return fmt.Errorf("failed to import checkin %s: %w", checkin.ID, err)
			}
			checkinIDs[checkin.ID] = struct{}{}
			result.Checkins++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to import: %w", err)
	}

	s.logger.Info("import complete", "trains", result.Trains, "tasks", result.Tasks, "checkins", result.Checkins)
	return result, nil
}
