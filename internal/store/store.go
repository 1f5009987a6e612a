package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/traincheck/internal/dbx"
	"github.com/vbonduro/traincheck/internal/domain"
)

// Repos bundles the collection stores bound to one connection or transaction.
type Repos struct {
	Trains   *TrainStore
	Tasks    *TaskStore
	Checkins *CheckinStore
	Photos   *PhotoStore
}

func NewRepos(db dbx.DBTX) *Repos {
	return &Repos{
		Trains:   NewTrainStore(db),
		Tasks:    NewTaskStore(db),
		Checkins: NewCheckinStore(db),
		Photos:   NewPhotoStore(db),
	}
}

// Timestamps are stored as epoch milliseconds.
func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// checkInserted maps an insert that touched no rows to ErrDuplicateKey.
// Inserts use ON CONFLICT(id) DO NOTHING so the existing record is untouched.
func checkInserted(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", kind, id, domain.ErrDuplicateKey)
	}
	return nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("failed to close rows", "error", err)
	}
}

// collectIDs runs a single-column id query and returns the ids as a set.
func collectIDs(ctx context.Context, db dbx.DBTX, query string) (map[string]struct{}, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
