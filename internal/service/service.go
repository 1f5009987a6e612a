package service

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vbonduro/traincheck/internal/domain"
	"github.com/vbonduro/traincheck/internal/ids"
	"github.com/vbonduro/traincheck/internal/imaging"
	"github.com/vbonduro/traincheck/internal/photostore"
	"github.com/vbonduro/traincheck/internal/store"
)

// Options carries the collaborators and policies shared by every service.
type Options struct {
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
	// NewID generates record ids. Defaults to ids.New.
	NewID func() string
	// Location is used for calendar dates. Defaults to time.Local.
	Location *time.Location
	Image    imaging.Options
	// AtomicSubmit writes a check-in and its photo rows in one transaction
	// and removes saved blobs on failure.
	AtomicSubmit bool
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = ids.New
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Image == (imaging.Options{}) {
		o.Image = imaging.DefaultOptions()
	}
	return o
}

// Set bundles the services used by the CLI and HTTP surfaces.
type Set struct {
	Trains   *TrainService
	Tasks    *TaskService
	Checkins *CheckinService
	Storage  *StorageService
	Transfer *TransferService

	now func() time.Time
	loc *time.Location
}

// Now returns the services' clock reading in the configured location.
func (s *Set) Now() time.Time {
	return s.now().In(s.loc)
}

func New(db *sql.DB, blobs photostore.PhotoStore, opts Options, logger *slog.Logger) *Set {
	opts = opts.withDefaults()
	repos := store.NewRepos(db)
	return &Set{
		Trains:   NewTrainService(repos.Trains, opts, logger),
		Tasks:    NewTaskService(repos.Tasks, repos.Checkins, repos.Trains, opts, logger),
		Checkins: NewCheckinService(db, blobs, opts, logger),
		Storage:  NewStorageService(repos, blobs, opts, logger),
		Transfer: NewTransferService(db, opts, logger),
		now:      opts.Now,
		loc:      opts.Location,
	}
}

func parseDate(date string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(domain.DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", domain.ErrInvalidInput, date)
	}
	return d, nil
}

// withDate returns the instant on the given calendar date at the
// time-of-day of clock, both read in loc.
func withDate(date string, clock time.Time, loc *time.Location) (time.Time, error) {
	d, err := parseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	c := clock.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), c.Nanosecond(), loc), nil
}
