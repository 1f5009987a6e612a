package query

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/vbonduro/traincheck/internal/domain"
)

type SortMode string

const (
	SortByTime     SortMode = "time"
	SortByTrain    SortMode = "train"
	SortByTaskDate SortMode = "task"
)

func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortByTime:
		return SortByTime, nil
	case SortByTrain:
		return SortByTrain, nil
	case SortByTaskDate:
		return SortByTaskDate, nil
	default:
		return "", fmt.Errorf("%w: unknown sort mode %q", domain.ErrInvalidInput, s)
	}
}

// Options filter and order a check-in list. Empty filters match everything.
// The zero value lists every check-in newest first.
type Options struct {
	TrainID   string
	TaskID    string
	Mode      SortMode
	Ascending bool
}

// Apply returns the check-ins matching opts in the requested order. The input
// slice is not modified.
//
// Each mode defines a descending comparison and Ascending negates the whole
// result. In task-date mode check-ins without a task, or whose task is
// unknown, always come last, and equal task dates fall back to event time.
func Apply(checkins []*domain.Checkin, tasks []*domain.Task, opts Options) []*domain.Checkin {
	out := make([]*domain.Checkin, 0, len(checkins))
	for _, c := range checkins {
		if opts.TrainID != "" && c.TrainID != opts.TrainID {
			continue
		}
		if opts.TaskID != "" && c.TaskID != opts.TaskID {
			continue
		}
		out = append(out, c)
	}

	direction := func(r int) int {
		if opts.Ascending {
			return -r
		}
		return r
	}

	switch opts.Mode {
	case SortByTrain:
		slices.SortStableFunc(out, func(a, b *domain.Checkin) int {
			return direction(CompareTrainIDs(b.TrainID, a.TrainID))
		})
	case SortByTaskDate:
		dates := make(map[string]string, len(tasks))
		for _, t := range tasks {
			dates[t.ID] = t.Date
		}
		slices.SortStableFunc(out, func(a, b *domain.Checkin) int {
			aDate, aOK := dates[a.TaskID]
			bDate, bOK := dates[b.TaskID]
			switch {
			case aOK && !bOK:
				return -1
			case !aOK && bOK:
				return 1
			}
			r := strings.Compare(bDate, aDate)
			if r == 0 {
				r = b.Timestamp.Compare(a.Timestamp)
			}
			return direction(r)
		})
	default:
		slices.SortStableFunc(out, func(a, b *domain.Checkin) int {
			return direction(b.Timestamp.Compare(a.Timestamp))
		})
	}
	return out
}

// leadingNumber parses the leading decimal digits of s, ignoring leading
// whitespace. ok is false when s does not start with a digit.
func leadingNumber(s string) (n int64, ok bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// CompareTrainIDs orders train labels by their leading number, then by text.
// Labels without a leading number sort after numbered ones.
func CompareTrainIDs(a, b string) int {
	an, aOK := leadingNumber(a)
	bn, bOK := leadingNumber(b)
	switch {
	case aOK && bOK && an != bn:
		if an < bn {
			return -1
		}
		return 1
	case aOK && !bOK:
		return -1
	case !aOK && bOK:
		return 1
	}
	return strings.Compare(a, b)
}

func SortTrainIDs(ids []string) {
	slices.SortStableFunc(ids, CompareTrainIDs)
}

// SortTrains orders trains for pickers by numeric label.
func SortTrains(trains []*domain.Train) {
	slices.SortStableFunc(trains, func(a, b *domain.Train) int {
		return CompareTrainIDs(a.ID, b.ID)
	})
}
