package query

import (
	"math"

	"github.com/vbonduro/traincheck/internal/domain"
)

// Progress summarises how many registered trains have been checked under a task.
type Progress struct {
	TaskID string `json:"taskId"`
	// CompletedTrainIDs lists every train id with a check-in under the task,
	// including ids no longer registered, in train order.
	CompletedTrainIDs []string `json:"completedTrainIds"`
	// Latest maps each completed train id to its most recent check-in.
	Latest    map[string]*domain.Checkin `json:"latest"`
	Completed int                        `json:"completed"`
	Total     int                        `json:"total"`
	Percent   int                        `json:"percent"`
}

// TaskCompletion derives task progress. Percent is the rounded share of
// registered trains with at least one matching check-in, and 0 when no trains
// are registered.
func TaskCompletion(taskID string, checkins []*domain.Checkin, trains []*domain.Train) Progress {
	p := Progress{
		TaskID:            taskID,
		CompletedTrainIDs: []string{},
		Latest:            make(map[string]*domain.Checkin),
		Total:             len(trains),
	}

	for _, c := range checkins {
		if c.TaskID != taskID || taskID == "" {
			continue
		}
		prev, seen := p.Latest[c.TrainID]
		if !seen {
			p.CompletedTrainIDs = append(p.CompletedTrainIDs, c.TrainID)
		}
		if !seen || c.Timestamp.After(prev.Timestamp) {
			p.Latest[c.TrainID] = c
		}
	}
	SortTrainIDs(p.CompletedTrainIDs)

	for _, t := range trains {
		if _, ok := p.Latest[t.ID]; ok {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Percent = int(math.Round(100 * float64(p.Completed) / float64(p.Total)))
	}
	return p
}
