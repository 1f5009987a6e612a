// Package exchange converts the check-in log to and from its portable text
// forms: the JSON export document and a one-way readable report.
//
// Exports never carry photo bytes or photo references. Timestamps are epoch
// milliseconds.
package exchange

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vbonduro/traincheck/internal/domain"
)

// FormatVersion is written to every export document.
const FormatVersion = "1.0"

type TrainRecord struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"createdAt"`
}

type TaskRecord struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Name      string `json:"name,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

// CheckinRecord is the exported form of a check-in. Photo fields are omitted.
type CheckinRecord struct {
	ID        string `json:"id"`
	TrainID   string `json:"trainId"`
	Platform  int    `json:"platform"`
	Timestamp int64  `json:"timestamp"`
	Notes     string `json:"notes"`
	TaskID    string `json:"taskId,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

type Document struct {
	Version    string          `json:"version"`
	ExportDate int64           `json:"exportDate"`
	Trains     []TrainRecord   `json:"trains"`
	Tasks      []TaskRecord    `json:"tasks"`
	Checkins   []CheckinRecord `json:"checkins"`
}

// Serialize renders the export document as indented JSON.
func Serialize(trains []*domain.Train, tasks []*domain.Task, checkins []*domain.Checkin, exportDate time.Time) ([]byte, error) {
	doc := Document{
		Version:    FormatVersion,
		ExportDate: exportDate.UnixMilli(),
		Trains:     make([]TrainRecord, 0, len(trains)),
		Tasks:      make([]TaskRecord, 0, len(tasks)),
		Checkins:   make([]CheckinRecord, 0, len(checkins)),
	}
	for _, t := range trains {
		doc.Trains = append(doc.Trains, TrainRecord{ID: t.ID, CreatedAt: t.CreatedAt.UnixMilli()})
	}
	for _, t := range tasks {
		doc.Tasks = append(doc.Tasks, TaskRecord{ID: t.ID, Date: t.Date, Name: t.Name, CreatedAt: t.CreatedAt.UnixMilli()})
	}
	for _, c := range checkins {
		doc.Checkins = append(doc.Checkins, CheckinRecord{
			ID:        c.ID,
			TrainID:   c.TrainID,
			Platform:  int(c.Platform),
			Timestamp: c.Timestamp.UnixMilli(),
			Notes:     c.Notes,
			TaskID:    c.TaskID,
			CreatedAt: c.CreatedAt.UnixMilli(),
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return data, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidFormat, fmt.Sprintf(format, args...))
}

// Deserialize parses export text. Any structural problem is reported as
// domain.ErrInvalidFormat; a document without tasks is accepted.
func Deserialize(text string) (*Document, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("empty input")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, invalid("not a JSON object: %v", err)
	}

	doc := &Document{}
	if err := json.Unmarshal(fields["version"], &doc.Version); err != nil || doc.Version == "" {
		return nil, invalid("missing version")
	}
	if raw, ok := fields["exportDate"]; ok {
		if err := json.Unmarshal(raw, &doc.ExportDate); err != nil {
			return nil, invalid("exportDate is not a number")
		}
	}

	if err := decodeList(fields, "trains", true, &doc.Trains); err != nil {
		return nil, err
	}
	if err := decodeList(fields, "tasks", false, &doc.Tasks); err != nil {
		return nil, err
	}
	if err := decodeList(fields, "checkins", true, &doc.Checkins); err != nil {
		return nil, err
	}

	if err := doc.validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeList[T any](fields map[string]json.RawMessage, key string, required bool, dst *[]T) error {
	raw, ok := fields[key]
	if !ok {
		if required {
			return invalid("missing %s", key)
		}
		*dst = []T{}
		return nil
	}
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		return invalid("%s is not a list", key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return invalid("malformed %s: %v", key, err)
	}
	return nil
}

func (d *Document) validate() error {
	for i, t := range d.Trains {
		if t.ID == "" {
			return invalid("train %d has no id", i)
		}
	}
	for i, t := range d.Tasks {
		if t.ID == "" {
			return invalid("task %d has no id", i)
		}
	}
	for i, c := range d.Checkins {
		if c.ID == "" {
			return invalid("checkin %d has no id", i)
		}
		if !domain.Platform(c.Platform).Valid() {
			return invalid("checkin %s has platform %d", c.ID, c.Platform)
		}
	}
	return nil
}

func (d *Document) DomainTrains() []*domain.Train {
	out := make([]*domain.Train, 0, len(d.Trains))
	for _, t := range d.Trains {
		out = append(out, &domain.Train{ID: t.ID, CreatedAt: time.UnixMilli(t.CreatedAt).UTC()})
	}
	return out
}

func (d *Document) DomainTasks() []*domain.Task {
	out := make([]*domain.Task, 0, len(d.Tasks))
	for _, t := range d.Tasks {
		out = append(out, &domain.Task{ID: t.ID, Date: t.Date, Name: t.Name, CreatedAt: time.UnixMilli(t.CreatedAt).UTC()})
	}
	return out
}

// DomainCheckins converts the imported check-ins. Photo references are
// never part of an export, so every result has an empty PhotoKeys list.
func (d *Document) DomainCheckins() []*domain.Checkin {
	out := make([]*domain.Checkin, 0, len(d.Checkins))
	for _, c := range d.Checkins {
		out = append(out, &domain.Checkin{
			ID:        c.ID,
			TrainID:   c.TrainID,
			Platform:  domain.Platform(c.Platform),
			Timestamp: time.UnixMilli(c.Timestamp).UTC(),
			Notes:     c.Notes,
			PhotoKeys: []string{},
			TaskID:    c.TaskID,
			CreatedAt: time.UnixMilli(c.CreatedAt).UTC(),
		})
	}
	return out
}
