package domain

import "time"

// DateLayout is the calendar-date form used for task dates and date keys.
const DateLayout = "2006-01-02"

// MaxPhotosPerCheckin caps the attachments accepted by a single submission.
const MaxPhotosPerCheckin = 10

// Platform is the side of the unit a check-in was recorded from.
type Platform int

const (
	Platform1  Platform = 1
	Platform10 Platform = 10
)

func (p Platform) Valid() bool {
	return p == Platform1 || p == Platform10
}

// Train is a registered unit. Its ID is the user-facing label.
type Train struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// Task groups check-ins under a work-order date.
type Task struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Checkin is one logged inspection event.
// TrainID and TaskID are not enforced references and may dangle.
type Checkin struct {
	ID        string    `json:"id"`
	TrainID   string    `json:"trainId"`
	Platform  Platform  `json:"platform"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes"`
	PhotoKeys []string  `json:"photoKeys"`
	TaskID    string    `json:"taskId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasTask reports whether the check-in belongs to a task.
func (c *Checkin) HasTask() bool {
	return c.TaskID != ""
}

// Photo is the metadata of a stored image. The bytes live in the photo blob
// store under StorageKey.
type Photo struct {
	ID         string    `json:"id"`
	CheckinID  string    `json:"checkinId"`
	MimeType   string    `json:"mimeType"`
	SizeBytes  int64     `json:"sizeBytes"`
	StorageKey string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}
