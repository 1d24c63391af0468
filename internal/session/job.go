package session

import "time"

type TurnJobStatus string

const (
	TurnJobQueued    TurnJobStatus = "queued"
	TurnJobRunning   TurnJobStatus = "running"
	TurnJobSucceeded TurnJobStatus = "succeeded"
	TurnJobFailed    TurnJobStatus = "failed"
)

// TurnJob is one enqueued generation turn, consumed by the worker.
type TurnJob struct {
	ID string `gorm:"primaryKey;size:26"` // ULID length

	SessionID uint64 `gorm:"index;not null"`

	// The message that triggered the turn; nil for scheduled turns where
	// the whole session is the trigger.
	TriggerMessageID *uint64 `gorm:"index"`

	Status TurnJobStatus `gorm:"type:varchar(16);index;not null"`

	// Filled when succeeded
	ResultMessageID *uint64 `gorm:"index"`

	// Filled when failed
	Error *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (TurnJob) TableName() string { return "turn_jobs" }
