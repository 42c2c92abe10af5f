package model

import "time"

// DraftStatus is the lifecycle state of the latest draft generation attempt.
type DraftStatus string

const (
	DraftEmpty   DraftStatus = "EMPTY"
	DraftPending DraftStatus = "PENDING"
	DraftReady   DraftStatus = "READY"
	DraftFailed  DraftStatus = "FAILED"
)

// RetrospectDraft holds the generated retrospective draft for a task.
// One row per task; mutated in place on every attempt, never deleted.
//
// While status is PENDING the content fields still carry the previous
// terminal result until the in-flight generation completes.
type RetrospectDraft struct {
	ID           uint        `gorm:"primaryKey" json:"-"`
	TaskID       uint        `gorm:"uniqueIndex;not null" json:"taskId"`
	Status       DraftStatus `gorm:"type:varchar(10);default:EMPTY" json:"status"`
	DraftTitle   string      `json:"draftTitle"`
	DraftContent string      `gorm:"type:text" json:"draftContent"`
	ErrorMessage string      `json:"errorMessage"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}
