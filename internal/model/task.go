package model

import "time"

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskReady      TaskStatus = "READY"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskPending    TaskStatus = "PENDING"
	TaskDone       TaskStatus = "DONE"
)

// ValidTaskStatuses enumerates the statuses accepted on detail writes.
var ValidTaskStatuses = map[TaskStatus]struct{}{
	TaskReady:      {},
	TaskInProgress: {},
	TaskPending:    {},
	TaskDone:       {},
}

// Priority of a task. Optional on the detail row.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// ValidPriorities enumerates the priorities accepted on detail writes.
var ValidPriorities = map[Priority]struct{}{
	PriorityLow:    {},
	PriorityMedium: {},
	PriorityHigh:   {},
}

// TaskDetail extends a task-kind item one-to-one.
//
// RetrospectPostID links the task to its promoted retrospective post.
// It is set at most once and never cleared.
type TaskDetail struct {
	ItemID           uint        `gorm:"primaryKey" json:"itemId"`
	DueDate          *time.Time  `json:"dueDate"`
	Priority         *Priority   `gorm:"type:varchar(10)" json:"priority"`
	Status           TaskStatus  `gorm:"type:varchar(15);default:READY" json:"status"`
	RepeatRule       *RepeatRule `gorm:"type:text" json:"repeatRule,omitempty"`
	RetrospectPostID *uint       `json:"retrospectPostId"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`

	RetrospectPost *Item `gorm:"foreignKey:RetrospectPostID" json:"retrospectPost,omitempty"`
}
