package model

import "time"

// ItemKind discriminates the three item variants sharing one table.
type ItemKind string

const (
	ItemMemo ItemKind = "MEMO"
	ItemTask ItemKind = "TASK"
	ItemPost ItemKind = "POST"
)

// ValidItemKinds enumerates the kinds accepted on item creation.
var ValidItemKinds = map[ItemKind]struct{}{
	ItemMemo: {},
	ItemTask: {},
	ItemPost: {},
}

// Item is the shared base record for memos, tasks and posts.
// Task-specific fields live in the associated TaskDetail row.
type Item struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Kind      ItemKind  `gorm:"type:varchar(10);index;not null" json:"type"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	UserID    uint      `gorm:"index" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	TaskDetail *TaskDetail `gorm:"foreignKey:ItemID" json:"taskDetail,omitempty"`
	Comments   []Comment   `gorm:"foreignKey:ItemID" json:"comments,omitempty"`
	Tags       []ItemTag   `gorm:"foreignKey:ItemID" json:"tags,omitempty"`
}

// IsTask reports whether the item is the task variant.
func (i *Item) IsTask() bool {
	return i.Kind == ItemTask
}
