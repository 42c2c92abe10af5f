package model

// Tag labels items; one tag can be attached to many items.
type Tag struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"not null" json:"name"`
	Color  string `json:"color"`
	UserID uint   `gorm:"index" json:"userId"`

	Items []ItemTag `gorm:"foreignKey:TagID" json:"items,omitempty"`
}

// ItemTag is the item/tag join row.
type ItemTag struct {
	ItemID uint `gorm:"primaryKey" json:"itemId"`
	TagID  uint `gorm:"primaryKey" json:"tagId"`

	Item *Item `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Tag  *Tag  `gorm:"foreignKey:TagID" json:"tag,omitempty"`
}
