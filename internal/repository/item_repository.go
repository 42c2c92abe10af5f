package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"thinkflow/internal/model"
)

// SortOrder for list queries.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ItemListQuery narrows and pages the item listing.
type ItemListQuery struct {
	Page  int
	Limit int
	Sort  string // createdAt | updatedAt | dueDate
	Order SortOrder
	Kind  *model.ItemKind
	TagID *uint
	Query string
}

// sortColumns whitelists client-facing sort fields.
var sortColumns = map[string]string{
	"createdAt": "items.created_at",
	"updatedAt": "items.updated_at",
	"dueDate":   "task_details.due_date",
}

// ItemRepository handles CRUD for items of every kind.
type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) withIncludes(db *gorm.DB) *gorm.DB {
	return db.
		Preload("TaskDetail").
		Preload("Tags.Tag").
		Preload("Comments")
}

// List returns a filtered, sorted page of items plus the total match count.
func (r *ItemRepository) List(ctx context.Context, q ItemListQuery) ([]model.Item, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}
	column, ok := sortColumns[q.Sort]
	if !ok {
		column = sortColumns["createdAt"]
	}
	order := "DESC"
	if q.Order == OrderAsc {
		order = "ASC"
	}

	base := r.db.WithContext(ctx).Model(&model.Item{})
	if q.Sort == "dueDate" {
		base = base.Joins("LEFT JOIN task_details ON task_details.item_id = items.id")
	}
	if q.Kind != nil {
		base = base.Where("items.kind = ?", *q.Kind)
	}
	if q.TagID != nil {
		base = base.Joins("JOIN item_tags ON item_tags.item_id = items.id").
			Where("item_tags.tag_id = ?", *q.TagID)
	}
	if q.Query != "" {
		like := "%" + q.Query + "%"
		base = base.Where("items.title LIKE ? OR items.content LIKE ?", like, like)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	var items []model.Item
	err := r.withIncludes(base).
		Order(column + " " + order).
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	return items, total, nil
}

func (r *ItemRepository) FindByID(ctx context.Context, id uint) (*model.Item, error) {
	var item model.Item
	if err := r.withIncludes(r.db.WithContext(ctx)).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *ItemRepository) Create(ctx context.Context, item *model.Item) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

// Update applies a partial column update and returns the fresh row.
func (r *ItemRepository) Update(ctx context.Context, id uint, updates map[string]any) (*model.Item, error) {
	tx := r.db.WithContext(ctx).Model(&model.Item{}).Where("id = ?", id).Updates(updates)
	if tx.Error != nil {
		return nil, fmt.Errorf("update item: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}

// Delete removes an item together with its detail, comments and tag links.
func (r *ItemRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ?", id).Delete(&model.ItemTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_id = ?", id).Delete(&model.TaskDetail{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Item{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// Tags lists the tag links of an item with their tags loaded.
func (r *ItemRepository) Tags(ctx context.Context, itemID uint) ([]model.ItemTag, error) {
	var links []model.ItemTag
	if err := r.db.WithContext(ctx).Preload("Tag").Where("item_id = ?", itemID).Find(&links).Error; err != nil {
		return nil, fmt.Errorf("list item tags: %w", err)
	}
	return links, nil
}
