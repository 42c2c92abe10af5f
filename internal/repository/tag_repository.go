package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"thinkflow/internal/model"
)

// TagRepository handles tags and their item associations.
type TagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{db: db}
}

func (r *TagRepository) GetAll(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	if err := r.db.WithContext(ctx).Preload("Items.Item").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (r *TagRepository) FindByID(ctx context.Context, id uint) (*model.Tag, error) {
	var tag model.Tag
	if err := r.db.WithContext(ctx).Preload("Items.Item").First(&tag, id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *TagRepository) Create(ctx context.Context, tag *model.Tag) error {
	if err := r.db.WithContext(ctx).Create(tag).Error; err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

func (r *TagRepository) Update(ctx context.Context, id uint, updates map[string]any) (*model.Tag, error) {
	tx := r.db.WithContext(ctx).Model(&model.Tag{}).Where("id = ?", id).Updates(updates)
	if tx.Error != nil {
		return nil, fmt.Errorf("update tag: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	var tag model.Tag
	if err := r.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// Delete removes a tag and all its item links.
func (r *TagRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Delete(&model.ItemTag{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Tag{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

// AttachToItem links a tag to an item; repeating the call is a no-op.
func (r *TagRepository) AttachToItem(ctx context.Context, itemID, tagID uint) error {
	link := model.ItemTag{ItemID: itemID, TagID: tagID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&link).Error
	if err != nil {
		return fmt.Errorf("attach tag: %w", err)
	}
	return nil
}

func (r *TagRepository) DetachFromItem(ctx context.Context, itemID, tagID uint) error {
	res := r.db.WithContext(ctx).
		Where("item_id = ? AND tag_id = ?", itemID, tagID).
		Delete(&model.ItemTag{})
	if res.Error != nil {
		return fmt.Errorf("detach tag: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
