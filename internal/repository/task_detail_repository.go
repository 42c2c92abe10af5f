package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"thinkflow/internal/model"
)

// TaskDetailRepository handles the one-to-one task extension rows.
type TaskDetailRepository struct {
	db *gorm.DB
}

func NewTaskDetailRepository(db *gorm.DB) *TaskDetailRepository {
	return &TaskDetailRepository{db: db}
}

func (r *TaskDetailRepository) Get(ctx context.Context, itemID uint) (*model.TaskDetail, error) {
	var detail model.TaskDetail
	if err := r.db.WithContext(ctx).Where("item_id = ?", itemID).First(&detail).Error; err != nil {
		return nil, err
	}
	return &detail, nil
}

func (r *TaskDetailRepository) Create(ctx context.Context, detail *model.TaskDetail) error {
	if err := r.db.WithContext(ctx).Create(detail).Error; err != nil {
		return fmt.Errorf("create task detail: %w", err)
	}
	return nil
}

// Update applies a partial column update and returns the fresh row.
func (r *TaskDetailRepository) Update(ctx context.Context, itemID uint, updates map[string]any) (*model.TaskDetail, error) {
	tx := r.db.WithContext(ctx).Model(&model.TaskDetail{}).Where("item_id = ?", itemID).Updates(updates)
	if tx.Error != nil {
		return nil, fmt.Errorf("update task detail: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.Get(ctx, itemID)
}

func (r *TaskDetailRepository) Delete(ctx context.Context, itemID uint) error {
	res := r.db.WithContext(ctx).Where("item_id = ?", itemID).Delete(&model.TaskDetail{})
	if res.Error != nil {
		return fmt.Errorf("delete task detail: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
