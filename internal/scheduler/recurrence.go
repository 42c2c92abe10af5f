// Package scheduler rolls repeating tasks forward in the background.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"thinkflow/internal/model"
)

// Recurrence advances DONE tasks with a repeat rule past their due date:
// the due date moves to the rule's next occurrence and the status resets
// to READY. Best-effort; failures are logged and retried on the next run.
type Recurrence struct {
	db     *gorm.DB
	logger *slog.Logger
	cron   *cron.Cron
}

func NewRecurrence(db *gorm.DB, logger *slog.Logger) *Recurrence {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recurrence{
		db:     db,
		logger: logger,
		cron:   cron.New(),
	}
}

// Start registers the interval job and starts the cron runner.
func (r *Recurrence) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	spec := fmt.Sprintf("@every %ds", seconds)
	if _, err := r.cron.AddFunc(spec, r.rollForward); err != nil {
		return fmt.Errorf("schedule recurrence job: %w", err)
	}
	r.cron.Start()
	return nil
}

// Stop halts the cron runner and waits for a running job to finish.
func (r *Recurrence) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

func (r *Recurrence) rollForward() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()

	var details []model.TaskDetail
	err := r.db.WithContext(ctx).
		Where("repeat_rule IS NOT NULL AND status = ? AND due_date IS NOT NULL AND due_date <= ?",
			model.TaskDone, now).
		Find(&details).Error
	if err != nil {
		r.logger.Error("loading recurring tasks failed", slog.String("error", err.Error()))
		return
	}

	for _, detail := range details {
		if detail.RepeatRule == nil || detail.DueDate == nil {
			continue
		}

		next, err := detail.RepeatRule.Next(*detail.DueDate)
		if err != nil {
			r.logger.Warn("skipping invalid repeat rule",
				slog.Uint64("item_id", uint64(detail.ItemID)),
				slog.String("error", err.Error()))
			continue
		}
		// Catch up past occurrences so the task lands in the future.
		for !next.After(now) {
			next, err = detail.RepeatRule.Next(next)
			if err != nil {
				break
			}
		}
		if err != nil {
			continue
		}

		err = r.db.WithContext(ctx).Model(&model.TaskDetail{}).
			Where("item_id = ?", detail.ItemID).
			Updates(map[string]any{
				"due_date": next,
				"status":   model.TaskReady,
			}).Error
		if err != nil {
			r.logger.Error("advancing recurring task failed",
				slog.Uint64("item_id", uint64(detail.ItemID)),
				slog.String("error", err.Error()))
			continue
		}

		r.logger.Info("recurring task advanced",
			slog.Uint64("item_id", uint64(detail.ItemID)),
			slog.Time("next_due", next))
	}
}
