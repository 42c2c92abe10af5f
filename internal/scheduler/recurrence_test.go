package scheduler

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"thinkflow/internal/model"
	"thinkflow/internal/repository"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	return db
}

func seedRecurringTask(t *testing.T, db *gorm.DB, status model.TaskStatus, due time.Time, rule *model.RepeatRule) uint {
	t.Helper()
	item := model.Item{Kind: model.ItemTask, Title: "반복 작업", UserID: 1}
	require.NoError(t, db.Create(&item).Error)
	detail := model.TaskDetail{ItemID: item.ID, Status: status, DueDate: &due, RepeatRule: rule}
	require.NoError(t, db.Create(&detail).Error)
	return item.ID
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRollForward_AdvancesDoneTask(t *testing.T) {
	db := testDB(t)
	due := time.Now().Add(-2 * time.Hour)
	id := seedRecurringTask(t, db, model.TaskDone, due, &model.RepeatRule{Type: model.RepeatDaily})

	NewRecurrence(db, discardLogger()).rollForward()

	var detail model.TaskDetail
	require.NoError(t, db.Where("item_id = ?", id).First(&detail).Error)
	assert.Equal(t, model.TaskReady, detail.Status)
	require.NotNil(t, detail.DueDate)
	assert.True(t, detail.DueDate.After(time.Now()))
}

func TestRollForward_CatchesUpMissedOccurrences(t *testing.T) {
	db := testDB(t)
	due := time.Now().AddDate(0, 0, -10)
	id := seedRecurringTask(t, db, model.TaskDone, due, &model.RepeatRule{Type: model.RepeatEveryNDays, N: 3})

	NewRecurrence(db, discardLogger()).rollForward()

	var detail model.TaskDetail
	require.NoError(t, db.Where("item_id = ?", id).First(&detail).Error)
	require.NotNil(t, detail.DueDate)
	assert.True(t, detail.DueDate.After(time.Now()))
	assert.True(t, detail.DueDate.Before(time.Now().AddDate(0, 0, 3)), "lands on the first future occurrence")
}

func TestRollForward_IgnoresUnfinishedTask(t *testing.T) {
	db := testDB(t)
	due := time.Now().Add(-time.Hour)
	id := seedRecurringTask(t, db, model.TaskInProgress, due, &model.RepeatRule{Type: model.RepeatDaily})

	NewRecurrence(db, discardLogger()).rollForward()

	var detail model.TaskDetail
	require.NoError(t, db.Where("item_id = ?", id).First(&detail).Error)
	assert.Equal(t, model.TaskInProgress, detail.Status)
	assert.WithinDuration(t, due, *detail.DueDate, time.Second)
}

func TestRollForward_IgnoresTaskWithoutRule(t *testing.T) {
	db := testDB(t)
	due := time.Now().Add(-time.Hour)
	id := seedRecurringTask(t, db, model.TaskDone, due, nil)

	NewRecurrence(db, discardLogger()).rollForward()

	var detail model.TaskDetail
	require.NoError(t, db.Where("item_id = ?", id).First(&detail).Error)
	assert.Equal(t, model.TaskDone, detail.Status)
}

func TestStart_RejectsNonPositiveInterval(t *testing.T) {
	rec := NewRecurrence(testDB(t), discardLogger())
	assert.Error(t, rec.Start(0))
}
