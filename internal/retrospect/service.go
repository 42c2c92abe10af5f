// Package retrospect implements the retrospective-draft workflow: ensuring
// a draft exists for a task, generating it from a template or an external
// text-generation backend, and promoting an approved draft into a
// persisted post linked back to the task.
package retrospect

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"thinkflow/internal/genai"
	"thinkflow/internal/model"
	"thinkflow/internal/repository"
)

// EnsureStatus is the business-level outcome of an EnsureDraft call.
type EnsureStatus string

const (
	StatusHasPost EnsureStatus = "HAS_POST"
	StatusCached  EnsureStatus = "CACHED"
	StatusPending EnsureStatus = "PENDING"
	StatusReady   EnsureStatus = "READY"
	StatusFailed  EnsureStatus = "FAILED"
)

// EnsureResult is returned by EnsureDraft. A FAILED status is an expected,
// recoverable outcome, not a transport error.
type EnsureResult struct {
	Status EnsureStatus           `json:"status"`
	Draft  *model.RetrospectDraft `json:"draft"`
}

// State is the read-only snapshot returned by GetState.
type State struct {
	Task             *model.Item            `json:"task"`
	RetrospectPost   *model.Item            `json:"retrospectPost"`
	Draft            *model.RetrospectDraft `json:"draft"`
	RetrospectPostID *uint                  `json:"retrospectPostId"`
}

// SaveInput is the edited draft being promoted.
type SaveInput struct {
	Title   string
	Content string
}

// SaveMode tells the caller whether Save created or updated the post.
type SaveMode string

const (
	SaveCreated SaveMode = "CREATED"
	SaveUpdated SaveMode = "UPDATED"
)

// SaveResult is returned by Save.
type SaveResult struct {
	Mode SaveMode    `json:"mode"`
	Post *model.Item `json:"post"`
}

// Service orchestrates draft state transitions over the persisted rows.
// When gen is nil the service runs in template-only mode: drafts are
// rendered deterministically and become READY with no PENDING phase.
type Service struct {
	db       *gorm.DB
	comments *repository.CommentRepository
	gen      genai.TextGenerator
	logger   *slog.Logger
}

func NewService(db *gorm.DB, gen genai.TextGenerator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:       db,
		comments: repository.NewCommentRepository(db),
		gen:      gen,
		logger:   logger,
	}
}

// loadTask fetches the item with its detail and tags, classifying the
// precondition failures every operation shares.
func (s *Service) loadTask(ctx context.Context, taskID uint) (*model.Item, error) {
	var task model.Item
	err := s.db.WithContext(ctx).
		Preload("TaskDetail").
		Preload("Tags.Tag").
		First(&task, taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !task.IsTask() {
		return nil, ErrNotATask
	}
	if task.TaskDetail == nil {
		return nil, ErrTaskDetailMissing
	}
	return &task, nil
}

func (s *Service) findDraft(ctx context.Context, taskID uint) (*model.RetrospectDraft, error) {
	var draft model.RetrospectDraft
	err := s.db.WithContext(ctx).Where("task_id = ?", taskID).First(&draft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// GetState returns the full retrospective state for a task. Pure read.
func (s *Service) GetState(ctx context.Context, taskID uint) (*State, error) {
	var task model.Item
	err := s.db.WithContext(ctx).
		Preload("TaskDetail").
		Preload("TaskDetail.RetrospectPost").
		Preload("TaskDetail.RetrospectPost.Tags.Tag").
		Preload("Tags.Tag").
		First(&task, taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !task.IsTask() {
		return nil, ErrNotATask
	}
	if task.TaskDetail == nil {
		return nil, ErrTaskDetailMissing
	}

	draft, err := s.findDraft(ctx, taskID)
	if err != nil {
		return nil, err
	}

	return &State{
		Task:             &task,
		RetrospectPost:   task.TaskDetail.RetrospectPost,
		Draft:            draft,
		RetrospectPostID: task.TaskDetail.RetrospectPostID,
	}, nil
}

// EnsureDraft makes sure a draft exists for the task, generating one when
// needed. Evaluation order: saved post wins, then a cached READY draft,
// then PENDING deduplication, then generation.
//
// The PENDING upsert is committed before the generation call starts so a
// concurrent caller observes PENDING instead of launching a duplicate
// generation. Two callers that both read a non-PENDING state before either
// writes can still race; the last write wins.
func (s *Service) EnsureDraft(ctx context.Context, taskID uint, force bool) (*EnsureResult, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	draft, err := s.findDraft(ctx, taskID)
	if err != nil {
		return nil, err
	}

	// A saved post takes precedence and must not be overwritten.
	if task.TaskDetail.RetrospectPostID != nil {
		return &EnsureResult{Status: StatusHasPost, Draft: draft}, nil
	}

	if !force && draft != nil && draft.Status == model.DraftReady {
		return &EnsureResult{Status: StatusCached, Draft: draft}, nil
	}
	if !force && draft != nil && draft.Status == model.DraftPending {
		return &EnsureResult{Status: StatusPending, Draft: draft}, nil
	}

	if s.gen == nil {
		return s.ensureFromTemplate(ctx, task)
	}
	return s.ensureFromBackend(ctx, task, draft)
}

// ensureFromTemplate renders the deterministic draft and marks it READY
// immediately; template-only mode has no PENDING phase.
func (s *Service) ensureFromTemplate(ctx context.Context, task *model.Item) (*EnsureResult, error) {
	title, content := BuildTemplate(task)
	draft, err := s.upsertDraft(s.db.WithContext(ctx), task.ID, model.DraftReady, title, content, "")
	if err != nil {
		return nil, err
	}
	return &EnsureResult{Status: StatusReady, Draft: draft}, nil
}

func (s *Service) ensureFromBackend(ctx context.Context, task *model.Item, prev *model.RetrospectDraft) (*EnsureResult, error) {
	// Keep the previous terminal content visible while PENDING.
	var staleTitle, staleContent string
	if prev != nil {
		staleTitle, staleContent = prev.DraftTitle, prev.DraftContent
	}
	if _, err := s.upsertDraft(s.db.WithContext(ctx), task.ID, model.DraftPending, staleTitle, staleContent, ""); err != nil {
		return nil, err
	}

	prompt := s.buildPromptForTask(ctx, task)

	text, genErr := s.gen.GenerateText(ctx, prompt)
	if genErr != nil {
		s.logger.Warn("draft generation failed",
			slog.Uint64("task_id", uint64(task.ID)),
			slog.String("error", genErr.Error()))
		draft, err := s.upsertDraft(s.db.WithContext(ctx), task.ID, model.DraftFailed, staleTitle, staleContent, genErr.Error())
		if err != nil {
			return nil, err
		}
		return &EnsureResult{Status: StatusFailed, Draft: draft}, nil
	}

	draft, err := s.upsertDraft(s.db.WithContext(ctx), task.ID, model.DraftReady, DraftTitle(task.Title), text, "")
	if err != nil {
		return nil, err
	}
	return &EnsureResult{Status: StatusReady, Draft: draft}, nil
}

func (s *Service) buildPromptForTask(ctx context.Context, task *model.Item) string {
	comments, err := s.comments.RecentAscending(ctx, task.ID, MaxTimelineComments)
	if err != nil {
		s.logger.Warn("loading comment timeline failed",
			slog.Uint64("task_id", uint64(task.ID)),
			slog.String("error", err.Error()))
		comments = nil
	}

	return BuildPrompt(PromptInput{
		Title:     task.Title,
		Content:   task.Content,
		CreatedAt: task.CreatedAt,
		DueDate:   ymd(task.TaskDetail.DueDate),
		Priority:  PriorityLabel(task.TaskDetail.Priority),
		Status:    string(task.TaskDetail.Status),
		Tags:      TagLabels(task.Tags),
		Comments:  Timeline(comments),
	})
}

// Save promotes the edited draft into a persisted post inside a single
// transaction. The first call creates and links the post; every later
// call updates that same post.
func (s *Service) Save(ctx context.Context, taskID uint, input SaveInput) (*SaveResult, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	tagIDs := make([]uint, 0, len(task.Tags))
	for _, link := range task.Tags {
		tagIDs = append(tagIDs, link.TagID)
	}

	var result *SaveResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-read the link inside the transaction; the outer read may
		// be stale by the time we get here.
		var detail model.TaskDetail
		if err := tx.Where("item_id = ?", taskID).First(&detail).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskDetailMissing
			}
			return err
		}

		if detail.RetrospectPostID != nil {
			postID := *detail.RetrospectPostID
			err := tx.Model(&model.Item{}).Where("id = ?", postID).Updates(map[string]any{
				"kind":    model.ItemPost,
				"title":   input.Title,
				"content": input.Content,
			}).Error
			if err != nil {
				return err
			}
			if _, err := s.upsertDraft(tx, taskID, model.DraftReady, input.Title, input.Content, ""); err != nil {
				return err
			}
			post, err := loadPost(tx, postID)
			if err != nil {
				return err
			}
			result = &SaveResult{Mode: SaveUpdated, Post: post}
			return nil
		}

		created := model.Item{
			Kind:    model.ItemPost,
			Title:   input.Title,
			Content: input.Content,
			UserID:  task.UserID,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		err := tx.Model(&model.TaskDetail{}).
			Where("item_id = ?", taskID).
			Update("retrospect_post_id", created.ID).Error
		if err != nil {
			return err
		}

		if len(tagIDs) > 0 {
			links := make([]model.ItemTag, len(tagIDs))
			for i, tagID := range tagIDs {
				links[i] = model.ItemTag{ItemID: created.ID, TagID: tagID}
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
				return err
			}
		}

		if _, err := s.upsertDraft(tx, taskID, model.DraftReady, input.Title, input.Content, ""); err != nil {
			return err
		}

		post, err := loadPost(tx, created.ID)
		if err != nil {
			return err
		}
		result = &SaveResult{Mode: SaveCreated, Post: post}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func loadPost(tx *gorm.DB, id uint) (*model.Item, error) {
	var post model.Item
	if err := tx.Preload("Tags.Tag").First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// upsertDraft writes the draft row atomically, keyed by task id. Used both
// as the durable PENDING marker and for terminal results.
func (s *Service) upsertDraft(tx *gorm.DB, taskID uint, status model.DraftStatus, title, content, errMsg string) (*model.RetrospectDraft, error) {
	draft := model.RetrospectDraft{
		TaskID:       taskID,
		Status:       status,
		DraftTitle:   title,
		DraftContent: content,
		ErrorMessage: errMsg,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "task_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":        status,
			"draft_title":   title,
			"draft_content": content,
			"error_message": errMsg,
			"updated_at":    time.Now(),
		}),
	}).Create(&draft).Error
	if err != nil {
		return nil, err
	}

	var row model.RetrospectDraft
	if err := tx.Where("task_id = ?", taskID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
