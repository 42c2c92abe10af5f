package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"thinkflow/internal/genai"
	"thinkflow/internal/model"
	"thinkflow/internal/repository"
	"thinkflow/internal/retrospect"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Message *string         `json:"message"`
}

type stubGenerator struct {
	text string
	err  error
}

func (s *stubGenerator) GenerateText(context.Context, string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func newTestServer(t *testing.T, gen genai.TextGenerator) (*Server, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(Options{
		DB:             db,
		Retrospect:     retrospect.NewService(db, gen, discard),
		Logger:         discard,
		DefaultActorID: 1,
	})
	return srv, db
}

func perform(t *testing.T, srv *Server, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func seedServerTask(t *testing.T, db *gorm.DB) *model.Item {
	t.Helper()
	item := model.Item{Kind: model.ItemTask, Title: "주간 배포", Content: "릴리즈 노트 작성", UserID: 1}
	require.NoError(t, db.Create(&item).Error)
	detail := model.TaskDetail{ItemID: item.ID, Status: model.TaskDone}
	require.NoError(t, db.Create(&detail).Error)
	item.TaskDetail = &detail
	return &item
}

func message(env envelope) string {
	if env.Message == nil {
		return ""
	}
	return *env.Message
}

func TestCreateItem_TaskGetsDetailRow(t *testing.T) {
	srv, db := newTestServer(t, nil)

	rec, env := perform(t, srv, http.MethodPost, "/api/items", map[string]string{
		"type":  "TASK",
		"title": "배포 준비",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)

	var created model.Item
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, model.ItemTask, created.Kind)
	require.NotNil(t, created.TaskDetail)
	assert.Equal(t, model.TaskReady, created.TaskDetail.Status)

	var detail model.TaskDetail
	require.NoError(t, db.Where("item_id = ?", created.ID).First(&detail).Error)
}

func TestCreateItem_TitleRequired(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec, env := perform(t, srv, http.MethodPost, "/api/items", map[string]string{
		"type": "MEMO",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, codeTitleRequired, message(env))
}

func TestCreateItem_UnknownKindRejected(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec, env := perform(t, srv, http.MethodPost, "/api/items", map[string]string{
		"type":  "NOTE",
		"title": "잘못된 종류",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeInvalidBody, message(env))
}

func TestGetItem_InvalidID(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec, env := perform(t, srv, http.MethodGet, "/api/items/abc", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeInvalidID, message(env))
}

func TestGetItem_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec, env := perform(t, srv, http.MethodGet, "/api/items/999", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, codeNotFound, message(env))
}

func TestListItems_MetaCarriesPaging(t *testing.T) {
	srv, db := newTestServer(t, nil)
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&model.Item{
			Kind: model.ItemMemo, Title: fmt.Sprintf("메모 %d", i), UserID: 1,
		}).Error)
	}

	rec, env := perform(t, srv, http.MethodGet, "/api/items?limit=2", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var meta struct {
		Page     int   `json:"page"`
		PageSize int   `json:"pageSize"`
		Total    int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Meta, &meta))
	assert.Equal(t, 1, meta.Page)
	assert.Equal(t, 2, meta.PageSize)
	assert.Equal(t, int64(3), meta.Total)

	var items []model.Item
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Len(t, items, 2)
}

func TestAttachTag_RepeatIsNoOp(t *testing.T) {
	srv, db := newTestServer(t, nil)
	task := seedServerTask(t, db)
	tag := model.Tag{Name: "배포", UserID: 1}
	require.NoError(t, db.Create(&tag).Error)

	path := fmt.Sprintf("/api/items/%d/tags/%d", task.ID, tag.ID)
	rec, _ := perform(t, srv, http.MethodPost, path, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, _ = perform(t, srv, http.MethodPost, path, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var count int64
	require.NoError(t, db.Model(&model.ItemTag{}).
		Where("item_id = ? AND tag_id = ?", task.ID, tag.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsureDraft_FailedGenerationAnswers200(t *testing.T) {
	srv, db := newTestServer(t, &stubGenerator{err: errors.New("backend unavailable")})
	task := seedServerTask(t, db)

	rec, env := perform(t, srv, http.MethodPost,
		fmt.Sprintf("/api/items/%d/retrospect/draft", task.ID), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	var result retrospect.EnsureResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, retrospect.StatusFailed, result.Status)
	require.NotNil(t, result.Draft)
	assert.Equal(t, model.DraftFailed, result.Draft.Status)
	assert.Contains(t, result.Draft.ErrorMessage, "backend unavailable")
}

func TestEnsureDraft_MemoIsNotATask(t *testing.T) {
	srv, db := newTestServer(t, nil)
	memo := model.Item{Kind: model.ItemMemo, Title: "메모", UserID: 1}
	require.NoError(t, db.Create(&memo).Error)

	rec, env := perform(t, srv, http.MethodPost,
		fmt.Sprintf("/api/items/%d/retrospect/draft", memo.ID), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeNotATask, message(env))
}

func TestEnsureDraft_MissingDetail(t *testing.T) {
	srv, db := newTestServer(t, nil)
	task := model.Item{Kind: model.ItemTask, Title: "상세 없는 작업", UserID: 1}
	require.NoError(t, db.Create(&task).Error)

	rec, env := perform(t, srv, http.MethodPost,
		fmt.Sprintf("/api/items/%d/retrospect/draft", task.ID), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeTaskDetailMissing, message(env))
}

func TestRetrospectState_EmptyBeforeDraft(t *testing.T) {
	srv, db := newTestServer(t, nil)
	task := seedServerTask(t, db)

	rec, env := perform(t, srv, http.MethodGet,
		fmt.Sprintf("/api/items/%d/retrospect", task.ID), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var state retrospect.State
	require.NoError(t, json.Unmarshal(env.Data, &state))
	require.NotNil(t, state.Task)
	assert.Nil(t, state.Draft)
	assert.Nil(t, state.RetrospectPostID)
}

func TestSaveRetrospect_EmptyTitleRejected(t *testing.T) {
	srv, db := newTestServer(t, nil)
	task := seedServerTask(t, db)

	rec, env := perform(t, srv, http.MethodPut,
		fmt.Sprintf("/api/items/%d/retrospect", task.ID),
		map[string]string{"title": "   ", "content": "본문"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeTitleRequired, message(env))
}

func TestSaveRetrospect_CreateThenUpdate(t *testing.T) {
	srv, db := newTestServer(t, nil)
	task := seedServerTask(t, db)

	path := fmt.Sprintf("/api/items/%d/retrospect", task.ID)
	rec, env := perform(t, srv, http.MethodPut, path,
		map[string]string{"title": "회고: 주간 배포", "content": "첫 저장"})
	require.Equal(t, http.StatusOK, rec.Code)

	var first retrospect.SaveResult
	require.NoError(t, json.Unmarshal(env.Data, &first))
	assert.Equal(t, retrospect.SaveCreated, first.Mode)
	require.NotNil(t, first.Post)
	assert.Equal(t, model.ItemPost, first.Post.Kind)

	rec, env = perform(t, srv, http.MethodPut, path,
		map[string]string{"title": "회고: 주간 배포 (수정)", "content": "두 번째 저장"})
	require.Equal(t, http.StatusOK, rec.Code)

	var second retrospect.SaveResult
	require.NoError(t, json.Unmarshal(env.Data, &second))
	assert.Equal(t, retrospect.SaveUpdated, second.Mode)
	assert.Equal(t, first.Post.ID, second.Post.ID)

	var posts int64
	require.NoError(t, db.Model(&model.Item{}).
		Where("kind = ?", model.ItemPost).Count(&posts).Error)
	assert.Equal(t, int64(1), posts)
}

func TestSaveRetrospect_ThenEnsureReportsHasPost(t *testing.T) {
	srv, db := newTestServer(t, nil)
	task := seedServerTask(t, db)

	rec, _ := perform(t, srv, http.MethodPut,
		fmt.Sprintf("/api/items/%d/retrospect", task.ID),
		map[string]string{"title": "회고: 주간 배포", "content": "저장됨"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := perform(t, srv, http.MethodPost,
		fmt.Sprintf("/api/items/%d/retrospect/draft", task.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result retrospect.EnsureResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, retrospect.StatusHasPost, result.Status)
}

func TestCreateComment_ContentRequired(t *testing.T) {
	srv, db := newTestServer(t, nil)
	task := seedServerTask(t, db)

	rec, env := perform(t, srv, http.MethodPost,
		fmt.Sprintf("/api/items/%d/comments", task.ID),
		map[string]string{"content": ""})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeContentRequired, message(env))
}

func TestActorHeaderOverridesDefault(t *testing.T) {
	srv, db := newTestServer(t, nil)

	raw, err := json.Marshal(map[string]string{"type": "MEMO", "title": "작성자 확인"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/items", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(actorHeader, "7")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var created model.Item
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, uint(7), created.UserID)

	var stored model.Item
	require.NoError(t, db.First(&stored, created.ID).Error)
	assert.Equal(t, uint(7), stored.UserID)
}
