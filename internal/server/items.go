package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"thinkflow/internal/model"
	"thinkflow/internal/repository"
)

type itemRequest struct {
	Type    *string `json:"type"`
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// handleListItems returns a filtered, sorted page of items.
func (s *Server) handleListItems(c *gin.Context) {
	q := repository.ItemListQuery{
		Page:  intQuery(c, "page", 1),
		Limit: intQuery(c, "limit", 20),
		Sort:  c.DefaultQuery("sort", "createdAt"),
		Order: repository.SortOrder(c.DefaultQuery("order", "desc")),
		Query: c.Query("q"),
	}
	if raw := c.Query("type"); raw != "" {
		kind := model.ItemKind(raw)
		if _, ok := model.ValidItemKinds[kind]; !ok {
			respondFail(c, http.StatusBadRequest, codeInvalidBody)
			return
		}
		q.Kind = &kind
	}
	if raw := c.Query("tag"); raw != "" {
		tagID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondFail(c, http.StatusBadRequest, codeInvalidID)
			return
		}
		id := uint(tagID)
		q.TagID = &id
	}

	items, total, err := s.items.List(c.Request.Context(), q)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccessMeta(c, http.StatusOK, items, gin.H{
		"page":     q.Page,
		"pageSize": q.Limit,
		"total":    total,
	})
}

// handleCreateItem creates a memo, task or post. Creating a task also
// creates its empty detail row so every task carries one.
func (s *Server) handleCreateItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, codeInvalidBody)
		return
	}
	if req.Title == nil || *req.Title == "" {
		respondFail(c, http.StatusBadRequest, codeTitleRequired)
		return
	}
	kind := model.ItemMemo
	if req.Type != nil {
		kind = model.ItemKind(*req.Type)
	}
	if _, ok := model.ValidItemKinds[kind]; !ok {
		respondFail(c, http.StatusBadRequest, codeInvalidBody)
		return
	}

	item := model.Item{
		Kind:    kind,
		Title:   *req.Title,
		Content: getString(req.Content),
		UserID:  s.actorID(c),
	}
	if err := s.items.Create(c.Request.Context(), &item); err != nil {
		s.respondError(c, err)
		return
	}

	if kind == model.ItemTask {
		detail := model.TaskDetail{ItemID: item.ID, Status: model.TaskReady}
		if err := s.details.Create(c.Request.Context(), &detail); err != nil {
			s.respondError(c, err)
			return
		}
		item.TaskDetail = &detail
	}

	respondSuccess(c, http.StatusCreated, item)
}

// handleGetItem fetches an item with its detail, tags and comments.
func (s *Server) handleGetItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	item, err := s.items.FindByID(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondFail(c, http.StatusNotFound, codeNotFound)
		return
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, item)
}

// handleUpdateItem updates item fields such as title or content.
func (s *Server) handleUpdateItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, codeInvalidBody)
		return
	}

	updates := map[string]any{}
	if req.Title != nil && *req.Title != "" {
		updates["title"] = *req.Title
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.Type != nil {
		kind := model.ItemKind(*req.Type)
		if _, ok := model.ValidItemKinds[kind]; !ok {
			respondFail(c, http.StatusBadRequest, codeInvalidBody)
			return
		}
		updates["kind"] = kind
	}
	if len(updates) == 0 {
		respondFail(c, http.StatusBadRequest, codeInvalidBody)
		return
	}

	item, err := s.items.Update(c.Request.Context(), id, updates)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondFail(c, http.StatusNotFound, codeNotFound)
		return
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, item)
}

// handleDeleteItem removes an item and its dependent rows.
func (s *Server) handleDeleteItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	err := s.items.Delete(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondFail(c, http.StatusNotFound, codeNotFound)
		return
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleListItemTags returns the tags attached to an item.
func (s *Server) handleListItemTags(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	links, err := s.items.Tags(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	tags := make([]*model.Tag, 0, len(links))
	for _, link := range links {
		if link.Tag != nil {
			tags = append(tags, link.Tag)
		}
	}
	respondSuccess(c, http.StatusOK, tags)
}

// handleAttachTag links a tag to an item; repeats are no-ops.
func (s *Server) handleAttachTag(c *gin.Context) {
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}
	tagID, ok := parseID(c, "tagId")
	if !ok {
		return
	}
	if err := s.tags.AttachToItem(c.Request.Context(), itemID, tagID); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"itemId": itemID, "tagId": tagID})
}

// handleDetachTag unlinks a tag from an item.
func (s *Server) handleDetachTag(c *gin.Context) {
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}
	tagID, ok := parseID(c, "tagId")
	if !ok {
		return
	}
	err := s.tags.DetachFromItem(c.Request.Context(), itemID, tagID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondFail(c, http.StatusNotFound, codeNotFound)
		return
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, ""))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

func getString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
