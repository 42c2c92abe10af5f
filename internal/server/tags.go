package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"thinkflow/internal/model"
)

type tagRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

// handleListTags returns all tags with their items.
func (s *Server) handleListTags(c *gin.Context) {
	tags, err := s.tags.GetAll(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, tags)
}

// handleCreateTag creates a new tag owned by the acting user.
func (s *Server) handleCreateTag(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, codeInvalidBody)
		return
	}
	if req.Name == nil || *req.Name == "" {
		respondFail(c, http.StatusBadRequest, codeInvalidBody)
		return
	}

	tag := model.Tag{
		Name:   *req.Name,
		Color:  getString(req.Color),
		UserID: s.actorID(c),
	}
	if err := s.tags.Create(c.Request.Context(), &tag); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, tag)
}

// handleGetTag fetches a tag with its items.
func (s *Server) handleGetTag(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	tag, err := s.tags.FindByID(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondFail(c, http.StatusNotFound, codeNotFound)
		return
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, tag)
}

// handleUpdateTag renames or recolors a tag.
func (s *Server) handleUpdateTag(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, codeInvalidBody)
		return
	}

	updates := map[string]any{}
	if req.Name != nil && *req.Name != "" {
		updates["name"] = *req.Name
	}
	if req.Color != nil {
		updates["color"] = *req.Color
	}
	if len(updates) == 0 {
		respondFail(c, http.StatusBadRequest, codeInvalidBody)
		return
	}

	tag, err := s.tags.Update(c.Request.Context(), id, updates)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondFail(c, http.StatusNotFound, codeNotFound)
		return
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, tag)
}

// handleDeleteTag removes a tag and its item links.
func (s *Server) handleDeleteTag(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	err := s.tags.Delete(c.Request.Context(), id)
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
