package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"thinkflow/internal/model"
)

type commentRequest struct {
	Content *string `json:"content"`
}

// handleListComments returns an item's comments, newest first.
func (s *Server) handleListComments(c *gin.Context) {
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}
	comments, err := s.comments.ListByItem(c.Request.Context(), itemID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, comments)
}

// handleCreateComment adds a comment to an item.
func (s *Server) handleCreateComment(c *gin.Context) {
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, codeInvalidBody)
		return
	}
	if req.Content == nil || *req.Content == "" {
		respondFail(c, http.StatusBadRequest, codeContentRequired)
		return
	}

	comment := model.Comment{
		ItemID:  itemID,
		UserID:  s.actorID(c),
		Content: *req.Content,
	}
	if err := s.comments.Create(c.Request.Context(), &comment); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, comment)
}

// handleGetComment fetches a single comment.
func (s *Server) handleGetComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	comment, err := s.comments.FindByID(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondFail(c, http.StatusNotFound, codeNotFound)
		return
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, comment)
}

// handleUpdateComment replaces a comment's text.
func (s *Server) handleUpdateComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, codeInvalidBody)
		return
	}
	if req.Content == nil || *req.Content == "" {
		respondFail(c, http.StatusBadRequest, codeContentRequired)
		return
	}

	comment, err := s.comments.Update(c.Request.Context(), id, *req.Content)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondFail(c, http.StatusNotFound, codeNotFound)
		return
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, comment)
}

// handleDeleteComment removes a comment.
func (s *Server) handleDeleteComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	err := s.comments.Delete(c.Request.Context(), id)
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
