package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"thinkflow/internal/retrospect"
)

type saveRetrospectRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// handleRetrospectState returns the retrospective state snapshot of a task.
func (s *Server) handleRetrospectState(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}

	state, err := s.retro.GetState(c.Request.Context(), taskID)
	if err != nil {
		s.respondWorkflowError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, state)
}

// handleEnsureDraft requests a draft for a task. A FAILED generation is a
// business result and still answers 200; callers check the status field.
func (s *Server) handleEnsureDraft(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}
	force := c.Query("force") == "1" || c.Query("force") == "true"

	result, err := s.retro.EnsureDraft(c.Request.Context(), taskID, force)
	if err != nil {
		s.respondWorkflowError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, result)
}

// handleSaveRetrospect promotes the edited draft into a persisted post.
func (s *Server) handleSaveRetrospect(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req saveRetrospectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, codeInvalidBody)
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		respondFail(c, http.StatusBadRequest, codeTitleRequired)
		return
	}

	result, err := s.retro.Save(c.Request.Context(), taskID, retrospect.SaveInput{
		Title:   title,
		Content: req.Content,
	})
	if err != nil {
		s.respondWorkflowError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, result)
}

// respondWorkflowError maps workflow failure conditions to response codes,
// defaulting unknown errors to internal-error.
func (s *Server) respondWorkflowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, retrospect.ErrNotFound):
		respondFail(c, http.StatusNotFound, codeNotFound)
	case errors.Is(err, retrospect.ErrNotATask):
		respondFail(c, http.StatusBadRequest, codeNotATask)
	case errors.Is(err, retrospect.ErrTaskDetailMissing):
		respondFail(c, http.StatusBadRequest, codeTaskDetailMissing)
	default:
		s.respondError(c, err)
	}
}
