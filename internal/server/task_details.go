package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"thinkflow/internal/model"
)

type detailRequest struct {
	DueDate    *time.Time        `json:"dueDate"`
	Priority   *string           `json:"priority"`
	Status     *string           `json:"status"`
	RepeatRule *model.RepeatRule `json:"repeatRule"`
}

// handleGetDetail fetches the task extension row of an item.
func (s *Server) handleGetDetail(c *gin.Context) {
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}
	detail, err := s.details.Get(c.Request.Context(), itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondFail(c, http.StatusNotFound, codeNotFound)
		return
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, detail)
}

// handleCreateDetail creates the detail row for an item that lacks one.
func (s *Server) handleCreateDetail(c *gin.Context) {
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req detailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, codeInvalidBody)
		return
	}

	detail := model.TaskDetail{
		ItemID:  itemID,
		DueDate: req.DueDate,
		Status:  model.TaskReady,
	}
	if req.Priority != nil {
		p := model.Priority(*req.Priority)
		if _, ok := model.ValidPriorities[p]; !ok {
			respondFail(c, http.StatusBadRequest, codeInvalidBody)
			return
		}
		detail.Priority = &p
	}
	if req.Status != nil {
		st := model.TaskStatus(*req.Status)
		if _, ok := model.ValidTaskStatuses[st]; !ok {
			respondFail(c, http.StatusBadRequest, codeInvalidBody)
			return
		}
		detail.Status = st
	}
	if req.RepeatRule != nil {
		if err := req.RepeatRule.Validate(); err != nil {
			respondFail(c, http.StatusBadRequest, codeInvalidBody)
			return
		}
		detail.RepeatRule = req.RepeatRule
	}

	if err := s.details.Create(c.Request.Context(), &detail); err != nil {
		respondFail(c, http.StatusBadRequest, codeInvalidBody)
		return
	}
	respondSuccess(c, http.StatusCreated, detail)
}

// handleUpdateDetail applies a partial update to a detail row.
func (s *Server) handleUpdateDetail(c *gin.Context) {
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req detailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, codeInvalidBody)
		return
	}

	updates := map[string]any{}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}
	if req.Priority != nil {
		p := model.Priority(*req.Priority)
		if _, ok := model.ValidPriorities[p]; !ok {
			respondFail(c, http.StatusBadRequest, codeInvalidBody)
			return
		}
		updates["priority"] = p
	}
	if req.Status != nil {
		st := model.TaskStatus(*req.Status)
		if _, ok := model.ValidTaskStatuses[st]; !ok {
			respondFail(c, http.StatusBadRequest, codeInvalidBody)
			return
		}
		updates["status"] = st
	}
	if req.RepeatRule != nil {
		if err := req.RepeatRule.Validate(); err != nil {
			respondFail(c, http.StatusBadRequest, codeInvalidBody)
			return
		}
		updates["repeat_rule"] = req.RepeatRule
	}
	if len(updates) == 0 {
		respondFail(c, http.StatusBadRequest, codeInvalidBody)
		return
	}

	detail, err := s.details.Update(c.Request.Context(), itemID, updates)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondFail(c, http.StatusNotFound, codeNotFound)
		return
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, detail)
}

// handleDeleteDetail removes the detail row of an item.
func (s *Server) handleDeleteDetail(c *gin.Context) {
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}
	err := s.details.Delete(c.Request.Context(), itemID)
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
