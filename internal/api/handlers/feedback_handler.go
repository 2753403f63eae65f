package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hirevox/hirevox/internal/assess"
	"github.com/hirevox/hirevox/internal/services"
	"github.com/hirevox/hirevox/internal/utils"
)

type FeedbackHandler struct {
	svc services.FeedbackService
}

func NewFeedbackHandler(svc services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{svc: svc}
}

type SubmitFeedbackRequest struct {
	SessionID string                   `json:"session_id" binding:"required"`
	Skills    []assess.SkillAssessment `json:"skills" binding:"required"`
	Notes     string                   `json:"notes"`
}

func (h *FeedbackHandler) Submit(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "FeedbackHandler.Submit", "invalid request body", err))
		return
	}

	fb, err := h.svc.Submit(c.Request.Context(), services.SubmitFeedbackInput{
		SessionID:  req.SessionID,
		ReviewerID: userID,
		Skills:     req.Skills,
		Notes:      req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, fb)
}

func (h *FeedbackHandler) ListBySession(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	sessionID := c.Param("session_id")
	out, err := h.svc.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"feedback": out})
}
