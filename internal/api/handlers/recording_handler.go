package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hirevox/hirevox/internal/services"
	"github.com/hirevox/hirevox/internal/utils"
)

type RecordingHandler struct {
	svc services.RecordingService
}

func NewRecordingHandler(svc services.RecordingService) *RecordingHandler {
	return &RecordingHandler{svc: svc}
}

type FinalizeRecordingRequest struct {
	MimeType string `json:"mime_type"`
}

func (h *RecordingHandler) Finalize(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	sessionID := c.Param("session_id")

	var req FinalizeRecordingRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "RecordingHandler.Finalize", "invalid request body", err))
		return
	}

	rec, err := h.svc.Finalize(c.Request.Context(), sessionID, req.MimeType)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *RecordingHandler) Latest(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	sessionID := c.Param("session_id")
	rec, err := h.svc.LatestBySession(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	url, err := h.svc.SignedURL(c.Request.Context(), sessionID, 15*time.Minute)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recording": rec, "url": url})
}
