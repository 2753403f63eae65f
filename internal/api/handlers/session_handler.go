package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hirevox/hirevox/internal/services"
	"github.com/hirevox/hirevox/internal/utils"
)

type SessionHandler struct {
	sessions    services.SessionService
	transcripts services.TranscriptService
}

func NewSessionHandler(sessions services.SessionService, transcripts services.TranscriptService) *SessionHandler {
	return &SessionHandler{sessions: sessions, transcripts: transcripts}
}

type ScheduleSessionRequest struct {
	JobID          string `json:"job_id" binding:"required"`
	CandidateName  string `json:"candidate_name" binding:"required"`
	JobTitle       string `json:"job_title"`
	CompanyName    string `json:"company_name"`
	MaxDuration    int64  `json:"max_duration_seconds"`
	TotalQuestions int32  `json:"total_questions"`
	AccessCode     string `json:"access_code"`
}

type ScheduleSessionResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

func (h *SessionHandler) Schedule(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	var req ScheduleSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Schedule", "invalid request body", err))
		return
	}

	sess, err := h.sessions.Schedule(c.Request.Context(), services.StartSessionInput{
		JobID:          req.JobID,
		CandidateName:  req.CandidateName,
		JobTitle:       req.JobTitle,
		CompanyName:    req.CompanyName,
		MaxDuration:    req.MaxDuration,
		TotalQuestions: req.TotalQuestions,
		AccessCode:     req.AccessCode,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ScheduleSessionResponse{
		SessionID: sess.SessionID,
		Status:    sess.Status,
		CreatedAt: sess.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

func (h *SessionHandler) Get(c *gin.Context) {
	sessionID := c.Param("session_id")
	sess, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess)
}

type JoinSessionRequest struct {
	AccessCode string `json:"access_code"`
}

// Join is the candidate-side entry: verifies the access code and returns
// the display metadata the interview room needs before the start gate.
func (h *SessionHandler) Join(c *gin.Context) {
	sessionID := c.Param("session_id")

	var req JoinSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Join", "invalid request body", err))
		return
	}

	if err := h.sessions.VerifyAccess(c.Request.Context(), sessionID, req.AccessCode); err != nil {
		writeError(c, err)
		return
	}

	sess, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.Status == "completed" {
		writeError(c, utils.E(utils.CodeConflict, "SessionHandler.Join", "session already completed", nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":           sess.SessionID,
		"candidate_name":       sess.CandidateName,
		"job_title":            sess.JobTitle,
		"company_name":         sess.CompanyName,
		"max_duration_seconds": sess.MaxDurationSeconds,
		"total_questions":      sess.TotalQuestions,
		"status":               sess.Status,
	})
}

type EndSessionRequest struct {
	Reason string `json:"reason"` // user_ended|time_limit|sign_off
}

func (h *SessionHandler) End(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	sessionID := c.Param("session_id")

	var req EndSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.End", "invalid request body", err))
		return
	}

	ended, err := h.sessions.End(c.Request.Context(), sessionID, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ended)
}

func (h *SessionHandler) ListByJob(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	jobID := c.Param("job_id")
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)

	out, err := h.sessions.ListByJob(c.Request.Context(), jobID, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

func (h *SessionHandler) Transcript(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	sessionID := c.Param("session_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	out, err := h.transcripts.ListBySession(c.Request.Context(), sessionID, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": out})
}
