package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"gorm.io/datatypes"

	"github.com/hirevox/hirevox/internal/models"
	"github.com/hirevox/hirevox/internal/services"
	"github.com/hirevox/hirevox/internal/utils"
)

type CandidateHandler struct {
	svc services.CandidateService
}

func NewCandidateHandler(svc services.CandidateService) *CandidateHandler {
	return &CandidateHandler{svc: svc}
}

func (h *CandidateHandler) Get(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	candidateID := c.Param("candidate_id")
	out, err := h.svc.Get(c.Request.Context(), candidateID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

type UpsertCandidateRequest struct {
	CandidateID string   `json:"candidate_id" binding:"required"`
	FullName    string   `json:"full_name"`
	Email       string   `json:"email"`
	CVText      string   `json:"cv_text"`
	Skills      []string `json:"skills"`

	Experience  datatypes.JSON `json:"experience"`
	Education   datatypes.JSON `json:"education"`
	Preferences datatypes.JSON `json:"preferences"`
}

func (h *CandidateHandler) Upsert(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	var req UpsertCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "CandidateHandler.Upsert", "invalid request body", err))
		return
	}

	profile := &models.CandidateProfile{
		CandidateID: req.CandidateID,
		FullName:    req.FullName,
		Email:       req.Email,
		CVText:      req.CVText,
		Skills:      pq.StringArray(req.Skills),
		Experience:  req.Experience,
		Education:   req.Education,
		Preferences: req.Preferences,
	}

	if err := h.svc.Upsert(c.Request.Context(), profile); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
