package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/hirevox/hirevox/internal/api/handlers"
	"github.com/hirevox/hirevox/internal/api/middleware"
)

type Deps struct {
	Session   *handlers.SessionHandler
	Candidate *handlers.CandidateHandler
	Feedback  *handlers.FeedbackHandler
	Recording *handlers.RecordingHandler
	WS        *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Candidate-side: access-code gated, no account required
	r.POST("/interview/:session_id/join", d.Session.Join)
	r.GET("/ws/interview/:session_id", d.WS.InterviewWS)

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.GET("/interview/:session_id", d.Session.Get)
	auth.GET("/interview/:session_id/transcript", d.Session.Transcript)
	auth.GET("/interview/:session_id/recording", d.Recording.Latest)

	auth.GET("/candidate/:candidate_id", d.Candidate.Get)
	auth.PUT("/candidate", d.Candidate.Upsert)

	// Recruiter-side
	recruit := auth.Group("/")
	recruit.Use(middleware.RequireRecruiter())

	recruit.POST("/interview/schedule", d.Session.Schedule)
	recruit.POST("/interview/:session_id/end", d.Session.End)
	recruit.POST("/interview/:session_id/recording/finalize", d.Recording.Finalize)
	recruit.GET("/job/:job_id/interviews", d.Session.ListByJob)

	recruit.POST("/feedback", d.Feedback.Submit)
	recruit.GET("/feedback/session/:session_id", d.Feedback.ListBySession)
}
