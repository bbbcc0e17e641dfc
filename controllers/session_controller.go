package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mzlab/mzwake/engine"
	"github.com/mzlab/mzwake/middleware"
	"github.com/mzlab/mzwake/utils"
)

// SessionController drives the per-attempt state machine: starting a session,
// completing its steps, and the today views.
type SessionController struct {
	sessions *engine.Sessions
}

// NewSessionController creates a new controller instance.
func NewSessionController(sessions *engine.Sessions) *SessionController {
	return &SessionController{sessions: sessions}
}

// Start creates a session for today from a mission, snapshotting its steps.
func (s *SessionController) Start(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		MissionID string `json:"mission_id" binding:"required"`
		GroupID   string `json:"group_id"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	id, err := s.sessions.Start(ctx, userID, req.MissionID, req.GroupID)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"id": id})
}

// Get returns one session.
func (s *SessionController) Get(ctx *gin.Context) {
	sess, err := s.sessions.Get(ctx, ctx.Param("id"))
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"session": sess})
}

// Steps returns the session's steps by order ascending.
func (s *SessionController) Steps(ctx *gin.Context) {
	steps, err := s.sessions.Steps(ctx, ctx.Param("id"))
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": steps})
}

// Today lists the caller's sessions for the local calendar day, or a group's
// when ?group_id= is supplied.
func (s *SessionController) Today(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	if groupID := ctx.Query("group_id"); groupID != "" {
		sessions, err := s.sessions.TodayByGroup(ctx, groupID)
		if err != nil {
			writeDomainError(ctx, err)
			return
		}
		utils.Success(ctx, gin.H{"items": sessions})
		return
	}

	sessions, err := s.sessions.TodayByUser(ctx, userID)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": sessions})
}

// CompleteStep marks a session step successful, carrying optional sensor
// provenance. When the last open step completes the session finishes and the
// group is scored.
func (s *SessionController) CompleteStep(ctx *gin.Context) {
	var req struct {
		Provenance *engine.Provenance `json:"provenance"`
	}
	// an empty body means a manual confirmation with no provenance
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
			return
		}
	}

	if err := s.sessions.CompleteStep(ctx, ctx.Param("id"), req.Provenance); err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, nil)
}
