package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mzlab/mzwake/engine"
	"github.com/mzlab/mzwake/middleware"
	"github.com/mzlab/mzwake/utils"
)

// MissionController exposes the author-time mission/step catalog.
type MissionController struct {
	catalog *engine.Catalog
}

// NewMissionController creates a new controller instance.
func NewMissionController(catalog *engine.Catalog) *MissionController {
	return &MissionController{catalog: catalog}
}

// CreateMission stores a new mission for the caller.
func (m *MissionController) CreateMission(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Name       string `json:"name" binding:"required,min=1"`
		WakeTime   string `json:"wake_time" binding:"required"`
		RepeatRule string `json:"repeat_rule"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	id, err := m.catalog.CreateMission(ctx, userID, strings.TrimSpace(req.Name), req.WakeTime, req.RepeatRule)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"id": id})
}

// ListMissions returns the caller's missions, newest first.
func (m *MissionController) ListMissions(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	missions, err := m.catalog.ListMissions(ctx, userID)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": missions})
}

// DeleteMission removes a mission and its step templates.
func (m *MissionController) DeleteMission(ctx *gin.Context) {
	if err := m.catalog.DeleteMission(ctx, ctx.Param("id")); err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, nil)
}

// CreateStep appends a step template to a mission.
func (m *MissionController) CreateStep(ctx *gin.Context) {
	var req struct {
		Label        string         `json:"label" binding:"required,min=1"`
		ActionType   string         `json:"action_type"`
		ActionConfig map[string]any `json:"action_config"`
		Order        int            `json:"order"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	id, err := m.catalog.CreateStep(ctx, ctx.Param("id"), req.Label, req.ActionType, req.ActionConfig, req.Order)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"id": id})
}

// ListSteps returns a mission's step templates by order ascending.
func (m *MissionController) ListSteps(ctx *gin.Context) {
	steps, err := m.catalog.ListSteps(ctx, ctx.Param("id"))
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": steps})
}

// DeleteStep removes a single step template. Remaining order numbers are not
// compacted.
func (m *MissionController) DeleteStep(ctx *gin.Context) {
	if err := m.catalog.DeleteStep(ctx, ctx.Param("id")); err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, nil)
}
