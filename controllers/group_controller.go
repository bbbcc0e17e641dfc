package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mzlab/mzwake/engine"
	"github.com/mzlab/mzwake/middleware"
	"github.com/mzlab/mzwake/models"
	"github.com/mzlab/mzwake/store"
	"github.com/mzlab/mzwake/utils"
)

// GroupController manages groups, membership, and the daily scoring views.
type GroupController struct {
	groups *engine.Groups
	cache  *utils.Cache
}

// NewGroupController creates a new controller instance; cache may be nil.
func NewGroupController(groups *engine.Groups, cache *utils.Cache) *GroupController {
	return &GroupController{groups: groups, cache: cache}
}

// CreateGroup stores a new group; the creator joins automatically.
func (g *GroupController) CreateGroup(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Name string `json:"name" binding:"required,min=1"`
		Mode string `json:"mode" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	id, err := g.groups.Create(ctx, userID, strings.TrimSpace(req.Name), req.Mode)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"id": id})
}

// GetGroup returns a group by id.
func (g *GroupController) GetGroup(ctx *gin.Context) {
	group, err := g.groups.Get(ctx, ctx.Param("id"))
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"group": group})
}

// Join adds the caller to the group; re-joining refreshes joined_at.
func (g *GroupController) Join(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if err := g.groups.Join(ctx, userID, ctx.Param("id")); err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, nil)
}

// ListMembers returns the group's members by join time.
func (g *GroupController) ListMembers(ctx *gin.Context) {
	members, err := g.groups.Members(ctx, ctx.Param("id"))
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": members})
}

// DailyStatus returns the ALL-mode status row for today (or ?date=YYYY-MM-DD).
// A group with no scoring pass yet answers success with null data.
func (g *GroupController) DailyStatus(ctx *gin.Context) {
	groupID := ctx.Param("id")
	date := ctx.Query("date")
	if date == "" {
		date = models.LocalDate(time.Now())
	}

	cacheKey := "cache:group:" + groupID + ":status:" + date
	if b, ok := g.cache.GetBytes(cacheKey); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	status, err := g.groups.DailyStatus(ctx, groupID, date)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Success(ctx, gin.H{"status": nil})
			return
		}
		writeDomainError(ctx, err)
		return
	}

	g.cache.SetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: gin.H{"status": status}}, 30*time.Second)
	utils.Success(ctx, gin.H{"status": status})
}

// Leaderboard returns today's finish board for the group.
func (g *GroupController) Leaderboard(ctx *gin.Context) {
	groupID := ctx.Param("id")
	date := models.LocalDate(time.Now())

	cacheKey := "cache:group:" + groupID + ":leaderboard:" + date
	if b, ok := g.cache.GetBytes(cacheKey); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	entries, err := g.groups.TodayLeaderboard(ctx, groupID)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	g.cache.SetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: gin.H{"items": entries}}, 30*time.Second)
	utils.Success(ctx, gin.H{"items": entries})
}
