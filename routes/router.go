package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mzlab/mzwake/config"
	"github.com/mzlab/mzwake/controllers"
	"github.com/mzlab/mzwake/engine"
	"github.com/mzlab/mzwake/middleware"
	"github.com/mzlab/mzwake/store"
	"github.com/mzlab/mzwake/utils"
)

// Deps bundles everything the router wires into controllers. All of it is
// constructed once at boot and injected; handlers hold no ambient state.
type Deps struct {
	Store    store.Store
	Exporter store.Exporter // nil when the cloud backend is active
	Cloud    store.Store    // migration target, nil when not configured
	Catalog  *engine.Catalog
	Sessions *engine.Sessions
	Groups   *engine.Groups
	Tokens   *utils.TokenManager
	Cache    *utils.Cache
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, deps Deps) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.GinLogger(utils.Logger))
	r.Use(utils.GinRecovery(utils.Logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(deps.Store, deps.Tokens)
	missionController := controllers.NewMissionController(deps.Catalog)
	groupController := controllers.NewGroupController(deps.Groups, deps.Cache)
	sessionController := controllers.NewSessionController(deps.Sessions)
	dataController := controllers.NewDataController(deps.Exporter, deps.Cloud)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
	authGroup.POST("/guest", authController.Guest)
	authGroup.GET("/me", middleware.AuthRequired(deps.Tokens), authController.Me)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(deps.Tokens))

	protected.POST("/missions", missionController.CreateMission)
	protected.GET("/missions", missionController.ListMissions)
	protected.DELETE("/missions/:id", missionController.DeleteMission)
	protected.POST("/missions/:id/steps", missionController.CreateStep)
	protected.GET("/missions/:id/steps", missionController.ListSteps)
	protected.DELETE("/steps/:id", missionController.DeleteStep)

	groupsGroup := protected.Group("/groups")
	groupsGroup.POST("", middleware.RateLimit(cfg.RateLimitPerMinute), groupController.CreateGroup)
	groupsGroup.GET("/:id", groupController.GetGroup)
	groupsGroup.POST("/:id/join", middleware.RateLimit(cfg.RateLimitPerMinute), groupController.Join)
	groupsGroup.GET("/:id/members", groupController.ListMembers)
	groupsGroup.GET("/:id/status", groupController.DailyStatus)
	groupsGroup.GET("/:id/leaderboard", groupController.Leaderboard)

	protected.POST("/sessions", sessionController.Start)
	protected.GET("/sessions/today", sessionController.Today)
	protected.GET("/sessions/:id", sessionController.Get)
	protected.GET("/sessions/:id/steps", sessionController.Steps)
	protected.POST("/session-steps/:id/complete", sessionController.CompleteStep)

	dataGroup := protected.Group("/data")
	dataGroup.GET("/export", dataController.Export)
	dataGroup.POST("/import", dataController.Import)
	dataGroup.POST("/backup", dataController.SaveBackup)
	dataGroup.GET("/backup", dataController.LatestBackup)
	dataGroup.GET("/share-qr", dataController.ShareQR)
	dataGroup.POST("/migrate-cloud", dataController.MigrateCloud)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
