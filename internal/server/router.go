package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"feedpilot/internal/activity"
	"feedpilot/internal/auth"
	"feedpilot/internal/handler"
	"feedpilot/internal/hub"
	"feedpilot/internal/middleware"
	"feedpilot/internal/session"
	"feedpilot/internal/store"
	"feedpilot/internal/worker"
)

type Deps struct {
	Store       store.Store
	Sessions    session.Registry
	Workers     *worker.Registry
	Activity    *activity.Log
	Hub         *hub.Hub
	TokenConfig auth.TokenConfig
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	authHandler := &handler.AuthHandler{
		Store:       deps.Store,
		Sessions:    deps.Sessions,
		Workers:     deps.Workers,
		TokenConfig: deps.TokenConfig,
	}
	botHandler := &handler.BotHandler{Store: deps.Store, Workers: deps.Workers}
	scheduleHandler := &handler.ScheduleHandler{Store: deps.Store, Activity: deps.Activity}
	settingsHandler := &handler.SettingsHandler{Store: deps.Store}
	logsHandler := &handler.LogsHandler{Activity: deps.Activity}
	analyticsHandler := &handler.AnalyticsHandler{Store: deps.Store}

	api := r.Group("/api")

	credentialLimiter := middleware.NewRateLimiter(10, time.Minute)
	api.POST("/register", credentialLimiter.Middleware(), authHandler.Register)
	api.POST("/login", credentialLimiter.Middleware(), authHandler.Login)
	api.GET("/check-auth", authHandler.CheckAuth)

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(deps.TokenConfig, deps.Sessions))
	protected.POST("/logout", authHandler.Logout)
	protected.GET("/status", botHandler.Status)
	protected.POST("/connect", botHandler.Connect)
	protected.POST("/start", botHandler.Start)
	protected.POST("/stop", botHandler.Stop)
	protected.GET("/logs", logsHandler.Recent)
	protected.GET("/analytics", analyticsHandler.Summary)
	protected.POST("/schedule-post", scheduleHandler.Create)
	protected.GET("/scheduled-posts", scheduleHandler.List)
	protected.GET("/settings", settingsHandler.Get)
	protected.POST("/settings", settingsHandler.Update)

	wsHandler := &handler.WebSocketHandler{Hub: deps.Hub, Sessions: deps.Sessions, TokenConfig: deps.TokenConfig}
	r.GET("/ws", wsHandler.Serve)

	return r
}
