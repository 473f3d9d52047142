package http

import (
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"twitchlate/internal/app/adapters/feed"
	"twitchlate/internal/app/adapters/http/handlers"
	"twitchlate/internal/app/adapters/http/middlewares"
	"twitchlate/internal/app/infrastructure/config"
	"twitchlate/internal/app/ports"
	"twitchlate/pkg/logger"
)

type Router struct {
	router      *gin.Engine
	handlers    *handlers.Handlers
	middlewares *middlewares.Middlewares

	log     logger.Logger
	manager *config.Manager
}

func NewRouter(log logger.Logger, manager *config.Manager, b ports.BotPort, hub *feed.Hub) *Router {
	r := &Router{
		router:      gin.Default(),
		handlers:    handlers.New(log, manager, b, hub),
		middlewares: middlewares.New(),
		log:         log,
		manager:     manager,
	}
	cfg := manager.Get()

	if cfg.App.AuthToken != "" {
		pprofGroup := r.router.Group("/", gin.BasicAuth(gin.Accounts{
			"admin": cfg.App.AuthToken,
		}))
		pprof.Register(pprofGroup)

		r.router.GET("/metrics", gin.BasicAuth(gin.Accounts{
			"admin": cfg.App.AuthToken,
		}), gin.WrapH(promhttp.Handler()))
	} else {
		r.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := r.router.Group("/api", r.middlewares.Auth(cfg.App.AuthToken))
	api.POST("/bot/start", r.handlers.StartHandler)
	api.POST("/bot/stop", r.handlers.StopHandler)
	api.GET("/bot/status", r.handlers.StatusHandler)
	api.GET("/bot/stats", r.handlers.StatsHandler)
	api.GET("/languages", r.handlers.LanguagesHandler)

	r.router.GET("/ws", hub.Handle)

	return r
}

func (r *Router) Run() error {
	return r.router.Run(r.manager.Get().App.ListenAddr)
}
