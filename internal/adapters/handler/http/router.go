package http

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/comitanigiacomo/syllabus-pulse/docs"
	"github.com/comitanigiacomo/syllabus-pulse/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/syllabus-pulse/internal/core/services"
)

// Pinger reports whether the state store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouteRegistrar is anything that mounts routes on a group, such as the
// websocket handler.
type RouteRegistrar interface {
	RegisterRoutes(router *gin.RouterGroup)
}

type RouterDependencies struct {
	AuthHandler     *AuthHandler
	TrackerHandler  *TrackerHandler
	SyncHandler     *SyncHandler
	SettingsHandler *SettingsHandler
	Realtime        RouteRegistrar
	TokenService    *services.TokenService
	Store           Pinger
	Redis           *redis.Client
	RateLimit       int
	StartTime       time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	if deps.RateLimit > 0 {
		var counter middleware.Counter = middleware.NewMemoryCounter()
		if deps.Redis != nil {
			counter = middleware.NewRedisCounter(deps.Redis)
		}
		router.Use(middleware.RateLimiterMiddleware(counter, deps.RateLimit, time.Minute))
	}

	router.GET("/health", func(c *gin.Context) {
		storeStatus := "connected"
		if deps.Store == nil || deps.Store.Ping(c.Request.Context()) != nil {
			storeStatus = "unreachable"
		}

		redisStatus := "disabled"
		if deps.Redis != nil {
			redisStatus = "connected"
			if deps.Redis.Ping(c.Request.Context()).Err() != nil {
				redisStatus = "unreachable"
			}
		}

		statusCode := 200
		if storeStatus == "unreachable" {
			statusCode = 503
		}

		c.JSON(statusCode, gin.H{
			"status":   "ok",
			"database": storeStatus,
			"redis":    redisStatus,
			"uptime":   time.Since(deps.StartTime).String(),
		})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := router.Group("/api/v1")

	deps.AuthHandler.RegisterRoutes(apiV1)

	protected := apiV1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.TokenService))
	{
		deps.TrackerHandler.RegisterRoutes(protected)
		deps.SyncHandler.RegisterRoutes(protected)
		deps.SettingsHandler.RegisterRoutes(protected)
		if deps.Realtime != nil {
			deps.Realtime.RegisterRoutes(protected)
		}
	}

	return router
}
