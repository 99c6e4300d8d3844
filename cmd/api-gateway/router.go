package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	internalmiddleware "github.com/noah-isme/pace-projection-api/internal/middleware"
	"github.com/noah-isme/pace-projection-api/pkg/config"
	"github.com/noah-isme/pace-projection-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/pace-projection-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/pace-projection-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, logr *zap.Logger, deps *dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(deps.metrics))

	r.GET("/health", deps.system.Health)
	r.GET("/ready", deps.system.Ready)
	r.GET("/metrics", deps.system.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	if cfg.Exports.Enabled {
		// Signed tokens authorise downloads on their own.
		api.GET("/export/:token", deps.exports.Download)
	}

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(deps.auth))
	readers := internalmiddleware.RequireRoles(internalmiddleware.ReadRoles...)
	writers := internalmiddleware.RequireRoles(internalmiddleware.WriteRoles...)

	secured.GET("/metrics/summary", writers, deps.system.Summary)

	if cfg.Projections.Enabled {
		projections := secured.Group("/projections")
		projections.POST("/preview", writers, deps.projections.Preview)
		projections.POST("/save", writers, deps.projections.Save)
		projections.POST("/generate", writers, deps.projections.Generate)
		projections.GET("", readers, deps.projections.List)
		projections.GET("/:id/paces", readers, deps.projections.Paces)
		projections.POST("/:id/publish", writers, deps.projections.Publish)
		projections.DELETE("/:id", writers, deps.projections.Delete)
		if cfg.Exports.Enabled {
			projections.POST("/:id/exports", readers, deps.exports.Create)
			secured.GET("/exports/:id", readers, deps.exports.Status)
		}
	}

	return r
}
