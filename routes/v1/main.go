package v1

import (
	"taikoweb/config"
	"taikoweb/docs"
	"taikoweb/handlers/songs"
	"taikoweb/middleware"
	"taikoweb/services"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Dependencies are the wired components the routes are served by
type Dependencies struct {
	Config   *config.Config
	Resolver middleware.CallerResolver
	Gate     *services.Gate
	Songs    *songs.Handler
	Feed     *songs.FeedHandler
	Log      *zap.Logger
}

// Register mounts every endpoint under the configured base directory
func Register(r *gin.Engine, deps Dependencies) {
	base := r.Group(deps.Config.BaseDir)
	base.Use(middleware.MetricsMiddleware())

	admin := base.Group("")
	admin.Use(middleware.AuthMiddleware(deps.Resolver, deps.Log))
	uploadLimiter := middleware.NewRateLimiter(deps.Config.Limits.UploadsPerMinute, deps.Config.Limits.UploadBurst)
	songs.RegisterRoutes(admin, deps.Songs, deps.Feed, deps.Gate, uploadLimiter)

	v1 := base.Group("/api/v1")
	RegisterPingRoutes(v1)
	RegisterMetricsRoutes(v1)

	docs.SwaggerInfo.BasePath = deps.Config.BaseDir
	base.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
