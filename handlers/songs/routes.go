package songs

import (
	"taikoweb/middleware"
	"taikoweb/services"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the song administration routes, every one of them
// gated at the pipeline's upload level
func RegisterRoutes(r *gin.RouterGroup, h *Handler, feed *FeedHandler, gate *services.Gate, uploadLimiter *middleware.RateLimiter) {
	admin := r.Group("/admin/songs")
	admin.Use(middleware.RequireLevel(gate, h.pipeline.Level(), DatabaseTimeout))
	{
		admin.POST("/upload", middleware.RateLimiterMiddleware(uploadLimiter), h.UploadSong)
		admin.GET("", h.GetSongs)
		admin.GET("/feed", feed.SongFeed)
		admin.GET("/:id", h.GetSong)
	}
}
