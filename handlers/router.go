package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts the API on router. requireUser guards every route
// that creates content or spends encoder time.
func RegisterRoutes(router *gin.Engine, media *MediaHandler, library *LibraryHandler, requireUser gin.HandlerFunc, uploadDir string) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.Static("/uploads", uploadDir)

	api := router.Group("/api")
	{
		api.GET("/audio_files", library.AudioFiles)

		authed := api.Group("", requireUser)
		authed.POST("/slideshow", media.Slideshow)
		authed.POST("/reel", media.Reel)
		authed.POST("/copyright/check", library.CheckCopyright)
	}
}
