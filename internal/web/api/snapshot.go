package api

import (
	"errors"
	"log"
	"net/http"

	"palmwatch/internal/models"
	"palmwatch/internal/telemetry"
	webModels "palmwatch/internal/web/models"

	"github.com/gin-gonic/gin"
)

func RegisterSnapshotRoutes(r *gin.Engine, store *telemetry.Store) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, webModels.HealthResponse{Status: "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/snapshot", func(c *gin.Context) {
			c.JSON(http.StatusOK, store.Snapshot())
		})

		api.PATCH("/snapshot", func(c *gin.Context) {
			patch, err := models.DecodePatch(c.Request.Body)
			if err != nil {
				log.Printf("API: Rejected snapshot patch: %v", err)
				msg := "Invalid patch"
				if errors.Is(err, models.ErrEmptyPatch) {
					msg = "Patch sets no field"
				}
				c.JSON(http.StatusBadRequest, gin.H{"error": msg})
				return
			}
			c.JSON(http.StatusOK, store.Patch(patch))
		})

		api.POST("/camera/toggle", func(c *gin.Context) {
			c.JSON(http.StatusOK, webModels.CameraToggleResponse{CameraActive: store.ToggleCamera()})
		})

		api.POST("/mode/toggle", func(c *gin.Context) {
			c.JSON(http.StatusOK, webModels.ModeToggleResponse{Mode: store.ToggleMode()})
		})
	}
}
