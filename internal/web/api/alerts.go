package api

import (
	"net/http"

	"palmwatch/internal/models"
	"palmwatch/internal/telemetry"

	"github.com/gin-gonic/gin"
)

func RegisterAlertRoutes(r *gin.Engine, store *telemetry.Store) {
	r.GET("/api/alerts", func(c *gin.Context) {
		severity := models.Severity(c.Query("severity"))
		if severity != "" && severity != "all" && !severity.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown severity"})
			return
		}

		alerts := telemetry.FilterAlerts(store.Snapshot().Alerts, telemetry.AlertFilter{
			Severity: severity,
			Search:   c.Query("q"),
		})
		c.JSON(http.StatusOK, alerts)
	})

	r.GET("/api/activity", func(c *gin.Context) {
		c.JSON(http.StatusOK, telemetry.FilterActivity(store.Snapshot().ActivityLog, c.Query("q")))
	})
}
