package api

import (
	"net/http"
	"strconv"

	"palmwatch/internal/models"
	"palmwatch/internal/telemetry"
	webModels "palmwatch/internal/web/models"

	"github.com/gin-gonic/gin"
)

func RegisterTreeRoutes(r *gin.Engine, store *telemetry.Store) {
	trees := r.Group("/api/trees")
	{
		trees.GET("", func(c *gin.Context) {
			snap := store.Snapshot()
			out := make([]webModels.TreeResponse, 0, len(snap.Trees))
			for _, t := range snap.Trees {
				out = append(out, treeResponse(t))
			}
			c.JSON(http.StatusOK, out)
		})

		trees.GET("/summary", func(c *gin.Context) {
			snap := store.Snapshot()
			counts := telemetry.TreeStatusCounts(snap.Trees)
			c.JSON(http.StatusOK, webModels.TreeSummaryResponse{
				Total:    len(snap.Trees),
				Healthy:  counts[telemetry.HealthHealthy],
				Caution:  counts[telemetry.HealthCaution],
				Critical: counts[telemetry.HealthCritical],
			})
		})

		trees.GET("/:id", func(c *gin.Context) {
			id, err := strconv.Atoi(c.Param("id"))
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "Tree not found"})
				return
			}
			t, ok := telemetry.FindTree(store.Snapshot().Trees, id)
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "Tree not found"})
				return
			}
			c.JSON(http.StatusOK, treeResponse(t))
		})
	}
}

func treeResponse(t models.Tree) webModels.TreeResponse {
	return webModels.TreeResponse{Tree: t, HealthStatus: telemetry.TreeHealthStatus(t.HealthScore)}
}
