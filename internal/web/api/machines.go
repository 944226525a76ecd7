package api

import (
	"net/http"
	"strconv"

	"palmwatch/internal/models"
	"palmwatch/internal/telemetry"
	webModels "palmwatch/internal/web/models"

	"github.com/gin-gonic/gin"
)

const (
	defaultOEEDays = 7
	maxOEEDays     = 30
)

func RegisterMachineRoutes(r *gin.Engine, store *telemetry.Store) {
	machines := r.Group("/api/machines")
	{
		machines.GET("", func(c *gin.Context) {
			snap := store.Snapshot()
			out := make([]webModels.MachineResponse, 0, len(snap.Machines))
			for _, m := range snap.Machines {
				out = append(out, machineResponse(m))
			}
			c.JSON(http.StatusOK, out)
		})

		machines.GET("/oee", func(c *gin.Context) {
			days := defaultOEEDays
			if raw := c.Query("days"); raw != "" {
				n, err := strconv.Atoi(raw)
				if err != nil || n < 1 || n > maxOEEDays {
					c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 30"})
					return
				}
				days = n
			}
			c.JSON(http.StatusOK, store.OEE(days))
		})

		machines.GET("/:id", func(c *gin.Context) {
			m, ok := telemetry.FindMachine(store.Snapshot().Machines, c.Param("id"))
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "Machine not found"})
				return
			}
			c.JSON(http.StatusOK, machineResponse(m))
		})
	}
}

func machineResponse(m models.Machine) webModels.MachineResponse {
	return webModels.MachineResponse{
		Machine:          m,
		TemperatureLevel: telemetry.MachineTemperatureLevel(m.Temperature),
		FuelLevelStatus:  telemetry.FuelLevelStatus(m.FuelLevel),
	}
}
