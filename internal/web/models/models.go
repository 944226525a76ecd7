package models

import (
	"palmwatch/internal/models"
	"palmwatch/internal/telemetry"
)

type HealthResponse struct {
	Status string `json:"status"`
}

type CameraToggleResponse struct {
	CameraActive bool `json:"camera_active"`
}

type ModeToggleResponse struct {
	Mode models.Mode `json:"mode"`
}

// MachineResponse is a machine with its derived reading levels
type MachineResponse struct {
	models.Machine
	TemperatureLevel telemetry.Level `json:"temperature_level"`
	FuelLevelStatus  telemetry.Level `json:"fuel_level_status"`
}

// TreeResponse is a tree with its derived health status
type TreeResponse struct {
	models.Tree
	HealthStatus telemetry.HealthStatus `json:"health_status"`
}

type TreeSummaryResponse struct {
	Total    int `json:"total"`
	Healthy  int `json:"healthy"`
	Caution  int `json:"caution"`
	Critical int `json:"critical"`
}
