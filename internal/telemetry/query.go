package telemetry

import (
	"strings"

	"palmwatch/internal/models"
)

// HealthStatus classifies a tree health score
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthCaution  HealthStatus = "caution"
	HealthCritical HealthStatus = "critical"
)

// TreeHealthStatus maps a score to healthy (>=75), caution (>=50) or critical
func TreeHealthStatus(score float64) HealthStatus {
	switch {
	case score >= 75:
		return HealthHealthy
	case score >= 50:
		return HealthCaution
	default:
		return HealthCritical
	}
}

// TreeStatusCounts counts trees per health status
func TreeStatusCounts(trees []models.Tree) map[HealthStatus]int {
	counts := map[HealthStatus]int{
		HealthHealthy:  0,
		HealthCaution:  0,
		HealthCritical: 0,
	}
	for _, t := range trees {
		counts[TreeHealthStatus(t.HealthScore)]++
	}
	return counts
}

// Level is the display severity of a single reading
type Level string

const (
	LevelNormal   Level = "normal"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

// MachineTemperatureLevel: critical above 85 °C, warning above 75 °C
func MachineTemperatureLevel(t float64) Level {
	switch {
	case t > 85:
		return LevelCritical
	case t > 75:
		return LevelWarning
	default:
		return LevelNormal
	}
}

// FuelLevelStatus: critical under 30 %, warning under 50 %
func FuelLevelStatus(f float64) Level {
	switch {
	case f < 30:
		return LevelCritical
	case f < 50:
		return LevelWarning
	default:
		return LevelNormal
	}
}

// FindMachine looks a machine up by id
func FindMachine(machines []models.Machine, id string) (models.Machine, bool) {
	for _, m := range machines {
		if m.ID == id {
			return m, true
		}
	}
	return models.Machine{}, false
}

// FindTree looks a tree up by id
func FindTree(trees []models.Tree, id int) (models.Tree, bool) {
	for _, t := range trees {
		if t.ID == id {
			return t, true
		}
	}
	return models.Tree{}, false
}

// AlertFilter selects alerts by severity and free text
type AlertFilter struct {
	Severity models.Severity // "" or "all" matches every severity
	Search   string
}

// FilterAlerts returns the alerts matching f, preserving order
func FilterAlerts(alerts []models.Alert, f AlertFilter) []models.Alert {
	out := []models.Alert{}
	for _, a := range alerts {
		if f.Severity != "" && f.Severity != "all" && a.Type != f.Severity {
			continue
		}
		if !containsFold(f.Search, a.Source, a.Message) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// FilterActivity returns entries whose action, target or user contains search
func FilterActivity(entries []models.Activity, search string) []models.Activity {
	out := []models.Activity{}
	for _, e := range entries {
		if containsFold(search, e.Action, e.Target, e.User) {
			out = append(out, e)
		}
	}
	return out
}

func containsFold(needle string, fields ...string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
