package telemetry

import (
	"time"

	"palmwatch/internal/models"
)

const (
	seedTreeCount = 40

	// trees under this initial score get a warning alert
	treeAlertThreshold = 60.0

	baseLat = 4.21
	baseLng = 101.97
	spread  = 0.01
)

// TimestampLayout is the format of every timestamp in the snapshot
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in the snapshot timestamp format (UTC)
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// GenerateSeed builds the initial plantation snapshot
func GenerateSeed(r Rand, now time.Time) models.Snapshot {
	ts := FormatTimestamp(now)
	ago := func(minutes int) string {
		return FormatTimestamp(now.Add(-time.Duration(minutes) * time.Minute))
	}

	machines := []models.Machine{
		{
			ID:               "machine-1",
			Name:             "Harvester A1",
			Type:             models.MachineHarvester,
			Status:           models.MachineActive,
			Temperature:      78,
			FuelLevel:        82,
			Location:         models.Location{Lat: 4.2105, Lng: 101.9758},
			OperationalState: "Normal",
			LastMaintenance:  "2025-03-20",
			Alerts:           []models.ItemAlert{},
		},
		{
			ID:               "machine-2",
			Name:             "Collector B2",
			Type:             models.MachineCollector,
			Status:           models.MachineActive,
			Temperature:      75,
			FuelLevel:        65,
			Location:         models.Location{Lat: 4.2115, Lng: 101.9778},
			OperationalState: "Normal",
			LastMaintenance:  "2025-03-25",
			Alerts:           []models.ItemAlert{},
		},
		{
			ID:               "machine-3",
			Name:             "Frond Cutter C1",
			Type:             models.MachineFrondCutter,
			Status:           models.MachineActive,
			Temperature:      72,
			FuelLevel:        45,
			Location:         models.Location{Lat: 4.2095, Lng: 101.9768},
			OperationalState: "Normal",
			LastMaintenance:  "2025-03-15",
			Alerts: []models.ItemAlert{
				{Type: models.SeverityWarning, Message: "Fuel level below 50%", Timestamp: ts},
			},
		},
		{
			ID:               "machine-4",
			Name:             "UAV Drone D1",
			Type:             models.MachineUAVDrone,
			Status:           models.MachineIdle,
			Temperature:      65,
			FuelLevel:        90,
			Location:         models.Location{Lat: 4.2125, Lng: 101.9738},
			OperationalState: "Charging",
			LastMaintenance:  "2025-04-01",
			Alerts:           []models.ItemAlert{},
		},
	}

	trees := make([]models.Tree, seedTreeCount)
	for i := range trees {
		healthScore := r.Float64() * 100

		tree := models.Tree{
			ID: i + 1,
			Location: models.Location{
				Lat: baseLat + r.Float64()*spread,
				Lng: baseLng + r.Float64()*spread,
			},
			SoilMoisture: 60 + randInt(r, 20),
			NutrientLevels: models.NutrientLevels{
				N: 70 + randInt(r, 30),
				P: 65 + randInt(r, 35),
				K: 75 + randInt(r, 25),
			},
			TrunkHealth:   70 + randInt(r, 30),
			FruitMaturity: randInt(r, 100),
			HealthScore:   healthScore,
			Alerts:        []models.ItemAlert{},
		}
		if healthScore < treeAlertThreshold {
			tree.Alerts = append(tree.Alerts, models.ItemAlert{
				Type:      models.SeverityWarning,
				Message:   "Below optimal health",
				Timestamp: ts,
			})
		}
		trees[i] = tree
	}

	alerts := []models.Alert{
		{ID: "alert-1", Type: models.SeverityCritical, Source: "Harvester A1", Message: "Temperature exceeding threshold", Timestamp: ago(30)},
		{ID: "alert-2", Type: models.SeverityWarning, Source: "Tree #23", Message: "Soil moisture below optimal level", Timestamp: ago(120)},
		{ID: "alert-3", Type: models.SeverityInfo, Source: "UAV Drone D1", Message: "Scheduled maintenance due", Timestamp: ago(240)},
	}

	activity := []models.Activity{
		{ID: "activity-1", Action: "Harvested", Target: "Section A, 5 trees", Timestamp: ago(45), User: "Ahmad Razali"},
		{ID: "activity-2", Action: "Fertilized", Target: "Section B, 10 trees", Timestamp: ago(150), User: "Siti Aminah"},
		{ID: "activity-3", Action: "Drone Scan", Target: "Full Plantation", Timestamp: ago(300), User: "System"},
	}

	return models.Snapshot{
		Temperature:        32,
		AvgSoilMoisture:    68,
		HealthyTreeCount:   38,
		ActiveMachineCount: 3,
		Machines:           machines,
		Trees:              trees,
		Alerts:             alerts,
		ActivityLog:        activity,
		Mode:               models.ModeSimulated,
		CameraActive:       false,
	}
}

// randInt returns an int in [0, n)
func randInt(r Rand, n int) int {
	return int(r.Float64() * float64(n))
}
