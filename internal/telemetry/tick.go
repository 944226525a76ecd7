package telemetry

import "palmwatch/internal/models"

// Bounds applied after every tick
const (
	MinMachineTemperature = 65.0
	MaxMachineTemperature = 95.0

	MinFuelLevel = 0.0
	MaxFuelLevel = 100.0

	MinAvgSoilMoisture = 50.0
	MaxAvgSoilMoisture = 85.0
)

// Per-tick step sizes
const (
	ambientTemperatureStep = 0.5 // uniform(-0.25, 0.25)
	soilMoistureStep       = 2.0 // uniform(-1, 1)
	machineTemperatureStep = 2.0 // uniform(-1, 1)
	fuelBurnStep           = 0.5 // uniform(0, 0.5)
)

// applyTick draws from r in a fixed order: ambient temperature, soil
// moisture, then temperature and fuel for each machine in slice order.
// Trees are left as generated.
func applyTick(d *models.Snapshot, r Rand) {
	d.Temperature += centered(r, ambientTemperatureStep)
	d.AvgSoilMoisture = clamp(d.AvgSoilMoisture+centered(r, soilMoistureStep), MinAvgSoilMoisture, MaxAvgSoilMoisture)

	for i := range d.Machines {
		m := &d.Machines[i]
		m.Temperature = clamp(m.Temperature+centered(r, machineTemperatureStep), MinMachineTemperature, MaxMachineTemperature)
		m.FuelLevel = clamp(m.FuelLevel-r.Float64()*fuelBurnStep, MinFuelLevel, MaxFuelLevel)
	}
}

// centered returns a uniform value in [-width/2, width/2)
func centered(r Rand, width float64) float64 {
	return (r.Float64() - 0.5) * width
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
