package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MachineType is the category of a plantation machine
type MachineType string

const (
	MachineHarvester   MachineType = "harvester"
	MachineCollector   MachineType = "collector"
	MachineFrondCutter MachineType = "frondCutter"
	MachineUAVDrone    MachineType = "uavDrone"
)

// MachineStatus is the run status of a machine
type MachineStatus string

const (
	MachineActive MachineStatus = "active"
	MachineIdle   MachineStatus = "idle"
)

// Severity of a plantation alert
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Valid reports whether s is one of the known severities
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// Mode is the cosmetic data source label
type Mode string

const (
	ModeSimulated Mode = "simulated"
	ModeLive      Mode = "live"
)

// Location is a GPS coordinate
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ItemAlert is an alert attached to a single machine or tree
type ItemAlert struct {
	Type      Severity `json:"type"`
	Message   string   `json:"message"`
	Timestamp string   `json:"timestamp"`
}

// Machine represents a piece of plantation machinery
type Machine struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Type             MachineType   `json:"type"`
	Status           MachineStatus `json:"status"`
	Temperature      float64       `json:"temperature"` // °C
	FuelLevel        float64       `json:"fuel_level"`  // %
	Location         Location      `json:"location"`
	OperationalState string        `json:"operational_state"`
	LastMaintenance  string        `json:"last_maintenance"`
	Alerts           []ItemAlert   `json:"alerts"`
}

// NutrientLevels holds the n/p/k readings of a tree, 0-100 each
type NutrientLevels struct {
	N int `json:"n"`
	P int `json:"p"`
	K int `json:"k"`
}

// Tree represents a single palm tree
type Tree struct {
	ID             int            `json:"id"`
	Location       Location       `json:"location"`
	SoilMoisture   int            `json:"soil_moisture"`
	NutrientLevels NutrientLevels `json:"nutrient_levels"`
	TrunkHealth    int            `json:"trunk_health"`
	FruitMaturity  int            `json:"fruit_maturity"`
	HealthScore    float64        `json:"health_score"`
	Alerts         []ItemAlert    `json:"alerts"`
}

// Alert is a plantation-level alert
type Alert struct {
	ID        string   `json:"id"`
	Type      Severity `json:"type"`
	Source    string   `json:"source"`
	Message   string   `json:"message"`
	Timestamp string   `json:"timestamp"`
}

// Activity is one entry of the activity log
type Activity struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	Target    string `json:"target"`
	Timestamp string `json:"timestamp"`
	User      string `json:"user"`
}

// Snapshot is the complete plantation state at one instant
type Snapshot struct {
	Temperature        float64    `json:"temperature"`
	AvgSoilMoisture    float64    `json:"avg_soil_moisture"`
	HealthyTreeCount   int        `json:"healthy_tree_count"`
	ActiveMachineCount int        `json:"active_machine_count"`
	Machines           []Machine  `json:"machines"`
	Trees              []Tree     `json:"trees"`
	Alerts             []Alert    `json:"alerts"`
	ActivityLog        []Activity `json:"activity_log"`
	Mode               Mode       `json:"mode"`
	CameraActive       bool       `json:"camera_active"`
}

// Clone returns a deep copy of the snapshot
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Machines = cloneMachines(s.Machines)
	out.Trees = cloneTrees(s.Trees)
	out.Alerts = cloneSlice(s.Alerts)
	out.ActivityLog = cloneSlice(s.ActivityLog)
	return out
}

// Patch is a typed partial snapshot. Nil fields are left untouched.
type Patch struct {
	Temperature        *float64   `json:"temperature,omitempty"`
	AvgSoilMoisture    *float64   `json:"avg_soil_moisture,omitempty"`
	HealthyTreeCount   *int       `json:"healthy_tree_count,omitempty"`
	ActiveMachineCount *int       `json:"active_machine_count,omitempty"`
	Machines           []Machine  `json:"machines,omitempty"`
	Trees              []Tree     `json:"trees,omitempty"`
	Alerts             []Alert    `json:"alerts,omitempty"`
	ActivityLog        []Activity `json:"activity_log,omitempty"`
	Mode               *Mode      `json:"mode,omitempty"`
	CameraActive       *bool      `json:"camera_active,omitempty"`
}

// Empty reports whether the patch sets no field
func (p Patch) Empty() bool {
	return p.Temperature == nil && p.AvgSoilMoisture == nil &&
		p.HealthyTreeCount == nil && p.ActiveMachineCount == nil &&
		p.Machines == nil && p.Trees == nil && p.Alerts == nil &&
		p.ActivityLog == nil && p.Mode == nil && p.CameraActive == nil
}

// ErrEmptyPatch is returned by DecodePatch when no field is set
var ErrEmptyPatch = errors.New("patch sets no field")

// DecodePatch reads exactly one JSON patch, rejecting unknown fields and
// anything after the object
func DecodePatch(r io.Reader) (Patch, error) {
	var patch Patch
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		return Patch{}, fmt.Errorf("decode patch: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Patch{}, errors.New("decode patch: trailing data after patch object")
	}
	if patch.Empty() {
		return Patch{}, ErrEmptyPatch
	}
	return patch, nil
}

// MachineReading is the per-tick telemetry of one machine
type MachineReading struct {
	MachineID   string  `json:"machine_id"`
	Name        string  `json:"name"`
	Temperature float64 `json:"temperature"`
	FuelLevel   float64 `json:"fuel_level"`
}

// Readings extracts the machine readings of a snapshot
func (s Snapshot) Readings() []MachineReading {
	readings := make([]MachineReading, 0, len(s.Machines))
	for _, m := range s.Machines {
		readings = append(readings, MachineReading{
			MachineID:   m.ID,
			Name:        m.Name,
			Temperature: m.Temperature,
			FuelLevel:   m.FuelLevel,
		})
	}
	return readings
}

// Notice is a threshold notification raised for a machine reading
type Notice struct {
	ID        string   `json:"id"`
	Severity  Severity `json:"severity"`
	Source    string   `json:"source"`
	Message   string   `json:"message"`
	Timestamp string   `json:"timestamp"`
}

func cloneMachines(in []Machine) []Machine {
	if in == nil {
		return nil
	}
	out := make([]Machine, len(in))
	for i, m := range in {
		m.Alerts = cloneSlice(m.Alerts)
		out[i] = m
	}
	return out
}

func cloneTrees(in []Tree) []Tree {
	if in == nil {
		return nil
	}
	out := make([]Tree, len(in))
	for i, t := range in {
		t.Alerts = cloneSlice(t.Alerts)
		out[i] = t
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
