package db

import (
	"context"
	"fmt"
	"time"

	"palmwatch/internal/models"

	"github.com/jackc/pgx/v5"
)

const schema = `
CREATE TABLE IF NOT EXISTS plantation_readings (
	id                BIGSERIAL PRIMARY KEY,
	temperature       DOUBLE PRECISION NOT NULL,
	avg_soil_moisture DOUBLE PRECISION NOT NULL,
	mode              TEXT NOT NULL,
	recorded_at       TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS machine_readings (
	id          BIGSERIAL PRIMARY KEY,
	machine_id  TEXT NOT NULL,
	temperature DOUBLE PRECISION NOT NULL,
	fuel_level  DOUBLE PRECISION NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS machine_readings_machine_time_idx
	ON machine_readings (machine_id, recorded_at);
`

const (
	insertPlantationReading = "INSERT INTO plantation_readings (temperature, avg_soil_moisture, mode, recorded_at) VALUES ($1, $2, $3, $4)"
	insertMachineReading    = "INSERT INTO machine_readings (machine_id, temperature, fuel_level, recorded_at) VALUES ($1, $2, $3, $4)"
)

// Migrate creates the archive tables
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.conn.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate archive schema: %w", err)
	}
	return nil
}

// ArchiveSnapshot appends the aggregates and every machine reading of snap
// in one transaction, so a tick is archived whole or not at all.
// The archive is write-only; nothing restores state from it.
func (d *DB) ArchiveSnapshot(ctx context.Context, snap models.Snapshot, at time.Time) error {
	return pgx.BeginFunc(ctx, d.conn, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertPlantationReading, snap.Temperature, snap.AvgSoilMoisture, string(snap.Mode), at)
		if err != nil {
			return fmt.Errorf("archive plantation reading: %w", err)
		}

		for _, r := range snap.Readings() {
			if _, err := tx.Exec(ctx, insertMachineReading, r.MachineID, r.Temperature, r.FuelLevel, at); err != nil {
				return fmt.Errorf("archive reading for %s: %w", r.MachineID, err)
			}
		}
		return nil
	})
}
