package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"palmwatch/internal/redis"
	"palmwatch/internal/taskqueue"
	"palmwatch/internal/telemetry"
)

// Usage: go run scripts/run_ticks.go [ticks] [seed] [mirror]
func main() {
	fmt.Println("🌴 PalmWatch Tick Runner")
	fmt.Println("========================")

	ticks := argInt(1, 10)
	seed := int64(argInt(2, 1))

	store := telemetry.NewStore(telemetry.WithRand(rand.New(rand.NewSource(seed))))
	snap := store.Snapshot()
	fmt.Printf("Seed %d: temperature %.2f°C, soil moisture %.2f%%, %d machines\n\n",
		seed, snap.Temperature, snap.AvgSoilMoisture, len(snap.Machines))

	for i := 1; i <= ticks; i++ {
		snap = store.Tick()
		fmt.Printf("Tick %d: temperature %.2f°C, soil moisture %.2f%%\n", i, snap.Temperature, snap.AvgSoilMoisture)
		for _, r := range snap.Readings() {
			fmt.Printf("  %-16s %6.2f°C (%s)  fuel %6.2f%% (%s)\n", r.Name,
				r.Temperature, telemetry.MachineTemperatureLevel(r.Temperature),
				r.FuelLevel, telemetry.FuelLevelStatus(r.FuelLevel))
		}
		for _, n := range taskqueue.CheckReadings(snap.Readings(), time.Now()) {
			fmt.Printf("  ⚠️  [%s] %s: %s\n", n.Severity, n.Source, n.Message)
		}
	}

	if len(os.Args) > 3 && os.Args[3] == "mirror" {
		mirrorSnapshot(store)
	}
}

func mirrorSnapshot(store *telemetry.Store) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewRedisClient(addr)
	defer client.Close()

	mirror := redis.NewMirror(client, "palmwatch", time.Hour)
	if err := mirror.Write(context.Background(), store.Snapshot()); err != nil {
		log.Fatalf("Failed to mirror snapshot: %v", err)
	}
	fmt.Printf("\n✅ Final snapshot written to %s on %s\n", mirror.SnapshotKey(), addr)
}

func argInt(i, fallback int) int {
	if len(os.Args) <= i {
		return fallback
	}
	n, err := strconv.Atoi(os.Args[i])
	if err != nil || n < 0 {
		log.Fatalf("Invalid argument %q: expected a non-negative number", os.Args[i])
	}
	return n
}
