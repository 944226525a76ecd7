package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"palmwatch/internal/models"
	"palmwatch/internal/scheduler"
	"palmwatch/internal/telemetry"
	"palmwatch/internal/utils"
)

// TickJob is the scheduler job name of the telemetry tick
const TickJob = "telemetry-tick"

const (
	eventBuffer = 64
	sinkTimeout = 5 * time.Second
)

// SnapshotMirror receives every snapshot change (Redis)
type SnapshotMirror interface {
	Write(ctx context.Context, snap models.Snapshot) error
}

// SnapshotPublisher receives every snapshot change (MQTT)
type SnapshotPublisher interface {
	PublishSnapshot(snap models.Snapshot) error
}

// ThresholdQueue receives the machine readings of every tick (asynq)
type ThresholdQueue interface {
	EnqueueThresholdCheck(readings []models.MachineReading) error
}

// SnapshotArchive receives the snapshot of every tick (Postgres)
type SnapshotArchive interface {
	ArchiveSnapshot(ctx context.Context, snap models.Snapshot, at time.Time) error
}

// Sinks are optional; nil fields are skipped
type Sinks struct {
	Mirror    SnapshotMirror
	Publisher SnapshotPublisher
	Queue     ThresholdQueue
	Archive   SnapshotArchive
}

// Engine drives the store on a schedule and fans changes out to the sinks
type Engine struct {
	store     *telemetry.Store
	scheduler *scheduler.Scheduler
	tickSpec  string
	sinks     Sinks
	now       func() time.Time

	events      chan models.Snapshot
	eventsMux   sync.Mutex // guards closed and the close of events
	closed      bool
	unsubscribe func()
	wg          sync.WaitGroup
	stopOnce    sync.Once
}

// NewEngine creates a new engine instance
func NewEngine(store *telemetry.Store, sched *scheduler.Scheduler, tickSpec string, sinks Sinks) *Engine {
	return &Engine{
		store:     store,
		scheduler: sched,
		tickSpec:  tickSpec,
		sinks:     sinks,
		now:       time.Now,
		events:    make(chan models.Snapshot, eventBuffer),
	}
}

// Start subscribes to the store and schedules the tick
func (e *Engine) Start() error {
	e.unsubscribe = e.store.Subscribe(e.onChange)

	e.wg.Add(1)
	go e.processChanges()

	log.Printf("ENGINE: Scheduling telemetry tick with spec '%s'", e.tickSpec)
	if err := e.scheduler.AddJob(TickJob, e.tickSpec, e.Tick); err != nil {
		e.Stop()
		return err
	}

	log.Println("ENGINE: Engine started")
	return nil
}

// Stop removes the tick job, unsubscribes and drains pending changes
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.scheduler.RemoveJob(TickJob)
		if e.unsubscribe != nil {
			e.unsubscribe()
		}
		e.eventsMux.Lock()
		e.closed = true
		close(e.events)
		e.eventsMux.Unlock()
		e.wg.Wait()
		log.Println("ENGINE: Engine stopped")
	})
}

// Tick advances the simulation once and hands the readings to the tick sinks
func (e *Engine) Tick() {
	snap := e.store.Tick()
	at := e.now()
	utils.Debugf("ENGINE: Tick at %s, temperature %.2f, soil moisture %.2f", at.Format(time.RFC3339), snap.Temperature, snap.AvgSoilMoisture)

	if e.sinks.Queue != nil {
		if err := e.sinks.Queue.EnqueueThresholdCheck(snap.Readings()); err != nil {
			log.Printf("ENGINE: Failed to enqueue threshold check: %v", err)
		}
	}

	if e.sinks.Archive != nil {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		defer cancel()
		if err := e.sinks.Archive.ArchiveSnapshot(ctx, snap, at); err != nil {
			log.Printf("ENGINE: Failed to archive snapshot: %v", err)
		}
	}
}

// onChange runs in the goroutine that mutated the store, so it never blocks
func (e *Engine) onChange(snap models.Snapshot) {
	e.eventsMux.Lock()
	defer e.eventsMux.Unlock()
	if e.closed {
		return
	}

	select {
	case e.events <- snap:
	default:
		log.Println("ENGINE: Sinks are behind, dropping snapshot change")
	}
}

func (e *Engine) processChanges() {
	defer e.wg.Done()

	for snap := range e.events {
		if e.sinks.Mirror != nil {
			ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
			if err := e.sinks.Mirror.Write(ctx, snap); err != nil {
				log.Printf("ENGINE: Failed to mirror snapshot: %v", err)
			}
			cancel()
		}

		if e.sinks.Publisher != nil {
			if err := e.sinks.Publisher.PublishSnapshot(snap); err != nil {
				log.Printf("ENGINE: Failed to publish snapshot: %v", err)
			}
		}
	}
}
