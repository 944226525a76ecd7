// Package telemetry holds the simulated plantation snapshot and the
// randomized update rule applied to it on every tick.
package telemetry

import (
	"math/rand"
	"sync"
	"time"

	"palmwatch/internal/models"
)

// Rand is the random source used by the update rule. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Clock returns the current time
type Clock func() time.Time

// Option configures a Store
type Option func(s *Store)

// WithRand sets the random source
func WithRand(r Rand) Option {
	return func(s *Store) {
		if r != nil {
			s.rand = r
		}
	}
}

// WithClock sets the time source
func WithClock(c Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.now = c
		}
	}
}

// WithSeed replaces the generated initial snapshot
func WithSeed(snap models.Snapshot) Option {
	return func(s *Store) {
		seed := snap.Clone()
		s.seed = &seed
	}
}

// Store owns the single mutable snapshot
type Store struct {
	mu       sync.RWMutex
	data     models.Snapshot
	rand     Rand
	now      Clock
	seed     *models.Snapshot
	ticks    uint64
	lastTick time.Time

	version uint64 // bumped under mu on every mutation

	subMu   sync.Mutex
	subs    map[int]func(models.Snapshot)
	nextSub int

	pubMu     sync.Mutex // serializes delivery to subscribers
	published uint64     // version of the last delivered snapshot
}

// NewStore creates a store with a freshly generated snapshot
func NewStore(opts ...Option) *Store {
	s := &Store{
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
		now:  time.Now,
		subs: make(map[int]func(models.Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.seed != nil {
		s.data = *s.seed
		s.seed = nil
	} else {
		s.data = GenerateSeed(s.rand, s.now())
	}
	return s
}

// Snapshot returns a copy of the current snapshot
func (s *Store) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

// Patch shallow-merges the set fields of p into the snapshot. Last writer wins.
func (s *Store) Patch(p models.Patch) models.Snapshot {
	return s.mutate(func(d *models.Snapshot) {
		applyPatch(d, p)
	})
}

// ToggleCamera flips the camera flag and returns the new value
func (s *Store) ToggleCamera() bool {
	snap := s.mutate(func(d *models.Snapshot) {
		d.CameraActive = !d.CameraActive
	})
	return snap.CameraActive
}

// ToggleMode flips between simulated and live and returns the new mode
func (s *Store) ToggleMode() models.Mode {
	snap := s.mutate(func(d *models.Snapshot) {
		if d.Mode == models.ModeSimulated {
			d.Mode = models.ModeLive
		} else {
			d.Mode = models.ModeSimulated
		}
	})
	return snap.Mode
}

// Tick applies the update rule once and returns the resulting snapshot
func (s *Store) Tick() models.Snapshot {
	return s.mutate(func(d *models.Snapshot) {
		applyTick(d, s.rand)
		s.ticks++
		s.lastTick = s.now()
	})
}

// Ticks returns the number of ticks applied so far and the time of the last one
func (s *Store) Ticks() (uint64, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ticks, s.lastTick
}

// OEE generates an equipment effectiveness series ending today
func (s *Store) OEE(days int) []OEEPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return OEESeries(s.now(), s.rand, days)
}

// Subscribe registers fn to receive a copy of the snapshot after every
// mutation. Deliveries are serialized and follow mutation order; when writers
// race, a snapshot already superseded by a delivered one is skipped. fn must
// not mutate the store. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(models.Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) mutate(fn func(d *models.Snapshot)) models.Snapshot {
	s.mu.Lock()
	fn(&s.data)
	s.version++
	version := s.version
	snap := s.data.Clone()
	s.mu.Unlock()

	s.publish(version, snap)
	return snap
}

// publish runs outside the data lock; every subscriber gets its own copy
func (s *Store) publish(version uint64, snap models.Snapshot) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if version <= s.published {
		return
	}
	s.published = version

	s.subMu.Lock()
	subs := make([]func(models.Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snap.Clone())
	}
}

func applyPatch(d *models.Snapshot, p models.Patch) {
	if p.Temperature != nil {
		d.Temperature = *p.Temperature
	}
	if p.AvgSoilMoisture != nil {
		d.AvgSoilMoisture = *p.AvgSoilMoisture
	}
	if p.HealthyTreeCount != nil {
		d.HealthyTreeCount = *p.HealthyTreeCount
	}
	if p.ActiveMachineCount != nil {
		d.ActiveMachineCount = *p.ActiveMachineCount
	}
	if p.Mode != nil {
		d.Mode = *p.Mode
	}
	if p.CameraActive != nil {
		d.CameraActive = *p.CameraActive
	}

	// slices are copied so the caller cannot mutate the store afterwards
	patched := models.Snapshot{
		Machines:    p.Machines,
		Trees:       p.Trees,
		Alerts:      p.Alerts,
		ActivityLog: p.ActivityLog,
	}.Clone()
	if p.Machines != nil {
		d.Machines = patched.Machines
	}
	if p.Trees != nil {
		d.Trees = patched.Trees
	}
	if p.Alerts != nil {
		d.Alerts = patched.Alerts
	}
	if p.ActivityLog != nil {
		d.ActivityLog = patched.ActivityLog
	}
}
