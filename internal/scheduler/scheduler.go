package scheduler

import (
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler runs named periodic jobs
type Scheduler struct {
	cron      *cron.Cron
	jobMap    map[string]cron.EntryID // Maps job name to cron entry ID
	jobMapMux sync.RWMutex            // Protects jobMap
}

// NewScheduler creates a scheduler. Overlapping runs of the same job are skipped.
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		jobMap: make(map[string]cron.EntryID),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("SCHEDULER: Cron scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("SCHEDULER: Cron scheduler stopped")
}

// AddJob adds or replaces the job registered under name
func (s *Scheduler) AddJob(name, spec string, fn func()) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
	}

	s.RemoveJob(name)

	entryID, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		log.Printf("SCHEDULER: Failed to add job %s with spec '%s': %v", name, spec, err)
		return err
	}

	s.jobMapMux.Lock()
	s.jobMap[name] = entryID
	s.jobMapMux.Unlock()

	log.Printf("SCHEDULER: Added job %s with spec '%s' (entry ID: %d)", name, spec, entryID)
	return nil
}

// RemoveJob removes a job by name. Unknown names are ignored.
func (s *Scheduler) RemoveJob(name string) {
	s.jobMapMux.Lock()
	defer s.jobMapMux.Unlock()

	if entryID, exists := s.jobMap[name]; exists {
		s.cron.Remove(entryID)
		delete(s.jobMap, name)
		log.Printf("SCHEDULER: Removed job %s (entry ID: %d)", name, entryID)
	}
}

// JobCount returns the number of currently scheduled jobs
func (s *Scheduler) JobCount() int {
	s.jobMapMux.RLock()
	defer s.jobMapMux.RUnlock()
	return len(s.jobMap)
}
