package taskqueue

import (
	"fmt"
	"log"
	"time"

	"palmwatch/internal/models"

	"github.com/hibiken/asynq"
)

// Queue enqueues and processes background telemetry tasks
type Queue struct {
	client   *asynq.Client
	server   *asynq.Server
	mux      *asynq.ServeMux
	notifier Notifier
	now      func() time.Time
}

// NewQueue creates a queue backed by Redis. notifier may be nil, in which
// case notices are only logged.
func NewQueue(redisAddr string, notifier Notifier) *Queue {
	opt := asynq.RedisClientOpt{Addr: redisAddr}
	q := &Queue{
		client:   asynq.NewClient(opt),
		server:   asynq.NewServer(opt, asynq.Config{Concurrency: 4}),
		mux:      asynq.NewServeMux(),
		notifier: notifier,
		now:      time.Now,
	}
	q.mux.HandleFunc(TypeThresholdCheck, q.HandleThresholdCheck)
	return q
}

// Start starts the workers without blocking
func (q *Queue) Start() error {
	log.Printf("TASKQUEUE: Starting workers")
	if err := q.server.Start(q.mux); err != nil {
		return fmt.Errorf("start workers: %w", err)
	}
	return nil
}

// Stop stops workers and closes the client
func (q *Queue) Stop() {
	log.Printf("TASKQUEUE: Stopping workers...")
	q.server.Shutdown()
	q.client.Close()
	log.Printf("TASKQUEUE: Workers stopped")
}

// EnqueueThresholdCheck enqueues a threshold check for the given readings
func (q *Queue) EnqueueThresholdCheck(readings []models.MachineReading) error {
	task, err := NewThresholdTask(readings, q.now())
	if err != nil {
		return err
	}

	info, err := q.client.Enqueue(task, asynq.MaxRetry(3), asynq.Timeout(10*time.Second))
	if err != nil {
		log.Printf("TASKQUEUE: Failed to enqueue threshold check: %v", err)
		return err
	}
	log.Printf("TASKQUEUE: Enqueued task %s", info.ID)
	return nil
}
