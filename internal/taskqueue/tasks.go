package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"palmwatch/internal/models"
	"palmwatch/internal/telemetry"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TypeThresholdCheck classifies the machine readings of one tick
const TypeThresholdCheck = "telemetry:threshold_check"

// ThresholdPayload for threshold check tasks
type ThresholdPayload struct {
	Readings  []models.MachineReading `json:"readings"`
	CheckedAt time.Time               `json:"checked_at"`
}

// noticeNamespace scopes the name-based notice IDs
var noticeNamespace = uuid.MustParse("5b0f3c3e-6a43-4c1e-9a6e-2f8d1c7b9e41")

// Notifier receives the notices raised by a threshold check
type Notifier interface {
	PublishNotice(n models.Notice) error
}

// NewThresholdTask builds a threshold check task
func NewThresholdTask(readings []models.MachineReading, at time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(ThresholdPayload{Readings: readings, CheckedAt: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeThresholdCheck, payload), nil
}

// CheckReadings returns a notice for every temperature or fuel reading
// outside its normal range. Notice IDs depend only on the check time, the
// machine and the metric, so a retried task re-sends the same IDs.
func CheckReadings(readings []models.MachineReading, at time.Time) []models.Notice {
	ts := telemetry.FormatTimestamp(at)
	var notices []models.Notice

	for i, r := range readings {
		key := fmt.Sprintf("%s/%d/%s", at.UTC().Format(time.RFC3339Nano), i, r.MachineID)

		switch telemetry.MachineTemperatureLevel(r.Temperature) {
		case telemetry.LevelCritical:
			notices = append(notices, newNotice(key+"/temperature", models.SeverityCritical, r.Name, "Temperature exceeding threshold", ts))
		case telemetry.LevelWarning:
			notices = append(notices, newNotice(key+"/temperature", models.SeverityWarning, r.Name, "Temperature above normal range", ts))
		}

		switch telemetry.FuelLevelStatus(r.FuelLevel) {
		case telemetry.LevelCritical:
			notices = append(notices, newNotice(key+"/fuel", models.SeverityCritical, r.Name, "Fuel level below 30%", ts))
		case telemetry.LevelWarning:
			notices = append(notices, newNotice(key+"/fuel", models.SeverityWarning, r.Name, "Fuel level below 50%", ts))
		}
	}
	return notices
}

func newNotice(key string, severity models.Severity, source, message, ts string) models.Notice {
	return models.Notice{
		ID:        uuid.NewSHA1(noticeNamespace, []byte(key)).String(),
		Severity:  severity,
		Source:    source,
		Message:   message,
		Timestamp: ts,
	}
}

// HandleThresholdCheck handles the task. A failed publish fails the task;
// asynq retries it and the already sent notices repeat with the same IDs.
func (q *Queue) HandleThresholdCheck(ctx context.Context, t *asynq.Task) error {
	var payload ThresholdPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Printf("TASKQUEUE: Failed to unmarshal task payload: %v", err)
		return fmt.Errorf("decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}

	notices := CheckReadings(payload.Readings, payload.CheckedAt)
	log.Printf("TASKQUEUE: Threshold check over %d readings raised %d notices", len(payload.Readings), len(notices))

	for _, n := range notices {
		if q.notifier == nil {
			log.Printf("TASKQUEUE: %s notice for %s: %s", n.Severity, n.Source, n.Message)
			continue
		}
		if err := q.notifier.PublishNotice(n); err != nil {
			log.Printf("TASKQUEUE: Failed to publish notice for %s: %v", n.Source, err)
			return err
		}
	}
	return nil
}
