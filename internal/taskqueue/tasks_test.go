package taskqueue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"palmwatch/internal/models"
)

var checkedAt = time.Date(2025, 4, 10, 8, 30, 0, 0, time.UTC)

type recordingNotifier struct {
	notices []models.Notice
	err     error
}

func (n *recordingNotifier) PublishNotice(notice models.Notice) error {
	if n.err != nil {
		return n.err
	}
	n.notices = append(n.notices, notice)
	return nil
}

func TestCheckReadings(t *testing.T) {
	readings := []models.MachineReading{
		{MachineID: "machine-1", Name: "Harvester A1", Temperature: 90, FuelLevel: 80},
		{MachineID: "machine-2", Name: "Collector B2", Temperature: 76, FuelLevel: 20},
		{MachineID: "machine-3", Name: "Frond Cutter C1", Temperature: 70, FuelLevel: 45},
		{MachineID: "machine-4", Name: "UAV Drone D1", Temperature: 65, FuelLevel: 90},
	}

	notices := CheckReadings(readings, checkedAt)
	require.Len(t, notices, 4)

	assert.Equal(t, "Harvester A1", notices[0].Source)
	assert.Equal(t, models.SeverityCritical, notices[0].Severity)
	assert.Equal(t, "Temperature exceeding threshold", notices[0].Message)

	assert.Equal(t, models.SeverityWarning, notices[1].Severity)
	assert.Equal(t, "Temperature above normal range", notices[1].Message)
	assert.Equal(t, models.SeverityCritical, notices[2].Severity)
	assert.Equal(t, "Fuel level below 30%", notices[2].Message)

	assert.Equal(t, "Frond Cutter C1", notices[3].Source)
	assert.Equal(t, "Fuel level below 50%", notices[3].Message)

	for _, n := range notices {
		assert.NotEmpty(t, n.ID)
		assert.Equal(t, "2025-04-10T08:30:00.000Z", n.Timestamp)
	}

	assert.Empty(t, CheckReadings(readings[3:], checkedAt))
}

func TestHandleThresholdCheck(t *testing.T) {
	notifier := &recordingNotifier{}
	q := &Queue{notifier: notifier, now: func() time.Time { return checkedAt }}

	task, err := NewThresholdTask([]models.MachineReading{
		{MachineID: "machine-1", Name: "Harvester A1", Temperature: 95, FuelLevel: 10},
	}, checkedAt)
	require.NoError(t, err)
	assert.Equal(t, TypeThresholdCheck, task.Type())

	require.NoError(t, q.HandleThresholdCheck(context.Background(), task))
	require.Len(t, notifier.notices, 2)
	assert.Equal(t, "Fuel level below 30%", notifier.notices[1].Message)
}

func TestHandleThresholdCheckWithoutNotifier(t *testing.T) {
	q := &Queue{now: time.Now}
	task, err := NewThresholdTask([]models.MachineReading{{Name: "Harvester A1", Temperature: 95}}, checkedAt)
	require.NoError(t, err)

	assert.NoError(t, q.HandleThresholdCheck(context.Background(), task))
}

func TestHandleThresholdCheckErrors(t *testing.T) {
	q := &Queue{notifier: &recordingNotifier{}}

	err := q.HandleThresholdCheck(context.Background(), asynq.NewTask(TypeThresholdCheck, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	failing := &recordingNotifier{err: errors.New("broker down")}
	q = &Queue{notifier: failing}
	task, err := NewThresholdTask([]models.MachineReading{{Name: "Harvester A1", Temperature: 95}}, checkedAt)
	require.NoError(t, err)
	assert.ErrorIs(t, q.HandleThresholdCheck(context.Background(), task), failing.err)
}

func TestCheckReadingsIDsAreStable(t *testing.T) {
	readings := []models.MachineReading{
		{MachineID: "machine-1", Name: "Harvester A1", Temperature: 90, FuelLevel: 20},
		{MachineID: "machine-2", Name: "Collector B2", Temperature: 90, FuelLevel: 80},
	}

	first := CheckReadings(readings, checkedAt)
	again := CheckReadings(readings, checkedAt)
	require.Len(t, first, 3)
	assert.Equal(t, first, again)

	ids := map[string]bool{}
	for _, n := range first {
		ids[n.ID] = true
	}
	assert.Len(t, ids, 3)

	later := CheckReadings(readings, checkedAt.Add(10*time.Second))
	assert.NotEqual(t, first[0].ID, later[0].ID)
}

// flakyNotifier fails once on the given call, then accepts everything
type flakyNotifier struct {
	recordingNotifier
	calls  int
	failOn int
}

func (n *flakyNotifier) PublishNotice(notice models.Notice) error {
	n.calls++
	if n.calls == n.failOn {
		return errors.New("broker down")
	}
	return n.recordingNotifier.PublishNotice(notice)
}

func TestHandleThresholdCheckRetryResendsSameIDs(t *testing.T) {
	notifier := &flakyNotifier{failOn: 2}
	q := &Queue{notifier: notifier}

	task, err := NewThresholdTask([]models.MachineReading{
		{MachineID: "machine-1", Name: "Harvester A1", Temperature: 95, FuelLevel: 10},
	}, checkedAt)
	require.NoError(t, err)

	require.Error(t, q.HandleThresholdCheck(context.Background(), task))
	require.Len(t, notifier.notices, 1)

	require.NoError(t, q.HandleThresholdCheck(context.Background(), task))
	require.Len(t, notifier.notices, 3)
	assert.Equal(t, notifier.notices[0].ID, notifier.notices[1].ID)
	assert.NotEqual(t, notifier.notices[1].ID, notifier.notices[2].ID)
}
