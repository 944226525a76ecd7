package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndRemoveJob(t *testing.T) {
	s := NewScheduler()

	require.NoError(t, s.AddJob("tick", "@every 10s", func() {}))
	require.NoError(t, s.AddJob("archive", "*/5 * * * *", func() {}))
	assert.Equal(t, 2, s.JobCount())

	// replacing keeps a single entry per name
	require.NoError(t, s.AddJob("tick", "@every 20s", func() {}))
	assert.Equal(t, 2, s.JobCount())

	s.RemoveJob("tick")
	s.RemoveJob("missing")
	assert.Equal(t, 1, s.JobCount())
}

func TestAddJobRejectsBadSpec(t *testing.T) {
	s := NewScheduler()

	err := s.AddJob("tick", "every ten seconds", func() {})
	assert.Error(t, err)
	assert.Zero(t, s.JobCount())
}

func TestStopHaltsJobs(t *testing.T) {
	if testing.Short() {
		t.Skip("waits on the one second cron granularity")
	}

	s := NewScheduler()
	var runs atomic.Int32
	require.NoError(t, s.AddJob("tick", "@every 1s", func() { runs.Add(1) }))

	s.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()

	stopped := runs.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, stopped, runs.Load())
}
