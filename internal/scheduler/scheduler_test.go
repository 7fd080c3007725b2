package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/valuescan/backend/pkg/logger"
)

// countingJob fails its first N runs, then succeeds
type countingJob struct {
	name     string
	failures int64
	runs     int64
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return "0 0 18 * * MON-FRI" }

func (j *countingJob) Run(ctx context.Context) error {
	atomic.AddInt64(&j.runs, 1)
	if atomic.AddInt64(&j.failures, -1) >= 0 {
		return errors.New("simulated job failure")
	}
	return nil
}

func TestScheduler_AddJob_Duplicate(t *testing.T) {
	s := New(logger.NewNop())

	require.NoError(t, s.AddJob(&countingJob{name: "screening"}))
	err := s.AddJob(&countingJob{name: "screening"})
	assert.Error(t, err)
}

func TestScheduler_RunJob_Unknown(t *testing.T) {
	s := New(logger.NewNop())
	assert.Error(t, s.RunJob("ghost"))
}

func TestScheduler_RunJob_RecordsHistory(t *testing.T) {
	s := New(logger.NewNop())
	job := &countingJob{name: "screening"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("screening"))

	assert.Eventually(t, func() bool {
		history, err := s.GetJobHistory("screening")
		return err == nil && len(history.GetLatestResults(1)) == 1
	}, time.Second, 10*time.Millisecond)

	history, err := s.GetJobHistory("screening")
	require.NoError(t, err)
	results := history.GetLatestResults(1)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, "screening", results[0].JobName)
}

func TestScheduler_RunJob_RetriesUntilSuccess(t *testing.T) {
	s := New(logger.NewNop())
	s.retryDelay = time.Millisecond

	job := &countingJob{name: "screening", failures: 1}
	require.NoError(t, s.AddJob(job))
	require.NoError(t, s.RunJob("screening"))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&job.runs) == 2
	}, time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		history, err := s.GetJobHistory("screening")
		if err != nil {
			return false
		}
		results := history.GetLatestResults(1)
		return len(results) == 1 && results[0].Success
	}, time.Second, 10*time.Millisecond)
}

func TestScheduler_GetAllJobs(t *testing.T) {
	s := New(logger.NewNop())
	require.NoError(t, s.AddJob(&countingJob{name: "screening"}))

	assert.Equal(t, []string{"screening"}, s.GetAllJobs())
}

func TestJobHistory_KeepsLast100(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 105; i++ {
		h.AddResult(JobResult{JobName: "screening", Success: true})
	}

	assert.Len(t, h.Results, 100)
	assert.Len(t, h.GetLatestResults(3), 3)
	assert.Empty(t, h.GetLatestResults(0))
}
