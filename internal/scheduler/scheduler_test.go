package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aristath/capstack/internal/database"
	"github.com/aristath/capstack/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name  string
	runs  atomic.Int32
	err   error
	block chan struct{}
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run() error {
	j.runs.Add(1)
	if j.block != nil {
		<-j.block
	}
	return j.err
}

func TestScheduler_AddJobRejectsBadSpec(t *testing.T) {
	s := New(zerolog.Nop())
	err := s.AddJob("every tuesday", &countingJob{name: "x"})
	assert.Error(t, err)
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(zerolog.Nop())

	ok := &countingJob{name: "ok"}
	require.NoError(t, s.RunNow(ok))
	assert.Equal(t, int32(1), ok.runs.Load())

	failing := &countingJob{name: "failing", err: errors.New("boom")}
	assert.EqualError(t, s.RunNow(failing), "boom")
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "slow", block: make(chan struct{})}

	done := make(chan error)
	go func() { done <- s.RunNow(job) }()
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, s.RunNow(job))
	assert.Equal(t, int32(1), job.runs.Load())

	close(job.block)
	require.NoError(t, <-done)
}

func TestScheduler_RunsOnSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "tick"}
	require.NoError(t, s.AddJob("@every 1s", job))

	s.Start()
	defer s.Stop()
	assert.Eventually(t, func() bool { return job.runs.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
}

type fakeRevaluer struct {
	archive  bool
	count    int
	err      error
	deadline bool
}

func (f *fakeRevaluer) RevalueAll(ctx context.Context, archive bool) (int, error) {
	f.archive = archive
	_, f.deadline = ctx.Deadline()
	return f.count, f.err
}

func TestRevaluationJob(t *testing.T) {
	rev := &fakeRevaluer{count: 3}
	job := NewRevaluationJob(rev, true, time.Minute, zerolog.Nop())

	assert.Equal(t, "revaluation", job.Name())
	require.NoError(t, job.Run())
	assert.True(t, rev.archive)
	assert.True(t, rev.deadline)

	rev = &fakeRevaluer{err: domain.NewError(domain.CodeCancelled, "stopped")}
	job = NewRevaluationJob(rev, false, 0, zerolog.Nop())
	err := job.Run()
	assert.True(t, domain.IsCode(err, domain.CodeCancelled))
	assert.False(t, rev.deadline)
}

func TestCheckWALCheckpointsJob(t *testing.T) {
	job := NewCheckWALCheckpointsJob(nil, zerolog.Nop())
	assert.Equal(t, "check_wal_checkpoints", job.Name())
	assert.NoError(t, job.Run())

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "capstack.db"),
		Profile: database.ProfileStandard,
		Name:    "capstack",
	})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	job = NewCheckWALCheckpointsJob(db, zerolog.Nop())
	assert.NoError(t, job.Run())
}
