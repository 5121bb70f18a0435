package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/figsync/pkg/models"
)

// countingRunner counts cycles and can block to simulate a slow cycle.
type countingRunner struct {
	mu     sync.Mutex
	cycles int
	block  chan struct{}
}

func (r *countingRunner) RunCycle(_ context.Context) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	r.cycles++
	r.mu.Unlock()
}

func (r *countingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cycles
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func TestScheduler_StartRunsImmediateCycle(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, NewStatusBoard(), time.Hour, 1, true)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	waitFor(t, time.Second, func() bool { return runner.count() == 1 })
	assert.True(t, s.Running())
	assert.True(t, s.Status().Active)
}

func TestScheduler_StartRequiresCredentials(t *testing.T) {
	runner := &countingRunner{}
	status := NewStatusBoard()
	s := NewScheduler(runner, status, time.Hour, 1, false)

	err := s.Start(context.Background())

	require.Error(t, err)
	assert.False(t, s.Running())
	assert.Contains(t, status.Snapshot().LastError, "missing")
	assert.Zero(t, runner.count())
}

func TestScheduler_StartRequiresDocuments(t *testing.T) {
	s := NewScheduler(&countingRunner{}, NewStatusBoard(), time.Hour, 0, true)

	err := s.Start(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no documents")
}

func TestScheduler_DoubleStartIsNoOp(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, NewStatusBoard(), time.Hour, 1, true)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	waitFor(t, time.Second, func() bool { return runner.count() == 1 })

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, runner.count(), "re-entering start must not run another cycle")
}

func TestScheduler_TimerFiresCycles(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, NewStatusBoard(), 15*time.Millisecond, 1, true)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	waitFor(t, time.Second, func() bool { return runner.count() >= 3 })
}

func TestScheduler_StopPreventsFurtherCycles(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, NewStatusBoard(), 10*time.Millisecond, 1, true)

	require.NoError(t, s.Start(context.Background()))
	waitFor(t, time.Second, func() bool { return runner.count() >= 1 })

	s.Stop()
	assert.False(t, s.Running())
	assert.False(t, s.Status().Active)

	settled := runner.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, runner.count(), "no cycles after stop")
}

func TestScheduler_StopTwiceIsSafe(t *testing.T) {
	s := NewScheduler(&countingRunner{}, NewStatusBoard(), time.Hour, 1, true)
	require.NoError(t, s.Start(context.Background()))

	s.Stop()
	s.Stop()
}

func TestScheduler_TriggerNowRunsExtraCycle(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, NewStatusBoard(), time.Hour, 1, true)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	waitFor(t, time.Second, func() bool { return runner.count() == 1 })

	s.TriggerNow(context.Background())

	assert.Equal(t, 2, runner.count())
}

func TestScheduler_TriggerNowWhileStoppedDoesNothing(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, NewStatusBoard(), time.Hour, 1, true)

	s.TriggerNow(context.Background())

	assert.Zero(t, runner.count())
}

func TestScheduler_ManualTriggerSerializesBehindInFlightCycle(t *testing.T) {
	runner := &countingRunner{block: make(chan struct{})}
	s := NewScheduler(runner, NewStatusBoard(), time.Hour, 1, true)

	require.NoError(t, s.Start(context.Background()))
	defer func() {
		s.Stop()
	}()

	// The immediate cycle is blocked; a manual trigger must wait for it.
	done := make(chan struct{})
	go func() {
		s.TriggerNow(context.Background())
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("manual trigger finished while a cycle was in flight")
	case <-time.After(30 * time.Millisecond):
	}

	close(runner.block)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("manual trigger never ran")
	}
	assert.Equal(t, 2, runner.count())
}

func TestStatusBoard_SubscribersSeeSnapshots(t *testing.T) {
	board := NewStatusBoard()

	var mu sync.Mutex
	var seen []models.EngineStatus
	unsubscribe := board.Subscribe(func(st models.EngineStatus) {
		mu.Lock()
		seen = append(seen, st)
		mu.Unlock()
	})

	board.Update(func(s *models.EngineStatus) { s.DocumentsMonitored = 2 })
	board.Update(func(s *models.EngineStatus) { s.CommentsProcessed = 1 })

	mu.Lock()
	require.Len(t, seen, 2)
	assert.Equal(t, 2, seen[0].DocumentsMonitored)
	assert.Equal(t, 2, seen[1].DocumentsMonitored, "snapshots are complete, not deltas")
	assert.Equal(t, 1, seen[1].CommentsProcessed)
	mu.Unlock()

	unsubscribe()
	board.Update(func(s *models.EngineStatus) { s.CommentsProcessed = 5 })

	mu.Lock()
	assert.Len(t, seen, 2, "unsubscribed observer gets no further updates")
	mu.Unlock()
}

func TestStatusBoard_MultipleSubscribers(t *testing.T) {
	board := NewStatusBoard()

	var mu sync.Mutex
	counts := map[string]int{}
	board.Subscribe(func(models.EngineStatus) {
		mu.Lock()
		counts["a"]++
		mu.Unlock()
	})
	board.Subscribe(func(models.EngineStatus) {
		mu.Lock()
		counts["b"]++
		mu.Unlock()
	})

	board.Update(func(s *models.EngineStatus) { s.Active = true })

	mu.Lock()
	assert.Equal(t, 1, counts["a"])
	assert.Equal(t, 1, counts["b"])
	mu.Unlock()
}

func TestStatusBoard_SnapshotIsCopy(t *testing.T) {
	board := NewStatusBoard()
	board.Update(func(s *models.EngineStatus) { s.CommentsProcessed = 3 })

	snap := board.Snapshot()
	snap.CommentsProcessed = 99

	assert.Equal(t, 3, board.Snapshot().CommentsProcessed)
}
