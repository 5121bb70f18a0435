package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/figsync/pkg/models"
)

// CycleRunner runs one full polling pass over the monitored documents.
type CycleRunner interface {
	RunCycle(ctx context.Context)
}

// Scheduler drives the cycle runner on a fixed interval and on demand. It is
// a two-state machine, stopped or running: Start runs one cycle immediately
// and arms the recurring timer, Stop cancels future cycles but lets an
// in-flight cycle finish, and TriggerNow requests an extra cycle outside the
// timer cadence without resetting it.
//
// Cycles never overlap. The timer loop and manual triggers both serialize
// through a single cycle mutex, so two concurrent cycles can never
// double-process a comment between selection and the ledger write.
type Scheduler struct {
	runner   CycleRunner
	status   *StatusBoard
	interval time.Duration

	// Start preconditions, checked at transition time.
	documents      int
	hasCredentials bool

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	cycleMu sync.Mutex
}

// NewScheduler creates a stopped scheduler. interval falls back to one
// minute when not positive.
func NewScheduler(runner CycleRunner, status *StatusBoard, interval time.Duration,
	documents int, hasCredentials bool) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		runner:         runner,
		status:         status,
		interval:       interval,
		documents:      documents,
		hasCredentials: hasCredentials,
	}
}

// Start transitions to running: one immediate cycle, then a recurring timer.
// Starting an already running scheduler is a no-op. Missing credentials or
// an empty document list is a configuration error: it is recorded in the
// status, returned to the caller, and not retried automatically.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if err := s.checkPreconditions(); err != nil {
		s.status.Update(func(st *models.EngineStatus) {
			st.LastError = err.Error()
		})
		return err
	}

	s.running = true
	s.stopCh = make(chan struct{})
	s.status.Update(func(st *models.EngineStatus) {
		st.Active = true
		st.LastError = ""
	})

	s.wg.Add(1)
	go s.loop(ctx, s.stopCh)

	log.Info().Dur("interval", s.interval).Int("documents", s.documents).Msg("Scheduler started")
	return nil
}

// Stop transitions to stopped. Future cycles are cancelled; an in-flight
// cycle, if any, runs to completion before Stop returns. Stopping a stopped
// scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()

	s.status.Update(func(st *models.EngineStatus) {
		st.Active = false
	})
	log.Info().Msg("Scheduler stopped")
}

// TriggerNow runs one additional cycle immediately, serialized behind any
// cycle already in flight. The recurring timer keeps its cadence. Calling it
// while stopped does nothing.
func (s *Scheduler) TriggerNow(ctx context.Context) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	if !running {
		log.Debug().Msg("Manual poll ignored: scheduler not running")
		return
	}

	log.Info().Msg("Manual poll requested")
	s.runCycleExclusive(ctx)
}

// Running reports the current state.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Status returns the current engine status snapshot.
func (s *Scheduler) Status() models.EngineStatus {
	return s.status.Snapshot()
}

// Subscribe registers a status observer; see StatusBoard.Subscribe.
func (s *Scheduler) Subscribe(fn func(models.EngineStatus)) func() {
	return s.status.Subscribe(fn)
}

func (s *Scheduler) checkPreconditions() error {
	if !s.hasCredentials {
		return fmt.Errorf("cannot start: missing Figma token or Anthropic API key")
	}
	if s.documents == 0 {
		return fmt.Errorf("cannot start: no documents configured to monitor")
	}
	return nil
}

func (s *Scheduler) loop(ctx context.Context, stopCh chan struct{}) {
	defer s.wg.Done()

	s.runCycleExclusive(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			s.runCycleExclusive(ctx)
		}
	}
}

func (s *Scheduler) runCycleExclusive(ctx context.Context) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()
	s.runner.RunCycle(ctx)
}
