package engine

import (
	"sync"

	"github.com/figsync/pkg/models"
)

// StatusBoard owns the engine status record. The engine is the only writer;
// every update replaces the record wholesale and publishes the new snapshot
// to all subscribers, so observers never see a partially updated state.
type StatusBoard struct {
	mu          sync.Mutex
	status      models.EngineStatus
	subscribers map[int]func(models.EngineStatus)
	nextID      int
}

// NewStatusBoard creates a board with all-empty defaults.
func NewStatusBoard() *StatusBoard {
	return &StatusBoard{
		subscribers: make(map[int]func(models.EngineStatus)),
	}
}

// Snapshot returns a copy of the current status.
func (b *StatusBoard) Snapshot() models.EngineStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Subscribe registers a callback invoked with the full snapshot after every
// status change. The returned function removes the subscription.
func (b *StatusBoard) Subscribe(fn func(models.EngineStatus)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subscribers, id)
		b.mu.Unlock()
	}
}

// Update applies mutate to a copy of the current status, swaps the copy in,
// and notifies subscribers. Callbacks run outside the lock so a subscriber
// may call Snapshot or Subscribe without deadlocking.
func (b *StatusBoard) Update(mutate func(*models.EngineStatus)) {
	b.mu.Lock()
	next := b.status
	mutate(&next)
	b.status = next

	callbacks := make([]func(models.EngineStatus), 0, len(b.subscribers))
	for _, fn := range b.subscribers {
		callbacks = append(callbacks, fn)
	}
	b.mu.Unlock()

	for _, fn := range callbacks {
		fn(next)
	}
}
