package study

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/townerr/flashmind/internal/model"
)

// DefaultDebounceDelay is the quiescence window for coalescing progress
// writes.
const DefaultDebounceDelay = 500 * time.Millisecond

// SaveFunc persists one session update.
type SaveFunc func(ctx context.Context, id uuid.UUID, update model.SessionUpdate) error

// Debouncer coalesces rapid update calls into a single trailing-edge
// write. A single shared timer serializes all updates: the last payload
// supplied within the window wins, including across different session
// ids. Superseded payloads are never delivered.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	save    SaveFunc
	onError func(error)

	timer         *time.Timer
	pendingID     uuid.UUID
	pendingUpdate model.SessionUpdate
	hasPending    bool
}

// NewDebouncer creates a Debouncer that invokes save after delay has
// elapsed with no further calls. onError receives failures from fires
// scheduled by Call; it may be nil.
func NewDebouncer(delay time.Duration, save SaveFunc, onError func(error)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	return &Debouncer{
		delay:   delay,
		save:    save,
		onError: onError,
	}
}

// Call schedules the update for delivery once the quiescence window
// elapses. Each call replaces the pending payload and resets the window.
func (d *Debouncer) Call(id uuid.UUID, update model.SessionUpdate) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pendingID = id
	d.pendingUpdate = update
	d.hasPending = true

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *Debouncer) fire() {
	id, update, ok := d.take()
	if !ok {
		return
	}
	if err := d.save(context.Background(), id, update); err != nil && d.onError != nil {
		d.onError(err)
	}
}

// Flush delivers any pending update immediately and synchronously.
// Callers needing durability before navigation use this instead of
// relying on teardown timing.
func (d *Debouncer) Flush(ctx context.Context) error {
	id, update, ok := d.take()
	if !ok {
		return nil
	}
	return d.save(ctx, id, update)
}

// Cancel drops any pending update without delivering it. Data for an
// in-flight edit is lost; callers must tolerate this on teardown.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.hasPending = false
	d.pendingUpdate = model.SessionUpdate{}
}

func (d *Debouncer) take() (uuid.UUID, model.SessionUpdate, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.hasPending {
		return uuid.Nil, model.SessionUpdate{}, false
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	id, update := d.pendingID, d.pendingUpdate
	d.hasPending = false
	d.pendingUpdate = model.SessionUpdate{}
	return id, update, true
}
