// Package debounce coalesces bursts of save requests into a single delayed write.
//
// A Store is a small state machine:
//
//	Idle -> PendingWrite   on RequestSave (timer armed)
//	PendingWrite -> PendingWrite on RequestSave (timer re-armed, latest snapshot kept)
//	PendingWrite -> Writing on timer fire
//	Writing -> Idle        when the write finishes
//
// Save requests received while Writing are dropped, not queued. Only the last
// snapshot requested before a quiet period is guaranteed to be written.
package debounce

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/slok/duely/internal/log"
)

// State is the state of a store.
type State int

const (
	StateIdle State = iota
	StatePendingWrite
	StateWriting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePendingWrite:
		return "pending-write"
	case StateWriting:
		return "writing"
	}
	return "unknown"
}

// WriteFunc persists a snapshot.
type WriteFunc[T any] func(ctx context.Context, snapshot T) error

// StoreConfig is the configuration for the debounced store.
type StoreConfig[T any] struct {
	// Name identifies the store on logs.
	Name string
	// Delay is the debounce window.
	Delay time.Duration
	// Write persists the snapshot, it runs on the timer goroutine.
	Write WriteFunc[T]
	// Clone copies a snapshot when it's requested, so the caller can keep
	// mutating its own data. Defaults to the identity.
	Clone  func(T) T
	Logger log.Logger
}

func (c *StoreConfig[T]) defaults() error {
	if c.Write == nil {
		return fmt.Errorf("write func is required")
	}

	if c.Delay <= 0 {
		return fmt.Errorf("delay must be positive")
	}

	if c.Name == "" {
		c.Name = "default"
	}

	if c.Clone == nil {
		c.Clone = func(v T) T { return v }
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "debounce.Store", "store": c.Name})

	return nil
}

// Store is a debounced, single-writer persistence slot.
type Store[T any] struct {
	delay  time.Duration
	write  WriteFunc[T]
	clone  func(T) T
	logger log.Logger

	mu      sync.Mutex
	state   State
	latest  T
	pending bool
	timer   *time.Timer
	// gen invalidates timers that fired while being replaced or cancelled.
	gen uint64

	// writeMu serializes the writes of the timer and Flush.
	writeMu sync.Mutex
}

// NewStore returns a new debounced store.
func NewStore[T any](cfg StoreConfig[T]) (*Store[T], error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Store[T]{
		delay:  cfg.Delay,
		write:  cfg.Write,
		clone:  cfg.Clone,
		logger: cfg.Logger,
	}, nil
}

// State returns the current state of the store.
func (s *Store[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RequestSave schedules snapshot to be written once the debounce window passes
// without new requests. It returns false if the request has been dropped because
// a write is in flight. It never blocks on I/O.
func (s *Store[T]) RequestSave(snapshot T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateWriting {
		s.logger.Debugf("Write in flight, save request dropped")
		return false
	}

	s.latest = s.clone(snapshot)
	s.pending = true
	s.state = StatePendingWrite

	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(s.delay, func() { s.fire(gen) })

	return true
}

// Flush cancels the debounce window and writes the latest pending snapshot right
// away. If a write is in flight it waits for it first. Without pending snapshot
// it's a no-op.
func (s *Store[T]) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	pending := s.pending
	snapshot := s.latest
	s.pending = false
	if pending {
		s.state = StateWriting
	}
	s.mu.Unlock()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if !pending {
		return nil
	}

	err := s.write(ctx, snapshot)
	s.finishWrite()
	if err != nil {
		return fmt.Errorf("could not write snapshot: %w", err)
	}

	s.logger.Debugf("Snapshot flushed")
	return nil
}

func (s *Store[T]) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.pending {
		s.mu.Unlock()
		return
	}
	snapshot := s.latest
	s.pending = false
	s.timer = nil
	s.state = StateWriting
	s.mu.Unlock()

	s.writeMu.Lock()
	err := s.write(context.Background(), snapshot)
	s.finishWrite()
	s.writeMu.Unlock()

	if err != nil {
		s.logger.Errorf("Could not write snapshot, it will be retried on the next save request: %s", err)
		return
	}
	s.logger.Debugf("Snapshot written")
}

func (s *Store[T]) finishWrite() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending {
		s.state = StatePendingWrite
		return
	}
	s.state = StateIdle
}
