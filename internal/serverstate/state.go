package serverstate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Status is the lifecycle status of a relay process.
type Status string

const (
	StatusNotReady Status = "not_ready"
	StatusReady    Status = "ready"
	StatusDraining Status = "draining"
	StatusUnknown  Status = "unknown"
)

// State is a snapshot of the lifecycle status. Fields are written together
// so readers always observe a consistent value.
type State struct {
	Status   Status    `json:"status"`
	Draining bool      `json:"draining"`
	Since    time.Time `json:"since"`
}

// Store persists State. The memory store serves a single process; the Redis
// store publishes each instance's state where operators can read it.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, st State) error
}

type memoryStore struct {
	v atomic.Value
}

// NewMemoryStore returns a memory-backed Store initialized to not_ready.
func NewMemoryStore() Store {
	ms := &memoryStore{}
	ms.v.Store(State{Status: StatusNotReady, Since: time.Now()})
	return ms
}

func (m *memoryStore) Load(context.Context) (State, error) {
	if st, ok := m.v.Load().(State); ok {
		return st, nil
	}
	return State{Status: StatusUnknown}, nil
}

func (m *memoryStore) Save(_ context.Context, st State) error {
	m.v.Store(st)
	return nil
}

// Tracker moves a process through not_ready -> ready -> draining.
// Draining is terminal.
type Tracker struct {
	mu    sync.Mutex
	store Store
}

// NewTracker returns a Tracker backed by s, or by a memory store when s is nil.
func NewTracker(s Store) *Tracker {
	if s == nil {
		s = NewMemoryStore()
	}
	return &Tracker{store: s}
}

// Current returns the stored state. A store that cannot be read reports
// StatusUnknown.
func (t *Tracker) Current(ctx context.Context) State {
	st, err := t.store.Load(ctx)
	if err != nil {
		return State{Status: StatusUnknown}
	}
	return st
}

// MarkReady records that the process accepts invocations. It has no effect
// once draining has started.
func (t *Tracker) MarkReady(ctx context.Context) error {
	return t.transition(ctx, func(st State) (State, bool) {
		if st.Draining {
			return st, false
		}
		return State{Status: StatusReady, Since: time.Now()}, true
	})
}

// StartDrain marks the process as draining.
func (t *Tracker) StartDrain(ctx context.Context) error {
	return t.transition(ctx, func(st State) (State, bool) {
		if st.Draining {
			return st, false
		}
		return State{Status: StatusDraining, Draining: true, Since: time.Now()}, true
	})
}

// IsDraining reports whether draining has started.
func (t *Tracker) IsDraining(ctx context.Context) bool {
	return t.Current(ctx).Draining
}

// Healthy reports whether the process should receive traffic.
func (t *Tracker) Healthy(ctx context.Context) bool {
	return t.Current(ctx).Status == StatusReady
}

func (t *Tracker) transition(ctx context.Context, next func(State) (State, bool)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur, err := t.store.Load(ctx)
	if err != nil {
		return err
	}
	st, changed := next(cur)
	if !changed {
		return nil
	}
	return t.store.Save(ctx, st)
}
