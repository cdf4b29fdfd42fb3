package accessory

import (
	"context"
	"errors"
	"sync"
	"testing"
)

var errRegistryDown = errors.New("registry unavailable")

type write struct {
	item  string
	state string
}

// fakeRegistry is an in-memory ItemRegistry.
type fakeRegistry struct {
	mu     sync.Mutex
	types  map[string]string
	states map[string]string
	writes []write
	// For testing error paths
	getErr  error
	setErr  error
	typeErr error
	calls   int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		types:  make(map[string]string),
		states: make(map[string]string),
	}
}

func (r *fakeRegistry) add(item, typ, state string) *fakeRegistry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[item] = typ
	r.states[item] = state
	return r
}

func (r *fakeRegistry) setState(item, state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[item] = state
}

func (r *fakeRegistry) GetState(_ context.Context, item string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.getErr != nil {
		return "", r.getErr
	}
	s, ok := r.states[item]
	if !ok {
		return "", errors.New("no such item " + item)
	}
	return s, nil
}

func (r *fakeRegistry) SetState(_ context.Context, item, state string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.setErr != nil {
		return r.setErr
	}
	r.writes = append(r.writes, write{item: item, state: state})
	return nil
}

func (r *fakeRegistry) GetItemType(_ context.Context, item string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.typeErr != nil {
		return "", r.typeErr
	}
	t, ok := r.types[item]
	if !ok {
		return "", errors.New("no such item " + item)
	}
	return t, nil
}

func (r *fakeRegistry) allWrites() []write {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.writes) == 0 {
		return nil
	}
	out := make([]write, len(r.writes))
	copy(out, r.writes)
	return out
}

func (r *fakeRegistry) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// recordingSink collects emitted events.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) HandleEvent(_ context.Context, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) all() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func mustCreate(t *testing.T, reg ItemRegistry, cfg Config) Accessory {
	t.Helper()
	acc, err := Create(context.Background(), Deps{Registry: reg}, cfg)
	if err != nil {
		t.Fatalf("Create(%+v) error = %v", cfg, err)
	}
	return acc
}
