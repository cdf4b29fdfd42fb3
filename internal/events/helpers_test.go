package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/ohbridge/internal/accessory"
)

// memRegistry is an in-memory item registry.
type memRegistry struct {
	mu     sync.Mutex
	types  map[string]string
	states map[string]string
	writes []string
}

func newMemRegistry() *memRegistry {
	return &memRegistry{types: map[string]string{}, states: map[string]string{}}
}

func (r *memRegistry) add(item, typ, state string) *memRegistry {
	r.types[item] = typ
	r.states[item] = state
	return r
}

func (r *memRegistry) GetState(_ context.Context, item string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[item]
	if !ok {
		return "", errors.New("unknown item")
	}
	return s, nil
}

func (r *memRegistry) SetState(_ context.Context, item, state string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[item] = state
	r.writes = append(r.writes, item+"="+state)
	return nil
}

func (r *memRegistry) GetItemType(_ context.Context, item string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.types[item]
	if !ok {
		return "", errors.New("unknown item")
	}
	return t, nil
}

func (r *memRegistry) allWrites() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.writes...)
}

// recordingSink collects handled events.
type recordingSink struct {
	name string
	err  error

	mu     sync.Mutex
	events []accessory.Event
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Handle(_ context.Context, ev accessory.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type panicSink struct{}

func (panicSink) Name() string { return "panic" }
func (panicSink) Handle(context.Context, accessory.Event) error {
	panic("sink exploded")
}

type countingLogger struct {
	mu    sync.Mutex
	warns int
}

func (l *countingLogger) Debug(string, ...any) {}
func (l *countingLogger) Info(string, ...any)  {}
func (l *countingLogger) Error(string, ...any) {}
func (l *countingLogger) Warn(string, ...any) {
	l.mu.Lock()
	l.warns++
	l.mu.Unlock()
}

func (l *countingLogger) warnings() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.warns
}

func testEvent(op accessory.Op, value any) accessory.Event {
	return accessory.Event{
		Serial:         "serial-1",
		Accessory:      "Kitchen",
		Kind:           accessory.KindLight,
		Characteristic: accessory.CharBrightness,
		Op:             op,
		Value:          value,
		Source:         accessory.SourceHomeKit,
		At:             time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// waitFor polls cond for up to two seconds.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
