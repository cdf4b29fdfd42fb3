package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nerrad567/ohbridge/internal/accessory"
)

// DefaultQueueSize is used when NewDispatcher is given a size below one.
const DefaultQueueSize = 256

// Sink receives dispatched events.
type Sink interface {
	Name() string
	Handle(ctx context.Context, ev accessory.Event) error
}

// Logger is the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Dispatcher queues events and delivers them to every sink in order.
//
// Thread Safety: HandleEvent is safe for concurrent use. Run must be
// called once.
type Dispatcher struct {
	sinks []Sink
	queue chan accessory.Event

	dropped atomic.Uint64

	logger   Logger
	loggerMu sync.RWMutex
}

// NewDispatcher creates a dispatcher with a bounded queue. Nil sinks are skipped.
func NewDispatcher(queueSize int, sinks ...Sink) *Dispatcher {
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}
	d := &Dispatcher{
		queue:  make(chan accessory.Event, queueSize),
		logger: noopLogger{},
	}
	for _, s := range sinks {
		if s != nil {
			d.sinks = append(d.sinks, s)
		}
	}
	return d
}

// AddSink appends s. It must not be called once Run has started.
func (d *Dispatcher) AddSink(s Sink) {
	if s != nil {
		d.sinks = append(d.sinks, s)
	}
}

// SetLogger sets the logger for delivery failures.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.loggerMu.Lock()
	defer d.loggerMu.Unlock()
	if logger == nil {
		logger = noopLogger{}
	}
	d.logger = logger
}

func (d *Dispatcher) getLogger() Logger {
	d.loggerMu.RLock()
	defer d.loggerMu.RUnlock()
	return d.logger
}

// HandleEvent enqueues ev. When the queue is full the event is dropped and
// counted; the characteristic call is never held up.
func (d *Dispatcher) HandleEvent(_ context.Context, ev accessory.Event) {
	select {
	case d.queue <- ev:
	default:
		n := d.dropped.Add(1)
		d.getLogger().Warn("event queue full, dropping event",
			"serial", ev.Serial, "characteristic", ev.Characteristic, "dropped_total", n)
	}
}

// Dropped returns the number of events lost to a full queue.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Run delivers queued events until ctx is cancelled, then drains what is
// already queued and returns.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case ev := <-d.queue:
			d.deliver(ctx, ev)
		case <-ctx.Done():
			d.drain()
			return
		}
	}
}

func (d *Dispatcher) drain() {
	ctx := context.Background()
	for {
		select {
		case ev := <-d.queue:
			d.deliver(ctx, ev)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev accessory.Event) {
	for _, s := range d.sinks {
		if err := d.handleSafely(ctx, s, ev); err != nil {
			d.getLogger().Warn("event sink failed",
				"sink", s.Name(),
				"serial", ev.Serial,
				"characteristic", ev.Characteristic,
				"op", ev.Op,
				"error", err,
			)
		}
	}
}

func (d *Dispatcher) handleSafely(ctx context.Context, s Sink, ev accessory.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return s.Handle(ctx, ev)
}
