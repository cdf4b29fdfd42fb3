package accessory

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// PositionState is the motion direction of a window covering.
// Values match the HomeKit PositionState characteristic.
type PositionState int

const (
	PositionDecreasing PositionState = 0
	PositionIncreasing PositionState = 1
	PositionStopped    PositionState = 2
)

func (s PositionState) String() string {
	switch s {
	case PositionDecreasing:
		return "decreasing"
	case PositionIncreasing:
		return "increasing"
	case PositionStopped:
		return "stopped"
	default:
		return "PositionState(" + strconv.Itoa(int(s)) + ")"
	}
}

// WindowCovering binds a Rollershutter item.
//
// The target position is held locally: it is the last value commanded
// through TargetPosition, seeded from the item at construction. The current
// position is always read from the registry. Motion direction is derived
// from the two.
//
// Thread Safety: all methods are safe for concurrent use.
type WindowCovering struct {
	base
	item      string
	inverted  bool
	transform Transform
	hold      *Mapping

	mu     sync.Mutex
	target int
}

func newWindowCovering(ctx context.Context, deps Deps, cfg Config) (Accessory, error) {
	item, err := cfg.requireItem()
	if err != nil {
		return nil, err
	}
	inverted := cfg.isInverted()

	if _, err := validateItem(ctx, deps.Registry, item, ItemRollershutter); err != nil {
		return nil, err
	}

	raw, err := deps.Registry.GetState(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("reading initial state of %q: %w", item, err)
	}
	current, err := parsePercent(raw)
	if err != nil {
		return nil, fmt.Errorf("reading initial state of %q: %w", item, err)
	}
	transform := transformFor(inverted)
	target, err := transform.Decode(current)
	if err != nil {
		return nil, fmt.Errorf("reading initial state of %q: %w", item, err)
	}

	w := &WindowCovering{
		base:      newBase(deps, cfg, "Window Cover"),
		item:      item,
		inverted:  inverted,
		transform: transform,
		hold:      holdPositionMapping(),
		target:    target,
	}
	w.logger.Debug("creating window covering", "name", cfg.Name, "item", item, "inverted", inverted)

	w.register(
		&Characteristic{
			Name: CharCurrentPosition, Format: FormatInt, Min: 0, Max: 100,
			get: func(ctx context.Context) (any, error) { return w.CurrentPosition(ctx) },
		},
		&Characteristic{
			Name: CharTargetPosition, Format: FormatInt, Min: 0, Max: 100,
			get: func(context.Context) (any, error) { return w.TargetPosition(), nil },
			set: func(ctx context.Context, v any) error { return w.SetTargetPosition(ctx, v.(int)) },
		},
		&Characteristic{
			Name: CharPositionState, Format: FormatInt, Min: 0, Max: 2,
			get: func(ctx context.Context) (any, error) {
				s, err := w.PositionState(ctx)
				return int(s), err
			},
		},
		&Characteristic{
			Name: CharHoldPosition, Format: FormatInt,
			set: func(ctx context.Context, v any) error { return w.HoldPosition(ctx, v.(int)) },
		},
	)
	return w, nil
}

// Inverted reports whether positions are mirrored (0 ↔ 100).
func (w *WindowCovering) Inverted() bool {
	return w.inverted
}

// CurrentPosition reads the item and returns the decoded position.
func (w *WindowCovering) CurrentPosition(ctx context.Context) (int, error) {
	current, err := w.readPercent(ctx, w.item)
	if err != nil {
		return 0, err
	}
	return w.transform.Decode(current)
}

// TargetPosition returns the last commanded position.
func (w *WindowCovering) TargetPosition() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.target
}

// SetTargetPosition caches value as the target, then writes the encoded
// position to the item. The cached target is kept even if the write fails.
func (w *WindowCovering) SetTargetPosition(ctx context.Context, value int) error {
	raw, err := w.transform.Encode(value)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.target = value
	w.mu.Unlock()

	return w.writeState(ctx, w.item, strconv.Itoa(raw))
}

// PositionState compares a fresh read of the item with the cached target.
func (w *WindowCovering) PositionState(ctx context.Context) (PositionState, error) {
	current, err := w.CurrentPosition(ctx)
	if err != nil {
		return PositionStopped, err
	}
	return derivePositionState(w.TargetPosition(), current, w.inverted), nil
}

// HoldPosition sends the stop command for value 1. Any other value maps to
// the empty no-op token, which is never sent.
func (w *WindowCovering) HoldPosition(ctx context.Context, value int) error {
	cmd := w.hold.LookupInt(value)
	if cmd == "" {
		return nil
	}
	return w.writeState(ctx, w.item, cmd)
}

// derivePositionState reports increasing or decreasing only for
// non-inverted coverings; inverted coverings always report stopped.
func derivePositionState(target, current int, inverted bool) PositionState {
	switch {
	case !inverted && target > current:
		return PositionIncreasing
	case !inverted && target < current:
		return PositionDecreasing
	default:
		return PositionStopped
	}
}
