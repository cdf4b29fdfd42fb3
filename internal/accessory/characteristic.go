package accessory

import (
	"context"
	"fmt"
	"time"
)

// Characteristic names, stable within a service.
const (
	CharOn                         = "On"
	CharBrightness                 = "Brightness"
	CharRotationSpeed              = "RotationSpeed"
	CharCurrentTemperature         = "CurrentTemperature"
	CharTargetTemperature          = "TargetTemperature"
	CharCurrentRelativeHumidity    = "CurrentRelativeHumidity"
	CharCurrentHeatingCoolingState = "CurrentHeatingCoolingState"
	CharTargetHeatingCoolingState  = "TargetHeatingCoolingState"
	CharTemperatureDisplayUnits    = "TemperatureDisplayUnits"
	CharCurrentPosition            = "CurrentPosition"
	CharTargetPosition             = "TargetPosition"
	CharPositionState              = "PositionState"
	CharHoldPosition               = "HoldPosition"
)

// Format is the value domain of a characteristic.
//
// Get returns, and Set receives after coercion:
//   - FormatBool: bool
//   - FormatInt: int
//   - FormatFloat: float64
type Format string

const (
	FormatBool  Format = "bool"
	FormatInt   Format = "int"
	FormatFloat Format = "float"
)

// GetFunc reads the current characteristic value.
type GetFunc func(ctx context.Context) (any, error)

// SetFunc writes a coerced characteristic value.
type SetFunc func(ctx context.Context, value any) error

// Characteristic is a named, typed state field bound to an adapter.
// A nil get or set handler makes it write-only or read-only.
type Characteristic struct {
	Name   string
	Format Format
	// Min and Max bound numeric values when Max > Min.
	Min float64
	Max float64

	get   GetFunc
	set   SetFunc
	owner *base
}

// Descriptor is the serialisable shape of a characteristic.
type Descriptor struct {
	Name     string   `json:"name"`
	Format   Format   `json:"format"`
	Perms    []string `json:"perms"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Readable bool     `json:"-"`
	Writable bool     `json:"-"`
}

// Readable reports whether the characteristic has a get handler.
func (c *Characteristic) Readable() bool { return c.get != nil }

// Writable reports whether the characteristic has a set handler.
func (c *Characteristic) Writable() bool { return c.set != nil }

func (c *Characteristic) bounded() bool { return c.Max > c.Min }

// Describe returns the characteristic's descriptor.
func (c *Characteristic) Describe() Descriptor {
	d := Descriptor{
		Name:     c.Name,
		Format:   c.Format,
		Perms:    []string{},
		Readable: c.Readable(),
		Writable: c.Writable(),
	}
	if d.Readable {
		d.Perms = append(d.Perms, "read")
	}
	if d.Writable {
		d.Perms = append(d.Perms, "write")
	}
	if c.bounded() {
		lo, hi := c.Min, c.Max
		d.Min, d.Max = &lo, &hi
	}
	return d
}

// Get reads the characteristic value. Registry failures are returned as-is.
func (c *Characteristic) Get(ctx context.Context) (any, error) {
	if c.get == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotReadable, c.Name)
	}
	v, err := c.get(ctx)
	if err != nil {
		return nil, err
	}
	if c.owner != nil {
		c.owner.emit(ctx, c, OpGet, v)
	}
	return v, nil
}

// Set coerces value to the characteristic's format and writes it.
func (c *Characteristic) Set(ctx context.Context, value any) error {
	if c.set == nil {
		return fmt.Errorf("%w: %s", ErrNotWritable, c.Name)
	}
	v, err := c.coerce(value)
	if err != nil {
		return err
	}
	if err := c.set(ctx, v); err != nil {
		return err
	}
	if c.owner != nil {
		c.owner.emit(ctx, c, OpSet, v)
	}
	return nil
}

func (c *Characteristic) coerce(value any) (any, error) {
	switch c.Format {
	case FormatBool:
		return asBool(value)
	case FormatInt:
		v, err := asInt(value)
		if err != nil {
			return nil, err
		}
		if c.bounded() && (float64(v) < c.Min || float64(v) > c.Max) {
			return nil, fmt.Errorf("%w: %s=%d not in [%g, %g]", ErrInvalidValue, c.Name, v, c.Min, c.Max)
		}
		return v, nil
	case FormatFloat:
		v, err := asFloat(value)
		if err != nil {
			return nil, err
		}
		if c.bounded() && (v < c.Min || v > c.Max) {
			return nil, fmt.Errorf("%w: %s=%g not in [%g, %g]", ErrInvalidValue, c.Name, v, c.Min, c.Max)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidValue, c.Format)
	}
}

// Op identifies the characteristic operation that produced an Event.
type Op string

const (
	OpGet Op = "get"
	OpSet Op = "set"
)

// Event is emitted after every successful characteristic get or set.
type Event struct {
	Serial         string    `json:"serial"`
	Accessory      string    `json:"accessory"`
	Kind           Kind      `json:"kind"`
	Characteristic string    `json:"characteristic"`
	Op             Op        `json:"op"`
	Value          any       `json:"value"`
	Source         string    `json:"source"`
	At             time.Time `json:"at"`
}

// EventSink receives characteristic events. Implementations must not block
// for long and must not fail the characteristic call.
type EventSink interface {
	HandleEvent(ctx context.Context, ev Event)
}
