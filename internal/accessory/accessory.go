package accessory

import (
	"context"
	"fmt"
	"time"
)

// ItemRegistry is the item registry the adapters read from and write to.
//
// Every call is synchronous. Implementations own their timeout policy;
// adapters never retry a failed call.
type ItemRegistry interface {
	// GetState returns the raw state string of item.
	GetState(ctx context.Context, item string) (string, error)

	// SetState sends a raw state or command string to item.
	SetState(ctx context.Context, item, state string) error

	// GetItemType returns the type tag of item (e.g. "Rollershutter").
	GetItemType(ctx context.Context, item string) (string, error)
}

// Logger defines the logging interface used by the adapters and factory.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Deps carries the collaborators shared by every adapter.
type Deps struct {
	Registry     ItemRegistry
	Sink         EventSink // optional
	Logger       Logger    // optional
	Manufacturer string
	Firmware     string
}

func (d Deps) logger() Logger {
	if d.Logger == nil {
		return noopLogger{}
	}
	return d.Logger
}

// Config is one accessory entry from the bridge configuration.
type Config struct {
	Kind     Kind
	Name     string
	Item     string
	Inverted string
	// Items holds the named secondary items of multi-item kinds.
	Items map[string]string
}

// isInverted is true only for the literal "true"; any other value is false.
func (c Config) isInverted() bool {
	return c.Inverted == "true"
}

func (c Config) requireItem() (string, error) {
	if c.Item == "" {
		return "", &ConfigError{Field: "item", Reason: "required item not defined"}
	}
	return c.Item, nil
}

func (c Config) requireSecondary(key string) (string, error) {
	item := c.Items[key]
	if item == "" {
		return "", &ConfigError{Field: "items." + key, Reason: "required item not defined"}
	}
	return item, nil
}

// Info describes an accessory to the host.
type Info struct {
	Name         string `json:"name"`
	Kind         Kind   `json:"kind"`
	SerialNumber string `json:"serial_number"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Firmware     string `json:"firmware"`
}

// Accessory is one constructed adapter with its fixed characteristic set.
type Accessory interface {
	Info() Info
	Characteristics() []*Characteristic
	Characteristic(name string) (*Characteristic, error)
}

// base holds what every adapter shares: identity, the registry and the
// registered characteristics.
type base struct {
	info     Info
	registry ItemRegistry
	sink     EventSink
	logger   Logger
	chars    []*Characteristic
}

func newBase(deps Deps, cfg Config, model string) base {
	return base{
		info: Info{
			Name:         cfg.Name,
			Kind:         cfg.Kind,
			SerialNumber: SerialNumber(cfg.Name),
			Manufacturer: deps.Manufacturer,
			Model:        model,
			Firmware:     deps.Firmware,
		},
		registry: deps.Registry,
		sink:     deps.Sink,
		logger:   deps.logger(),
	}
}

// Info returns the accessory description.
func (b *base) Info() Info {
	return b.info
}

// Characteristics returns the registered characteristics in registration order.
func (b *base) Characteristics() []*Characteristic {
	out := make([]*Characteristic, len(b.chars))
	copy(out, b.chars)
	return out
}

// Characteristic looks up a characteristic by name.
func (b *base) Characteristic(name string) (*Characteristic, error) {
	for _, c := range b.chars {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q on %q", ErrCharacteristicNotFound, name, b.info.Name)
}

// register attaches characteristics. It must only be called once construction
// has fully succeeded.
func (b *base) register(chars ...*Characteristic) {
	for _, c := range chars {
		c.owner = b
		b.chars = append(b.chars, c)
	}
}

func (b *base) emit(ctx context.Context, c *Characteristic, op Op, value any) {
	if b.sink == nil {
		return
	}
	b.sink.HandleEvent(ctx, Event{
		Serial:         b.info.SerialNumber,
		Accessory:      b.info.Name,
		Kind:           b.info.Kind,
		Characteristic: c.Name,
		Op:             op,
		Value:          value,
		Source:         SourceFrom(ctx),
		At:             time.Now().UTC(),
	})
}

// readState fetches the raw state of item.
func (b *base) readState(ctx context.Context, item string) (string, error) {
	raw, err := b.registry.GetState(ctx, item)
	if err != nil {
		return "", err
	}
	b.logger.Debug("item state read", "accessory", b.info.Name, "item", item, "state", raw)
	return raw, nil
}

// writeState sends raw to item.
func (b *base) writeState(ctx context.Context, item, raw string) error {
	b.logger.Debug("item state write", "accessory", b.info.Name, "item", item, "state", raw)
	return b.registry.SetState(ctx, item, raw)
}

func (b *base) readOnOff(ctx context.Context, item string) (bool, error) {
	raw, err := b.readState(ctx, item)
	if err != nil {
		return false, err
	}
	return parseOnOff(raw)
}

func (b *base) writeOnOff(ctx context.Context, item string, on bool) error {
	return b.writeState(ctx, item, formatOnOff(on))
}

func (b *base) readPercent(ctx context.Context, item string) (int, error) {
	raw, err := b.readState(ctx, item)
	if err != nil {
		return 0, err
	}
	return parsePercent(raw)
}

func (b *base) readNumber(ctx context.Context, item string) (float64, error) {
	raw, err := b.readState(ctx, item)
	if err != nil {
		return 0, err
	}
	return parseNumber(raw)
}

func (b *base) writeNumber(ctx context.Context, item string, v float64) error {
	return b.writeState(ctx, item, formatNumber(v))
}
