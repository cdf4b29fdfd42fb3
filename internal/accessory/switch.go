package accessory

import (
	"context"
	"math"
	"strconv"
)

// Switch binds a Switch item to a single On characteristic.
type Switch struct {
	base
	item string
}

func newSwitch(ctx context.Context, deps Deps, cfg Config) (Accessory, error) {
	item, err := cfg.requireItem()
	if err != nil {
		return nil, err
	}
	if _, err := validateItem(ctx, deps.Registry, item, ItemSwitch); err != nil {
		return nil, err
	}

	s := &Switch{base: newBase(deps, cfg, "Switch"), item: item}
	s.register(onCharacteristic(&s.base, item))
	return s, nil
}

// Light binds a Switch, Dimmer or Color item. Dimmable items also get
// a Brightness characteristic.
type Light struct {
	base
	item     string
	dimmable bool
}

func newLight(ctx context.Context, deps Deps, cfg Config) (Accessory, error) {
	item, err := cfg.requireItem()
	if err != nil {
		return nil, err
	}
	typ, err := validateItem(ctx, deps.Registry, item, ItemSwitch, ItemDimmer, ItemColor)
	if err != nil {
		return nil, err
	}

	l := &Light{
		base:     newBase(deps, cfg, "Lightbulb"),
		item:     item,
		dimmable: typ == ItemDimmer || typ == ItemColor,
	}
	l.register(onCharacteristic(&l.base, item))
	if l.dimmable {
		l.register(levelCharacteristic(&l.base, item, CharBrightness, FormatInt))
	}
	return l, nil
}

// Fan binds a Switch or Dimmer item. Dimmer items also get a
// RotationSpeed characteristic.
type Fan struct {
	base
	item string
}

func newFan(ctx context.Context, deps Deps, cfg Config) (Accessory, error) {
	item, err := cfg.requireItem()
	if err != nil {
		return nil, err
	}
	typ, err := validateItem(ctx, deps.Registry, item, ItemSwitch, ItemDimmer)
	if err != nil {
		return nil, err
	}

	f := &Fan{base: newBase(deps, cfg, "Fan"), item: item}
	f.register(onCharacteristic(&f.base, item))
	if typ == ItemDimmer {
		f.register(levelCharacteristic(&f.base, item, CharRotationSpeed, FormatFloat))
	}
	return f, nil
}

func onCharacteristic(b *base, item string) *Characteristic {
	return &Characteristic{
		Name:   CharOn,
		Format: FormatBool,
		get:    func(ctx context.Context) (any, error) { return b.readOnOff(ctx, item) },
		set:    func(ctx context.Context, v any) error { return b.writeOnOff(ctx, item, v.(bool)) },
	}
}

// levelCharacteristic exposes a 0-100 item level as an int or float characteristic.
func levelCharacteristic(b *base, item, name string, format Format) *Characteristic {
	return &Characteristic{
		Name:   name,
		Format: format,
		Min:    0,
		Max:    100,
		get: func(ctx context.Context) (any, error) {
			level, err := b.readPercent(ctx, item)
			if err != nil {
				return nil, err
			}
			if format == FormatFloat {
				return float64(level), nil
			}
			return level, nil
		},
		set: func(ctx context.Context, v any) error {
			var level int
			switch n := v.(type) {
			case int:
				level = n
			case float64:
				level = int(math.Round(n))
			}
			return b.writeState(ctx, item, strconv.Itoa(level))
		},
	}
}
