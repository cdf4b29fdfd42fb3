package accessory

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Secondary item keys of a thermostat entry.
const (
	ThermostatCurrentTemperature = "currentTemperature"
	ThermostatTargetTemperature  = "targetTemperature"
	ThermostatHeating            = "heating"
	ThermostatCooling            = "cooling"
)

// HeatingCoolingMode values match the HomeKit heating/cooling state characteristics.
type HeatingCoolingMode int

const (
	ModeOff  HeatingCoolingMode = 0
	ModeHeat HeatingCoolingMode = 1
	ModeCool HeatingCoolingMode = 2
	ModeAuto HeatingCoolingMode = 3
)

// displayCelsius is the TemperatureDisplayUnits value for Celsius.
const displayCelsius = 0

// Thermostat binds a current and a target temperature item, plus optional
// heating and cooling switches.
//
// The target mode is held locally like a window covering's target
// position: seeded from the switches at construction and replaced by every
// accepted write.
//
// Thread Safety: all methods are safe for concurrent use.
type Thermostat struct {
	base
	currentItem string
	targetItem  string
	heatingItem string // optional
	coolingItem string // optional

	mu         sync.Mutex
	targetMode HeatingCoolingMode
}

func newThermostat(ctx context.Context, deps Deps, cfg Config) (Accessory, error) {
	currentItem, err := cfg.requireSecondary(ThermostatCurrentTemperature)
	if err != nil {
		return nil, err
	}
	targetItem, err := cfg.requireSecondary(ThermostatTargetTemperature)
	if err != nil {
		return nil, err
	}
	heatingItem := cfg.Items[ThermostatHeating]
	coolingItem := cfg.Items[ThermostatCooling]

	for _, item := range []string{currentItem, targetItem} {
		if _, err := validateItem(ctx, deps.Registry, item, ItemNumber); err != nil {
			return nil, err
		}
	}
	for _, item := range []string{heatingItem, coolingItem} {
		if item == "" {
			continue
		}
		if _, err := validateItem(ctx, deps.Registry, item, ItemSwitch); err != nil {
			return nil, err
		}
	}

	t := &Thermostat{
		base:        newBase(deps, cfg, "Thermostat"),
		currentItem: currentItem,
		targetItem:  targetItem,
		heatingItem: heatingItem,
		coolingItem: coolingItem,
	}

	mode, err := t.CurrentMode(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading initial heating/cooling state: %w", err)
	}
	t.targetMode = mode

	t.register(
		&Characteristic{
			Name: CharCurrentTemperature, Format: FormatFloat, Min: -270, Max: 100,
			get: func(ctx context.Context) (any, error) { return t.readNumber(ctx, t.currentItem) },
		},
		&Characteristic{
			Name: CharTargetTemperature, Format: FormatFloat, Min: 10, Max: 38,
			get: func(ctx context.Context) (any, error) { return t.readNumber(ctx, t.targetItem) },
			set: func(ctx context.Context, v any) error { return t.writeNumber(ctx, t.targetItem, v.(float64)) },
		},
		&Characteristic{
			Name: CharCurrentHeatingCoolingState, Format: FormatInt, Min: 0, Max: 2,
			get: func(ctx context.Context) (any, error) {
				m, err := t.CurrentMode(ctx)
				return int(m), err
			},
		},
		&Characteristic{
			Name: CharTargetHeatingCoolingState, Format: FormatInt, Min: 0, Max: 3,
			get: func(context.Context) (any, error) { return int(t.TargetMode()), nil },
			set: func(ctx context.Context, v any) error { return t.SetTargetMode(ctx, HeatingCoolingMode(v.(int))) },
		},
		&Characteristic{
			Name: CharTemperatureDisplayUnits, Format: FormatInt, Min: 0, Max: 1,
			get: func(context.Context) (any, error) { return displayCelsius, nil },
		},
	)
	return t, nil
}

// CurrentMode reads the heating and cooling switches. Heating wins when
// both are on; without either switch the mode is always off.
func (t *Thermostat) CurrentMode(ctx context.Context) (HeatingCoolingMode, error) {
	if t.heatingItem != "" {
		on, err := t.readOnOff(ctx, t.heatingItem)
		if err != nil {
			return ModeOff, err
		}
		if on {
			return ModeHeat, nil
		}
	}
	if t.coolingItem != "" {
		on, err := t.readOnOff(ctx, t.coolingItem)
		if err != nil {
			return ModeOff, err
		}
		if on {
			return ModeCool, nil
		}
	}
	return ModeOff, nil
}

// TargetMode returns the last commanded mode.
func (t *Thermostat) TargetMode() HeatingCoolingMode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.targetMode
}

// SetTargetMode caches mode, then drives the configured switches. Auto
// leaves the switches to the registry's own rules. An unknown mode is
// rejected before anything is cached.
func (t *Thermostat) SetTargetMode(ctx context.Context, mode HeatingCoolingMode) error {
	var heat, cool bool
	switch mode {
	case ModeOff, ModeAuto:
	case ModeHeat:
		heat = true
	case ModeCool:
		cool = true
	default:
		return fmt.Errorf("%w: heating/cooling mode %d", ErrInvalidValue, mode)
	}

	t.mu.Lock()
	t.targetMode = mode
	t.mu.Unlock()

	if mode == ModeAuto {
		return nil
	}
	var errs []error
	if t.heatingItem != "" {
		errs = append(errs, t.writeOnOff(ctx, t.heatingItem, heat))
	}
	if t.coolingItem != "" {
		errs = append(errs, t.writeOnOff(ctx, t.coolingItem, cool))
	}
	return errors.Join(errs...)
}
