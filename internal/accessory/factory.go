package accessory

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// Kind names an accessory type in the bridge configuration.
type Kind string

// Registered accessory kinds.
const (
	KindSwitch         Kind = "switch"
	KindLight          Kind = "light"
	KindFan            Kind = "fan"
	KindTemperature    Kind = "temp"
	KindHumidity       Kind = "humidity"
	KindThermostat     Kind = "thermostat"
	KindWindowCovering Kind = "windowcovering"
)

// Constructor builds one accessory. It either returns a fully registered
// accessory or an error; it never returns a partial one.
type Constructor func(ctx context.Context, deps Deps, cfg Config) (Accessory, error)

var constructors = map[Kind]Constructor{
	KindSwitch:         newSwitch,
	KindLight:          newLight,
	KindFan:            newFan,
	KindTemperature:    newTemperatureSensor,
	KindHumidity:       newHumiditySensor,
	KindThermostat:     newThermostat,
	KindWindowCovering: newWindowCovering,
}

// Kinds returns the registered kinds in sorted order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(constructors))
	for k := range constructors {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Create builds the accessory described by cfg.
//
// Every failure, including a panicking constructor, is returned as a
// *ConstructionError.
func Create(ctx context.Context, deps Deps, cfg Config) (acc Accessory, err error) {
	fail := func(cause error) error {
		return &ConstructionError{Name: cfg.Name, Kind: cfg.Kind, Err: cause}
	}

	if cfg.Name == "" {
		return nil, fail(&ConfigError{Field: "name", Reason: "accessory name not defined"})
	}
	ctor, ok := constructors[cfg.Kind]
	if !ok {
		return nil, fail(fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind))
	}
	if deps.Registry == nil {
		return nil, fail(errors.New("accessory: no item registry"))
	}

	defer func() {
		if r := recover(); r != nil {
			acc = nil
			err = fail(fmt.Errorf("%w: %v", ErrPanic, r))
		}
	}()

	acc, err = ctor(ctx, deps, cfg)
	if err != nil {
		return nil, fail(err)
	}
	return acc, nil
}

// CreateAll builds every entry in cfgs. A failing entry is logged, reported
// in errs and skipped; it never prevents the remaining entries from being
// built. Entries whose serial number collides with an earlier accessory
// are rejected.
func CreateAll(ctx context.Context, deps Deps, cfgs []Config) (accs []Accessory, errs []error) {
	log := deps.logger()
	seen := make(map[string]string, len(cfgs))

	for _, cfg := range cfgs {
		acc, err := Create(ctx, deps, cfg)
		if err != nil {
			log.Error("accessory not created", "name", cfg.Name, "kind", cfg.Kind, "error", err)
			errs = append(errs, err)
			continue
		}

		serial := acc.Info().SerialNumber
		if prev, dup := seen[serial]; dup {
			err := &ConstructionError{
				Name: cfg.Name,
				Kind: cfg.Kind,
				Err:  &ConfigError{Field: "name", Reason: fmt.Sprintf("duplicate of accessory %q", prev)},
			}
			log.Error("accessory not created", "name", cfg.Name, "kind", cfg.Kind, "error", err)
			errs = append(errs, err)
			continue
		}
		seen[serial] = cfg.Name

		log.Info("accessory created", "name", cfg.Name, "kind", cfg.Kind, "serial", serial)
		accs = append(accs, acc)
	}
	return accs, errs
}
