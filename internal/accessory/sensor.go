package accessory

import "context"

// Sensor binds a read-only Number item to one float characteristic.
type Sensor struct {
	base
	item string
}

func newTemperatureSensor(ctx context.Context, deps Deps, cfg Config) (Accessory, error) {
	return newSensor(ctx, deps, cfg, "Temperature Sensor", CharCurrentTemperature, -270, 100)
}

func newHumiditySensor(ctx context.Context, deps Deps, cfg Config) (Accessory, error) {
	return newSensor(ctx, deps, cfg, "Humidity Sensor", CharCurrentRelativeHumidity, 0, 100)
}

func newSensor(ctx context.Context, deps Deps, cfg Config, model, char string, lo, hi float64) (Accessory, error) {
	item, err := cfg.requireItem()
	if err != nil {
		return nil, err
	}
	if _, err := validateItem(ctx, deps.Registry, item, ItemNumber); err != nil {
		return nil, err
	}

	s := &Sensor{base: newBase(deps, cfg, model), item: item}
	s.register(&Characteristic{
		Name:   char,
		Format: FormatFloat,
		Min:    lo,
		Max:    hi,
		get:    func(ctx context.Context) (any, error) { return s.readNumber(ctx, item) },
	})
	return s, nil
}
