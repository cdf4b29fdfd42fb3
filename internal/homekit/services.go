package homekit

import (
	"fmt"

	hapaccessory "github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"

	"github.com/nerrad567/ohbridge/internal/accessory"
)

// newService returns the primary HAP service and accessory category for kind.
func newService(kind accessory.Kind) (*service.S, byte, error) {
	switch kind {
	case accessory.KindSwitch:
		return service.NewSwitch().S, hapaccessory.TypeSwitch, nil
	case accessory.KindLight:
		return service.NewLightbulb().S, hapaccessory.TypeLightbulb, nil
	case accessory.KindFan:
		return service.NewFan().S, hapaccessory.TypeFan, nil
	case accessory.KindTemperature:
		return service.NewTemperatureSensor().S, hapaccessory.TypeSensor, nil
	case accessory.KindHumidity:
		return service.NewHumiditySensor().S, hapaccessory.TypeSensor, nil
	case accessory.KindThermostat:
		return service.NewThermostat().S, hapaccessory.TypeThermostat, nil
	case accessory.KindWindowCovering:
		return service.NewWindowCovering().S, hapaccessory.TypeWindowCovering, nil
	default:
		return nil, 0, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
}

// hapTypes maps characteristic names to HAP characteristic types.
var hapTypes = map[string]string{
	accessory.CharOn:                         characteristic.TypeOn,
	accessory.CharBrightness:                 characteristic.TypeBrightness,
	accessory.CharRotationSpeed:              characteristic.TypeRotationSpeed,
	accessory.CharCurrentTemperature:         characteristic.TypeCurrentTemperature,
	accessory.CharTargetTemperature:          characteristic.TypeTargetTemperature,
	accessory.CharCurrentRelativeHumidity:    characteristic.TypeCurrentRelativeHumidity,
	accessory.CharCurrentHeatingCoolingState: characteristic.TypeCurrentHeatingCoolingState,
	accessory.CharTargetHeatingCoolingState:  characteristic.TypeTargetHeatingCoolingState,
	accessory.CharTemperatureDisplayUnits:    characteristic.TypeTemperatureDisplayUnits,
	accessory.CharCurrentPosition:            characteristic.TypeCurrentPosition,
	accessory.CharTargetPosition:             characteristic.TypeTargetPosition,
	accessory.CharPositionState:              characteristic.TypePositionState,
	accessory.CharHoldPosition:               characteristic.TypeHoldPosition,
}

// optionalChars builds characteristics that are not part of a service's
// required set and are added only when the adapter exposes them.
var optionalChars = map[string]func() *characteristic.C{
	accessory.CharBrightness:    func() *characteristic.C { return characteristic.NewBrightness().C },
	accessory.CharRotationSpeed: func() *characteristic.C { return characteristic.NewRotationSpeed().C },
	accessory.CharHoldPosition:  func() *characteristic.C { return characteristic.NewHoldPosition().C },
}

// findOrAdd returns the characteristic of s for name, adding an optional
// one when the service lacks it.
func findOrAdd(s *service.S, name string) (*characteristic.C, error) {
	typ, ok := hapTypes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnmappedCharacteristic, name)
	}
	for i, c := range s.Cs {
		if c.Type == typ {
			if c.IsWritable() {
				c = forwardRepeats(c)
				s.Cs[i] = c
			}
			return c, nil
		}
	}
	build, ok := optionalChars[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q not in service %s", ErrUnmappedCharacteristic, name, s.Type)
	}
	c := build()
	if c.IsWritable() {
		c = forwardRepeats(c)
	}
	s.AddC(c)
	return c, nil
}

// forwardRepeats returns a copy of c whose controller writes reach
// SetValueRequestFunc even when they repeat the cached value. hap only
// enables that on HoldPosition, so the copy is built from one.
func forwardRepeats(c *characteristic.C) *characteristic.C {
	r := characteristic.NewHoldPosition().C
	r.Type = c.Type
	r.Format = c.Format
	r.Permissions = c.Permissions
	r.Description = c.Description
	r.Unit = c.Unit
	r.MaxLen = c.MaxLen
	r.MinVal, r.MaxVal, r.StepVal = c.MinVal, c.MaxVal, c.StepVal
	r.ValidVals, r.ValidRange = c.ValidVals, c.ValidRange
	r.Val = c.Val
	return r
}
