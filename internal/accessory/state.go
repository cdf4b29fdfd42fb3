package accessory

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Registry tokens.
const (
	StateOn     = "ON"
	StateOff    = "OFF"
	CommandStop = "STOP"
)

// parseOnOff reads a switch-like state. Dimmer ("42") and colour ("h,s,b")
// states count as on when their brightness is above zero.
func parseOnOff(raw string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case StateOn:
		return true, nil
	case StateOff:
		return false, nil
	}
	level, err := parsePercent(raw)
	if err != nil {
		return false, err
	}
	return level > 0, nil
}

func formatOnOff(on bool) string {
	if on {
		return StateOn
	}
	return StateOff
}

// parseNumber reads a decimal state, ignoring a trailing unit ("21.5 °C").
func parseNumber(raw string) (float64, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: empty state", ErrInvalidState)
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidState, raw)
	}
	return v, nil
}

// parsePercent reads a 0-100 state. Colour states use their brightness component.
func parsePercent(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if parts := strings.Split(s, ","); len(parts) == 3 {
		s = parts[2]
	}
	v, err := parseNumber(s)
	if err != nil {
		return 0, err
	}
	return int(math.Round(v)), nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func asBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return false, fmt.Errorf("%w: %q", ErrInvalidValue, v)
		}
		return f != 0, nil
	default:
		return false, fmt.Errorf("%w: %v (%T) is not a bool", ErrInvalidValue, value, value)
	}
}

func asInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: %g is not an integer", ErrInvalidValue, v)
		}
		return int(v), nil
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, v)
		}
		return int(i), nil
	default:
		return 0, fmt.Errorf("%w: %v (%T) is not an integer", ErrInvalidValue, value, value)
	}
}

func asFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %v (%T) is not a number", ErrInvalidValue, value, value)
	}
}
