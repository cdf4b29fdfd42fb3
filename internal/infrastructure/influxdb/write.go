package influxdb

import (
	"fmt"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementCharacteristic holds one point per characteristic change.
const MeasurementCharacteristic = "characteristic"

// CharacteristicPoint describes one observed or written value.
type CharacteristicPoint struct {
	Serial         string
	Accessory      string
	Kind           string
	Characteristic string
	Op             string // "get" or "set"
	Value          any
	At             time.Time
}

// WriteCharacteristic queues p for the next batch.
//
// Bools are stored as 0/1 so every value lands in one float field.
// It returns ErrWriteFailed for values that are not numeric or bool.
// Delivery errors arrive through the SetOnError callback.
func (c *Client) WriteCharacteristic(p CharacteristicPoint) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	value, err := numericField(p.Value)
	if err != nil {
		c.rejected.Add(1)
		return fmt.Errorf("%w: %s/%s: %w", ErrWriteFailed, p.Serial, p.Characteristic, err)
	}
	at := p.At
	if at.IsZero() {
		at = time.Now()
	}

	point := write.NewPoint(
		MeasurementCharacteristic,
		map[string]string{
			"serial":         p.Serial,
			"accessory":      p.Accessory,
			"kind":           p.Kind,
			"characteristic": p.Characteristic,
			"op":             p.Op,
		},
		map[string]interface{}{"value": value},
		at,
	)
	c.writeAPI.WritePoint(point)
	c.queued.Add(1)
	return nil
}

func numericField(v any) (float64, error) {
	switch n := v.(type) {
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}
