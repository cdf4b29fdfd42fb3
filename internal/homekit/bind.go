package homekit

import (
	"context"
	"errors"
	"hash/fnv"
	"net/http"
	"time"

	hapaccessory "github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"

	"github.com/nerrad567/ohbridge/internal/accessory"
)

const requestTimeout = 10 * time.Second

// Bound is one accessory published over HAP.
type Bound struct {
	A      *hapaccessory.A
	Serial string
	chars  map[string]*characteristic.C
}

// HAPCharacteristic returns the HAP characteristic bound to name.
func (b *Bound) HAPCharacteristic(name string) (*characteristic.C, bool) {
	c, ok := b.chars[name]
	return c, ok
}

// Bind builds the HAP accessory for acc and wires every characteristic to
// the adapter.
func Bind(acc accessory.Accessory, logger Logger) (*Bound, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	info := acc.Info()
	svc, category, err := newService(info.Kind)
	if err != nil {
		return nil, err
	}

	a := hapaccessory.New(hapaccessory.Info{
		Name:         info.Name,
		SerialNumber: info.SerialNumber,
		Manufacturer: info.Manufacturer,
		Model:        info.Model,
		Firmware:     info.Firmware,
	}, category)
	a.Id = accessoryID(info.SerialNumber)

	b := &Bound{A: a, Serial: info.SerialNumber, chars: make(map[string]*characteristic.C)}
	for _, ch := range acc.Characteristics() {
		hc, err := findOrAdd(svc, ch.Name)
		if err != nil {
			return nil, err
		}
		bindCharacteristic(hc, ch, info.Name, logger)
		seed(hc, ch, info.Name, logger)
		b.chars[ch.Name] = hc
	}
	a.AddS(svc)
	return b, nil
}

func bindCharacteristic(hc *characteristic.C, ch *accessory.Characteristic, name string, logger Logger) {
	if ch.Format == accessory.FormatFloat && ch.Max > ch.Min {
		hc.MinVal, hc.MaxVal = ch.Min, ch.Max
	}

	hc.ValueRequestFunc = func(req *http.Request) (interface{}, int) {
		if !ch.Readable() {
			return nil, statusWriteOnly
		}
		ctx, cancel := requestContext(req)
		defer cancel()
		v, err := ch.Get(ctx)
		if err != nil {
			logger.Warn("homekit read failed", "accessory", name, "characteristic", ch.Name, "error", err)
			return nil, statusCommunicationFailure
		}
		refresh(hc, v)
		return v, statusSuccess
	}

	hc.SetValueRequestFunc = func(v interface{}, req *http.Request) (interface{}, int) {
		// A nil request is a local update pushed by Notify, not a controller write.
		if req == nil {
			return v, statusSuccess
		}
		ctx, cancel := requestContext(req)
		defer cancel()
		if err := ch.Set(ctx, v); err != nil {
			logger.Warn("homekit write failed", "accessory", name, "characteristic", ch.Name, "value", v, "error", err)
			return nil, setStatus(err)
		}
		return nil, statusSuccess
	}
}

// seed loads the adapter's current value into hc so hap's cached value
// starts out matching the item.
func seed(hc *characteristic.C, ch *accessory.Characteristic, name string, logger Logger) {
	if !ch.Readable() {
		return
	}
	ctx, cancel := requestContext(nil)
	defer cancel()
	v, err := ch.Get(ctx)
	if err != nil {
		logger.Warn("homekit initial read failed", "accessory", name, "characteristic", ch.Name, "error", err)
		return
	}
	refresh(hc, v)
}

// refresh stores v as the cached value of hc. Subscribed controllers are
// notified only when the value changed.
func refresh(hc *characteristic.C, v any) int {
	if hc.Value() == v {
		return statusSuccess
	}
	_, status := hc.SetValueRequest(v, nil)
	return status
}

func setStatus(err error) int {
	switch {
	case errors.Is(err, accessory.ErrNotWritable):
		return statusReadOnly
	case errors.Is(err, accessory.ErrInvalidValue), errors.Is(err, accessory.ErrOutOfRange):
		return statusInvalidValue
	default:
		return statusCommunicationFailure
	}
}

func requestContext(req *http.Request) (context.Context, context.CancelFunc) {
	parent := context.Background()
	if req != nil {
		parent = req.Context()
	}
	ctx, cancel := context.WithTimeout(parent, requestTimeout)
	return accessory.WithSource(ctx, accessory.SourceHomeKit), cancel
}

// accessoryID derives a stable HAP accessory id from the serial number so
// reordering the configuration does not break pairings. Id 1 is the bridge.
func accessoryID(serial string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(serial))
	id := h.Sum64() >> 1
	if id <= 1 {
		id += 2
	}
	return id
}
