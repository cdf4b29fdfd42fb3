package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/ohbridge/internal/accessory"
	"github.com/nerrad567/ohbridge/internal/infrastructure/mqtt"
)

const defaultCommandTimeout = 10 * time.Second

// Resolver looks up a characteristic by accessory serial and name.
// *accessory.Index satisfies it.
type Resolver interface {
	Characteristic(serial, name string) (*accessory.Characteristic, error)
}

// CommandHandler applies writes received on ohbridge/set/{serial}/{characteristic}.
//
// The payload is either a bare JSON value (true, 42, 21.5) or an object
// {"value": ...}. Each write runs under its own timeout.
type CommandHandler struct {
	resolver Resolver
	timeout  time.Duration
	logger   Logger
}

// NewCommandHandler creates a handler. A nil logger discards output.
func NewCommandHandler(resolver Resolver, logger Logger) *CommandHandler {
	if logger == nil {
		logger = noopLogger{}
	}
	return &CommandHandler{resolver: resolver, timeout: defaultCommandTimeout, logger: logger}
}

// Topic is the subscription filter for all command topics.
func (h *CommandHandler) Topic() string {
	return mqtt.Topics{}.AllCharacteristicSets()
}

// HandleMessage matches mqtt.MessageHandler.
func (h *CommandHandler) HandleMessage(topic string, payload []byte) error {
	serial, name, ok := mqtt.Topics{}.ParseCharacteristicSet(topic)
	if !ok {
		return fmt.Errorf("unrecognised command topic %q", topic)
	}
	value, err := decodeCommandValue(payload)
	if err != nil {
		return fmt.Errorf("command %s: %w", topic, err)
	}

	c, err := h.resolver.Characteristic(serial, name)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	ctx = accessory.WithSource(ctx, accessory.SourceMQTT)

	if err := c.Set(ctx, value); err != nil {
		return fmt.Errorf("setting %s on %s: %w", name, serial, err)
	}
	h.logger.Debug("mqtt command applied", "serial", serial, "characteristic", name, "value", value)
	return nil
}

// decodeCommandValue keeps numbers as json.Number so characteristic
// coercion decides between int and float.
func decodeCommandValue(payload []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimSpace(payload)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %w", accessory.ErrInvalidValue, err)
	}
	if obj, ok := v.(map[string]any); ok {
		inner, found := obj["value"]
		if !found {
			return nil, fmt.Errorf("%w: object payload without \"value\"", accessory.ErrInvalidValue)
		}
		return inner, nil
	}
	return v, nil
}
