package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/ohbridge/internal/accessory"
	"github.com/nerrad567/ohbridge/internal/audit"
	"github.com/nerrad567/ohbridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/ohbridge/internal/infrastructure/mqtt"
)

// StatePublisher is satisfied by *mqtt.Client.
type StatePublisher interface {
	PublishRetained(topic string, payload []byte) error
}

// StateSink mirrors every value onto its retained MQTT state topic.
type StateSink struct {
	pub StatePublisher
}

// NewStateSink returns nil when pub is nil, so optional clients can be
// passed straight to NewDispatcher.
func NewStateSink(pub StatePublisher) Sink {
	if pub == nil {
		return nil
	}
	return &StateSink{pub: pub}
}

func (s *StateSink) Name() string { return "mqtt" }

// StatePayload is the JSON body published on state topics.
type StatePayload struct {
	Value  any    `json:"value"`
	Op     string `json:"op"`
	Source string `json:"source"`
	At     string `json:"at"`
}

func (s *StateSink) Handle(_ context.Context, ev accessory.Event) error {
	payload, err := json.Marshal(StatePayload{
		Value:  ev.Value,
		Op:     string(ev.Op),
		Source: ev.Source,
		At:     ev.At.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	return s.pub.PublishRetained(mqtt.Topics{}.CharacteristicState(ev.Serial, ev.Characteristic), payload)
}

// PointWriter is satisfied by *influxdb.Client.
type PointWriter interface {
	WriteCharacteristic(p influxdb.CharacteristicPoint) error
}

// HistorySink records every value as a time-series point.
type HistorySink struct {
	w PointWriter
}

// NewHistorySink returns nil when w is nil.
func NewHistorySink(w PointWriter) Sink {
	if w == nil {
		return nil
	}
	return &HistorySink{w: w}
}

func (s *HistorySink) Name() string { return "influxdb" }

func (s *HistorySink) Handle(_ context.Context, ev accessory.Event) error {
	return s.w.WriteCharacteristic(influxdb.CharacteristicPoint{
		Serial:         ev.Serial,
		Accessory:      ev.Accessory,
		Kind:           string(ev.Kind),
		Characteristic: ev.Characteristic,
		Op:             string(ev.Op),
		Value:          ev.Value,
		At:             ev.At,
	})
}

// AuditSink stores characteristic writes. Reads are not audited.
type AuditSink struct {
	repo audit.Repository
}

// NewAuditSink returns nil when repo is nil.
func NewAuditSink(repo audit.Repository) Sink {
	if repo == nil {
		return nil
	}
	return &AuditSink{repo: repo}
}

func (s *AuditSink) Name() string { return "audit" }

func (s *AuditSink) Handle(ctx context.Context, ev accessory.Event) error {
	if ev.Op != accessory.OpSet {
		return nil
	}
	return s.repo.Create(ctx, &audit.AuditLog{
		Action:         audit.ActionCharacteristicSet,
		Accessory:      ev.Accessory,
		Serial:         ev.Serial,
		Characteristic: ev.Characteristic,
		Value:          ev.Value,
		Source:         ev.Source,
		Details:        map[string]any{"kind": string(ev.Kind)},
		CreatedAt:      ev.At,
	})
}

// ChannelCharacteristicChanged is the broadcast channel for every event.
const ChannelCharacteristicChanged = "characteristic.changed"

// Broadcaster is satisfied by the API's WebSocket hub.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// BroadcastSink forwards events to WebSocket subscribers.
type BroadcastSink struct {
	b Broadcaster
}

// NewBroadcastSink returns nil when b is nil.
func NewBroadcastSink(b Broadcaster) Sink {
	if b == nil {
		return nil
	}
	return &BroadcastSink{b: b}
}

func (s *BroadcastSink) Name() string { return "websocket" }

func (s *BroadcastSink) Handle(_ context.Context, ev accessory.Event) error {
	s.b.Broadcast(ChannelCharacteristicChanged, ev)
	return nil
}
