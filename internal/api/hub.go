package api

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/ohbridge/internal/accessory"
	"github.com/nerrad567/ohbridge/internal/infrastructure/config"
	"github.com/nerrad567/ohbridge/internal/infrastructure/logging"
)

// Hub tracks WebSocket clients and fans broadcasts out to the ones whose
// subscription matches.
//
// Thread Safety: all methods are safe for concurrent use.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

// NewHub creates a hub. Run must be started for shutdown to disconnect clients.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.closeSend()
		c.conn.Close()
		delete(h.clients, c)
	}
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", n)
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	c.closeSend()
	h.logger.Debug("websocket client disconnected", "clients", n)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends payload on channel. When payload is an accessory.Event,
// clients that filtered on serial numbers only receive their accessories.
func (h *Hub) Broadcast(channel string, payload any) {
	serial := ""
	if ev, ok := payload.(accessory.Event); ok {
		serial = ev.Serial
	}

	data, err := encodeFrame(MsgEvent, "", channel, payload)
	if err != nil {
		h.logger.Error("encoding websocket event", "channel", channel, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		if c.wants(channel, serial) {
			c.trySend(data)
			sent++
		}
	}
	if sent > 0 {
		h.logger.Debug("websocket event sent", "channel", channel, "serial", serial, "recipients", sent)
	}
}

// encodeFrame marshals one outbound frame.
func encodeFrame(typ, id, channel string, payload any) ([]byte, error) {
	f := Frame{
		Type:    typ,
		ID:      id,
		Channel: channel,
		At:      time.Now().UTC().Format(time.RFC3339Nano),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		f.Payload = raw
	}
	return json.Marshal(f)
}
