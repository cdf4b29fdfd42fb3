package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/ohbridge/internal/accessory"
	"github.com/nerrad567/ohbridge/internal/infrastructure/config"
)

// Frame types exchanged on /api/v1/ws.
const (
	MsgSubscribe   = "subscribe"
	MsgUnsubscribe = "unsubscribe"
	MsgGet         = "get"
	MsgPing        = "ping"
	MsgPong        = "pong"
	MsgEvent       = "event"
	MsgResult      = "result"
	MsgError       = "error"
)

const (
	wsSendBuffer   = 256
	wsReadTimeout  = 10 * time.Second
	defaultWSPing  = 30 * time.Second
	defaultWSPong  = 10 * time.Second
	wsUpgradeBytes = 1024
)

// Frame is one WebSocket message in either direction.
type Frame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Channel string          `json:"channel,omitempty"`
	At      string          `json:"at,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Subscription is the payload of subscribe and unsubscribe frames.
// An empty Serials list matches every accessory.
type Subscription struct {
	Channels []string `json:"channels"`
	Serials  []string `json:"serials,omitempty"`
}

// GetRequest is the payload of a get frame.
type GetRequest struct {
	Serial         string `json:"serial"`
	Characteristic string `json:"characteristic"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  wsUpgradeBytes,
	WriteBufferSize: wsUpgradeBytes,
	// Origins are checked by the CORS middleware.
	CheckOrigin: func(*http.Request) bool { return true },
}

type wsClient struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	accessories *accessory.Index

	sendMu sync.Mutex
	closed bool

	mu       sync.RWMutex
	channels map[string]struct{}
	serials  map[string]struct{}
}

// handleWebSocket upgrades the request. Query parameters:
//   - token: bearer JWT, required when a secret is configured
//   - subscribe: channel to join on connect (repeatable)
//   - serial: restrict events to an accessory (repeatable)
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if secret := s.secCfg.JWT.Secret; secret != "" {
		if _, err := ValidateToken(secret, q.Get("token")); err != nil {
			writeUnauthorized(w, "invalid or missing token")
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &wsClient{
		hub:         s.Hub(),
		conn:        conn,
		send:        make(chan []byte, wsSendBuffer),
		accessories: s.accessories,
		channels:    make(map[string]struct{}),
		serials:     make(map[string]struct{}),
	}
	c.subscribe(Subscription{Channels: q["subscribe"], Serials: q["serial"]})
	c.hub.register(c)

	go c.writeLoop(s.wsCfg)
	go c.readLoop(s.wsCfg)
}

func (c *wsClient) readLoop(cfg config.WebSocketConfig) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	ping, pong := wsTimings(cfg)
	deadline := func() {
		c.conn.SetReadDeadline(time.Now().Add(ping + pong)) //nolint:errcheck // read error surfaces below
	}
	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	deadline()
	c.conn.SetPongHandler(func(string) error {
		deadline()
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		// Browsers do not always answer protocol pings; any frame counts.
		deadline()
		c.dispatch(data)
	}
}

func (c *wsClient) writeLoop(cfg config.WebSocketConfig) {
	ping, pong := wsTimings(cfg)
	ticker := time.NewTicker(ping)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(pong)) //nolint:errcheck // write error surfaces below
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil) //nolint:errcheck // closing anyway
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(pong)) //nolint:errcheck // write error surfaces below
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// wsTimings falls back to 30s ping and 10s pong for unset values.
func wsTimings(cfg config.WebSocketConfig) (ping, pong time.Duration) {
	ping = time.Duration(cfg.PingInterval) * time.Second
	if ping <= 0 {
		ping = defaultWSPing
	}
	pong = time.Duration(cfg.PongTimeout) * time.Second
	if pong <= 0 {
		pong = defaultWSPong
	}
	return ping, pong
}

func (c *wsClient) dispatch(data []byte) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		c.reply(MsgError, "", errorBody("invalid JSON frame"))
		return
	}

	switch f.Type {
	case MsgSubscribe, MsgUnsubscribe:
		var sub Subscription
		if err := json.Unmarshal(f.Payload, &sub); err != nil {
			c.reply(MsgError, f.ID, errorBody("invalid subscription payload"))
			return
		}
		if f.Type == MsgSubscribe {
			c.subscribe(sub)
		} else {
			c.unsubscribe(sub)
		}
		c.reply(MsgResult, f.ID, c.snapshot())
	case MsgGet:
		c.handleGet(f)
	case MsgPing:
		c.reply(MsgPong, f.ID, nil)
	default:
		c.reply(MsgError, f.ID, errorBody("unknown frame type: "+f.Type))
	}
}

// handleGet reads one characteristic live, like the REST endpoint.
func (c *wsClient) handleGet(f Frame) {
	var req GetRequest
	if err := json.Unmarshal(f.Payload, &req); err != nil {
		c.reply(MsgError, f.ID, errorBody("invalid get payload"))
		return
	}
	ch, err := c.accessories.Characteristic(req.Serial, req.Characteristic)
	if err != nil {
		c.reply(MsgError, f.ID, errorBody(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), wsReadTimeout)
	defer cancel()
	v, err := ch.Get(accessory.WithSource(ctx, accessory.SourceAPI))
	if err != nil {
		c.reply(MsgError, f.ID, errorBody(err.Error()))
		return
	}
	c.reply(MsgResult, f.ID, CharacteristicValue{Serial: req.Serial, Characteristic: req.Characteristic, Value: v})
}

func (c *wsClient) subscribe(sub Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range sub.Channels {
		c.channels[ch] = struct{}{}
	}
	for _, s := range sub.Serials {
		c.serials[s] = struct{}{}
	}
}

// unsubscribe drops the listed channels and serials. Dropping the last
// serial filter widens the subscription back to every accessory.
func (c *wsClient) unsubscribe(sub Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range sub.Channels {
		delete(c.channels, ch)
	}
	for _, s := range sub.Serials {
		delete(c.serials, s)
	}
}

func (c *wsClient) snapshot() Subscription {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := Subscription{Channels: make([]string, 0, len(c.channels))}
	for ch := range c.channels {
		out.Channels = append(out.Channels, ch)
	}
	for s := range c.serials {
		out.Serials = append(out.Serials, s)
	}
	return out
}

func (c *wsClient) wants(channel, serial string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.channels[channel]; !ok {
		return false
	}
	if len(c.serials) == 0 || serial == "" {
		return true
	}
	_, ok := c.serials[serial]
	return ok
}

// trySend drops data when the client is slow or already gone.
func (c *wsClient) trySend(data []byte) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// closeSend closes the send channel once; later calls and sends are no-ops.
func (c *wsClient) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *wsClient) reply(typ, id string, payload any) {
	data, err := encodeFrame(typ, id, "", payload)
	if err != nil {
		c.hub.logger.Error("encoding websocket reply", "type", typ, "error", err)
		return
	}
	c.trySend(data)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"message": msg}
}
