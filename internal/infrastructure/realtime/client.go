package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/99minutos/live-tracking/internal/api/metrics"
	"github.com/99minutos/live-tracking/internal/core/domain"
)

const defaultWriteTimeout = 10 * time.Second

// State is the connection state of a Client.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	}
	return "disconnected"
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// URL of the hub endpoint, e.g. ws://localhost:8080/ws.
	URL          string
	Token        string
	WriteTimeout time.Duration
	Dialer       *websocket.Dialer
}

// Client is one user's connection to the hub. It never reconnects on its
// own: after a drop it is disconnected, its rooms are gone and the
// OnDisconnect handlers decide what to do.
type Client struct {
	cfg ClientConfig
	log zerolog.Logger
	now func() time.Time

	mu         sync.Mutex
	state      State
	conn       *websocket.Conn
	cancelDial context.CancelFunc
	attempt    uint64
	rooms      map[string]struct{}

	writeMu sync.Mutex

	handlersMu   sync.RWMutex
	onLocation   []func(domain.LocationEvent)
	onStatus     []func(domain.StatusEvent)
	onConnect    []func()
	onDisconnect []func(error)
	onError      []func(error)
}

func NewClient(cfg ClientConfig, log zerolog.Logger) *Client {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	return &Client{
		cfg:   cfg,
		log:   log,
		now:   time.Now,
		rooms: make(map[string]struct{}),
	}
}

// Connect starts dialing the hub in the background and returns immediately.
// It is a no-op while connecting or connected. The outcome is reported to
// the OnConnect or OnError handlers.
func (c *Client) Connect(ctx context.Context, userID string, role domain.Role) error {
	if userID == "" || !role.Valid() {
		return fmt.Errorf("connect: invalid identity %q/%q", userID, role)
	}

	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	dialCtx, cancel := context.WithCancel(ctx)
	c.state = StateConnecting
	c.cancelDial = cancel
	c.attempt++
	attempt := c.attempt
	c.mu.Unlock()

	go c.dial(dialCtx, cancel, attempt, domain.Identity{UserID: userID, Role: role})
	return nil
}

func (c *Client) dial(ctx context.Context, cancel context.CancelFunc, attempt uint64, id domain.Identity) {
	defer cancel()

	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		c.dialFailed(attempt, &domain.TransportError{Op: "connect", Err: err})
		return
	}
	q := u.Query()
	q.Set("user_id", id.UserID)
	q.Set("role", string(id.Role))
	u.RawQuery = q.Encode()

	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	conn, resp, err := c.cfg.Dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		te := &domain.TransportError{Op: "connect", Err: err}
		if resp != nil {
			te.Status = resp.StatusCode
		}
		c.dialFailed(attempt, te)
		return
	}

	c.mu.Lock()
	if c.state != StateConnecting || c.attempt != attempt {
		// Disconnect was called while dialing
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.state = StateConnected
	c.conn = conn
	c.cancelDial = nil
	c.mu.Unlock()

	c.log.Info().Str("user_id", id.UserID).Str("role", string(id.Role)).Msg("realtime connected")
	go c.readLoop(conn)

	for _, h := range c.connectHandlers() {
		h()
	}
}

func (c *Client) dialFailed(attempt uint64, err error) {
	c.mu.Lock()
	if c.state != StateConnecting || c.attempt != attempt {
		c.mu.Unlock()
		return
	}
	c.state = StateDisconnected
	c.cancelDial = nil
	c.mu.Unlock()

	c.log.Warn().Err(err).Msg("realtime connect failed")
	c.reportError(err)
}

// Disconnect closes the connection and forgets every joined room. It is safe
// to call in any state.
func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	cancel := c.cancelDial
	was := c.state
	c.state = StateDisconnected
	c.conn = nil
	c.cancelDial = nil
	c.attempt++
	c.rooms = make(map[string]struct{})
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn == nil {
		return
	}

	c.writeMu.Lock()
	_ = conn.SetWriteDeadline(c.now().Add(c.cfg.WriteTimeout))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	_ = conn.Close()

	if was == StateConnected {
		c.log.Info().Msg("realtime disconnected")
		for _, h := range c.disconnectHandlers() {
			h(nil)
		}
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Rooms returns the delivery ids joined on the current connection.
func (c *Client) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.rooms))
	for id := range c.rooms {
		out = append(out, id)
	}
	return out
}

// JoinRoom subscribes to events of a delivery. Ignored while not connected.
func (c *Client) JoinRoom(deliveryID string) {
	c.roomRequest(EventJoinTracking, deliveryID)
}

// LeaveRoom unsubscribes from events of a delivery. Ignored while not connected.
func (c *Client) LeaveRoom(deliveryID string) {
	c.roomRequest(EventLeaveTracking, deliveryID)
}

func (c *Client) roomRequest(event, deliveryID string) {
	c.mu.Lock()
	conn := c.conn
	if conn == nil || deliveryID == "" {
		c.mu.Unlock()
		return
	}
	if event == EventJoinTracking {
		c.rooms[deliveryID] = struct{}{}
	} else {
		delete(c.rooms, deliveryID)
	}
	c.mu.Unlock()

	if err := c.send(conn, event, RoomRequest{DeliveryID: deliveryID}); err != nil {
		c.log.Warn().Err(err).Str("delivery_id", deliveryID).Str("event", event).Msg("room request failed")
	}
}

// PublishLocation sends a location update stamped with the current time.
// While not connected the update is dropped and nil is returned.
func (c *Client) PublishLocation(deliveryID string, location domain.Coordinates) error {
	return c.publish(EventLocationUpdate, deliveryID, domain.LocationEvent{
		DeliveryID: deliveryID,
		Location:   location,
		Timestamp:  c.now().UTC(),
	})
}

// PublishStatus sends a status update stamped with the current time.
// While not connected the update is dropped and nil is returned.
func (c *Client) PublishStatus(deliveryID string, status domain.OrderStatus) error {
	return c.publish(EventStatusUpdate, deliveryID, domain.StatusEvent{
		DeliveryID: deliveryID,
		Status:     status,
		Timestamp:  c.now().UTC(),
	})
}

func (c *Client) publish(event, deliveryID string, data any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		metrics.ClientPublishDroppedTotal.WithLabelValues(event).Inc()
		c.log.Debug().Str("event", event).Str("delivery_id", deliveryID).Msg("not connected, event dropped")
		return nil
	}
	return c.send(conn, event, data)
}

func (c *Client) send(conn *websocket.Conn, event string, data any) error {
	frame, err := encode(event, data)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(c.now().Add(c.cfg.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return &domain.TransportError{Op: "publish " + event, Err: err}
	}
	return nil
}

// OnLocationReceived registers a handler for location updates of joined rooms.
func (c *Client) OnLocationReceived(handler func(domain.LocationEvent)) {
	c.handlersMu.Lock()
	c.onLocation = append(c.onLocation, handler)
	c.handlersMu.Unlock()
}

// OnStatusReceived registers a handler for status updates of joined rooms.
func (c *Client) OnStatusReceived(handler func(domain.StatusEvent)) {
	c.handlersMu.Lock()
	c.onStatus = append(c.onStatus, handler)
	c.handlersMu.Unlock()
}

// OnConnect registers a handler called each time a connection is established.
func (c *Client) OnConnect(handler func()) {
	c.handlersMu.Lock()
	c.onConnect = append(c.onConnect, handler)
	c.handlersMu.Unlock()
}

// OnDisconnect registers a handler called when an established connection
// ends. err is nil after Disconnect and a *domain.TransportError after a drop.
func (c *Client) OnDisconnect(handler func(err error)) {
	c.handlersMu.Lock()
	c.onDisconnect = append(c.onDisconnect, handler)
	c.handlersMu.Unlock()
}

// OnError registers a handler for failed connection attempts and hub
// rejections.
func (c *Client) OnError(handler func(err error)) {
	c.handlersMu.Lock()
	c.onError = append(c.onError, handler)
	c.handlersMu.Unlock()
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			c.dropped(conn, err)
			return
		}

		msg, err := decode(frame)
		if err != nil {
			c.log.Warn().Err(err).Msg("malformed frame ignored")
			continue
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg Message) {
	switch msg.Event {
	case EventLocationUpdate:
		var ev domain.LocationEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			c.log.Warn().Err(err).Str("event", msg.Event).Msg("malformed payload ignored")
			return
		}
		c.handlersMu.RLock()
		handlers := slices.Clone(c.onLocation)
		c.handlersMu.RUnlock()
		for _, h := range handlers {
			h(ev)
		}
	case EventStatusUpdate:
		var ev domain.StatusEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			c.log.Warn().Err(err).Str("event", msg.Event).Msg("malformed payload ignored")
			return
		}
		c.handlersMu.RLock()
		handlers := slices.Clone(c.onStatus)
		c.handlersMu.RUnlock()
		for _, h := range handlers {
			h(ev)
		}
	case EventError:
		var em ErrorMessage
		_ = json.Unmarshal(msg.Data, &em)
		c.log.Warn().Str("code", em.Code).Str("message", em.Message).Msg("hub rejected a frame")
		c.reportError(&domain.TransportError{Op: "hub " + em.Code, Err: errors.New(em.Message)})
	default:
		c.log.Debug().Str("event", msg.Event).Msg("unknown event ignored")
	}
}

// dropped handles the end of the read loop. It does nothing if Disconnect
// already released conn.
func (c *Client) dropped(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = StateDisconnected
	c.rooms = make(map[string]struct{})
	c.mu.Unlock()

	_ = conn.Close()
	c.log.Warn().Err(err).Msg("realtime connection lost")

	te := &domain.TransportError{Op: "read", Err: err}
	for _, h := range c.disconnectHandlers() {
		h(te)
	}
}

func (c *Client) reportError(err error) {
	c.handlersMu.RLock()
	handlers := slices.Clone(c.onError)
	c.handlersMu.RUnlock()
	for _, h := range handlers {
		h(err)
	}
}

func (c *Client) connectHandlers() []func() {
	c.handlersMu.RLock()
	defer c.handlersMu.RUnlock()
	return slices.Clone(c.onConnect)
}

func (c *Client) disconnectHandlers() []func(error) {
	c.handlersMu.RLock()
	defer c.handlersMu.RUnlock()
	return slices.Clone(c.onDisconnect)
}
