package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/99minutos/live-tracking/internal/api/metrics"
	"github.com/99minutos/live-tracking/internal/core/domain"
	"github.com/99minutos/live-tracking/internal/core/ports"
)

const (
	defaultPongTimeout = 60 * time.Second
	defaultSendBuffer  = 64
	maxFrameSize       = 4096
)

// HubConfig tunes peer connections.
type HubConfig struct {
	WriteTimeout time.Duration
	PongTimeout  time.Duration
	SendBuffer   int
}

// LocationSink receives every relayed location event for recording.
// Enqueue must not block; it reports false when the event was not accepted.
type LocationSink interface {
	Enqueue(in ports.RelayedLocation) bool
}

// Hub relays realtime events between the peers of a delivery room. Senders
// do not get their own events back.
type Hub struct {
	cfg      HubConfig
	sink     LocationSink
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	peers map[string]*peer
	rooms map[string]map[string]*peer
}

func NewHub(cfg HubConfig, sink LocationSink, log zerolog.Logger) *Hub {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = defaultPongTimeout
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = defaultSendBuffer
	}
	return &Hub{
		cfg:  cfg,
		sink: sink,
		log:  log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		peers: make(map[string]*peer),
		rooms: make(map[string]map[string]*peer),
	}
}

// Serve upgrades the request and runs the peer until the connection ends.
// The identity must already be authenticated.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, id domain.Identity) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	p := &peer{
		id:       uuid.NewString(),
		identity: id,
		conn:     conn,
		send:     make(chan []byte, h.cfg.SendBuffer),
		rooms:    make(map[string]struct{}),
	}
	h.register(p)

	h.log.Info().Str("peer_id", p.id).Str("user_id", id.UserID).Str("role", string(id.Role)).Msg("peer connected")

	go h.writePump(p)
	h.readPump(p)
	return nil
}

// BroadcastStatus pushes a status change to every member of the delivery room.
func (h *Hub) BroadcastStatus(ev domain.StatusEvent) {
	frame, err := encode(EventStatusUpdate, ev)
	if err != nil {
		h.log.Error().Err(err).Msg("encode status broadcast")
		return
	}
	h.relay(ev.DeliveryID, "", EventStatusUpdate, frame)
}

// Close disconnects every peer.
func (h *Hub) Close() {
	h.mu.RLock()
	peers := make([]*peer, 0, len(h.peers))
	for _, p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.RUnlock()

	for _, p := range peers {
		h.unregister(p)
	}
}

// PeerCount returns the number of connected peers.
func (h *Hub) PeerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// RoomSize returns the number of peers that joined the delivery room.
func (h *Hub) RoomSize(deliveryID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[deliveryID])
}

func (h *Hub) register(p *peer) {
	h.mu.Lock()
	h.peers[p.id] = p
	h.mu.Unlock()
	metrics.HubPeers.Inc()
}

// unregister removes p from the hub and its rooms and stops its write pump.
// It is safe to call more than once.
func (h *Hub) unregister(p *peer) {
	h.mu.Lock()
	if _, ok := h.peers[p.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.peers, p.id)
	for room := range p.rooms {
		h.leaveLocked(p, room)
	}
	close(p.send)
	rooms := len(h.rooms)
	h.mu.Unlock()

	metrics.HubPeers.Dec()
	metrics.HubRooms.Set(float64(rooms))
	h.log.Info().Str("peer_id", p.id).Str("user_id", p.identity.UserID).Msg("peer disconnected")
}

func (h *Hub) join(p *peer, deliveryID string) {
	h.mu.Lock()
	if _, ok := h.peers[p.id]; !ok {
		h.mu.Unlock()
		return
	}
	members, ok := h.rooms[deliveryID]
	if !ok {
		members = make(map[string]*peer)
		h.rooms[deliveryID] = members
	}
	members[p.id] = p
	p.rooms[deliveryID] = struct{}{}
	rooms := len(h.rooms)
	h.mu.Unlock()

	metrics.HubRooms.Set(float64(rooms))
	h.log.Debug().Str("peer_id", p.id).Str("delivery_id", deliveryID).Msg("joined room")
}

func (h *Hub) leave(p *peer, deliveryID string) {
	h.mu.Lock()
	h.leaveLocked(p, deliveryID)
	rooms := len(h.rooms)
	h.mu.Unlock()

	metrics.HubRooms.Set(float64(rooms))
}

func (h *Hub) leaveLocked(p *peer, deliveryID string) {
	delete(p.rooms, deliveryID)
	members, ok := h.rooms[deliveryID]
	if !ok {
		return
	}
	delete(members, p.id)
	if len(members) == 0 {
		delete(h.rooms, deliveryID)
	}
}

// relay sends frame to the members of a room except senderID. Peers whose
// send buffer is full are disconnected.
func (h *Hub) relay(deliveryID, senderID, event string, frame []byte) {
	var slow []*peer

	h.mu.RLock()
	for id, p := range h.rooms[deliveryID] {
		if id == senderID {
			continue
		}
		select {
		case p.send <- frame:
		default:
			slow = append(slow, p)
		}
	}
	h.mu.RUnlock()

	metrics.HubEventsRelayedTotal.WithLabelValues(event).Inc()
	for _, p := range slow {
		metrics.HubEventsRejectedTotal.WithLabelValues("slow_consumer").Inc()
		h.log.Warn().Str("peer_id", p.id).Str("delivery_id", deliveryID).Msg("slow consumer dropped")
		h.unregister(p)
	}
}

func (h *Hub) handleFrame(p *peer, frame []byte) {
	msg, err := decode(frame)
	if err != nil {
		h.reject(p, "malformed", "frame is not a valid event envelope")
		return
	}

	switch msg.Event {
	case EventJoinTracking, EventLeaveTracking:
		var req RoomRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil || req.DeliveryID == "" {
			h.reject(p, "malformed", "deliveryId is required")
			return
		}
		if msg.Event == EventJoinTracking {
			h.join(p, req.DeliveryID)
		} else {
			h.leave(p, req.DeliveryID)
		}

	case EventLocationUpdate:
		var ev domain.LocationEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil || ev.DeliveryID == "" || !ev.Location.Valid() {
			h.reject(p, "invalid_location", "location update needs deliveryId and valid coordinates")
			return
		}
		if ev.Timestamp.IsZero() {
			ev.Timestamp = time.Now().UTC()
		}
		out, err := encode(EventLocationUpdate, ev)
		if err != nil {
			h.log.Error().Err(err).Msg("encode location relay")
			return
		}
		h.relay(ev.DeliveryID, p.id, EventLocationUpdate, out)
		if h.sink != nil && !h.sink.Enqueue(ports.RelayedLocation{Event: ev, SenderID: p.identity.UserID}) {
			metrics.HubEventsRejectedTotal.WithLabelValues("queue_full").Inc()
			h.log.Warn().Str("delivery_id", ev.DeliveryID).Msg("recording queue full, location not recorded")
		}

	case EventStatusUpdate:
		if !canPublishStatus(p.identity.Role) {
			h.reject(p, "forbidden", "only vendors and delivery partners may publish status updates")
			return
		}
		var ev domain.StatusEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil || ev.DeliveryID == "" || !ev.Status.Valid() {
			h.reject(p, "invalid_status", "status update needs deliveryId and a known status")
			return
		}
		if ev.Timestamp.IsZero() {
			ev.Timestamp = time.Now().UTC()
		}
		out, err := encode(EventStatusUpdate, ev)
		if err != nil {
			h.log.Error().Err(err).Msg("encode status relay")
			return
		}
		h.relay(ev.DeliveryID, p.id, EventStatusUpdate, out)

	default:
		h.reject(p, "unknown_event", "unknown event "+msg.Event)
	}
}

// canPublishStatus reports whether role may push status changes to a room.
// Customers only observe.
func canPublishStatus(role domain.Role) bool {
	return role == domain.RoleVendor || role == domain.RoleDelivery
}

func (h *Hub) reject(p *peer, code, message string) {
	metrics.HubEventsRejectedTotal.WithLabelValues(code).Inc()
	h.log.Debug().Str("peer_id", p.id).Str("code", code).Msg("frame rejected")

	frame, err := encode(EventError, ErrorMessage{Code: code, Message: message})
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.peers[p.id]; !ok {
		return
	}
	select {
	case p.send <- frame:
	default:
	}
}
