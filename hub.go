package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NewSessionID mints a session-scoped player ID.
func NewSessionID() string { return uuid.NewString() }

// sessionConn is the subset of a websocket connection the hub writes to.
type sessionConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// textMessage mirrors websocket.TextMessage without importing the
// transport package here.
const textMessage = 1

type subscriber struct {
	conn sessionConn
	mu   sync.Mutex
}

func (s *subscriber) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(textMessage, data)
}

// Hub routes relay events between connected sessions and owns the
// authoritative player and jukebox state. Delivery is fire-and-forget:
// at-most-once, no acknowledgment, continuously corrected by the next
// move event.
type Hub struct {
	cfg       Config
	registry  *PlayerRegistry
	jukebox   *Jukebox
	logger    *log.Logger
	telemetry *telemetryCounters

	mu          sync.Mutex
	subscribers map[string]*subscriber
}

func NewHub(cfg Config, jukebox *Jukebox, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	if jukebox == nil {
		jukebox = NewJukebox(nil)
	}
	cfg = cfg.Normalized()
	return &Hub{
		cfg:         cfg,
		registry:    NewPlayerRegistry(cfg.SpawnRadius),
		jukebox:     jukebox,
		logger:      logger,
		telemetry:   newTelemetryCounters(),
		subscribers: make(map[string]*subscriber),
	}
}

// Registry exposes the authoritative player store. Only hub handlers
// and the presence bot mutate it.
func (h *Hub) Registry() *PlayerRegistry { return h.registry }

// Config returns the normalized settings the hub was built with.
func (h *Hub) Config() Config { return h.cfg }

// PlayerCount reports live registry size, bot included.
func (h *Hub) PlayerCount() int { return h.registry.Len() }

// TelemetrySnapshot exposes broadcast counters for the status endpoint.
func (h *Hub) TelemetrySnapshot() TelemetrySnapshot { return h.telemetry.Snapshot() }

// Connect registers a new session: creates the player, seeds the
// connection with the full world state plus the jukebox, and announces
// the join to everyone else. An empty id gets a fresh one assigned.
func (h *Hub) Connect(conn sessionConn, id, username, role string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	player := h.registry.Add(id, username, role)

	sub := &subscriber{conn: conn}
	h.mu.Lock()
	if existing, ok := h.subscribers[id]; ok {
		existing.conn.Close()
	}
	h.subscribers[id] = sub
	h.mu.Unlock()

	// The roster seed lists everyone else; the joining player learns its
	// own state from the assigned id.
	roster := h.registry.Snapshot()
	delete(roster, id)
	if err := h.sendTo(sub, EventPlayers, roster); err != nil {
		h.DisconnectConn(id, conn)
		return "", err
	}
	if err := h.sendTo(sub, EventAudioTracks, h.jukebox.Tracks()); err != nil {
		h.DisconnectConn(id, conn)
		return "", err
	}
	if err := h.sendTo(sub, EventJukeboxUpdate, h.jukebox.State()); err != nil {
		h.DisconnectConn(id, conn)
		return "", err
	}

	h.broadcastExcept(id, EventPlayerJoined, player)
	return id, nil
}

// Disconnect removes the player unconditionally and tells every
// remaining session.
func (h *Hub) Disconnect(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()

	if ok {
		sub.conn.Close()
	}
	if h.registry.Remove(id) {
		h.broadcastAll(EventPlayerLeft, id)
	}
}

// DisconnectConn removes the session only while conn is still its
// active connection. Connect replaces the subscriber in place on a
// duplicate session ID, and the stale connection's read loop must not
// tear down the replacement.
func (h *Hub) DisconnectConn(id string, conn sessionConn) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if !ok || sub.conn != conn {
		h.mu.Unlock()
		return
	}
	delete(h.subscribers, id)
	h.mu.Unlock()

	sub.conn.Close()
	if h.registry.Remove(id) {
		h.broadcastAll(EventPlayerLeft, id)
	}
}

// HandleEvent dispatches one inbound envelope from a session. Malformed
// events and events referencing unknown players are dropped without a
// response; a bad event must never tear the session down.
func (h *Hub) HandleEvent(senderID string, env Envelope) {
	switch env.Type {
	case EventPlayerMove:
		var move MovePayload
		if err := json.Unmarshal(env.Payload, &move); err != nil {
			h.logger.Printf("discarding malformed move from %s: %v", senderID, err)
			return
		}
		if !h.registry.UpdatePosition(senderID, move.Position, move.Rotation) {
			return
		}
		h.broadcastExcept(senderID, EventPlayerMoved, MovedPayload{
			ID:       senderID,
			Position: move.Position,
			Rotation: move.Rotation,
		})

	case EventRegisterPeerID:
		peerID, ok := decodePeerID(env.Payload)
		if !ok {
			h.logger.Printf("discarding malformed peer registration from %s", senderID)
			return
		}
		if !h.registry.SetPeerID(senderID, peerID) {
			return
		}
		// The registrant is included on purpose: the voice mesh needs
		// every peer to learn every registered address.
		h.broadcastAll(EventPeerIDRegistered, PeerRegisteredPayload{ID: senderID, PeerID: peerID})

	case EventThrowCube:
		var throw ThrowPayload
		if err := json.Unmarshal(env.Payload, &throw); err != nil {
			h.logger.Printf("discarding malformed throw from %s: %v", senderID, err)
			return
		}
		if _, ok := h.registry.Get(senderID); !ok {
			return
		}
		h.broadcastExcept(senderID, EventRemoteCubeThrow, RemoteThrowPayload{
			TargetID:  throw.TargetID,
			Position:  throw.Position,
			Direction: throw.Direction,
			SourceID:  senderID,
		})

	case EventChatMessage:
		var chat ChatPayload
		if err := json.Unmarshal(env.Payload, &chat); err != nil {
			h.logger.Printf("discarding malformed chat from %s: %v", senderID, err)
			return
		}
		if _, ok := h.registry.Get(senderID); !ok {
			return
		}
		// Bot markers are server-stamped only; a client cannot claim them.
		chat.SenderID = senderID
		chat.IsBot = false
		chat.Name = ""
		h.broadcastExcept(senderID, EventChatMessage, chat)

	case EventJukeboxControl:
		var control JukeboxControlPayload
		if err := json.Unmarshal(env.Payload, &control); err != nil {
			h.logger.Printf("discarding malformed jukebox control from %s: %v", senderID, err)
			return
		}
		state, ok := h.jukebox.Apply(control.Action, control.TrackIndex)
		if !ok {
			h.logger.Printf("ignoring unknown jukebox action %q from %s", control.Action, senderID)
			return
		}
		h.broadcastAll(EventJukeboxUpdate, state)

	default:
		h.logger.Printf("unknown event type %q from %s", env.Type, senderID)
	}
}

// BroadcastBotMove relays the bot's movement tick exactly like a real
// client move would fan out. The bot holds no session, so every
// subscriber receives it.
func (h *Hub) BroadcastBotMove(id string, pos Vec3, rot Rotation) {
	if !h.registry.UpdatePosition(id, pos, rot) {
		return
	}
	h.broadcastAll(EventPlayerMoved, MovedPayload{ID: id, Position: pos, Rotation: rot})
}

// BroadcastBotChat publishes a bot line on the normal chat channel.
func (h *Hub) BroadcastBotChat(id, name, message string) {
	if message == "" {
		return
	}
	h.broadcastAll(EventChatMessage, ChatPayload{
		Message:   message,
		Timestamp: time.Now().UnixMilli(),
		SenderID:  id,
		IsBot:     true,
		Name:      name,
	})
}

// AnnounceJoin broadcasts a playerJoined for a record created outside
// Connect (the bot).
func (h *Hub) AnnounceJoin(player Player) {
	h.broadcastAll(EventPlayerJoined, player)
}

// AnnounceLeave broadcasts a playerLeft for a record removed outside
// Disconnect (the bot).
func (h *Hub) AnnounceLeave(id string) {
	h.broadcastAll(EventPlayerLeft, id)
}

func (h *Hub) sendTo(sub *subscriber, event string, payload any) error {
	data, err := json.Marshal(serverEnvelope{Type: event, Payload: payload})
	if err != nil {
		return err
	}
	if err := sub.write(data); err != nil {
		return err
	}
	h.telemetry.RecordBroadcast(len(data), 1)
	return nil
}

func (h *Hub) broadcastAll(event string, payload any) {
	h.broadcastExcept("", event, payload)
}

// broadcastExcept marshals once and fans out to every subscriber other
// than skipID. A failed write disconnects that subscriber.
func (h *Hub) broadcastExcept(skipID, event string, payload any) {
	data, err := json.Marshal(serverEnvelope{Type: event, Payload: payload})
	if err != nil {
		h.logger.Printf("failed to marshal %s broadcast: %v", event, err)
		return
	}

	h.mu.Lock()
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		if id == skipID {
			continue
		}
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		if err := sub.write(data); err != nil {
			h.logger.Printf("failed to send %s to %s: %v", event, id, err)
			h.DisconnectConn(id, sub.conn)
		}
	}
	h.telemetry.RecordBroadcast(len(data)*len(subs), len(subs))
}
