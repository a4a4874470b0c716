package server

import "encoding/json"

// Event names shared by the relay and its clients.
const (
	EventPlayers          = "players"
	EventPlayerJoined     = "playerJoined"
	EventPlayerMove       = "playerMove"
	EventPlayerMoved      = "playerMoved"
	EventPlayerLeft       = "playerLeft"
	EventRegisterPeerID   = "registerPeerId"
	EventPeerIDRegistered = "playerPeerIdRegistered"
	EventThrowCube        = "throwCube"
	EventRemoteCubeThrow  = "remoteCubeThrow"
	EventChatMessage      = "chatMessage"
	EventJukeboxControl   = "jukeboxControl"
	EventJukeboxUpdate    = "jukeboxUpdate"
	EventAudioTracks      = "audioTracks"
)

// Envelope wraps every inbound websocket frame. The payload stays raw
// until the event type is known.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type serverEnvelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// MovePayload is the client's intention for its own avatar.
type MovePayload struct {
	Position Vec3     `json:"position"`
	Rotation Rotation `json:"rotation"`
}

// MovedPayload is the rebroadcast of a move to every other session.
type MovedPayload struct {
	ID       string   `json:"id"`
	Position Vec3     `json:"position"`
	Rotation Rotation `json:"rotation"`
}

type PeerRegisteredPayload struct {
	ID     string `json:"id"`
	PeerID string `json:"peerId"`
}

type ThrowPayload struct {
	TargetID  string `json:"targetId,omitempty"`
	Position  Vec3   `json:"position"`
	Direction Vec3   `json:"direction"`
}

// RemoteThrowPayload is a throw stamped with its origin before fan-out.
type RemoteThrowPayload struct {
	TargetID  string `json:"targetId,omitempty"`
	Position  Vec3   `json:"position"`
	Direction Vec3   `json:"direction"`
	SourceID  string `json:"sourceId"`
}

type ChatPayload struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
	SenderID  string `json:"senderId,omitempty"`
	IsBot     bool   `json:"isBot,omitempty"`
	Name      string `json:"name,omitempty"`
}

type JukeboxControlPayload struct {
	Action     string `json:"action"`
	TrackIndex int    `json:"trackIndex"`
}

// decodePeerID accepts both the bare-string form and the object form of
// a peer registration payload.
func decodePeerID(raw json.RawMessage) (string, bool) {
	var peerID string
	if err := json.Unmarshal(raw, &peerID); err == nil && peerID != "" {
		return peerID, true
	}
	var wrapped struct {
		PeerID string `json:"peerId"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.PeerID != "" {
		return wrapped.PeerID, true
	}
	return "", false
}
