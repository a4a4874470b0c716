package client

import (
	"encoding/json"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	server "neongrid/server"
)

// SceneView is the slice of session state the projectile and voice
// layers read and the channel they emit events through.
type SceneView interface {
	LocalID() string
	LocalPosition() server.Vec3
	MirrorPositions() map[string]server.Vec3
	Send(event string, payload any) error
}

// Handlers receive relay events after the session has applied them to
// its mirrors. All fields are optional. Handlers run on the read loop;
// they must only mutate shared state, never force a render.
type Handlers struct {
	PlayerJoined   func(server.Player)
	PlayerLeft     func(id string)
	Chat           func(server.ChatPayload)
	Jukebox        func(server.JukeboxState)
	AudioTracks    func([]string)
	PeerRegistered func(id, peerID string)
	RemoteThrow    func(server.RemoteThrowPayload)
}

type Config struct {
	URL         string
	PlayerID    string
	Username    string
	AdminKey    string
	Interval    time.Duration
	BlendFactor float64
	Logger      *log.Logger
	Handlers    Handlers
}

// Session is the client network manager: it mirrors every remote
// player, pushes the local position on a fixed cadence, and reconciles
// local authority with remote broadcasts.
type Session struct {
	conn     *websocket.Conn
	logger   *log.Logger
	handlers Handlers
	blend    float64
	interval time.Duration

	mu       sync.Mutex
	localID  string
	localPos server.Vec3
	localRot server.Rotation
	mirrors  map[string]*Mirror

	writeMu   sync.Mutex
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the relay and starts the read and send loops. The
// assigned session ID is taken from the upgrade response header.
func Dial(cfg Config) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 100 * time.Millisecond
	}
	if cfg.BlendFactor <= 0 || cfg.BlendFactor > 1 {
		cfg.BlendFactor = defaultBlendFactor
	}

	endpoint, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, err
	}
	query := endpoint.Query()
	if cfg.PlayerID != "" {
		query.Set("id", cfg.PlayerID)
	}
	if cfg.Username != "" {
		query.Set("name", cfg.Username)
	}
	if cfg.AdminKey != "" {
		query.Set("admin", cfg.AdminKey)
	}
	endpoint.RawQuery = query.Encode()

	conn, resp, err := websocket.DefaultDialer.Dial(endpoint.String(), nil)
	if err != nil {
		return nil, err
	}

	localID := cfg.PlayerID
	if resp != nil {
		if assigned := resp.Header.Get("X-Player-Id"); assigned != "" {
			localID = assigned
		}
	}

	s := &Session{
		conn:     conn,
		logger:   logger,
		handlers: cfg.Handlers,
		blend:    cfg.BlendFactor,
		interval: cfg.Interval,
		localID:  localID,
		mirrors:  make(map[string]*Mirror),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go s.readLoop()
	go s.sendLoop()
	return s, nil
}

// Close tears the session down: the send ticker and read loop are
// cancelled before the connection drops, so a late tick is a no-op.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.conn.Close()
		<-s.done
	})
}

// Done is closed once the read loop has exited, whether by Close or by
// a dropped connection.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) LocalID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localID
}

// SetLocalPosition is driven by local input only. The local avatar is
// never interpolated.
func (s *Session) SetLocalPosition(pos server.Vec3, rot server.Rotation) {
	s.mu.Lock()
	s.localPos = pos
	s.localRot = rot
	s.mu.Unlock()
}

func (s *Session) LocalPosition() server.Vec3 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localPos
}

// Advance steps every mirror one frame toward its network target.
func (s *Session) Advance(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, mirror := range s.mirrors {
		mirror.advance(dt, s.blend)
	}
}

// MirrorPositions snapshots the interpolated remote positions.
func (s *Session) MirrorPositions() map[string]server.Vec3 {
	s.mu.Lock()
	defer s.mu.Unlock()

	positions := make(map[string]server.Vec3, len(s.mirrors))
	for id, mirror := range s.mirrors {
		positions[id] = mirror.Position()
	}
	return positions
}

// Mirror returns a copy of the proxy state for one remote player.
func (s *Session) Mirror(id string) (Mirror, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mirror, ok := s.mirrors[id]
	if !ok {
		return Mirror{}, false
	}
	return *mirror, true
}

// Send marshals one envelope and writes it to the relay.
func (s *Session) Send(event string, payload any) error {
	data, err := json.Marshal(struct {
		Type    string `json:"type"`
		Payload any    `json:"payload,omitempty"`
	}{Type: event, Payload: payload})
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// SendChat publishes a chat line; the sender renders its own message
// locally for instant feedback, so no echo comes back.
func (s *Session) SendChat(message string) error {
	return s.Send(server.EventChatMessage, server.ChatPayload{
		Message:   message,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *Session) RegisterPeerID(peerID string) error {
	return s.Send(server.EventRegisterPeerID, peerID)
}

func (s *Session) JukeboxControl(action string, trackIndex int) error {
	return s.Send(server.EventJukeboxControl, server.JukeboxControlPayload{
		Action:     action,
		TrackIndex: trackIndex,
	})
}

// sendLoop pushes the local position on a fixed cadence regardless of
// whether it changed.
func (s *Session) sendLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			pos, rot := s.localPos, s.localRot
			s.mu.Unlock()
			if err := s.Send(server.EventPlayerMove, server.MovePayload{Position: pos, Rotation: rot}); err != nil {
				return
			}
		}
	}
}

func (s *Session) readLoop() {
	defer close(s.done)

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var env server.Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			s.logger.Printf("discarding malformed frame: %v", err)
			continue
		}
		s.dispatch(env)
	}
}

func (s *Session) dispatch(env server.Envelope) {
	switch env.Type {
	case server.EventPlayers:
		var players map[string]server.Player
		if err := json.Unmarshal(env.Payload, &players); err != nil {
			s.logger.Printf("bad players seed: %v", err)
			return
		}
		s.mu.Lock()
		for id, player := range players {
			if id == s.localID {
				continue
			}
			s.mirrors[id] = newMirror(player)
		}
		s.mu.Unlock()

	case server.EventPlayerJoined:
		var player server.Player
		if err := json.Unmarshal(env.Payload, &player); err != nil {
			return
		}
		s.mu.Lock()
		if player.ID != s.localID {
			s.mirrors[player.ID] = newMirror(player)
		}
		s.mu.Unlock()
		if s.handlers.PlayerJoined != nil {
			s.handlers.PlayerJoined(player)
		}

	case server.EventPlayerMoved:
		var moved server.MovedPayload
		if err := json.Unmarshal(env.Payload, &moved); err != nil {
			return
		}
		s.mu.Lock()
		// Self-authority: a stray echo for the local avatar is ignored.
		if moved.ID != s.localID {
			if mirror, ok := s.mirrors[moved.ID]; ok {
				mirror.setTarget(moved.Position, moved.Rotation)
			}
		}
		s.mu.Unlock()

	case server.EventPlayerLeft:
		var id string
		if err := json.Unmarshal(env.Payload, &id); err != nil {
			return
		}
		s.mu.Lock()
		delete(s.mirrors, id)
		s.mu.Unlock()
		if s.handlers.PlayerLeft != nil {
			s.handlers.PlayerLeft(id)
		}

	case server.EventPeerIDRegistered:
		var registered server.PeerRegisteredPayload
		if err := json.Unmarshal(env.Payload, &registered); err != nil {
			return
		}
		s.mu.Lock()
		if mirror, ok := s.mirrors[registered.ID]; ok {
			mirror.PeerID = registered.PeerID
		}
		s.mu.Unlock()
		if s.handlers.PeerRegistered != nil {
			s.handlers.PeerRegistered(registered.ID, registered.PeerID)
		}

	case server.EventRemoteCubeThrow:
		var throw server.RemoteThrowPayload
		if err := json.Unmarshal(env.Payload, &throw); err != nil {
			return
		}
		if s.handlers.RemoteThrow != nil {
			s.handlers.RemoteThrow(throw)
		}

	case server.EventChatMessage:
		var chat server.ChatPayload
		if err := json.Unmarshal(env.Payload, &chat); err != nil {
			return
		}
		if s.handlers.Chat != nil {
			s.handlers.Chat(chat)
		}

	case server.EventJukeboxUpdate:
		var state server.JukeboxState
		if err := json.Unmarshal(env.Payload, &state); err != nil {
			return
		}
		if s.handlers.Jukebox != nil {
			s.handlers.Jukebox(state)
		}

	case server.EventAudioTracks:
		var tracks []string
		if err := json.Unmarshal(env.Payload, &tracks); err != nil {
			return
		}
		if s.handlers.AudioTracks != nil {
			s.handlers.AudioTracks(tracks)
		}

	default:
		s.logger.Printf("unknown event type %q", env.Type)
	}
}
