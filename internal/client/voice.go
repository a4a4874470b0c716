package client

import (
	"log"
	"math"
	"sync"

	server "neongrid/server"
)

// Call is an established peer audio connection.
type Call interface {
	SetVolume(volume float64)
	Close() error
}

// PeerTransport abstracts the cloud rendezvous service and the local
// audio capture; the WebRTC mesh itself is an external collaborator.
type PeerTransport interface {
	AcquireCapture() error
	Open() (peerID string, err error)
	Call(peerID string) (Call, error)
	MuteCapture(muted bool)
	Close() error
}

// VoiceBridge layers a peer-to-peer audio mesh on top of the relay's
// presence events and drives distance-based volume falloff.
type VoiceBridge struct {
	view      SceneView
	transport PeerTransport
	logger    *log.Logger
	maxRange  float64

	mu       sync.Mutex
	enabled  bool
	selfPeer string
	peers    map[string]string // player ID -> peer address
	calls    map[string]Call   // player ID -> active call
}

func NewVoiceBridge(view SceneView, transport PeerTransport, maxRange float64, logger *log.Logger) *VoiceBridge {
	if logger == nil {
		logger = log.Default()
	}
	if maxRange <= 0 {
		maxRange = 20.0
	}
	return &VoiceBridge{
		view:      view,
		transport: transport,
		logger:    logger,
		maxRange:  maxRange,
		peers:     make(map[string]string),
		calls:     make(map[string]Call),
	}
}

// Enable acquires capture, opens the signaling connection, registers
// the returned address with the relay, and calls every known peer.
// Any failure degrades to voice-off; nothing propagates to the caller.
func (v *VoiceBridge) Enable() {
	v.mu.Lock()
	if v.enabled {
		v.mu.Unlock()
		return
	}

	if err := v.transport.AcquireCapture(); err != nil {
		v.mu.Unlock()
		v.logger.Printf("voice disabled, capture unavailable: %v", err)
		return
	}
	peerID, err := v.transport.Open()
	if err != nil {
		v.mu.Unlock()
		v.logger.Printf("voice disabled, signaling unavailable: %v", err)
		return
	}
	v.enabled = true
	v.selfPeer = peerID
	v.transport.MuteCapture(false)
	pending := make(map[string]string, len(v.peers))
	for id, addr := range v.peers {
		pending[id] = addr
	}
	v.mu.Unlock()

	if err := v.view.Send(server.EventRegisterPeerID, peerID); err != nil {
		v.logger.Printf("failed to register peer id: %v", err)
	}
	for id, addr := range pending {
		v.call(id, addr)
	}
}

// Disable closes every active call and mutes the capture track. Known
// peer addresses are kept so a re-enable can call them again.
func (v *VoiceBridge) Disable() {
	v.mu.Lock()
	if !v.enabled {
		v.mu.Unlock()
		return
	}
	v.enabled = false
	calls := v.calls
	v.calls = make(map[string]Call)
	v.mu.Unlock()

	for _, call := range calls {
		call.Close()
	}
	v.transport.MuteCapture(true)
}

// Enabled reports whether the voice feature is currently on.
func (v *VoiceBridge) Enabled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.enabled
}

// OnPeerRegistered records a newly announced peer address and, when
// voice is on, initiates the outbound call. Self and already-connected
// peers are skipped.
func (v *VoiceBridge) OnPeerRegistered(playerID, peerID string) {
	if playerID == v.view.LocalID() {
		return
	}

	v.mu.Lock()
	v.peers[playerID] = peerID
	enabled := v.enabled
	_, connected := v.calls[playerID]
	v.mu.Unlock()

	if enabled && !connected {
		v.call(playerID, peerID)
	}
}

// OnPlayerLeft drops the peer address and hangs up any call.
func (v *VoiceBridge) OnPlayerLeft(playerID string) {
	v.mu.Lock()
	delete(v.peers, playerID)
	call, ok := v.calls[playerID]
	delete(v.calls, playerID)
	v.mu.Unlock()

	if ok {
		call.Close()
	}
}

func (v *VoiceBridge) call(playerID, peerID string) {
	call, err := v.transport.Call(peerID)
	if err != nil {
		v.logger.Printf("call to %s failed: %v", playerID, err)
		return
	}

	v.mu.Lock()
	if !v.enabled {
		v.mu.Unlock()
		call.Close()
		return
	}
	if _, exists := v.calls[playerID]; exists {
		v.mu.Unlock()
		call.Close()
		return
	}
	v.calls[playerID] = call
	v.mu.Unlock()
}

// UpdateVolumes applies linear falloff from 1.0 at distance zero to
// 0.0 at max range, clamped outside, for every active call.
func (v *VoiceBridge) UpdateVolumes() {
	v.mu.Lock()
	if !v.enabled {
		v.mu.Unlock()
		return
	}
	calls := make(map[string]Call, len(v.calls))
	for id, call := range v.calls {
		calls[id] = call
	}
	v.mu.Unlock()

	localPos := v.view.LocalPosition()
	mirrors := v.view.MirrorPositions()

	for id, call := range calls {
		pos, ok := mirrors[id]
		if !ok {
			continue
		}
		call.SetVolume(v.volumeAt(localPos, pos))
	}
}

func (v *VoiceBridge) volumeAt(a, b server.Vec3) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
	volume := 1.0 - dist/v.maxRange
	if volume < 0 {
		return 0
	}
	if volume > 1 {
		return 1
	}
	return volume
}
