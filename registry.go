package server

import "sync"

// PlayerRegistry owns the authoritative map of connected player IDs to
// transient state. The entire registry is lost on process restart.
type PlayerRegistry struct {
	mu          sync.Mutex
	players     map[string]*Player
	spawnRadius float64
}

func NewPlayerRegistry(spawnRadius float64) *PlayerRegistry {
	if spawnRadius <= 0 {
		spawnRadius = defaultSpawnRadius
	}
	return &PlayerRegistry{
		players:     make(map[string]*Player),
		spawnRadius: spawnRadius,
	}
}

// Add creates a player with a random spawn position and palette color.
// An existing record under the same ID is replaced.
func (r *PlayerRegistry) Add(id, username, role string) Player {
	if role != RoleAdmin {
		role = RolePlayer
	}
	player := &Player{
		ID:       id,
		Position: randomSpawn(r.spawnRadius),
		Color:    randomColor(),
		Username: username,
		Role:     role,
	}

	r.mu.Lock()
	r.players[id] = player
	r.mu.Unlock()
	return *player
}

// AddBot registers the synthetic participant under the given ID.
func (r *PlayerRegistry) AddBot(id, name string) Player {
	player := &Player{
		ID:       id,
		Position: randomSpawn(r.spawnRadius),
		Color:    randomColor(),
		Role:     RolePlayer,
		IsBot:    true,
		Name:     name,
	}

	r.mu.Lock()
	r.players[id] = player
	r.mu.Unlock()
	return *player
}

// Remove deletes the record and reports whether it existed.
func (r *PlayerRegistry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[id]; !ok {
		return false
	}
	delete(r.players, id)
	return true
}

// UpdatePosition stores the latest position and rotation. Last write
// wins; no smoothing happens server-side. No-op for unknown IDs.
func (r *PlayerRegistry) UpdatePosition(id string, pos Vec3, rot Rotation) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	player, ok := r.players[id]
	if !ok {
		return false
	}
	player.Position = pos
	player.Rotation = rot
	return true
}

// SetPeerID records the voice-signaling address for a player.
func (r *PlayerRegistry) SetPeerID(id, peerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	player, ok := r.players[id]
	if !ok {
		return false
	}
	player.PeerID = peerID
	return true
}

// Get returns a copy of the record.
func (r *PlayerRegistry) Get(id string) (Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	player, ok := r.players[id]
	if !ok {
		return Player{}, false
	}
	return *player, true
}

// Snapshot copies the full player set for seeding a new session.
func (r *PlayerRegistry) Snapshot() map[string]Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make(map[string]Player, len(r.players))
	for id, player := range r.players {
		snapshot[id] = *player
	}
	return snapshot
}

func (r *PlayerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}
