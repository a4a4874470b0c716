package lobby

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Player is one lobby entry. It lives in exactly one of the two sets —
// waiting or in-game — never both, never neither once joined.
type Player struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	JoinedAt      time.Time  `json:"joinedAt"`
	GameStartedAt *time.Time `json:"gameStartedAt,omitempty"`
}

// Stats is the JSON shape served by the lobby stats endpoint.
type Stats struct {
	WaitingList  []Player `json:"playersInLobby"`
	InGameList   []Player `json:"playersInGame"`
	WaitingCount int      `json:"lobbyCount"`
	InGameCount  int      `json:"gameCount"`
}

// Registry tracks who is waiting versus who is in-game, independent of
// the live socket registry.
type Registry struct {
	mu      sync.Mutex
	waiting map[string]Player
	inGame  map[string]Player
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		waiting: make(map[string]Player),
		inGame:  make(map[string]Player),
		now:     time.Now,
	}
}

// Join always succeeds and assigns a fresh ID.
func (r *Registry) Join(username string) Player {
	player := Player{
		ID:       uuid.NewString(),
		Username: username,
		JoinedAt: r.now(),
	}

	r.mu.Lock()
	r.waiting[player.ID] = player
	r.mu.Unlock()
	return player
}

// Leave removes the player from whichever set contains it. A player
// found in-game is demoted first so leave always succeeds when the
// player exists anywhere.
func (r *Registry) Leave(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.waiting[id]; ok {
		delete(r.waiting, id)
		return true
	}
	if _, ok := r.inGame[id]; ok {
		r.demoteLocked(id)
		delete(r.waiting, id)
		return true
	}
	return false
}

// PromoteToGame atomically moves a waiting player into the in-game set
// and stamps gameStartedAt. Unknown or already-promoted IDs fail.
func (r *Registry) PromoteToGame(id string) (Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	player, ok := r.waiting[id]
	if !ok {
		return Player{}, false
	}
	delete(r.waiting, id)
	started := r.now()
	player.GameStartedAt = &started
	r.inGame[id] = player
	return player, true
}

// DemoteToLobby moves an in-game player back to waiting and clears
// gameStartedAt.
func (r *Registry) DemoteToLobby(id string) (Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.inGame[id]; !ok {
		return Player{}, false
	}
	return r.demoteLocked(id), true
}

func (r *Registry) demoteLocked(id string) Player {
	player := r.inGame[id]
	delete(r.inGame, id)
	player.GameStartedAt = nil
	r.waiting[id] = player
	return player
}

// Stats snapshots both sets, ordered by join time for a stable listing.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Stats{
		WaitingList:  sortedByJoin(r.waiting),
		InGameList:   sortedByJoin(r.inGame),
		WaitingCount: len(r.waiting),
		InGameCount:  len(r.inGame),
	}
}

func sortedByJoin(set map[string]Player) []Player {
	players := make([]Player, 0, len(set))
	for _, player := range set {
		players = append(players, player)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].JoinedAt.Equal(players[j].JoinedAt) {
			return players[i].ID < players[j].ID
		}
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})
	return players
}
