package server

import (
	"math"
	"math/rand"
)

// Vec3 is a world-space position.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Rotation carries the only axis clients rotate around.
type Rotation struct {
	Y float64 `json:"y"`
}

const (
	RolePlayer = "player"
	RoleAdmin  = "admin"
)

// Player is the authoritative record for one connected participant.
// Position and rotation are always present after creation; PeerID is
// empty until the client registers a voice address.
type Player struct {
	ID       string   `json:"id"`
	Position Vec3     `json:"position"`
	Rotation Rotation `json:"rotation"`
	Color    string   `json:"color"`
	PeerID   string   `json:"peerId,omitempty"`
	Username string   `json:"username,omitempty"`
	Role     string   `json:"role"`
	IsBot    bool     `json:"isBot,omitempty"`
	Name     string   `json:"name,omitempty"`
}

// neonPalette is the fixed set of avatar colors picked at creation.
var neonPalette = []string{
	"#ff00ff",
	"#00ffff",
	"#39ff14",
	"#ff3131",
	"#ffe744",
	"#bc13fe",
	"#04d9ff",
}

// randomSpawn picks a uniformly distributed point inside the spawn disc
// around the origin.
func randomSpawn(radius float64) Vec3 {
	if radius <= 0 {
		radius = defaultSpawnRadius
	}
	angle := rand.Float64() * 2 * math.Pi
	dist := math.Sqrt(rand.Float64()) * radius
	return Vec3{X: math.Cos(angle) * dist, Y: 0.5, Z: math.Sin(angle) * dist}
}

func randomColor() string {
	return neonPalette[rand.Intn(len(neonPalette))]
}
