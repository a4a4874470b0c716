package client

import (
	"math"

	server "neongrid/server"
)

const (
	defaultBlendFactor = 0.15
	mirrorBobAmplitude = 0.12
	mirrorBobFrequency = 1.8
)

// Mirror is the local proxy for one remote player. It is mutated only
// by inbound relay events and by Advance — never by local prediction.
type Mirror struct {
	ID     string
	Color  string
	PeerID string

	current   server.Vec3
	target    server.Vec3
	rotation  float64
	targetRot float64
	bobPhase  float64
}

func newMirror(p server.Player) *Mirror {
	return &Mirror{
		ID:        p.ID,
		Color:     p.Color,
		PeerID:    p.PeerID,
		current:   p.Position,
		target:    p.Position,
		rotation:  p.Rotation.Y,
		targetRot: p.Rotation.Y,
	}
}

// setTarget records the latest authoritative position. The proxy never
// snaps; it converges over subsequent Advance calls.
func (m *Mirror) setTarget(pos server.Vec3, rot server.Rotation) {
	m.target = pos
	m.targetRot = rot.Y
}

// advance blends the proxy toward its target by a fixed factor per
// frame and steps the cosmetic bob, which runs independently of
// network updates.
func (m *Mirror) advance(dt, blend float64) {
	m.current.X += (m.target.X - m.current.X) * blend
	m.current.Y += (m.target.Y - m.current.Y) * blend
	m.current.Z += (m.target.Z - m.current.Z) * blend
	m.rotation += angleDelta(m.rotation, m.targetRot) * blend
	m.bobPhase += dt
}

// Position reports the interpolated position with the bob applied.
func (m *Mirror) Position() server.Vec3 {
	pos := m.current
	pos.Y += mirrorBobAmplitude * math.Sin(mirrorBobFrequency*m.bobPhase*2*math.Pi)
	return pos
}

func (m *Mirror) Rotation() server.Rotation {
	return server.Rotation{Y: m.rotation}
}

// angleDelta returns the shortest signed rotation from a to b.
func angleDelta(a, b float64) float64 {
	delta := math.Mod(b-a, 2*math.Pi)
	if delta > math.Pi {
		delta -= 2 * math.Pi
	}
	if delta < -math.Pi {
		delta += 2 * math.Pi
	}
	return delta
}
