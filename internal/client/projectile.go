package client

import (
	"math"
	"sync"
	"time"

	server "neongrid/server"
)

const (
	// LocalSource marks a projectile thrown by this client.
	LocalSource = "local"

	projectileRadius = 0.25
	avatarRadius     = 0.6
	hitRadius        = projectileRadius + avatarRadius
)

// Projectile is a client-local, ephemeral simulation entry. It
// transitions active→inactive exactly once, by lifetime expiry or by
// collision, and is then removed from the set.
type Projectile struct {
	Position  server.Vec3
	Direction server.Vec3
	Speed     float64
	Lifetime  time.Duration
	CreatedAt time.Time
	SourceID  string
	TargetID  string
	Active    bool
}

// HitFunc fires once per hit, at the target's position. For self-thrown
// projectiles no network message follows: collision is evaluated
// independently and optimistically on every client.
type HitFunc func(p Projectile, targetID string, at server.Vec3)

// Coordinator simulates every in-flight projectile, self-thrown and
// remote-thrown alike, against the local avatar and the remote mirrors.
type Coordinator struct {
	view     SceneView
	speed    float64
	lifetime time.Duration
	onHit    HitFunc

	mu          sync.Mutex
	projectiles []*Projectile
	lastTick    time.Time
}

func NewCoordinator(view SceneView, cfg server.ClientConfig, onHit HitFunc) *Coordinator {
	speed := cfg.ProjectileSpeed
	if speed <= 0 {
		speed = 24.0
	}
	lifetime := time.Duration(cfg.ProjectileLifetimeMS) * time.Millisecond
	if lifetime <= 0 {
		lifetime = 3 * time.Second
	}
	return &Coordinator{
		view:     view,
		speed:    speed,
		lifetime: lifetime,
		onHit:    onHit,
	}
}

// Throw launches a local projectile and emits the throw event. The
// original broadcast is the only network traffic; hits stay local.
func (c *Coordinator) Throw(targetID string, pos, dir server.Vec3) error {
	dir = normalize(dir)
	c.spawn(pos, dir, LocalSource, targetID)
	return c.view.Send(server.EventThrowCube, server.ThrowPayload{
		TargetID:  targetID,
		Position:  pos,
		Direction: dir,
	})
}

// SpawnRemote mirrors a throw broadcast by another client.
func (c *Coordinator) SpawnRemote(throw server.RemoteThrowPayload) {
	c.spawn(throw.Position, normalize(throw.Direction), throw.SourceID, throw.TargetID)
}

func (c *Coordinator) spawn(pos, dir server.Vec3, sourceID, targetID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projectiles = append(c.projectiles, &Projectile{
		Position:  pos,
		Direction: dir,
		Speed:     c.speed,
		Lifetime:  c.lifetime,
		CreatedAt: time.Now(),
		SourceID:  sourceID,
		TargetID:  targetID,
		Active:    true,
	})
}

// Active reports how many projectiles are still flying.
func (c *Coordinator) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.projectiles)
}

// Update advances every projectile one frame: position, lifetime, then
// sphere-sphere collision against local and remote avatars. The first
// overlapping target wins; a projectile never fires a hit effect after
// becoming inactive.
func (c *Coordinator) Update(now time.Time) {
	c.mu.Lock()

	if c.lastTick.IsZero() {
		c.lastTick = now
	}
	dt := now.Sub(c.lastTick).Seconds()
	if dt < 0 {
		dt = 0
	}
	c.lastTick = now

	localID := c.view.LocalID()
	localPos := c.view.LocalPosition()
	mirrors := c.view.MirrorPositions()

	type hit struct {
		projectile Projectile
		targetID   string
		at         server.Vec3
	}
	var hits []hit

	remaining := c.projectiles[:0]
	for _, p := range c.projectiles {
		p.Position.X += p.Direction.X * p.Speed * dt
		p.Position.Y += p.Direction.Y * p.Speed * dt
		p.Position.Z += p.Direction.Z * p.Speed * dt

		if now.Sub(p.CreatedAt) >= p.Lifetime {
			p.Active = false
			continue
		}

		if targetID, at, ok := c.firstOverlap(p, localID, localPos, mirrors); ok {
			p.Active = false
			hits = append(hits, hit{projectile: *p, targetID: targetID, at: at})
			continue
		}

		remaining = append(remaining, p)
	}
	c.projectiles = remaining
	c.mu.Unlock()

	if c.onHit != nil {
		for _, h := range hits {
			c.onHit(h.projectile, h.targetID, h.at)
		}
	}
}

// firstOverlap tests the projectile against every candidate avatar.
// Self-thrown projectiles skip the thrower; remote-thrown projectiles
// skip their declared source.
func (c *Coordinator) firstOverlap(p *Projectile, localID string, localPos server.Vec3, mirrors map[string]server.Vec3) (string, server.Vec3, bool) {
	if p.SourceID != LocalSource && p.SourceID != localID {
		if overlaps(p.Position, localPos) {
			return localID, localPos, true
		}
	}
	for id, pos := range mirrors {
		if id == p.SourceID {
			continue
		}
		if overlaps(p.Position, pos) {
			return id, pos, true
		}
	}
	return "", server.Vec3{}, false
}

func overlaps(a, b server.Vec3) bool {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx+dy*dy+dz*dz) < hitRadius
}

func normalize(v server.Vec3) server.Vec3 {
	length := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if length == 0 {
		return server.Vec3{X: 0, Y: 0, Z: 1}
	}
	return server.Vec3{X: v.X / length, Y: v.Y / length, Z: v.Z / length}
}
