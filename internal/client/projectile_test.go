package client

import (
	"sync"
	"testing"
	"time"

	server "neongrid/server"
)

// fakeView is a hand-rolled scene for exercising the projectile and
// voice layers without a live session.
type fakeView struct {
	mu       sync.Mutex
	localID  string
	localPos server.Vec3
	mirrors  map[string]server.Vec3
	sent     []struct {
		Event   string
		Payload any
	}
	sendErr error
}

func newFakeView(localID string) *fakeView {
	return &fakeView{
		localID: localID,
		mirrors: make(map[string]server.Vec3),
	}
}

func (f *fakeView) LocalID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.localID
}

func (f *fakeView) LocalPosition() server.Vec3 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.localPos
}

func (f *fakeView) MirrorPositions() map[string]server.Vec3 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]server.Vec3, len(f.mirrors))
	for id, pos := range f.mirrors {
		out[id] = pos
	}
	return out
}

func (f *fakeView) Send(event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, struct {
		Event   string
		Payload any
	}{event, payload})
	return f.sendErr
}

func (f *fakeView) sentEvents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	events := make([]string, len(f.sent))
	for i, s := range f.sent {
		events[i] = s.Event
	}
	return events
}

type hitRecord struct {
	targetID string
	at       server.Vec3
	source   string
}

func collectHits(records *[]hitRecord) HitFunc {
	var mu sync.Mutex
	return func(p Projectile, targetID string, at server.Vec3) {
		mu.Lock()
		defer mu.Unlock()
		*records = append(*records, hitRecord{targetID: targetID, at: at, source: p.SourceID})
	}
}

func TestThrowBroadcastsOnceAndSimulatesLocally(t *testing.T) {
	view := newFakeView("me")
	coord := NewCoordinator(view, server.DefaultConfig().ClientView(), nil)

	if err := coord.Throw("", server.Vec3{Y: 0.5}, server.Vec3{Z: 1}); err != nil {
		t.Fatalf("throw: %v", err)
	}

	events := view.sentEvents()
	if len(events) != 1 || events[0] != server.EventThrowCube {
		t.Fatalf("expected a single throwCube broadcast, got %v", events)
	}
	if coord.Active() != 1 {
		t.Fatalf("expected one in-flight projectile, got %d", coord.Active())
	}
}

func TestLifetimeExpiryFiresNoHit(t *testing.T) {
	view := newFakeView("me")
	var hits []hitRecord
	coord := NewCoordinator(view, server.ClientConfig{ProjectileSpeed: 1, ProjectileLifetimeMS: 100}, collectHits(&hits))

	coord.SpawnRemote(server.RemoteThrowPayload{
		Position:  server.Vec3{X: 100},
		Direction: server.Vec3{Z: 1},
		SourceID:  "thrower",
	})

	now := time.Now()
	coord.Update(now)
	coord.Update(now.Add(200 * time.Millisecond))

	if coord.Active() != 0 {
		t.Fatalf("expired projectile must be removed")
	}
	if len(hits) != 0 {
		t.Fatalf("expiry must not fire a hit: %v", hits)
	}
}

func TestCollisionFiresExactlyOnce(t *testing.T) {
	view := newFakeView("me")
	view.mirrors["victim"] = server.Vec3{X: 0, Y: 0.5, Z: 2}
	var hits []hitRecord
	coord := NewCoordinator(view, server.ClientConfig{ProjectileSpeed: 10, ProjectileLifetimeMS: 5000}, collectHits(&hits))

	coord.SpawnRemote(server.RemoteThrowPayload{
		Position:  server.Vec3{X: 0, Y: 0.5, Z: 0},
		Direction: server.Vec3{Z: 1},
		SourceID:  "thrower",
	})

	now := time.Now()
	coord.Update(now)
	coord.Update(now.Add(200 * time.Millisecond)) // reaches z=2
	coord.Update(now.Add(400 * time.Millisecond))

	if len(hits) != 1 {
		t.Fatalf("expected exactly one hit, got %d", len(hits))
	}
	if hits[0].targetID != "victim" || hits[0].source != "thrower" {
		t.Fatalf("unexpected hit %+v", hits[0])
	}
	if coord.Active() != 0 {
		t.Fatalf("hit projectile must be removed")
	}
}

func TestHitRadiusBoundary(t *testing.T) {
	cases := []struct {
		name string
		dist float64
		hit  bool
	}{
		{"inside", 0.8, true},
		{"outside", 0.9, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			view := newFakeView("me")
			view.mirrors["victim"] = server.Vec3{X: tc.dist}
			var hits []hitRecord
			coord := NewCoordinator(view, server.ClientConfig{ProjectileSpeed: 1, ProjectileLifetimeMS: 5000}, collectHits(&hits))

			coord.SpawnRemote(server.RemoteThrowPayload{
				Position:  server.Vec3{},
				Direction: server.Vec3{Z: 1},
				SourceID:  "thrower",
			})
			// First update has dt=0, so the overlap test runs at the
			// spawn position.
			coord.Update(time.Now())

			if tc.hit && len(hits) != 1 {
				t.Fatalf("distance %v must hit, got %d hits", tc.dist, len(hits))
			}
			if !tc.hit && len(hits) != 0 {
				t.Fatalf("distance %v must miss, got %v", tc.dist, hits)
			}
		})
	}
}

func TestSelfThrownProjectileSkipsThrower(t *testing.T) {
	view := newFakeView("me")
	view.localPos = server.Vec3{}
	var hits []hitRecord
	coord := NewCoordinator(view, server.ClientConfig{ProjectileSpeed: 1, ProjectileLifetimeMS: 5000}, collectHits(&hits))

	// Spawned on top of the local avatar, as a real throw is.
	if err := coord.Throw("", server.Vec3{}, server.Vec3{Z: 1}); err != nil {
		t.Fatalf("throw: %v", err)
	}
	coord.Update(time.Now())

	if len(hits) != 0 {
		t.Fatalf("local projectile must not hit its own thrower: %v", hits)
	}
	if coord.Active() != 1 {
		t.Fatalf("projectile must keep flying")
	}
}

func TestRemoteProjectileSkipsSourceButHitsLocal(t *testing.T) {
	view := newFakeView("me")
	view.localPos = server.Vec3{}
	view.mirrors["thrower"] = server.Vec3{} // overlapping the local avatar
	var hits []hitRecord
	coord := NewCoordinator(view, server.ClientConfig{ProjectileSpeed: 1, ProjectileLifetimeMS: 5000}, collectHits(&hits))

	coord.SpawnRemote(server.RemoteThrowPayload{
		Position:  server.Vec3{},
		Direction: server.Vec3{Z: 1},
		SourceID:  "thrower",
	})
	coord.Update(time.Now())

	if len(hits) != 1 || hits[0].targetID != "me" {
		t.Fatalf("remote projectile must hit the local avatar, not its source: %v", hits)
	}
}

func TestZeroDirectionNormalizesToForward(t *testing.T) {
	dir := normalize(server.Vec3{})
	if dir.Z != 1 || dir.X != 0 || dir.Y != 0 {
		t.Fatalf("zero direction must default to +Z, got %+v", dir)
	}
}
