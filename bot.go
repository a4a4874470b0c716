package server

import (
	"context"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"
)

// PresenceBot is a synthetic participant that speaks the same event
// vocabulary as a real player: it wanders the play area on a short
// tick and chats on an independent jittered timer. At the protocol
// level it is indistinguishable from a human session.
type PresenceBot struct {
	hub    *Hub
	gen    ChatGenerator
	logger *log.Logger

	id   string
	name string

	pos      Vec3
	dest     Vec3
	rot      Rotation
	bobPhase float64

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

func NewPresenceBot(hub *Hub, gen ChatGenerator, logger *log.Logger) *PresenceBot {
	if logger == nil {
		logger = log.Default()
	}
	if gen == nil {
		gen = NewCannedChat()
	}
	return &PresenceBot{
		hub:    hub,
		gen:    gen,
		logger: logger,
		id:     "bot-" + hub.Config().BotName,
		name:   hub.Config().BotName,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// ID returns the bot's registry key.
func (b *PresenceBot) ID() string { return b.id }

// Start registers the bot and launches its timers. Subsequent calls are
// no-ops, so exactly one bot ever runs per hub.
func (b *PresenceBot) Start() {
	b.startOnce.Do(func() {
		player := b.hub.Registry().AddBot(b.id, b.name)
		b.pos = player.Position
		b.dest = b.pickDestination()
		b.hub.AnnounceJoin(player)
		go b.run()
	})
}

// Stop cancels both timers, waits for the run loop to exit, removes the
// bot from the registry, and announces the departure. This is a
// graceful-shutdown contract, not best-effort; Stop is idempotent.
func (b *PresenceBot) Stop() {
	b.stopOnce.Do(func() {
		close(b.stop)
		<-b.done
		if b.hub.Registry().Remove(b.id) {
			b.hub.AnnounceLeave(b.id)
		}
	})
}

func (b *PresenceBot) run() {
	defer close(b.done)

	move := time.NewTicker(botMoveInterval)
	defer move.Stop()
	chat := time.NewTimer(b.chatDelay())
	defer chat.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-move.C:
			b.step(botMoveInterval.Seconds())
		case <-chat.C:
			b.say()
			chat.Reset(b.chatDelay())
		}
	}
}

// step advances the bot toward its destination by one tick and emits
// the same playerMoved a real client move would produce.
func (b *PresenceBot) step(dt float64) {
	dx := b.dest.X - b.pos.X
	dz := b.dest.Z - b.pos.Z
	dist := math.Hypot(dx, dz)

	if dist < botArriveEpsilon {
		b.dest = b.pickDestination()
		if rand.Float64() < botChatChance {
			b.say()
		}
	} else {
		step := botMoveSpeed * dt
		if step > dist {
			step = dist
		}
		b.pos.X += dx / dist * step
		b.pos.Z += dz / dist * step
		b.rot.Y = math.Atan2(dx, dz)
	}

	b.bobPhase += dt
	b.pos.Y = 0.5 + botBobAmplitude*math.Sin(botBobFrequency*b.bobPhase*2*math.Pi)

	b.hub.BroadcastBotMove(b.id, b.pos, b.rot)
}

// say dispatches message generation off the timer loop so a slow
// external call never stalls movement ticks.
func (b *PresenceBot) say() {
	go b.emitMessage()
}

func (b *PresenceBot) emitMessage() {
	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	prompt := "You are " + b.name + ", a laconic AI wandering a neon cyberpunk grid. " +
		"Say one short in-world line of small talk."
	line := b.gen.Generate(ctx, prompt)
	if line == "" {
		return
	}
	b.hub.BroadcastBotChat(b.id, b.name, truncateChat(line))
}

func (b *PresenceBot) pickDestination() Vec3 {
	dest := randomSpawn(b.hub.Config().SpawnRadius)
	dest.Y = 0.5
	return dest
}

func (b *PresenceBot) chatDelay() time.Duration {
	jitter := time.Duration(rand.Int63n(int64(botChatMaxDelay - botChatMinDelay)))
	return botChatMinDelay + jitter
}
