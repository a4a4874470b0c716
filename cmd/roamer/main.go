package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	server "neongrid/server"
	"neongrid/server/internal/client"
)

// roamer is a headless client: it walks through the full lobby
// handshake, joins the relay session, wanders the grid, and throws the
// occasional cube at whoever it can see.
func main() {
	baseURL := flag.String("server", "http://localhost:3000", "base URL of the relay server")
	name := flag.String("name", fmt.Sprintf("roamer-%d", rand.Intn(1000)), "username to join with")
	throwEvery := flag.Duration("throw", 5*time.Second, "average interval between throws")
	flag.Parse()

	logger := log.New(os.Stdout, "[roamer] ", log.LstdFlags)

	lobbyClient := client.NewLobbyClient(*baseURL)
	playerID, err := lobbyClient.Join(*name)
	if err != nil {
		logger.Fatalf("lobby join failed: %v", err)
	}
	if err := lobbyClient.Ready(playerID); err != nil {
		logger.Fatalf("lobby ready failed: %v", err)
	}

	wsURL := strings.Replace(*baseURL, "http", "ws", 1) + "/ws"
	session, err := client.Dial(client.Config{
		URL:      wsURL,
		PlayerID: playerID,
		Username: *name,
		Logger:   logger,
		Handlers: client.Handlers{
			Chat: func(chat server.ChatPayload) {
				logger.Printf("chat %s: %s", chat.SenderID, chat.Message)
			},
		},
	})
	if err != nil {
		logger.Fatalf("dial failed: %v", err)
	}

	projectiles := client.NewCoordinator(session, server.DefaultConfig().ClientView(),
		func(p client.Projectile, targetID string, at server.Vec3) {
			logger.Printf("hit %s at (%.1f, %.1f, %.1f)", targetID, at.X, at.Y, at.Z)
		})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	pos := server.Vec3{Y: 0.5}
	dest := wanderTarget()
	nextThrow := time.Now().Add(*throwEvery)

	frame := time.NewTicker(50 * time.Millisecond)
	defer frame.Stop()

	for {
		select {
		case <-stop:
			logger.Printf("leaving")
			if err := lobbyClient.Leave(playerID); err != nil {
				logger.Printf("lobby leave failed: %v", err)
			}
			session.Close()
			return
		case <-session.Done():
			logger.Printf("connection dropped")
			return
		case now := <-frame.C:
			dt := 0.05
			dx := dest.X - pos.X
			dz := dest.Z - pos.Z
			dist := math.Hypot(dx, dz)
			if dist < 0.3 {
				dest = wanderTarget()
			} else {
				pos.X += dx / dist * 2.5 * dt
				pos.Z += dz / dist * 2.5 * dt
			}
			session.SetLocalPosition(pos, server.Rotation{Y: math.Atan2(dx, dz)})
			session.Advance(dt)
			projectiles.Update(now)

			if now.After(nextThrow) {
				nextThrow = now.Add(*throwEvery + time.Duration(rand.Int63n(int64(*throwEvery))))
				throwAtSomeone(session, projectiles, pos, logger)
			}
		}
	}
}

func throwAtSomeone(session *client.Session, projectiles *client.Coordinator, pos server.Vec3, logger *log.Logger) {
	for id, target := range session.MirrorPositions() {
		dir := server.Vec3{X: target.X - pos.X, Y: target.Y - pos.Y, Z: target.Z - pos.Z}
		if err := projectiles.Throw(id, pos, dir); err != nil {
			logger.Printf("throw failed: %v", err)
		}
		return
	}
}

func wanderTarget() server.Vec3 {
	angle := rand.Float64() * 2 * math.Pi
	dist := rand.Float64() * 10
	return server.Vec3{X: math.Cos(angle) * dist, Y: 0.5, Z: math.Sin(angle) * dist}
}
