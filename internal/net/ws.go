package net

import (
	"encoding/json"
	"log"
	nethttp "net/http"

	"github.com/gorilla/websocket"

	server "neongrid/server"
)

// PlayerIDHeader carries the assigned session ID back to the client in
// the upgrade response, so the wire event vocabulary stays unchanged.
const PlayerIDHeader = "X-Player-Id"

func newWSHandler(hub *server.Hub, logger *log.Logger) nethttp.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		query := r.URL.Query()
		id := query.Get("id")
		username := query.Get("name")

		role := server.RolePlayer
		adminKey := hub.Config().AdminKey
		if adminKey != "" && query.Get("admin") == adminKey {
			role = server.RoleAdmin
		}

		if id == "" {
			id = server.NewSessionID()
		}

		header := nethttp.Header{}
		header.Set(PlayerIDHeader, id)
		conn, err := upgrader.Upgrade(w, r, header)
		if err != nil {
			logger.Printf("upgrade failed: %v", err)
			return
		}

		assignedID, err := hub.Connect(conn, id, username, role)
		if err != nil {
			logger.Printf("failed to seed session %s: %v", id, err)
			conn.Close()
			return
		}

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				hub.DisconnectConn(assignedID, conn)
				return
			}

			var env server.Envelope
			if err := json.Unmarshal(payload, &env); err != nil {
				logger.Printf("discarding malformed message from %s: %v", assignedID, err)
				continue
			}
			hub.HandleEvent(assignedID, env)
		}
	}
}
