package net

import (
	"encoding/json"
	"io"
	"log"
	nethttp "net/http"
	"strings"
	"time"

	server "neongrid/server"
	"neongrid/server/internal/lobby"
)

type HTTPHandlerConfig struct {
	ClientDir string
	Logger    *log.Logger
}

type joinRequest struct {
	Username string `json:"username"`
}

type playerRequest struct {
	PlayerID string `json:"playerId"`
}

type joinResponse struct {
	Success  bool   `json:"success"`
	PlayerID string `json:"playerId"`
	Message  string `json:"message"`
}

type basicResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewHTTPHandler builds the REST lobby surface, the config and status
// endpoints, and the websocket upgrade route.
func NewHTTPHandler(hub *server.Hub, lobbies *lobby.Registry, hcfg HTTPHandlerConfig) nethttp.Handler {
	logger := hcfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	started := time.Now()

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/status", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status    string                   `json:"status"`
			Players   int                      `json:"players"`
			Uptime    int64                    `json:"uptime"`
			Telemetry server.TelemetrySnapshot `json:"telemetry"`
		}{
			Status:    "ok",
			Players:   hub.PlayerCount(),
			Uptime:    int64(time.Since(started).Seconds()),
			Telemetry: hub.TelemetrySnapshot(),
		}
		writeJSON(w, nethttp.StatusOK, payload)
	})

	mux.HandleFunc("/api/config", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, nethttp.StatusOK, hub.Config().ClientView())
	})

	mux.HandleFunc("/api/lobby/stats", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, nethttp.StatusOK, lobbies.Stats())
	})

	mux.HandleFunc("/api/lobby/join", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		var req joinRequest
		if !decodeBody(w, r, &req) {
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" {
			httpError(w, "username is required", nethttp.StatusBadRequest)
			return
		}
		player := lobbies.Join(req.Username)
		writeJSON(w, nethttp.StatusCreated, joinResponse{
			Success:  true,
			PlayerID: player.ID,
			Message:  "joined lobby",
		})
	})

	mux.HandleFunc("/api/lobby/leave", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		id, ok := playerIDFromBody(w, r)
		if !ok {
			return
		}
		if !lobbies.Leave(id) {
			httpError(w, "player not found", nethttp.StatusNotFound)
			return
		}
		writeJSON(w, nethttp.StatusOK, basicResponse{Success: true, Message: "left lobby"})
	})

	mux.HandleFunc("/api/lobby/ready", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		id, ok := playerIDFromBody(w, r)
		if !ok {
			return
		}
		if _, ok := lobbies.PromoteToGame(id); !ok {
			httpError(w, "player not in lobby", nethttp.StatusNotFound)
			return
		}
		writeJSON(w, nethttp.StatusOK, basicResponse{Success: true, Message: "entered game"})
	})

	mux.HandleFunc("/api/lobby/return", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		id, ok := playerIDFromBody(w, r)
		if !ok {
			return
		}
		if _, ok := lobbies.DemoteToLobby(id); !ok {
			httpError(w, "player not in game", nethttp.StatusNotFound)
			return
		}
		writeJSON(w, nethttp.StatusOK, basicResponse{Success: true, Message: "returned to lobby"})
	})

	mux.HandleFunc("/ws", newWSHandler(hub, logger))

	if hcfg.ClientDir != "" {
		fs := nethttp.FileServer(nethttp.Dir(hcfg.ClientDir))
		mux.Handle("/", fs)
	}

	return mux
}

// playerIDFromBody enforces the POST + playerId contract shared by the
// leave/ready/return endpoints.
func playerIDFromBody(w nethttp.ResponseWriter, r *nethttp.Request) (string, bool) {
	if r.Method != nethttp.MethodPost {
		httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
		return "", false
	}
	var req playerRequest
	if !decodeBody(w, r, &req) {
		return "", false
	}
	req.PlayerID = strings.TrimSpace(req.PlayerID)
	if req.PlayerID == "" {
		httpError(w, "playerId is required", nethttp.StatusBadRequest)
		return "", false
	}
	return req.PlayerID, true
}

func decodeBody(w nethttp.ResponseWriter, r *nethttp.Request, dst any) bool {
	if r.Body == nil {
		httpError(w, "invalid payload", nethttp.StatusBadRequest)
		return false
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && err != io.EOF {
		httpError(w, "invalid payload", nethttp.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w nethttp.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
