package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"neongrid/server/internal/lobby"
)

// fakeLobbyServer mimics the REST lobby surface with a scripted state.
func fakeLobbyServer(t *testing.T) (*httptest.Server, *lobby.Registry) {
	t.Helper()
	registry := lobby.NewRegistry()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/lobby/join", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		player := registry.Join(req.Username)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"success": true, "playerId": player.ID})
	})
	forID := func(handle func(id string) bool) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				PlayerID string `json:"playerId"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			if !handle(req.PlayerID) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"success": true})
		}
	}
	mux.HandleFunc("/api/lobby/ready", forID(func(id string) bool {
		_, ok := registry.PromoteToGame(id)
		return ok
	}))
	mux.HandleFunc("/api/lobby/return", forID(func(id string) bool {
		_, ok := registry.DemoteToLobby(id)
		return ok
	}))
	mux.HandleFunc("/api/lobby/leave", forID(registry.Leave))
	mux.HandleFunc("/api/lobby/stats", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(registry.Stats())
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, registry
}

func TestLobbyClientFullFlow(t *testing.T) {
	ts, registry := fakeLobbyServer(t)
	lc := NewLobbyClient(ts.URL)

	id, err := lc.Join("nyx")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if id == "" {
		t.Fatalf("join returned empty id")
	}

	if err := lc.Ready(id); err != nil {
		t.Fatalf("ready: %v", err)
	}
	stats, err := lc.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.InGameCount != 1 || stats.WaitingCount != 0 {
		t.Fatalf("unexpected stats after ready: %+v", stats)
	}

	if err := lc.Return(id); err != nil {
		t.Fatalf("return: %v", err)
	}
	if err := lc.Leave(id); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if final := registry.Stats(); final.WaitingCount != 0 || final.InGameCount != 0 {
		t.Fatalf("expected empty lobby, got %+v", final)
	}
}

func TestLobbyClientSurfacesRejections(t *testing.T) {
	ts, _ := fakeLobbyServer(t)
	lc := NewLobbyClient(ts.URL)

	if err := lc.Ready("ghost"); err == nil {
		t.Fatalf("ready for unknown player must fail")
	}
	if err := lc.Leave("ghost"); err == nil {
		t.Fatalf("leave for unknown player must fail")
	}
}

func TestLobbyClientUnreachableServer(t *testing.T) {
	lc := NewLobbyClient("http://127.0.0.1:1")

	if _, err := lc.Join("nyx"); err == nil {
		t.Fatalf("unreachable lobby must fail")
	}
	if _, err := lc.Stats(); err == nil {
		t.Fatalf("unreachable stats must fail")
	}
}
