package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"neongrid/server/internal/lobby"
)

// LobbyClient drives the REST lobby handshake that gates entry into
// the relay session: join → ready → (game) → return or leave.
type LobbyClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewLobbyClient(baseURL string) *LobbyClient {
	return &LobbyClient{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type lobbyJoinResponse struct {
	Success  bool   `json:"success"`
	PlayerID string `json:"playerId"`
	Message  string `json:"message"`
}

// Join registers a username with the lobby and returns the assigned
// player ID.
func (c *LobbyClient) Join(username string) (string, error) {
	var resp lobbyJoinResponse
	err := c.post("/api/lobby/join", map[string]string{"username": username}, http.StatusCreated, &resp)
	if err != nil {
		return "", err
	}
	if resp.PlayerID == "" {
		return "", fmt.Errorf("lobby join returned no player id")
	}
	return resp.PlayerID, nil
}

// Ready moves the player from the waiting set into the game.
func (c *LobbyClient) Ready(playerID string) error {
	return c.post("/api/lobby/ready", map[string]string{"playerId": playerID}, http.StatusOK, nil)
}

// Return moves the player from the game back to the waiting set.
func (c *LobbyClient) Return(playerID string) error {
	return c.post("/api/lobby/return", map[string]string{"playerId": playerID}, http.StatusOK, nil)
}

// Leave removes the player from whichever set holds it.
func (c *LobbyClient) Leave(playerID string) error {
	return c.post("/api/lobby/leave", map[string]string{"playerId": playerID}, http.StatusOK, nil)
}

// Stats fetches both lobby lists.
func (c *LobbyClient) Stats() (lobby.Stats, error) {
	var stats lobby.Stats
	resp, err := c.client().Get(c.BaseURL + "/api/lobby/stats")
	if err != nil {
		return stats, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return stats, fmt.Errorf("lobby stats returned %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return stats, err
	}
	return stats, nil
}

func (c *LobbyClient) post(path string, body any, wantStatus int, dst any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := c.client().Post(c.BaseURL+path, "application/json", bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		return fmt.Errorf("%s returned %s", path, resp.Status)
	}
	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return err
		}
	}
	return nil
}

func (c *LobbyClient) client() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}
