package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// ChatGenerator produces one bot chat line. Implementations resolve
// every failure internally; callers receive usable text or nothing.
type ChatGenerator interface {
	Generate(ctx context.Context, prompt string) string
}

// fallbackLines is the canned pool used whenever generation fails.
var fallbackLines = []string{
	"anyone else seeing the grid flicker?",
	"the neon never sleeps",
	"caught a cube with my face again",
	"jukebox track 3 goes hard",
	"lag is just the matrix buffering",
	"meet me at the wall, west side",
	"I swear that billboard just blinked",
	"throw one my way, I dare you",
}

// CannedChat serves lines from the fixed pool, avoiding immediate
// repetition unless the pool is exhausted.
type CannedChat struct {
	mu    sync.Mutex
	lines []string
	last  string
}

func NewCannedChat() *CannedChat {
	return &CannedChat{lines: fallbackLines}
}

func (c *CannedChat) Generate(ctx context.Context, prompt string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.lines) == 0 {
		return ""
	}
	if len(c.lines) == 1 {
		c.last = c.lines[0]
		return c.last
	}

	line := c.lines[rand.Intn(len(c.lines))]
	for line == c.last {
		line = c.lines[rand.Intn(len(c.lines))]
	}
	c.last = line
	return line
}

// APIChat asks an external text-generation service for a line and falls
// back to the canned pool on any failure: missing credential, network
// error, malformed response, or an empty result. Oversized responses
// are truncated to the chat budget.
type APIChat struct {
	url      string
	key      string
	client   *http.Client
	fallback ChatGenerator
	logger   *log.Logger
}

func NewChatGenerator(cfg Config, logger *log.Logger) ChatGenerator {
	if logger == nil {
		logger = log.Default()
	}
	return &APIChat{
		url:      cfg.ChatAPIURL,
		key:      cfg.ChatAPIKey,
		client:   &http.Client{Timeout: 10 * time.Second},
		fallback: NewCannedChat(),
		logger:   logger,
	}
}

func (g *APIChat) Generate(ctx context.Context, prompt string) string {
	line, err := g.generate(ctx, prompt)
	if err != nil {
		g.logger.Printf("chat generation failed, using fallback: %v", err)
		return g.fallback.Generate(ctx, prompt)
	}
	return line
}

func (g *APIChat) generate(ctx context.Context, prompt string) (string, error) {
	if g.url == "" || g.key == "" {
		return "", errors.New("chat API not configured")
	}

	body, err := json.Marshal(map[string]any{
		"prompt":    prompt,
		"maxTokens": 60,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.key)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.New("chat API returned " + resp.Status)
	}

	var decoded struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}

	line := strings.TrimSpace(decoded.Text)
	if line == "" {
		return "", errors.New("chat API returned empty text")
	}
	return truncateChat(line), nil
}

func truncateChat(line string) string {
	if len(line) <= maxChatLength {
		return line
	}
	cut := line[:maxChatLength]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
