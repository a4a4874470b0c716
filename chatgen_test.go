package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCannedChatAvoidsImmediateRepetition(t *testing.T) {
	canned := NewCannedChat()
	previous := canned.Generate(context.Background(), "")
	if previous == "" {
		t.Fatalf("expected a line from the pool")
	}
	for i := 0; i < 50; i++ {
		line := canned.Generate(context.Background(), "")
		if line == previous {
			t.Fatalf("repeated line %q on draw %d", line, i)
		}
		previous = line
	}
}

func TestCannedChatSingleLinePool(t *testing.T) {
	canned := &CannedChat{lines: []string{"only line"}}
	for i := 0; i < 3; i++ {
		if got := canned.Generate(context.Background(), ""); got != "only line" {
			t.Fatalf("expected the single line, got %q", got)
		}
	}
}

func TestAPIChatUnconfiguredFallsBack(t *testing.T) {
	gen := NewChatGenerator(Config{}, nil)
	line := gen.Generate(context.Background(), "say something")
	if line == "" {
		t.Fatalf("expected fallback line")
	}
	found := false
	for _, canned := range fallbackLines {
		if canned == line {
			found = true
		}
	}
	if !found {
		t.Fatalf("line %q not from the fallback pool", line)
	}
}

func TestAPIChatSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"  neon dreams  "}`))
	}))
	defer srv.Close()

	gen := NewChatGenerator(Config{ChatAPIURL: srv.URL, ChatAPIKey: "secret"}, nil)
	line := gen.Generate(context.Background(), "say something")
	if line != "neon dreams" {
		t.Fatalf("expected trimmed API text, got %q", line)
	}
}

func TestAPIChatServerErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	gen := NewChatGenerator(Config{ChatAPIURL: srv.URL, ChatAPIKey: "secret"}, nil)
	line := gen.Generate(context.Background(), "say something")
	if line == "" {
		t.Fatalf("expected fallback line")
	}
}

func TestAPIChatMalformedResponseFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	gen := NewChatGenerator(Config{ChatAPIURL: srv.URL, ChatAPIKey: "secret"}, nil)
	if line := gen.Generate(context.Background(), "say something"); line == "" {
		t.Fatalf("expected fallback line")
	}
}

func TestAPIChatTruncatesOversizedResponse(t *testing.T) {
	long := strings.Repeat("x", maxChatLength*2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"` + long + `"}`))
	}))
	defer srv.Close()

	gen := NewChatGenerator(Config{ChatAPIURL: srv.URL, ChatAPIKey: "secret"}, nil)
	line := gen.Generate(context.Background(), "say something")
	if len(line) != maxChatLength {
		t.Fatalf("expected truncation to %d chars, got %d", maxChatLength, len(line))
	}
}

func TestTruncateChatKeepsShortLines(t *testing.T) {
	if got := truncateChat("short"); got != "short" {
		t.Fatalf("unexpected truncation: %q", got)
	}
}
