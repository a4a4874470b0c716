package server

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig(func(string) string { return "" })
	if cfg.Port != defaultPort {
		t.Fatalf("expected default port, got %d", cfg.Port)
	}
	if cfg.SpawnRadius != defaultSpawnRadius {
		t.Fatalf("expected default spawn radius, got %f", cfg.SpawnRadius)
	}
	if cfg.NetworkUpdateInterval != defaultNetworkInterval {
		t.Fatalf("expected default network interval, got %v", cfg.NetworkUpdateInterval)
	}
	if cfg.BotName == "" {
		t.Fatalf("expected a default bot name")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	env := map[string]string{
		"PORT":              "8081",
		"SPAWN_RADIUS":      "25.5",
		"NETWORK_UPDATE_MS": "50",
		"BOT_NAME":          "VECTOR",
		"CHAT_API_KEY":      "k",
		"ADMIN_KEY":         "letmein",
	}
	cfg := LoadConfig(func(key string) string { return env[key] })

	if cfg.Port != 8081 {
		t.Fatalf("port override ignored: %d", cfg.Port)
	}
	if cfg.SpawnRadius != 25.5 {
		t.Fatalf("spawn radius override ignored: %f", cfg.SpawnRadius)
	}
	if cfg.NetworkUpdateInterval != 50*time.Millisecond {
		t.Fatalf("interval override ignored: %v", cfg.NetworkUpdateInterval)
	}
	if cfg.BotName != "VECTOR" || cfg.ChatAPIKey != "k" || cfg.AdminKey != "letmein" {
		t.Fatalf("string overrides ignored: %+v", cfg)
	}
}

func TestLoadConfigIgnoresInvalidValues(t *testing.T) {
	env := map[string]string{
		"PORT":                   "not-a-number",
		"GRID_SIZE":              "abc",
		"PROJECTILE_LIFETIME_MS": "-5",
	}
	cfg := LoadConfig(func(key string) string { return env[key] })

	if cfg.Port != defaultPort {
		t.Fatalf("invalid port must fall back, got %d", cfg.Port)
	}
	if cfg.GridSize != defaultGridSize {
		t.Fatalf("invalid grid size must fall back, got %f", cfg.GridSize)
	}
	if cfg.ProjectileLifetime != defaultProjectileLifetime {
		t.Fatalf("invalid lifetime must fall back, got %v", cfg.ProjectileLifetime)
	}
}

func TestNormalizedFillsZeroValues(t *testing.T) {
	cfg := Config{Port: -1, TracksDir: "  "}.Normalized()
	if cfg.Port != defaultPort || cfg.TracksDir != defaultTracksDir {
		t.Fatalf("normalization missed fields: %+v", cfg)
	}
}

func TestClientViewOmitsSecrets(t *testing.T) {
	cfg := Config{
		GridSize:   120,
		ChatAPIKey: "super-secret",
		AdminKey:   "also-secret",
	}
	view := cfg.ClientView()
	if view.GridSize != 120 {
		t.Fatalf("expected grid size carried over, got %f", view.GridSize)
	}
	if view.ProjectileLifetimeMS != defaultProjectileLifetime.Milliseconds() {
		t.Fatalf("expected default lifetime in view, got %d", view.ProjectileLifetimeMS)
	}
}
