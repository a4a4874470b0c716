package server

import (
	"strconv"
	"strings"
	"time"
)

// Config captures every externally tunable setting. Zero values are
// filled with defaults by Normalized, so a missing or partial settings
// source never crashes the process.
type Config struct {
	Port                  int
	GridSize              float64
	WallHeight            float64
	SpawnRadius           float64
	ProjectileSpeed       float64
	ProjectileLifetime    time.Duration
	NetworkUpdateInterval time.Duration
	TracksDir             string
	BotName               string
	ChatAPIURL            string
	ChatAPIKey            string
	AdminKey              string
}

func DefaultConfig() Config {
	return Config{
		Port:                  defaultPort,
		GridSize:              defaultGridSize,
		WallHeight:            defaultWallHeight,
		SpawnRadius:           defaultSpawnRadius,
		ProjectileSpeed:       defaultProjectileSpeed,
		ProjectileLifetime:    defaultProjectileLifetime,
		NetworkUpdateInterval: defaultNetworkInterval,
		TracksDir:             defaultTracksDir,
		BotName:               defaultBotName,
	}
}

// Normalized returns a config with defaults applied to every unset or
// invalid field.
func (cfg Config) Normalized() Config {
	normalized := cfg
	if normalized.Port <= 0 {
		normalized.Port = defaultPort
	}
	if normalized.GridSize <= 0 {
		normalized.GridSize = defaultGridSize
	}
	if normalized.WallHeight <= 0 {
		normalized.WallHeight = defaultWallHeight
	}
	if normalized.SpawnRadius <= 0 {
		normalized.SpawnRadius = defaultSpawnRadius
	}
	if normalized.ProjectileSpeed <= 0 {
		normalized.ProjectileSpeed = defaultProjectileSpeed
	}
	if normalized.ProjectileLifetime <= 0 {
		normalized.ProjectileLifetime = defaultProjectileLifetime
	}
	if normalized.NetworkUpdateInterval <= 0 {
		normalized.NetworkUpdateInterval = defaultNetworkInterval
	}
	if strings.TrimSpace(normalized.TracksDir) == "" {
		normalized.TracksDir = defaultTracksDir
	}
	if strings.TrimSpace(normalized.BotName) == "" {
		normalized.BotName = defaultBotName
	}
	return normalized
}

// LoadConfig reads overrides from the environment. Unparseable values
// are ignored so the defaults survive.
func LoadConfig(getenv func(string) string) Config {
	cfg := DefaultConfig()

	if raw := getenv("PORT"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			cfg.Port = value
		}
	}
	if raw := getenv("GRID_SIZE"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil {
			cfg.GridSize = value
		}
	}
	if raw := getenv("WALL_HEIGHT"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil {
			cfg.WallHeight = value
		}
	}
	if raw := getenv("SPAWN_RADIUS"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil {
			cfg.SpawnRadius = value
		}
	}
	if raw := getenv("PROJECTILE_SPEED"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil {
			cfg.ProjectileSpeed = value
		}
	}
	if raw := getenv("PROJECTILE_LIFETIME_MS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.ProjectileLifetime = time.Duration(value) * time.Millisecond
		}
	}
	if raw := getenv("NETWORK_UPDATE_MS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.NetworkUpdateInterval = time.Duration(value) * time.Millisecond
		}
	}
	if raw := getenv("TRACKS_DIR"); raw != "" {
		cfg.TracksDir = raw
	}
	if raw := getenv("BOT_NAME"); raw != "" {
		cfg.BotName = raw
	}
	cfg.ChatAPIURL = getenv("CHAT_API_URL")
	cfg.ChatAPIKey = getenv("CHAT_API_KEY")
	cfg.AdminKey = getenv("ADMIN_KEY")

	return cfg.Normalized()
}

// ClientConfig is the client-safe subset served by the config endpoint.
// Secrets never leave the process.
type ClientConfig struct {
	GridSize             float64 `json:"gridSize"`
	WallHeight           float64 `json:"wallHeight"`
	SpawnRadius          float64 `json:"spawnRadius"`
	ProjectileSpeed      float64 `json:"projectileSpeed"`
	ProjectileLifetimeMS int64   `json:"projectileLifetimeMs"`
	NetworkUpdateMS      int64   `json:"networkUpdateMs"`
}

func (cfg Config) ClientView() ClientConfig {
	normalized := cfg.Normalized()
	return ClientConfig{
		GridSize:             normalized.GridSize,
		WallHeight:           normalized.WallHeight,
		SpawnRadius:          normalized.SpawnRadius,
		ProjectileSpeed:      normalized.ProjectileSpeed,
		ProjectileLifetimeMS: normalized.ProjectileLifetime.Milliseconds(),
		NetworkUpdateMS:      normalized.NetworkUpdateInterval.Milliseconds(),
	}
}
