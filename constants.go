package server

import "time"

const (
	ProtocolVersion = 1
	writeWait       = 10 * time.Second

	defaultPort               = 3000
	defaultGridSize           = 100.0
	defaultWallHeight         = 6.0
	defaultSpawnRadius        = 12.0
	defaultProjectileSpeed    = 24.0
	defaultProjectileLifetime = 3 * time.Second
	defaultNetworkInterval    = 100 * time.Millisecond
	defaultTracksDir          = "tracks"
	defaultBotName            = "GLITCH"

	botMoveInterval  = 50 * time.Millisecond
	botMoveSpeed     = 3.2 // units per second
	botBobAmplitude  = 0.18
	botBobFrequency  = 2.4
	botArriveEpsilon = 0.35
	botChatChance    = 0.12 // extra message roll when a destination is reached
	botChatMinDelay  = 15 * time.Second
	botChatMaxDelay  = 30 * time.Second

	maxChatLength = 220
)
