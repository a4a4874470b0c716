package server

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// JukeboxState is the wire shape broadcast on every mutation and on
// every new-connection seed.
type JukeboxState struct {
	IsPlaying  bool `json:"isPlaying"`
	TrackIndex int  `json:"trackIndex"`
}

const (
	JukeboxActionPlay  = "play"
	JukeboxActionPause = "pause"
	JukeboxActionNext  = "next"
)

// Jukebox holds the process-wide shared playback state. The track list
// is populated once at startup and never mutated afterwards.
type Jukebox struct {
	mu     sync.Mutex
	state  JukeboxState
	tracks []string
}

func NewJukebox(tracks []string) *Jukebox {
	return &Jukebox{tracks: tracks}
}

// ScanTracks lists audio filenames in dir, sorted for a stable order. A
// missing or unreadable directory yields an empty list, never an error.
func ScanTracks(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	tracks := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".mp3", ".ogg", ".wav", ".flac":
			tracks = append(tracks, entry.Name())
		}
	}
	sort.Strings(tracks)
	return tracks
}

// Apply mutates the playback state for a jukebox-control event and
// returns the resulting state. Unknown actions leave the state alone
// and report false.
func (j *Jukebox) Apply(action string, trackIndex int) (JukeboxState, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	switch action {
	case JukeboxActionPlay:
		j.state.IsPlaying = true
		j.state.TrackIndex = j.clampIndex(trackIndex)
	case JukeboxActionPause:
		j.state.IsPlaying = false
	case JukeboxActionNext:
		j.state.TrackIndex = j.clampIndex(trackIndex)
		j.state.IsPlaying = true
	default:
		return j.state, false
	}
	return j.state, true
}

func (j *Jukebox) clampIndex(index int) int {
	if len(j.tracks) == 0 {
		return 0
	}
	if index < 0 {
		return 0
	}
	if index >= len(j.tracks) {
		return len(j.tracks) - 1
	}
	return index
}

func (j *Jukebox) State() JukeboxState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Tracks returns the ordered track list scanned at startup.
func (j *Jukebox) Tracks() []string {
	if j.tracks == nil {
		return []string{}
	}
	return j.tracks
}
