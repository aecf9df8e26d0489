package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Preferences are the only state surviving a restart: the two dashboard
// toggle flags.
type Preferences struct {
	DemoMode        bool `json:"demo_mode"`
	RealtimeEnabled bool `json:"realtime_enabled"`
}

// PrefStore persists the preference flags to a small JSON file.
type PrefStore struct {
	mu    sync.Mutex
	path  string
	prefs Preferences
}

// OpenPrefs loads preferences from path, falling back to defaults (realtime
// enabled, demo off) when the file is missing or unreadable.
func OpenPrefs(path string) *PrefStore {
	ps := &PrefStore{
		path:  path,
		prefs: Preferences{RealtimeEnabled: true},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ps
	}
	var loaded Preferences
	if err := json.Unmarshal(data, &loaded); err != nil {
		return ps
	}
	ps.prefs = loaded
	return ps
}

// Get returns the current flags.
func (p *PrefStore) Get() Preferences {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prefs
}

// Set stores and persists the flags.
func (p *PrefStore) Set(prefs Preferences) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.prefs = prefs

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	if err := os.WriteFile(p.path, data, 0o644); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}
