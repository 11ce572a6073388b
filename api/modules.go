package api

import (
	"fmt"
	"sync"
)

// Module names the owner can toggle at runtime.
const (
	ModuleLeave  = "leave"
	ModuleRaffle = "raffle"
)

// ModuleToggles holds the runtime kill switches. A disabled module
// rejects new submissions; existing state is untouched.
type ModuleToggles struct {
	mu      sync.RWMutex
	enabled map[string]bool
}

func NewModuleToggles(names ...string) *ModuleToggles {
	m := &ModuleToggles{enabled: make(map[string]bool, len(names))}
	for _, n := range names {
		m.enabled[n] = true
	}
	return m
}

// Enabled reports whether the named module accepts work. Unknown names
// are enabled, so toggles never gate anything they don't know about.
func (m *ModuleToggles) Enabled(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	on, ok := m.enabled[name]
	return !ok || on
}

// Set flips a known module switch.
func (m *ModuleToggles) Set(name string, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.enabled[name]; !ok {
		return fmt.Errorf("unknown module %q", name)
	}
	m.enabled[name] = on
	return nil
}

// States returns a copy of every switch.
func (m *ModuleToggles) States() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]bool, len(m.enabled))
	for k, v := range m.enabled {
		out[k] = v
	}
	return out
}
