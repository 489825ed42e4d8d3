package auth

import "sync"

// NewAccountMarkerKey is the tab-scoped storage key that survives a reload
// of the same tab and is dropped when the tab goes away.
const NewAccountMarkerKey = "iam-recruit-is-new-account"

// Marker is short-lived storage for the new-account flag. Implementations
// must not fail; storage errors are logged and swallowed.
type Marker interface {
	// Get reports whether the "true" marker is present.
	Get() bool
	// Set writes the "true" marker.
	Set()
	// Remove deletes the marker.
	Remove()
}

// NopMarker is used where no tab storage exists.
type NopMarker struct{}

func (NopMarker) Get() bool { return false }
func (NopMarker) Set()      {}
func (NopMarker) Remove()   {}

// MemoryMarker keeps the marker for the lifetime of the value. Tests and
// embedded clients use it as a stand-in for tab storage.
type MemoryMarker struct {
	mu  sync.Mutex
	set bool
}

func (m *MemoryMarker) Get() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set
}

func (m *MemoryMarker) Set() {
	m.mu.Lock()
	m.set = true
	m.mu.Unlock()
}

func (m *MemoryMarker) Remove() {
	m.mu.Lock()
	m.set = false
	m.mu.Unlock()
}
