package storage

import (
	"github.com/google/uuid"
	"github.com/iam-recruit/dashboard/internal/auth"
	"github.com/rs/zerolog/log"
)

// TabMarker persists the new-account marker for one tab. Tabs do not share
// the marker, mirroring per-tab browser storage.
type TabMarker struct {
	store *SQLiteStore
	tabID string
}

var _ auth.Marker = (*TabMarker)(nil)

// NewTabMarker scopes the marker to tabID. An empty tabID starts a fresh
// tab with a random id.
func NewTabMarker(store *SQLiteStore, tabID string) *TabMarker {
	if tabID == "" {
		tabID = uuid.NewString()
	}
	return &TabMarker{store: store, tabID: tabID}
}

func (m *TabMarker) TabID() string {
	return m.tabID
}

func (m *TabMarker) Get() bool {
	ok, err := m.store.HasMarker(m.tabID, auth.NewAccountMarkerKey)
	if err != nil {
		log.Warn().Err(err).Str("tab", m.tabID).Msg("failed to read new-account marker")
		return false
	}
	return ok
}

func (m *TabMarker) Set() {
	if err := m.store.SetMarker(m.tabID, auth.NewAccountMarkerKey); err != nil {
		log.Warn().Err(err).Str("tab", m.tabID).Msg("failed to set new-account marker")
	}
}

func (m *TabMarker) Remove() {
	if err := m.store.DeleteMarker(m.tabID, auth.NewAccountMarkerKey); err != nil {
		log.Warn().Err(err).Str("tab", m.tabID).Msg("failed to remove new-account marker")
	}
}
