package session

import (
	"sync"
)

// DefaultLang is used until a user picks a language.
const DefaultLang = "uk"

// Session is one user's chat state: picked language and the tariff they are
// in the middle of paying for.
type Session struct {
	Lang          string
	PendingTariff string
}

// Manager owns all per-user sessions. It replaces the process-wide mutable
// maps the handlers would otherwise share, and is safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[int64]*Session),
	}
}

// SetLang records the user's language choice.
func (m *Manager) SetLang(userID int64, lang string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.get(userID).Lang = lang
}

// Lang returns the user's language, falling back to the default.
func (m *Manager) Lang(userID int64) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.sessions[userID]; ok && s.Lang != "" {
		return s.Lang
	}
	return DefaultLang
}

// SetPendingTariff remembers which tariff the user is paying for.
func (m *Manager) SetPendingTariff(userID int64, tariffKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.get(userID).PendingTariff = tariffKey
}

// PendingTariff returns the tariff the user selected, or "".
func (m *Manager) PendingTariff(userID int64) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.sessions[userID]; ok {
		return s.PendingTariff
	}
	return ""
}

// ClearPendingTariff drops the pending tariff after a grant completes.
func (m *Manager) ClearPendingTariff(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		s.PendingTariff = ""
	}
}

// get returns the live session record; callers must hold mu.
func (m *Manager) get(userID int64) *Session {
	s, ok := m.sessions[userID]
	if !ok {
		s = &Session{}
		m.sessions[userID] = s
	}
	return s
}
