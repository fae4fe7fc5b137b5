// Package session tracks live login sessions by token id so that logout
// can revoke bearer tokens before they expire.
package session

import (
	"sync"
	"time"
)

type Registry interface {
	// Add records a session under the token's jti with a TTL.
	Add(jti, userID string, ttl time.Duration) error
	// Alive reports whether the session is still valid.
	Alive(jti string) (bool, error)
	// Revoke invalidates a single session.
	Revoke(jti string) error
	// RevokeUser invalidates every session belonging to the user.
	RevokeUser(userID string) error
}

// Memory is the zero-dependency Registry used when Redis is not configured.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	now      func() time.Time
}

type memorySession struct {
	userID    string
	expiresAt time.Time
}

func NewMemory() *Memory {
	return NewMemoryWithNow(time.Now)
}

func NewMemoryWithNow(now func() time.Time) *Memory {
	return &Memory{sessions: make(map[string]memorySession), now: now}
}

func (m *Memory) Add(jti, userID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[jti] = memorySession{userID: userID, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *Memory) Alive(jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[jti]
	if !ok {
		return false, nil
	}
	if m.now().After(sess.expiresAt) {
		delete(m.sessions, jti)
		return false, nil
	}
	return true, nil
}

func (m *Memory) Revoke(jti string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, jti)
	return nil
}

func (m *Memory) RevokeUser(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for jti, sess := range m.sessions {
		if sess.userID == userID {
			delete(m.sessions, jti)
		}
	}
	return nil
}
