package session

import (
	"fmt"
	"sync"

	"github.com/futig/pdf-digest/internal/config"
	"github.com/futig/pdf-digest/internal/entity"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Manager keeps live sessions and releases them after the idle TTL.
type Manager struct {
	mu       sync.Mutex
	sessions *cache.Cache
	logger   *zap.Logger
}

func NewManager(cfg config.SessionConfig, logger *zap.Logger) *Manager {
	sessions := cache.New(cfg.IdleTTL, cfg.CleanupInterval)
	sessions.OnEvicted(func(id string, v any) {
		if s, ok := v.(*Session); ok {
			s.Close()
			logger.Info("session released", zap.String("session_id", id))
		}
	})

	return &Manager{
		sessions: sessions,
		logger:   logger,
	}
}

// Create starts a session with a random identifier.
func (m *Manager) Create() *Session {
	s := newSession(uuid.NewString())
	m.sessions.SetDefault(s.ID, s)
	return s
}

// GetOrCreate returns the session with the given identifier, starting one if
// needed. Frontends with their own stable user identity use it.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, err := m.Get(id); err == nil {
		return s
	}

	// releases an expired session the janitor has not collected yet
	m.sessions.Delete(id)

	s := newSession(id)
	m.sessions.SetDefault(id, s)
	return s
}

// Get returns a live session and extends its idle deadline.
func (m *Manager) Get(id string) (*Session, error) {
	v, ok := m.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrSessionNotFound, id)
	}

	s := v.(*Session)
	s.touch()
	m.sessions.SetDefault(id, s)
	return s, nil
}

// Delete releases the session and its cached engines.
func (m *Manager) Delete(id string) error {
	if _, ok := m.sessions.Get(id); !ok {
		return fmt.Errorf("%w: %s", entity.ErrSessionNotFound, id)
	}

	m.sessions.Delete(id)
	return nil
}

func (m *Manager) Count() int {
	return m.sessions.ItemCount()
}

// Close releases every session.
func (m *Manager) Close() {
	for id := range m.sessions.Items() {
		m.sessions.Delete(id)
	}
}
