package session

import (
	"sync"
	"time"

	"github.com/futig/pdf-digest/internal/entity"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the session's conversation history.
type Message struct {
	Role      Role
	Content   string
	CreatedAt time.Time
}

// Session is one user's visit. It owns the engine cache and the conversation
// state shown to the user.
type Session struct {
	ID        string
	CreatedAt time.Time

	cache *EngineCache

	mu           sync.Mutex
	messages     []Message
	lastResult   *entity.SummaryResult
	lastActiveAt time.Time
}

func newSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		CreatedAt:    now,
		cache:        NewEngineCache(),
		lastActiveAt: now,
	}
}

func (s *Session) Cache() *EngineCache {
	return s.cache
}

// AddMessage appends to the conversation history.
func (s *Session) AddMessage(role Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.messages = append(s.messages, Message{Role: role, Content: content, CreatedAt: now})
	s.lastActiveAt = now
}

func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SetLastResult records the result currently displayed to the user.
func (s *Session) SetLastResult(result *entity.SummaryResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastResult = result
	s.lastActiveAt = time.Now()
}

func (s *Session) LastResult() *entity.SummaryResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastResult
}

func (s *Session) LastActiveAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastActiveAt
}

// ClearChat resets messages and the displayed result. Cached engines are kept.
func (s *Session) ClearChat() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = nil
	s.lastResult = nil
	s.lastActiveAt = time.Now()
}

// Close releases everything the session holds, cached engines included.
func (s *Session) Close() {
	s.mu.Lock()
	s.messages = nil
	s.lastResult = nil
	s.mu.Unlock()

	s.cache.Clear()
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActiveAt = time.Now()
	s.mu.Unlock()
}
