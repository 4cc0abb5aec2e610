package server

import (
	"sync"

	"github.com/einlabs/ein/ai/llm"
)

const sessionWindow = 10

// SessionStore keeps the in-process conversation windows keyed by session
// ID. Only the trailing window is retained per session.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string][]llm.Message
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string][]llm.Message)}
}

// History returns a copy of the session's window.
func (s *SessionStore) History(id string) []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.Message(nil), s.sessions[id]...)
}

// Append records one exchange and trims the window.
func (s *SessionStore) Append(id, userText, assistantText string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.sessions[id], llm.UserMessage(userText), llm.AssistantMessage(assistantText))
	if len(history) > sessionWindow {
		history = history[len(history)-sessionWindow:]
	}
	s.sessions[id] = history
}
