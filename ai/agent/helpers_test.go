package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/einlabs/ein/ai/llm"
	"github.com/einlabs/ein/store"
)

// scriptedLLM replays canned replies. CompleteText pops from textReplies in
// order, so tests script the classifier and planner turns explicitly.
type scriptedLLM struct {
	mu           sync.Mutex
	textReplies  []string
	textErr      error
	chatReply    string
	chatErr      error
	embedding    []float32
	embedErr     error
	prompts      []string
	chatMessages [][]llm.Message
}

func (s *scriptedLLM) CompleteText(_ context.Context, prompt string, _ llm.TextOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if s.textErr != nil {
		return "", s.textErr
	}
	if len(s.textReplies) == 0 {
		return "", fmt.Errorf("scriptedLLM: no reply scripted for prompt %d", len(s.prompts))
	}
	reply := s.textReplies[0]
	s.textReplies = s.textReplies[1:]
	return reply, nil
}

func (s *scriptedLLM) CompleteChat(_ context.Context, messages []llm.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatMessages = append(s.chatMessages, messages)
	if s.chatErr != nil {
		return "", s.chatErr
	}
	return s.chatReply, nil
}

func (s *scriptedLLM) Embed(_ context.Context, _ string) ([]float32, error) {
	if s.embedErr != nil {
		return nil, s.embedErr
	}
	if s.embedding != nil {
		return s.embedding, nil
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

// memFacts is an in-memory LongTermMemory.
type memFacts struct {
	mu    sync.Mutex
	facts []*store.Fact
	err   error
}

func (m *memFacts) AddFact(_ context.Context, fact *store.Fact) (*store.Fact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	fact.ID = fmt.Sprintf("fact-%d", len(m.facts)+1)
	fact.CreatedTs = time.Now().Unix()
	m.facts = append(m.facts, fact)
	return fact, nil
}

func (m *memFacts) QueryFacts(_ context.Context, find *store.FindFact) ([]*store.Fact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	limit := find.Limit
	if limit <= 0 || limit > len(m.facts) {
		limit = len(m.facts)
	}
	out := make([]*store.Fact, 0, limit)
	for i := len(m.facts) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.facts[i])
	}
	return out, nil
}

// memDoc is an in-memory StructuredMemory.
type memDoc struct {
	mu   sync.Mutex
	data map[string]any
	err  error
}

func (m *memDoc) Load(_ context.Context) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.data == nil {
		return map[string]any{}, nil
	}
	return m.data, nil
}

func (m *memDoc) Save(_ context.Context, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data = data
	return nil
}

// memAudit is an in-memory AuditLog.
type memAudit struct {
	mu      sync.Mutex
	entries []*store.AuditEntry
	err     error
}

func (m *memAudit) Append(_ context.Context, entry *store.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memAudit) List(_ context.Context) ([]*store.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*store.AuditEntry(nil), m.entries...), nil
}

func (m *memAudit) steps() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	steps := make([]string, len(m.entries))
	for i, entry := range m.entries {
		steps[i] = entry.Step
	}
	return steps
}
