package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/einlabs/ein/store"
)

// TransientStore holds per-process working memory that does not survive
// restarts. Runs stash scratch values here between turns.
type TransientStore struct {
	mu   sync.RWMutex
	data map[string]any
}

func NewTransientStore() *TransientStore {
	return &TransientStore{data: map[string]any{}}
}

func (t *TransientStore) Set(key string, value any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data[key] = value
}

func (t *TransientStore) Get(key string) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	value, ok := t.data[key]
	return value, ok
}

// MemorySink persists the run's outcomes after execution. Every write is
// best effort; persistence failures are logged and never fail the run.
type MemorySink struct {
	longterm   store.LongTermMemory
	structured store.StructuredMemory
	transient  *TransientStore
	audit      store.AuditLog
}

func NewMemorySink(longterm store.LongTermMemory, structured store.StructuredMemory, transient *TransientStore, audit store.AuditLog) *MemorySink {
	if transient == nil {
		transient = NewTransientStore()
	}
	return &MemorySink{longterm: longterm, structured: structured, transient: transient, audit: audit}
}

func (s *MemorySink) Stage(ctx context.Context, r *Record) StageResult {
	for key, value := range r.Memory {
		s.transient.Set(key, value)
	}
	s.mergeStructured(ctx, r)

	if s.longterm != nil {
		for _, outcome := range r.Results {
			if outcome.Kind == OutcomeError {
				continue
			}
			fact := &store.Fact{
				Content:  outcomeText(outcome),
				Metadata: outcomeMetadata(outcome),
			}
			if fact.Content == "" {
				continue
			}
			if _, err := s.longterm.AddFact(ctx, fact); err != nil {
				slog.Warn("memory sink fact write failed", "kind", outcome.Kind, "error", err)
			}
		}
	}

	if s.audit != nil {
		err := s.audit.Append(ctx, &store.AuditEntry{
			Step:      "memory_sink",
			CreatedTs: time.Now().Unix(),
			Payload: map[string]any{
				"input":   r.Input,
				"intent":  r.Intent,
				"results": r.Results,
				"memory":  r.Memory,
			},
		})
		if err != nil {
			slog.Warn("memory sink audit append failed", "error", err)
		}
	}
	return Continue(r)
}

// mergeStructured folds the run's "structured" working-memory entry into
// the durable user profile document.
func (s *MemorySink) mergeStructured(ctx context.Context, r *Record) {
	if s.structured == nil {
		return
	}
	delta, ok := r.Memory["structured"].(map[string]any)
	if !ok || len(delta) == 0 {
		return
	}

	data, err := s.structured.Load(ctx)
	if err != nil || data == nil {
		data = map[string]any{}
	}
	for key, value := range delta {
		data[key] = value
	}
	if err := s.structured.Save(ctx, data); err != nil {
		slog.Warn("memory sink structured merge failed", "error", err)
	}
}

func outcomeText(o Outcome) string {
	switch o.Kind {
	case OutcomeChat:
		return o.Text
	case OutcomeTool, OutcomeSkill:
		switch v := o.Value.(type) {
		case string:
			return v
		case nil:
			return ""
		default:
			if encoded, err := json.Marshal(v); err == nil {
				return string(encoded)
			}
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}

func outcomeMetadata(o Outcome) map[string]any {
	meta := map[string]any{"kind": string(o.Kind)}
	if o.Type != "" {
		meta["type"] = o.Type
	}
	return meta
}
