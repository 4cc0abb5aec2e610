// Package memorytool exposes long-term memory as tools: saving facts and
// searching notes.
package memorytool

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/einlabs/ein/ai/llm"
	"github.com/einlabs/ein/ai/tools"
	"github.com/einlabs/ein/store"
)

// Tool saves and retrieves facts through the long-term memory store.
type Tool struct {
	memory store.LongTermMemory
	llm    llm.Service
}

func New(memory store.LongTermMemory, llmService llm.Service) *Tool {
	return &Tool{memory: memory, llm: llmService}
}

func (t *Tool) Register(r *tools.Registry) {
	r.RegisterTool(tools.Capability{
		Name:        "remember_fact",
		Description: "Save a fact about the user to long-term memory.",
		Run: func(ctx context.Context, params any) (any, error) {
			p, ok := params.(tools.RememberFactParams)
			if !ok {
				return nil, errors.New("remember_fact: unexpected params type")
			}
			return t.RememberFact(ctx, p.Fact)
		},
	})
	r.RegisterTool(tools.Capability{
		Name:        "query_note",
		Description: "Search saved notes and facts in long-term memory.",
		Run: func(ctx context.Context, params any) (any, error) {
			p, ok := params.(tools.QueryNoteParams)
			if !ok {
				return nil, errors.New("query_note: unexpected params type")
			}
			return t.QueryNotes(ctx, p)
		},
	})
}

// RememberFact stores the fact with its embedding. An embedding failure is
// tolerated; the fact is still stored for recency-based retrieval.
func (t *Tool) RememberFact(ctx context.Context, fact string) (string, error) {
	if fact == "" {
		return "", errors.New("no fact provided to remember")
	}

	record := &store.Fact{Content: fact}
	if t.llm != nil {
		embedding, err := t.llm.Embed(ctx, fact)
		if err != nil {
			slog.Warn("memorytool: embedding failed, storing fact without vector", "error", err)
		} else {
			record.Embedding = embedding
		}
	}

	if _, err := t.memory.AddFact(ctx, record); err != nil {
		return "", errors.Wrap(err, "failed to save fact")
	}
	return fmt.Sprintf("Successfully saved fact to long-term memory: %s", fact), nil
}

// QueryNotes searches stored facts by similarity, falling back to recency
// when no embedding can be produced.
func (t *Tool) QueryNotes(ctx context.Context, p tools.QueryNoteParams) ([]string, error) {
	topK := p.TopK
	if topK <= 0 {
		topK = 5
	}

	find := &store.FindFact{Limit: topK}
	if t.llm != nil {
		if embedding, err := t.llm.Embed(ctx, p.Query); err == nil {
			find.Embedding = embedding
		}
	}

	facts, err := t.memory.QueryFacts(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query notes")
	}

	contents := make([]string, len(facts))
	for i, fact := range facts {
		contents[i] = fact.Content
	}
	return contents, nil
}
