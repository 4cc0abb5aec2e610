package agent

import (
	"context"
	"log/slog"

	"github.com/einlabs/ein/ai/llm"
	"github.com/einlabs/ein/store"
)

const defaultContextTopK = 5

// ContextAssembler gathers retrieval context for planning: the top-K
// long-term facts relevant to the utterance plus the user profile.
type ContextAssembler struct {
	llm     llm.Service
	memory  store.LongTermMemory
	profile store.StructuredMemory
	topK    int
}

func NewContextAssembler(llmService llm.Service, memory store.LongTermMemory, profile store.StructuredMemory, topK int) *ContextAssembler {
	if topK <= 0 {
		topK = defaultContextTopK
	}
	return &ContextAssembler{llm: llmService, memory: memory, profile: profile, topK: topK}
}

// Stage populates r.Context. Retrieval is advisory; every failure degrades
// to an empty section rather than aborting the run.
func (c *ContextAssembler) Stage(ctx context.Context, r *Record) StageResult {
	r.Context = map[string]any{
		"rag":          c.retrieveFacts(ctx, r.Input),
		"user_profile": c.loadProfile(ctx),
	}
	return Continue(r)
}

func (c *ContextAssembler) retrieveFacts(ctx context.Context, input string) []string {
	if c.memory == nil {
		return []string{}
	}

	find := &store.FindFact{Limit: c.topK}
	if c.llm != nil {
		embedding, err := c.llm.Embed(ctx, input)
		if err != nil {
			slog.Warn("context embedding failed, skipping retrieval", "error", err)
			return []string{}
		}
		find.Embedding = embedding
	}

	facts, err := c.memory.QueryFacts(ctx, find)
	if err != nil {
		slog.Warn("context retrieval failed", "error", err)
		return []string{}
	}

	contents := make([]string, len(facts))
	for i, fact := range facts {
		contents[i] = fact.Content
	}
	return contents
}

func (c *ContextAssembler) loadProfile(ctx context.Context) map[string]any {
	if c.profile == nil {
		return map[string]any{}
	}
	data, err := c.profile.Load(ctx)
	if err != nil || data == nil {
		return map[string]any{}
	}
	return data
}
