package memorytool

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/einlabs/ein/ai/llm"
	"github.com/einlabs/ein/ai/tools"
	"github.com/einlabs/ein/store"
)

type fakeMemory struct {
	mu    sync.Mutex
	facts []*store.Fact
	last  *store.FindFact
}

func (m *fakeMemory) AddFact(_ context.Context, fact *store.Fact) (*store.Fact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fact.ID = fmt.Sprintf("fact-%d", len(m.facts)+1)
	fact.CreatedTs = time.Now().Unix()
	m.facts = append(m.facts, fact)
	return fact, nil
}

func (m *fakeMemory) QueryFacts(_ context.Context, find *store.FindFact) ([]*store.Fact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = find
	limit := find.Limit
	if limit <= 0 || limit > len(m.facts) {
		limit = len(m.facts)
	}
	return m.facts[:limit], nil
}

type fakeEmbedder struct {
	embedding []float32
	err       error
}

func (f *fakeEmbedder) CompleteText(context.Context, string, llm.TextOptions) (string, error) {
	return "", fmt.Errorf("not implemented")
}

func (f *fakeEmbedder) CompleteChat(context.Context, []llm.Message) (string, error) {
	return "", fmt.Errorf("not implemented")
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.embedding, nil
}

func TestRememberFact(t *testing.T) {
	memory := &fakeMemory{}
	tool := New(memory, &fakeEmbedder{embedding: []float32{0.1, 0.2}})

	msg, err := tool.RememberFact(context.Background(), "User is vegetarian")
	require.NoError(t, err)
	assert.Equal(t, "Successfully saved fact to long-term memory: User is vegetarian", msg)

	require.Len(t, memory.facts, 1)
	assert.Equal(t, "User is vegetarian", memory.facts[0].Content)
	assert.Equal(t, []float32{0.1, 0.2}, memory.facts[0].Embedding)
}

func TestRememberFactToleratesEmbedFailure(t *testing.T) {
	memory := &fakeMemory{}
	tool := New(memory, &fakeEmbedder{err: fmt.Errorf("embedding down")})

	_, err := tool.RememberFact(context.Background(), "still stored")
	require.NoError(t, err)
	require.Len(t, memory.facts, 1)
	assert.Empty(t, memory.facts[0].Embedding)
}

func TestRememberFactRejectsEmpty(t *testing.T) {
	tool := New(&fakeMemory{}, &fakeEmbedder{})
	_, err := tool.RememberFact(context.Background(), "")
	assert.Error(t, err)
}

func TestQueryNotesSimilarity(t *testing.T) {
	memory := &fakeMemory{}
	_, err := memory.AddFact(context.Background(), &store.Fact{Content: "likes hiking"})
	require.NoError(t, err)

	tool := New(memory, &fakeEmbedder{embedding: []float32{0.5}})
	notes, err := tool.QueryNotes(context.Background(), tools.QueryNoteParams{Query: "hobbies", TopK: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"likes hiking"}, notes)

	require.NotNil(t, memory.last)
	assert.Equal(t, []float32{0.5}, memory.last.Embedding)
	assert.Equal(t, 3, memory.last.Limit)
}

func TestQueryNotesFallsBackToRecency(t *testing.T) {
	memory := &fakeMemory{}
	_, err := memory.AddFact(context.Background(), &store.Fact{Content: "recent note"})
	require.NoError(t, err)

	tool := New(memory, &fakeEmbedder{err: fmt.Errorf("embedding down")})
	notes, err := tool.QueryNotes(context.Background(), tools.QueryNoteParams{Query: "anything"})
	require.NoError(t, err)
	assert.Equal(t, []string{"recent note"}, notes)
	assert.Empty(t, memory.last.Embedding)
	assert.Equal(t, 5, memory.last.Limit) // default top-K
}
