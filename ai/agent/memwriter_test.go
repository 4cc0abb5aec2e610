package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySinkPersistsOutcomes(t *testing.T) {
	longterm := &memFacts{}
	audit := &memAudit{}
	sink := NewMemorySink(longterm, nil, NewTransientStore(), audit)

	r := NewRecord("add a task", nil)
	r.Intent = IntentAddTask
	r.Memory["last_topic"] = "tasks"
	r.Results = []Outcome{
		SkillOutcome(IntentAddTask, true),
		ChatOutcome("done"),
	}

	result := sink.Stage(context.Background(), r)
	require.False(t, result.Failed())

	require.Len(t, longterm.facts, 2)
	assert.Equal(t, "true", longterm.facts[0].Content)
	assert.Equal(t, "skill", longterm.facts[0].Metadata["kind"])
	assert.Equal(t, IntentAddTask, longterm.facts[0].Metadata["type"])
	assert.Equal(t, "done", longterm.facts[1].Content)

	// The audit entry carries the full results and the working-memory
	// snapshot, not just counts.
	entries, err := audit.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "memory_sink", entries[0].Step)
	assert.Equal(t, "add a task", entries[0].Payload["input"])
	assert.Equal(t, r.Results, entries[0].Payload["results"])
	assert.Equal(t, map[string]any{"last_topic": "tasks"}, entries[0].Payload["memory"])
}

func TestMemorySinkSkipsErrorOutcomes(t *testing.T) {
	longterm := &memFacts{}
	sink := NewMemorySink(longterm, nil, nil, nil)

	r := NewRecord("x", nil)
	r.Results = []Outcome{ErrorOutcome("Permission denied for get_file")}

	result := sink.Stage(context.Background(), r)
	require.False(t, result.Failed())
	assert.Empty(t, longterm.facts)
}

func TestMemorySinkToleratesStoreFailure(t *testing.T) {
	longterm := &memFacts{err: assert.AnError}
	audit := &memAudit{err: assert.AnError}
	sink := NewMemorySink(longterm, nil, nil, audit)

	r := NewRecord("x", nil)
	r.Results = []Outcome{ChatOutcome("hi")}

	result := sink.Stage(context.Background(), r)
	require.False(t, result.Failed())
}

func TestMemorySinkFlushesWorkingMemory(t *testing.T) {
	transient := NewTransientStore()
	sink := NewMemorySink(nil, nil, transient, nil)

	r := NewRecord("x", nil)
	r.Memory["last_topic"] = "calendar"

	result := sink.Stage(context.Background(), r)
	require.False(t, result.Failed())

	value, ok := transient.Get("last_topic")
	require.True(t, ok)
	assert.Equal(t, "calendar", value)
}

func TestMemorySinkMergesStructuredDelta(t *testing.T) {
	structured := &memDoc{data: map[string]any{"name": "Sam", "diet": "omnivore"}}
	transient := NewTransientStore()
	sink := NewMemorySink(nil, structured, transient, nil)

	r := NewRecord("x", nil)
	r.Memory["structured"] = map[string]any{"diet": "vegetarian", "city": "Lisbon"}

	result := sink.Stage(context.Background(), r)
	require.False(t, result.Failed())

	data, err := structured.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Sam", data["name"])
	assert.Equal(t, "vegetarian", data["diet"])
	assert.Equal(t, "Lisbon", data["city"])

	// The delta is working memory too and flushes like every other key.
	value, ok := transient.Get("structured")
	require.True(t, ok)
	assert.Equal(t, r.Memory["structured"], value)
}
