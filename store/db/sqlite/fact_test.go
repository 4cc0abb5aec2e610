package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/einlabs/ein/internal/profile"
	"github.com/einlabs/ein/store"
)

func newTestDB(t *testing.T) store.Driver {
	t.Helper()
	p := &profile.Profile{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	}
	driver, err := NewDB(p)
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })
	require.NoError(t, driver.Migrate(context.Background()))
	return driver
}

func TestAddFact_AssignsIDAndTimestamp(t *testing.T) {
	driver := newTestDB(t)
	ctx := context.Background()

	fact, err := driver.AddFact(ctx, &store.Fact{Content: "user lives on Mars"})
	require.NoError(t, err)
	assert.NotEmpty(t, fact.ID)
	assert.NotZero(t, fact.CreatedTs)
}

func TestQueryFacts_RecencyWithoutEmbedding(t *testing.T) {
	driver := newTestDB(t)
	ctx := context.Background()

	for i, content := range []string{"first", "second", "third"} {
		_, err := driver.AddFact(ctx, &store.Fact{
			Content:   content,
			CreatedTs: int64(100 + i),
		})
		require.NoError(t, err)
	}

	facts, err := driver.QueryFacts(ctx, &store.FindFact{Limit: 2})
	require.NoError(t, err)
	require.Len(t, facts, 2)
	assert.Equal(t, "third", facts[0].Content)
	assert.Equal(t, "second", facts[1].Content)
}

func TestQueryFacts_SimilarityRanking(t *testing.T) {
	driver := newTestDB(t)
	ctx := context.Background()

	_, err := driver.AddFact(ctx, &store.Fact{Content: "likes jazz", Embedding: []float32{1, 0, 0}})
	require.NoError(t, err)
	_, err = driver.AddFact(ctx, &store.Fact{Content: "owns a corgi", Embedding: []float32{0, 1, 0}})
	require.NoError(t, err)
	// Facts without embeddings are excluded from similarity search.
	_, err = driver.AddFact(ctx, &store.Fact{Content: "no vector"})
	require.NoError(t, err)

	facts, err := driver.QueryFacts(ctx, &store.FindFact{
		Embedding: []float32{0.9, 0.1, 0},
		Limit:     5,
	})
	require.NoError(t, err)
	require.Len(t, facts, 2)
	assert.Equal(t, "likes jazz", facts[0].Content)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2}, []float32{1, 2}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1}, []float32{1, 2}))
}
