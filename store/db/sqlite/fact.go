package sqlite

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/einlabs/ein/store"
)

// candidatePool bounds how many recent facts are loaded for in-app ranking.
const candidatePool = 500

func (d *DB) AddFact(ctx context.Context, fact *store.Fact) (*store.Fact, error) {
	if fact.ID == "" {
		fact.ID = uuid.NewString()
	}
	if fact.CreatedTs == 0 {
		fact.CreatedTs = time.Now().Unix()
	}

	metadata, err := json.Marshal(fact.Metadata)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal fact metadata")
	}

	var embedding []byte
	if len(fact.Embedding) > 0 {
		embedding, err = json.Marshal(fact.Embedding)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal fact embedding")
		}
	}

	stmt := `
		INSERT INTO fact (id, content, embedding, metadata, created_ts)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := d.db.ExecContext(ctx, stmt, fact.ID, fact.Content, embedding, metadata, fact.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to insert fact")
	}

	return fact, nil
}

// QueryFacts ranks recent facts by cosine similarity in the application
// layer when an embedding is supplied.
func (d *DB) QueryFacts(ctx context.Context, find *store.FindFact) ([]*store.Fact, error) {
	limit := find.Limit
	if limit <= 0 {
		limit = 5
	}

	poolLimit := limit
	if len(find.Embedding) > 0 {
		poolLimit = candidatePool
	}

	query := `
		SELECT id, content, embedding, metadata, created_ts
		FROM fact
		ORDER BY created_ts DESC
		LIMIT ?
	`
	rows, err := d.db.QueryContext(ctx, query, poolLimit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query facts")
	}
	defer rows.Close()

	type scored struct {
		fact  *store.Fact
		score float64
	}
	candidates := []scored{}
	for rows.Next() {
		var fact store.Fact
		var embedding, metadata []byte
		if err := rows.Scan(&fact.ID, &fact.Content, &embedding, &metadata, &fact.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan fact")
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &fact.Metadata); err != nil {
				return nil, errors.Wrap(err, "failed to unmarshal fact metadata")
			}
		}
		if len(embedding) > 0 {
			if err := json.Unmarshal(embedding, &fact.Embedding); err != nil {
				return nil, errors.Wrap(err, "failed to unmarshal fact embedding")
			}
		}

		score := 0.0
		if len(find.Embedding) > 0 {
			if len(fact.Embedding) == 0 {
				continue
			}
			score = cosineSimilarity(find.Embedding, fact.Embedding)
		}
		candidates = append(candidates, scored{fact: &fact, score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(find.Embedding) > 0 {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].score > candidates[j].score
		})
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	list := make([]*store.Fact, len(candidates))
	for i, c := range candidates {
		list[i] = c.fact
	}
	return list, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
