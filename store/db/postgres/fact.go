package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/einlabs/ein/store"
)

// AddFact inserts a long-term memory fact. Facts without an embedding are
// stored with a NULL vector and excluded from similarity search.
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

	var embedding any
	if len(fact.Embedding) > 0 {
		embedding = pgvector.NewVector(fact.Embedding)
	}

	stmt := `
		INSERT INTO fact (id, content, embedding, metadata, created_ts)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := d.db.ExecContext(ctx, stmt, fact.ID, fact.Content, embedding, metadata, fact.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to insert fact")
	}

	return fact, nil
}

// QueryFacts returns facts ordered by cosine distance when an embedding is
// supplied, most recent first otherwise.
func (d *DB) QueryFacts(ctx context.Context, find *store.FindFact) ([]*store.Fact, error) {
	limit := find.Limit
	if limit <= 0 {
		limit = 5
	}

	var query string
	var args []any
	if len(find.Embedding) > 0 {
		query = `
			SELECT id, content, metadata, created_ts
			FROM fact
			WHERE embedding IS NOT NULL
			ORDER BY embedding <=> $1
			LIMIT $2
		`
		args = []any{pgvector.NewVector(find.Embedding), limit}
	} else {
		query = `
			SELECT id, content, metadata, created_ts
			FROM fact
			ORDER BY created_ts DESC
			LIMIT $1
		`
		args = []any{limit}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query facts")
	}
	defer rows.Close()

	list := []*store.Fact{}
	for rows.Next() {
		var fact store.Fact
		var metadata []byte
		if err := rows.Scan(&fact.ID, &fact.Content, &metadata, &fact.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan fact")
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &fact.Metadata); err != nil {
				return nil, errors.Wrap(err, "failed to unmarshal fact metadata")
			}
		}
		list = append(list, &fact)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}
