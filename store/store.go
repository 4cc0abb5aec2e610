// Package store defines the persistence contracts consumed by the agent
// pipeline: long-term (vector) memory, structured memory and the audit log.
package store

import (
	"context"

	"github.com/einlabs/ein/internal/profile"
)

// Fact is one long-term memory record.
type Fact struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Embedding []float32      `json:"embedding,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedTs int64          `json:"created_ts"`
}

// FindFact describes a long-term memory query.
type FindFact struct {
	// Embedding, when set, requests similarity search.
	Embedding []float32
	// Limit is the maximum number of facts to return.
	Limit int
}

// LongTermMemory is the vector-backed fact store.
type LongTermMemory interface {
	AddFact(ctx context.Context, fact *Fact) (*Fact, error)
	QueryFacts(ctx context.Context, find *FindFact) ([]*Fact, error)
}

// StructuredMemory stores one JSON document (user profile, habits, tasks).
type StructuredMemory interface {
	Load(ctx context.Context) (map[string]any, error)
	Save(ctx context.Context, data map[string]any) error
}

// AuditEntry is one append-only audit record.
type AuditEntry struct {
	ID        string         `json:"id"`
	Step      string         `json:"step"`
	CreatedTs int64          `json:"created_ts"`
	Payload   map[string]any `json:"payload"`
}

// AuditLog is the append-only audit collaborator. Append must be safe for
// concurrent use; failures must never block the caller's decision.
type AuditLog interface {
	Append(ctx context.Context, entry *AuditEntry) error
	List(ctx context.Context) ([]*AuditEntry, error)
}

// Driver is the database-backed part of the store.
type Driver interface {
	LongTermMemory

	Migrate(ctx context.Context) error
	Close() error
}

// Store aggregates all persistence collaborators behind one handle.
type Store struct {
	profile *profile.Profile
	driver  Driver

	Structured StructuredMemory
	Audit      AuditLog
}

// New creates a new instance of Store.
func New(driver Driver, structured StructuredMemory, audit AuditLog, profile *profile.Profile) *Store {
	return &Store{
		profile:    profile,
		driver:     driver,
		Structured: structured,
		Audit:      audit,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) AddFact(ctx context.Context, fact *Fact) (*Fact, error) {
	return s.driver.AddFact(ctx, fact)
}

func (s *Store) QueryFacts(ctx context.Context, find *FindFact) ([]*Fact, error) {
	return s.driver.QueryFacts(ctx, find)
}
