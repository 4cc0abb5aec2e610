package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/einlabs/ein/internal/profile"
	"github.com/einlabs/ein/store"
)

// SQLite is supported for single-user and development instances. Similarity
// search runs in the application layer over JSON-encoded embeddings instead
// of a vector index; acceptable for the fact volumes of one user.

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database specified by the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// WAL journal mode prevents locking issues between concurrent pipeline
	// runs; busy_timeout covers the remaining write contention.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	driver := DB{db: sqliteDB, profile: profile}
	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Migrate(ctx context.Context) error {
	stmt := `
		CREATE TABLE IF NOT EXISTS fact (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			embedding TEXT,
			metadata TEXT,
			created_ts INTEGER NOT NULL
		)
	`
	if _, err := d.db.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "failed to migrate")
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}
