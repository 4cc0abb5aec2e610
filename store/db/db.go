// Package db selects the concrete database driver from the profile.
package db

import (
	"github.com/pkg/errors"

	"github.com/einlabs/ein/internal/profile"
	"github.com/einlabs/ein/store"
	"github.com/einlabs/ein/store/db/postgres"
	"github.com/einlabs/ein/store/db/sqlite"
)

// NewDBDriver creates a new database driver based on the profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "postgres":
		return postgres.NewDB(profile)
	case "sqlite":
		return sqlite.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q", profile.Driver)
	}
}
