// Package db constructs the storage driver matching the configured backend.
package db

import (
	"github.com/pkg/errors"

	"github.com/verisphere/semantic-dedupe/internal/profile"
	"github.com/verisphere/semantic-dedupe/store"
	"github.com/verisphere/semantic-dedupe/store/db/postgres"
	"github.com/verisphere/semantic-dedupe/store/db/sqlite"
)

// NewDBDriver creates a new database driver based on the DSN dialect.
// Postgres is the production backend (native pgvector similarity search);
// SQLite is the fallback for development and tests.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver() {
	case "postgres":
		return postgres.NewDB(profile)
	case "sqlite":
		return sqlite.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver: %s", profile.Driver())
	}
}
