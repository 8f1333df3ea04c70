// Package store provides the relational store plumbing shared by the
// domain services: connection setup for sqlite and postgres, schema
// migration, and the not-found sentinel the cache layer relies on to keep
// negative results out of the cache.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound reports that a lookup by id, slug, SKU or unique attribute
// matched no record. Accessors return it unchanged and never cache it.
var ErrNotFound = errors.New("store: record not found")

// NotFound reports whether err is the not-found sentinel.
func NotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// AsNotFound maps the driver's empty-result error to ErrNotFound and
// passes every other error through unchanged.
func AsNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Config holds the store connection settings.
type Config struct {
	// Driver selects the backend: "sqlite" or "postgres".
	Driver string

	// DSN is the driver-specific connection string.
	DSN string
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	switch c.Driver {
	case "sqlite", "postgres":
	default:
		return errors.New(`store: Driver must be "sqlite" or "postgres"`)
	}
	if strings.TrimSpace(c.DSN) == "" {
		return errors.New("store: DSN must not be empty")
	}
	return nil
}

// Open connects to the configured database and wraps it in a bun.DB.
func Open(cfg Config) (*bun.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case "sqlite":
		sqldb, err := sql.Open("sqlite3", cfg.DSN)
		if err != nil {
			return nil, err
		}
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	default:
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
		return bun.NewDB(sqldb, pgdialect.New()), nil
	}
}

// Migrate creates the tables for the given models if they do not exist.
func Migrate(ctx context.Context, db *bun.DB, models ...any) error {
	for _, m := range models {
		if _, err := db.NewCreateTable().
			Model(m).
			IfNotExists().
			WithForeignKeys().
			Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}
