package engine

import (
	"log/slog"
	"time"

	"github.com/secondbrain/collections/engine/ops"
	"github.com/secondbrain/collections/engine/storage"
)

// Options configures an Engine.
type Options struct {
	// Backend selects the storage adapter built by Init. The init path is a
	// file path for sqlite and a DSN for postgres.
	Backend        storage.Backend
	PostgresSchema string

	Now    func() time.Time
	Logger *slog.Logger

	// DisableFullText skips the full-text index and always uses the
	// substring scan.
	DisableFullText bool

	// InClauseChunkSize bounds the IDs per IN (...) list in bulk operations.
	InClauseChunkSize int
}

func DefaultOptions() Options {
	return Options{
		Backend:           storage.BackendSQLite,
		PostgresSchema:    "collections",
		Now:               time.Now,
		Logger:            slog.Default(),
		InClauseChunkSize: ops.DefaultChunkSize,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Backend == "" {
		o.Backend = d.Backend
	}
	if o.PostgresSchema == "" {
		o.PostgresSchema = d.PostgresSchema
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	if o.Logger == nil {
		o.Logger = d.Logger
	}
	if o.InClauseChunkSize <= 0 {
		o.InClauseChunkSize = d.InClauseChunkSize
	}
	return o
}
