package cliopt

import (
	"log/slog"

	"github.com/secondbrain/collections/engine"
	"github.com/secondbrain/collections/engine/storage"
)

// GlobalOptions are parsed once at the CLI root and bound into every
// command's Run method.
//
// NOTE: This is a separate package to avoid import cycles between the root
// command tree and per-command code.
type GlobalOptions struct {
	DB         string `name:"db" short:"d" env:"COLLECTIONS_DB" default:"." help:"SQLite directory or .db file, or a PostgreSQL DSN."`
	Backend    string `name:"backend" env:"COLLECTIONS_BACKEND" enum:"sqlite,postgres" default:"sqlite" help:"Storage backend (${enum})."`
	PGSchema   string `name:"pg-schema" env:"COLLECTIONS_PG_SCHEMA" default:"collections" help:"PostgreSQL schema holding the tables."`
	NoFullText bool   `name:"no-fts" env:"COLLECTIONS_NO_FTS" help:"Always use substring search."`

	LogLevel  string `name:"log-level" env:"COLLECTIONS_LOG_LEVEL" enum:"debug,info,warn,error" default:"info" help:"Log level (${enum})."`
	LogFormat string `name:"log-format" env:"COLLECTIONS_LOG_FORMAT" enum:"json,text" default:"json" help:"Log format (${enum})."`
}

// EngineOptions maps the global flags onto engine options.
func (g GlobalOptions) EngineOptions(logger *slog.Logger) engine.Options {
	opts := engine.DefaultOptions()
	opts.Backend = storage.Backend(g.Backend)
	if g.PGSchema != "" {
		opts.PostgresSchema = g.PGSchema
	}
	opts.DisableFullText = g.NoFullText
	if logger != nil {
		opts.Logger = logger
	}
	return opts
}
