package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/secondbrain/collections/engine/storage"
	"github.com/secondbrain/collections/engine/storage/sqlbuilder"
)

type Adapter struct {
	Path       string
	DriverName string
}

func New(path string) *Adapter {
	return &Adapter{Path: path, DriverName: driverName}
}

func NewWithDriver(path, driver string) *Adapter {
	return &Adapter{Path: path, DriverName: driver}
}

func (a *Adapter) Backend() storage.Backend {
	return storage.BackendSQLite
}

func (a *Adapter) PlaceholderStyle() sqlbuilder.PlaceholderStyle {
	return sqlbuilder.PlaceholderQuestion
}

// Connect opens the database file on a single connection. The engine is the
// only writer, and pragmas such as foreign_keys are per connection.
func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(a.DriverName, a.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite (%s): %w", driverType, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite (%s): %w", driverType, err)
	}
	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode=WAL")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous=NORMAL")
	return db, nil
}

func (a *Adapter) Close() error {
	return nil
}

func (a *Adapter) Bootstrap(ctx context.Context, db *sql.DB) error {
	for _, stmt := range ddlBase {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
	}
	return nil
}

func (a *Adapter) HasIndex(ctx context.Context, q storage.Querier, name string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?1", name).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (a *Adapter) SQL() storage.SQL {
	return SQLTemplates
}

func (a *Adapter) FTS() storage.FTS {
	return FTS5{}
}

func (a *Adapter) Dialect() storage.Dialect {
	return Dialect{}
}
