package storage

import (
	"context"
	"database/sql"

	"github.com/secondbrain/collections/engine/storage/sqlbuilder"
)

type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// FieldOrderIndex is the unique index enforcing one field per
// (collection_id, order_index).
const FieldOrderIndex = "idx_fields_collection_order_unique"

// Adapter abstracts database-specific operations
type Adapter interface {
	Backend() Backend
	PlaceholderStyle() sqlbuilder.PlaceholderStyle

	Connect(ctx context.Context) (*sql.DB, error)
	Close() error

	// Bootstrap creates the base tables and indexes if they are absent.
	Bootstrap(ctx context.Context, db *sql.DB) error
	HasIndex(ctx context.Context, q Querier, name string) (bool, error)

	SQL() SQL
	FTS() FTS
	Dialect() Dialect
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQL holds prepared SQL templates for common operations
type SQL struct {
	ListCollections      string
	GetCollection        string
	InsertCollection     string
	UpdateCollection     string
	DeleteCollection     string
	CollectionItemCounts string

	ListViews    string
	InsertView   string
	UpdateView   string
	DeleteView   string
	MaxViewOrder string

	ListFields                string
	GetField                  string
	InsertField               string
	UpdateField               string
	DeleteField               string
	FieldOrderBounds          string
	FieldIDsInOrder           string
	FieldCollections          string
	SetFieldOrder             string
	ShiftFieldOrder           string
	SetFieldOrderInCollection string
	CreateFieldOrderIndex     string

	InsertItem              string
	GetItem                 string
	UpdateItem              string
	UpdateItemInCollection  string
	DeleteItem              string
	DeleteItemsByCollection string
	CountItems              string
}

// FTS maintains and queries the derived full-text index over item documents.
type FTS interface {
	// Enable creates the index structure and its maintenance triggers.
	// An error means the backend cannot provide indexed search.
	Enable(ctx context.Context, db *sql.DB) error
	RowCount(ctx context.Context, q Querier) (int64, error)
	// Rebuild replaces the whole index with a projection of current items.
	Rebuild(ctx context.Context, tx *sql.Tx) error
	// Match requires every token as a phrase and ranks by relevance.
	Match(b Builder, tokens []string) Clause
}

// Dialect builds the backend-specific fragments of the item page query.
type Dialect interface {
	// Scan requires every token to be a case-insensitive substring of at
	// least one primitive document value.
	Scan(b Builder, tokens []string) Clause
	// SortKey returns ORDER BY terms for a document field. field must
	// already satisfy document.IsSafeName.
	SortKey(b Builder, field string, desc bool) []string
}

// Clause is a filter contribution to the item page query. Rank is nil when
// the clause has no relevance ordering; it is called only by the rows query.
type Clause struct {
	Join  string
	Where []string
	Rank  func(b Builder) string
}

// Builder interface for placeholder management
type Builder interface {
	Arg(v any) string
	Args() []any
	Len() int
}
