package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/secondbrain/collections/engine/storage"
)

type FTS5 struct{}

func (f FTS5) Enable(ctx context.Context, db *sql.DB) error {
	for _, stmt := range ddlSearch {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create fts: %w", err)
		}
	}
	return nil
}

func (f FTS5) RowCount(ctx context.Context, q storage.Querier) (int64, error) {
	var n int64
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM items_fts").Scan(&n); err != nil {
		return 0, fmt.Errorf("count fts rows: %w", err)
	}
	return n, nil
}

func (f FTS5) Rebuild(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM items_fts"); err != nil {
		return fmt.Errorf("clear fts: %w", err)
	}
	stmt := "INSERT INTO items_fts(rowid, content) SELECT i.id, " + contentExpr("i.data") + " FROM items i"
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("fill fts: %w", err)
	}
	return nil
}

func (f FTS5) Match(b storage.Builder, tokens []string) storage.Clause {
	ph := b.Arg(matchString(tokens))
	return storage.Clause{
		Join:  "JOIN items_fts ON items_fts.rowid = i.id",
		Where: []string{"items_fts MATCH " + ph},
		Rank:  func(storage.Builder) string { return "bm25(items_fts) ASC" },
	}
}

// matchString quotes every token as an FTS5 phrase and requires all of them.
func matchString(tokens []string) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = `"` + strings.ReplaceAll(tok, `"`, `""`) + `"`
	}
	return strings.Join(parts, " AND ")
}
