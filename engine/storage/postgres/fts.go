package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/secondbrain/collections/engine/storage"
)

type FTS struct{}

func (f FTS) Enable(ctx context.Context, db *sql.DB) error {
	for _, stmt := range ddlSearch {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create search index: %w", err)
		}
	}
	return nil
}

func (f FTS) RowCount(ctx context.Context, q storage.Querier) (int64, error) {
	var n int64
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM items_search").Scan(&n); err != nil {
		return 0, fmt.Errorf("count search rows: %w", err)
	}
	return n, nil
}

func (f FTS) Rebuild(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM items_search"); err != nil {
		return fmt.Errorf("clear search index: %w", err)
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO items_search(item_id, tsv)
		SELECT i.id, to_tsvector('simple', items_search_content(i.data)) FROM items i`)
	if err != nil {
		return fmt.Errorf("fill search index: %w", err)
	}
	return nil
}

func (f FTS) Match(b storage.Builder, tokens []string) storage.Clause {
	where := make([]string, len(tokens))
	for i, tok := range tokens {
		where[i] = "s.tsv @@ phraseto_tsquery('simple', " + b.Arg(tok) + ")"
	}
	all := strings.Join(tokens, " ")
	return storage.Clause{
		Join:  "JOIN items_search s ON s.item_id = i.id",
		Where: where,
		Rank: func(rb storage.Builder) string {
			return "ts_rank(s.tsv, plainto_tsquery('simple', " + rb.Arg(all) + ")) DESC"
		},
	}
}
