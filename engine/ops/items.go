package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/secondbrain/collections/engine/document"
	"github.com/secondbrain/collections/engine/storage"
)

func GetItem(ctx context.Context, q storage.Querier, sqlt storage.SQL, id int64) (Item, error) {
	it, err := scanItem(q.QueryRowContext(ctx, sqlt.GetItem, id))
	if err == sql.ErrNoRows {
		return Item{}, &NotFoundError{Entity: "item", ID: id}
	}
	if err != nil {
		return Item{}, err
	}
	return it, nil
}

func AddItem(ctx context.Context, tx *sql.Tx, sqlt storage.SQL, collectionID int64, doc document.Document, nowMS int64) (Item, error) {
	if err := collectionExists(ctx, tx, sqlt, collectionID); err != nil {
		return Item{}, err
	}
	return insertItem(ctx, tx, sqlt, collectionID, doc, nowMS, 0)
}

func insertItem(ctx context.Context, tx *sql.Tx, sqlt storage.SQL, collectionID int64, doc document.Document, nowMS int64, pos int) (Item, error) {
	if err := doc.Validate(); err != nil {
		return Item{}, &DocumentError{Index: pos, Err: err}
	}
	raw, err := doc.Marshal()
	if err != nil {
		return Item{}, &DocumentError{Index: pos, Err: err}
	}
	if doc == nil {
		doc = document.Document{}
	}
	it := Item{CollectionID: collectionID, Data: doc, CreatedAt: nowMS, UpdatedAt: nowMS}
	if err := tx.QueryRowContext(ctx, sqlt.InsertItem, collectionID, raw, nowMS).Scan(&it.ID); err != nil {
		return Item{}, fmt.Errorf("insert item: %w", err)
	}
	return it, nil
}

// UpdateItem replaces an item's whole document.
func UpdateItem(ctx context.Context, tx *sql.Tx, sqlt storage.SQL, id int64, doc document.Document, nowMS int64) (Item, error) {
	if err := doc.Validate(); err != nil {
		return Item{}, &DocumentError{ItemID: id, Err: err}
	}
	raw, err := doc.Marshal()
	if err != nil {
		return Item{}, &DocumentError{ItemID: id, Err: err}
	}
	res, err := tx.ExecContext(ctx, sqlt.UpdateItem, raw, nowMS, id)
	if err != nil {
		return Item{}, fmt.Errorf("update item: %w", err)
	}
	if err := expectFound(res, "item", id); err != nil {
		return Item{}, err
	}
	return GetItem(ctx, tx, sqlt, id)
}

func DeleteItem(ctx context.Context, tx *sql.Tx, sqlt storage.SQL, id int64) error {
	res, err := tx.ExecContext(ctx, sqlt.DeleteItem, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return expectFound(res, "item", id)
}

// QueryItems runs a page query produced by the planner.
func QueryItems(ctx context.Context, q storage.Querier, query string, args []any) ([]Item, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()
	out := make([]Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func CountQuery(ctx context.Context, q storage.Querier, query string, args []any) (int64, error) {
	var n int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}
