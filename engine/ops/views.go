package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/secondbrain/collections/engine/storage"
)

func ListViews(ctx context.Context, q storage.Querier, sqlt storage.SQL, collectionID int64) ([]View, error) {
	rows, err := q.QueryContext(ctx, sqlt.ListViews, collectionID)
	if err != nil {
		return nil, fmt.Errorf("list views: %w", err)
	}
	defer rows.Close()
	out := make([]View, 0)
	for rows.Next() {
		var v View
		var isDefault int
		if err := rows.Scan(&v.ID, &v.CollectionID, &v.Name, &v.Type, &isDefault, &v.Order); err != nil {
			return nil, err
		}
		v.IsDefault = isDefault != 0
		out = append(out, v)
	}
	return out, rows.Err()
}

// AddView appends a non-default view after the collection's existing views.
func AddView(ctx context.Context, tx *sql.Tx, sqlt storage.SQL, collectionID int64, name, viewType string) (View, error) {
	if err := collectionExists(ctx, tx, sqlt, collectionID); err != nil {
		return View{}, err
	}
	var mx sql.NullInt64
	if err := tx.QueryRowContext(ctx, sqlt.MaxViewOrder, collectionID).Scan(&mx); err != nil {
		return View{}, fmt.Errorf("max view order: %w", err)
	}
	v := View{CollectionID: collectionID, Name: name, Type: viewType}
	if mx.Valid {
		v.Order = int(mx.Int64) + 1
	}
	if err := tx.QueryRowContext(ctx, sqlt.InsertView, collectionID, name, viewType, 0, v.Order).Scan(&v.ID); err != nil {
		return View{}, fmt.Errorf("insert view: %w", err)
	}
	return v, nil
}

func UpdateView(ctx context.Context, tx *sql.Tx, sqlt storage.SQL, id int64, name string) error {
	res, err := tx.ExecContext(ctx, sqlt.UpdateView, name, id)
	if err != nil {
		return fmt.Errorf("update view: %w", err)
	}
	return expectFound(res, "view", id)
}

func DeleteView(ctx context.Context, tx *sql.Tx, sqlt storage.SQL, id int64) error {
	res, err := tx.ExecContext(ctx, sqlt.DeleteView, id)
	if err != nil {
		return fmt.Errorf("delete view: %w", err)
	}
	return expectFound(res, "view", id)
}
