package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/secondbrain/collections/engine/storage"
)

const (
	DefaultIcon     = "folder"
	DefaultViewName = "Grid"
	DefaultViewType = "grid"
)

func ListCollections(ctx context.Context, q storage.Querier, sqlt storage.SQL) ([]Collection, error) {
	rows, err := q.QueryContext(ctx, sqlt.ListCollections)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()
	out := make([]Collection, 0)
	for rows.Next() {
		var c Collection
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func GetCollection(ctx context.Context, q storage.Querier, sqlt storage.SQL, id int64) (Collection, error) {
	var c Collection
	err := q.QueryRowContext(ctx, sqlt.GetCollection, id).Scan(&c.ID, &c.Name, &c.Icon, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return Collection{}, &NotFoundError{Entity: "collection", ID: id}
	}
	if err != nil {
		return Collection{}, fmt.Errorf("get collection: %w", err)
	}
	return c, nil
}

// AddCollection creates a collection together with its default grid view.
func AddCollection(ctx context.Context, tx *sql.Tx, sqlt storage.SQL, name, icon string, nowMS int64) (Collection, error) {
	if icon == "" {
		icon = DefaultIcon
	}
	c := Collection{Name: name, Icon: icon, CreatedAt: nowMS}
	if err := tx.QueryRowContext(ctx, sqlt.InsertCollection, name, icon, nowMS).Scan(&c.ID); err != nil {
		return Collection{}, fmt.Errorf("insert collection: %w", err)
	}
	var viewID int64
	if err := tx.QueryRowContext(ctx, sqlt.InsertView, c.ID, DefaultViewName, DefaultViewType, 1, 0).Scan(&viewID); err != nil {
		return Collection{}, fmt.Errorf("insert default view: %w", err)
	}
	return c, nil
}

// UpdateCollection renames a collection. A nil icon keeps the current one.
func UpdateCollection(ctx context.Context, tx *sql.Tx, sqlt storage.SQL, id int64, name string, icon *string) (Collection, error) {
	c, err := GetCollection(ctx, tx, sqlt, id)
	if err != nil {
		return Collection{}, err
	}
	c.Name = name
	if icon != nil {
		c.Icon = *icon
	}
	res, err := tx.ExecContext(ctx, sqlt.UpdateCollection, c.Name, c.Icon, id)
	if err != nil {
		return Collection{}, fmt.Errorf("update collection: %w", err)
	}
	if err := expectOne(res, fmt.Sprintf("update collection %d", id)); err != nil {
		return Collection{}, err
	}
	return c, nil
}

// DeleteCollection removes a collection; fields, items and views cascade.
func DeleteCollection(ctx context.Context, tx *sql.Tx, sqlt storage.SQL, id int64) error {
	res, err := tx.ExecContext(ctx, sqlt.DeleteCollection, id)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return expectFound(res, "collection", id)
}

// CollectionItemCounts returns item totals for every collection that has
// at least one item.
func CollectionItemCounts(ctx context.Context, q storage.Querier, sqlt storage.SQL) ([]ItemCount, error) {
	rows, err := q.QueryContext(ctx, sqlt.CollectionItemCounts)
	if err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}
	defer rows.Close()
	out := make([]ItemCount, 0)
	for rows.Next() {
		var c ItemCount
		if err := rows.Scan(&c.CollectionID, &c.ItemCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
