package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/secondbrain/collections/engine/document"
	"github.com/secondbrain/collections/engine/storage"
)

type Collection struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	CreatedAt int64  `json:"createdAt"`
}

type View struct {
	ID           int64  `json:"id"`
	CollectionID int64  `json:"collectionId"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	IsDefault    bool   `json:"isDefault"`
	Order        int    `json:"order"`
}

type Field struct {
	ID           int64   `json:"id"`
	CollectionID int64   `json:"collectionId"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Options      *string `json:"options"`
	OrderIndex   int     `json:"orderIndex"`
}

type Item struct {
	ID           int64             `json:"id"`
	CollectionID int64             `json:"collectionId"`
	Data         document.Document `json:"data"`
	CreatedAt    int64             `json:"createdAt"`
	UpdatedAt    int64             `json:"updatedAt"`
}

type ItemCount struct {
	CollectionID int64 `json:"collectionId"`
	ItemCount    int64 `json:"itemCount"`
}

// FieldInput describes a field to create. A nil OrderIndex takes the next
// free index in the collection.
type FieldInput struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Options    *string `json:"options,omitempty"`
	OrderIndex *int    `json:"orderIndex,omitempty"`
}

type FieldOrder struct {
	ID         int64 `json:"id"`
	OrderIndex int   `json:"orderIndex"`
}

type ItemPatch struct {
	ID    int64             `json:"id"`
	Patch document.Document `json:"patch"`
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanField(r rowScanner) (Field, error) {
	var f Field
	var opts sql.NullString
	if err := r.Scan(&f.ID, &f.CollectionID, &f.Name, &f.Type, &opts, &f.OrderIndex); err != nil {
		return Field{}, err
	}
	if opts.Valid {
		f.Options = &opts.String
	}
	return f, nil
}

func scanItem(r rowScanner) (Item, error) {
	var it Item
	var raw string
	if err := r.Scan(&it.ID, &it.CollectionID, &raw, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return Item{}, err
	}
	doc, err := document.Parse(raw)
	if err != nil {
		return Item{}, &CorruptError{ItemID: it.ID, Err: err}
	}
	it.Data = doc
	return it, nil
}

func collectionExists(ctx context.Context, q storage.Querier, sqlt storage.SQL, id int64) error {
	var c Collection
	err := q.QueryRowContext(ctx, sqlt.GetCollection, id).Scan(&c.ID, &c.Name, &c.Icon, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return &NotFoundError{Entity: "collection", ID: id}
	}
	if err != nil {
		return fmt.Errorf("load collection: %w", err)
	}
	return nil
}

// expectOne checks that a single-row write touched exactly one row.
func expectOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", what, err)
	}
	if n != 1 {
		return &IntegrityError{Message: fmt.Sprintf("%s affected %d rows, expected 1", what, n)}
	}
	return nil
}

// expectFound maps a zero-row write to NotFoundError.
func expectFound(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d: rows affected: %w", entity, id, err)
	}
	switch {
	case n == 0:
		return &NotFoundError{Entity: entity, ID: id}
	case n > 1:
		return &IntegrityError{Message: fmt.Sprintf("%s %d: write affected %d rows, expected 1", entity, id, n)}
	}
	return nil
}
