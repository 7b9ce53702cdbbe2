package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/secondbrain/collections/engine/storage"
)

func ListFields(ctx context.Context, q storage.Querier, sqlt storage.SQL, collectionID int64) ([]Field, error) {
	rows, err := q.QueryContext(ctx, sqlt.ListFields, collectionID)
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	defer rows.Close()
	out := make([]Field, 0)
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func GetField(ctx context.Context, q storage.Querier, sqlt storage.SQL, id int64) (Field, error) {
	f, err := scanField(q.QueryRowContext(ctx, sqlt.GetField, id))
	if err == sql.ErrNoRows {
		return Field{}, &NotFoundError{Entity: "field", ID: id}
	}
	if err != nil {
		return Field{}, fmt.Errorf("get field: %w", err)
	}
	return f, nil
}

// AddField inserts a field at its explicit order index, or after the last
// field of the collection when none is given.
func AddField(ctx context.Context, tx *sql.Tx, sqlt storage.SQL, collectionID int64, in FieldInput) (Field, error) {
	if err := collectionExists(ctx, tx, sqlt, collectionID); err != nil {
		return Field{}, err
	}
	return insertField(ctx, tx, sqlt, collectionID, in)
}

func insertField(ctx context.Context, tx *sql.Tx, sqlt storage.SQL, collectionID int64, in FieldInput) (Field, error) {
	f := Field{CollectionID: collectionID, Name: in.Name, Type: in.Type, Options: in.Options}
	if in.OrderIndex != nil {
		f.OrderIndex = *in.OrderIndex
	} else {
		_, hi, ok, err := fieldOrderBounds(ctx, tx, sqlt, collectionID)
		if err != nil {
			return Field{}, err
		}
		if ok {
			f.OrderIndex = int(hi) + 1
		}
	}
	err := tx.QueryRowContext(ctx, sqlt.InsertField, collectionID, f.Name, f.Type, f.Options, f.OrderIndex).Scan(&f.ID)
	if err != nil {
		return Field{}, fmt.Errorf("insert field %q: %w", f.Name, err)
	}
	return f, nil
}

// UpdateField rewrites a field definition. A nil OrderIndex keeps the
// field's current position.
func UpdateField(ctx context.Context, tx *sql.Tx, sqlt storage.SQL, id int64, in FieldInput) (Field, error) {
	f, err := GetField(ctx, tx, sqlt, id)
	if err != nil {
		return Field{}, err
	}
	f.Name = in.Name
	f.Type = in.Type
	f.Options = in.Options
	if in.OrderIndex != nil {
		f.OrderIndex = *in.OrderIndex
	}
	res, err := tx.ExecContext(ctx, sqlt.UpdateField, f.Name, f.Type, f.Options, f.OrderIndex, id)
	if err != nil {
		return Field{}, fmt.Errorf("update field: %w", err)
	}
	if err := expectOne(res, fmt.Sprintf("update field %d", id)); err != nil {
		return Field{}, err
	}
	return f, nil
}

// DeleteField removes one field. Siblings keep their order indices.
func DeleteField(ctx context.Context, tx *sql.Tx, sqlt storage.SQL, id int64) error {
	res, err := tx.ExecContext(ctx, sqlt.DeleteField, id)
	if err != nil {
		return fmt.Errorf("delete field: %w", err)
	}
	return expectFound(res, "field", id)
}
