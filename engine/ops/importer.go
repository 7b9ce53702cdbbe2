package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/secondbrain/collections/engine/document"
	"github.com/secondbrain/collections/engine/storage"
)

type ImportMode string

const (
	ImportAppend  ImportMode = "append"
	ImportReplace ImportMode = "replace"
)

type ImportResult struct {
	FieldsAdded int `json:"fieldsAdded"`
	ItemsAdded  int `json:"itemsAdded"`
}

// Import adds fields and items to a collection in one transaction. Replace
// mode first deletes the collection's items; field definitions already in
// place are never touched.
func Import(ctx context.Context, tx *sql.Tx, sqlt storage.SQL, collectionID int64, mode ImportMode, fields []FieldInput, items []document.Document, nowMS int64) (ImportResult, error) {
	var res ImportResult
	if err := collectionExists(ctx, tx, sqlt, collectionID); err != nil {
		return res, err
	}
	switch mode {
	case ImportReplace:
		if _, err := tx.ExecContext(ctx, sqlt.DeleteItemsByCollection, collectionID); err != nil {
			return res, fmt.Errorf("clear collection items: %w", err)
		}
	case ImportAppend:
	default:
		return res, fmt.Errorf("unknown import mode %q", mode)
	}

	for _, in := range fields {
		if _, err := insertField(ctx, tx, sqlt, collectionID, in); err != nil {
			return res, err
		}
		res.FieldsAdded++
	}
	for i, doc := range items {
		if _, err := insertItem(ctx, tx, sqlt, collectionID, doc, nowMS, i); err != nil {
			return res, err
		}
		res.ItemsAdded++
	}
	return res, nil
}
