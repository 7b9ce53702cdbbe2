package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/secondbrain/collections/engine/storage"
)

// Bootstrap creates the base schema and applies the field order migration.
// It reports whether the migration ran.
func Bootstrap(ctx context.Context, db *sql.DB, a storage.Adapter) (bool, error) {
	if err := a.Bootstrap(ctx, db); err != nil {
		return false, err
	}
	return EnsureFieldOrderIntegrity(ctx, db, a)
}

// EnsureFieldOrderIntegrity makes order indices dense and unique per
// collection and then enforces that with a unique index. It is a no-op once
// the index exists. It reports true only when existing fields were
// renumbered.
func EnsureFieldOrderIntegrity(ctx context.Context, db *sql.DB, a storage.Adapter) (bool, error) {
	ok, err := a.HasIndex(ctx, db, storage.FieldOrderIndex)
	if err != nil {
		return false, fmt.Errorf("probe %s: %w", storage.FieldOrderIndex, err)
	}
	if ok {
		return false, nil
	}

	sqlt := a.SQL()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	cids, err := fieldCollections(ctx, tx, sqlt)
	if err != nil {
		return false, err
	}
	for _, cid := range cids {
		if err := renumberFields(ctx, tx, sqlt, cid); err != nil {
			return false, err
		}
	}
	if _, err := tx.ExecContext(ctx, sqlt.CreateFieldOrderIndex); err != nil {
		return false, fmt.Errorf("create %s: %w", storage.FieldOrderIndex, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit migration: %w", err)
	}
	return len(cids) > 0, nil
}

func fieldCollections(ctx context.Context, tx *sql.Tx, sqlt storage.SQL) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, sqlt.FieldCollections)
	if err != nil {
		return nil, fmt.Errorf("list field collections: %w", err)
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
