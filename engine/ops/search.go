package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/secondbrain/collections/engine/storage"
)

// SyncSearchIndex compares the item and index row counts and rebuilds the
// index when they differ. It reports whether a rebuild happened.
func SyncSearchIndex(ctx context.Context, db *sql.DB, sqlt storage.SQL, fts storage.FTS) (bool, error) {
	var items int64
	if err := db.QueryRowContext(ctx, sqlt.CountItems).Scan(&items); err != nil {
		return false, fmt.Errorf("count items: %w", err)
	}
	indexed, err := fts.RowCount(ctx, db)
	if err != nil {
		return false, err
	}
	if items == indexed {
		return false, nil
	}
	if err := RebuildSearchIndex(ctx, db, fts); err != nil {
		return false, err
	}
	return true, nil
}

func RebuildSearchIndex(ctx context.Context, db *sql.DB, fts storage.FTS) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rebuild: %w", err)
	}
	defer tx.Rollback()
	if err := fts.Rebuild(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rebuild: %w", err)
	}
	return nil
}
