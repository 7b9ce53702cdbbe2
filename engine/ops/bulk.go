package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/secondbrain/collections/engine/document"
	"github.com/secondbrain/collections/engine/storage"
	"github.com/secondbrain/collections/engine/storage/sqlbuilder"
)

// DefaultChunkSize keeps IN lists under SQLite's bound parameter limit.
const DefaultChunkSize = 400

// Bulk carries what the bulk executors need beyond the transaction.
type Bulk struct {
	SQL       storage.SQL
	Style     sqlbuilder.PlaceholderStyle
	ChunkSize int
}

// DeleteItems removes every requested item of the collection or none of
// them. Missing or foreign IDs are reported before any row is deleted.
func (b Bulk) DeleteItems(ctx context.Context, tx *sql.Tx, collectionID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if dups := duplicateIDs(ids); len(dups) > 0 {
		return 0, &PreconditionError{
			Message: fmt.Sprintf("Bulk delete failed. Duplicate item IDs for collection %d: %s", collectionID, joinIDs(dups)),
			IDs:     dups,
		}
	}

	found := make(map[int64]bool, len(ids))
	for _, chunk := range sqlbuilder.Chunk(ids, b.ChunkSize) {
		qb := sqlbuilder.New(b.Style)
		query := "SELECT id FROM items WHERE collection_id = " + qb.Arg(collectionID) + " AND id IN (" + qb.List(chunk) + ")"
		rows, err := tx.QueryContext(ctx, query, qb.Args()...)
		if err != nil {
			return 0, fmt.Errorf("bulk delete lookup: %w", err)
		}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return 0, err
			}
			found[id] = true
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return 0, err
		}
		rows.Close()
	}
	if missing := missingIDs(ids, found); len(missing) > 0 {
		return 0, &PreconditionError{
			Message: fmt.Sprintf("Bulk delete failed. Invalid item IDs for collection %d: %s", collectionID, joinIDs(missing)),
			IDs:     missing,
		}
	}

	var affected int64
	for _, chunk := range sqlbuilder.Chunk(ids, b.ChunkSize) {
		qb := sqlbuilder.New(b.Style)
		query := "DELETE FROM items WHERE collection_id = " + qb.Arg(collectionID) + " AND id IN (" + qb.List(chunk) + ")"
		res, err := tx.ExecContext(ctx, query, qb.Args()...)
		if err != nil {
			return 0, fmt.Errorf("bulk delete: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("bulk delete: rows affected: %w", err)
		}
		affected += n
	}
	if affected != int64(len(ids)) {
		return 0, &IntegrityError{Message: fmt.Sprintf("bulk delete removed %d rows, expected %d", affected, len(ids))}
	}
	return affected, nil
}

// PatchItems shallow-merges each patch over the stored document. Every ID
// must exist in the collection and every merged document must be valid,
// otherwise nothing is written.
func (b Bulk) PatchItems(ctx context.Context, tx *sql.Tx, collectionID int64, updates []ItemPatch, nowMS int64) (int64, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	ids := make([]int64, len(updates))
	for i, u := range updates {
		ids[i] = u.ID
	}
	if dups := duplicateIDs(ids); len(dups) > 0 {
		return 0, &PreconditionError{
			Message: fmt.Sprintf("Bulk patch failed. Duplicate item IDs for collection %d: %s", collectionID, joinIDs(dups)),
			IDs:     dups,
		}
	}

	stored := make(map[int64]string, len(ids))
	for _, chunk := range sqlbuilder.Chunk(ids, b.ChunkSize) {
		qb := sqlbuilder.New(b.Style)
		query := "SELECT id, data FROM items WHERE collection_id = " + qb.Arg(collectionID) + " AND id IN (" + qb.List(chunk) + ")"
		rows, err := tx.QueryContext(ctx, query, qb.Args()...)
		if err != nil {
			return 0, fmt.Errorf("bulk patch lookup: %w", err)
		}
		for rows.Next() {
			var id int64
			var raw string
			if err := rows.Scan(&id, &raw); err != nil {
				rows.Close()
				return 0, err
			}
			stored[id] = raw
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return 0, err
		}
		rows.Close()
	}
	found := make(map[int64]bool, len(stored))
	for id := range stored {
		found[id] = true
	}
	if missing := missingIDs(ids, found); len(missing) > 0 {
		return 0, &PreconditionError{
			Message: fmt.Sprintf("Bulk patch failed. Invalid item IDs for collection %d: %s", collectionID, joinIDs(missing)),
			IDs:     missing,
		}
	}

	var affected int64
	for _, u := range updates {
		current, err := document.Parse(stored[u.ID])
		if err != nil {
			return 0, &CorruptError{ItemID: u.ID, Err: err}
		}
		merged := current.Merge(u.Patch)
		if err := merged.Validate(); err != nil {
			return 0, &DocumentError{ItemID: u.ID, Err: err}
		}
		raw, err := merged.Marshal()
		if err != nil {
			return 0, &DocumentError{ItemID: u.ID, Err: err}
		}
		res, err := tx.ExecContext(ctx, b.SQL.UpdateItemInCollection, raw, nowMS, u.ID, collectionID)
		if err != nil {
			return 0, fmt.Errorf("bulk patch item %d: %w", u.ID, err)
		}
		if err := expectOne(res, fmt.Sprintf("bulk patch of item %d in collection %d", u.ID, collectionID)); err != nil {
			return 0, err
		}
		affected++
	}
	return affected, nil
}

func duplicateIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	var dups []int64
	for _, id := range ids {
		if seen[id] {
			dups = append(dups, id)
		}
		seen[id] = true
	}
	return dups
}

func missingIDs(ids []int64, found map[int64]bool) []int64 {
	var missing []int64
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
