package ops

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/secondbrain/collections/engine/storage"
)

// ReorderFields applies a complete new ordering to a collection's fields.
// The request must name every field of the collection exactly once.
func ReorderFields(ctx context.Context, tx *sql.Tx, sqlt storage.SQL, collectionID int64, orders []FieldOrder) error {
	if err := collectionExists(ctx, tx, sqlt, collectionID); err != nil {
		return err
	}
	current, err := fieldIDsInOrder(ctx, tx, sqlt, collectionID)
	if err != nil {
		return err
	}
	if err := CheckReorder(collectionID, current, orders); err != nil {
		return err
	}
	if len(orders) == 0 {
		return nil
	}

	maxTarget := 0
	for _, o := range orders {
		if o.OrderIndex > maxTarget {
			maxTarget = o.OrderIndex
		}
	}
	if err := shiftFields(ctx, tx, sqlt, collectionID, len(orders), maxTarget); err != nil {
		return err
	}
	for _, o := range orders {
		res, err := tx.ExecContext(ctx, sqlt.SetFieldOrderInCollection, o.OrderIndex, o.ID, collectionID)
		if err != nil {
			return fmt.Errorf("reorder field %d: %w", o.ID, err)
		}
		if n, err := res.RowsAffected(); err != nil || n != 1 {
			return &IntegrityError{Message: fmt.Sprintf("failed to reorder field %d in collection %d", o.ID, collectionID)}
		}
	}
	return nil
}

// CheckReorder validates a reorder request against the collection's current
// field IDs without touching storage.
func CheckReorder(collectionID int64, current []int64, orders []FieldOrder) error {
	inCollection := make(map[int64]bool, len(current))
	for _, id := range current {
		inCollection[id] = true
	}

	seen := make(map[int64]bool, len(orders))
	var dups, outside []int64
	byIndex := make(map[int][]int64)
	for _, o := range orders {
		if seen[o.ID] {
			dups = append(dups, o.ID)
		}
		seen[o.ID] = true
		if !inCollection[o.ID] {
			outside = append(outside, o.ID)
		}
		byIndex[o.OrderIndex] = append(byIndex[o.OrderIndex], o.ID)
	}
	if len(dups) > 0 {
		return &PreconditionError{
			Message: fmt.Sprintf("reorder for collection %d contains duplicate field IDs: %s", collectionID, joinIDs(dups)),
			IDs:     dups,
		}
	}
	if len(outside) > 0 {
		return &PreconditionError{
			Message: fmt.Sprintf("reorder for collection %d contains IDs outside the collection: %s", collectionID, joinIDs(outside)),
			IDs:     outside,
		}
	}
	var missing []int64
	for _, id := range current {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return &PreconditionError{
			Message: fmt.Sprintf("reorder for collection %d is missing IDs from the collection: %s", collectionID, joinIDs(missing)),
			IDs:     missing,
		}
	}
	if len(orders) != len(current) {
		return &PreconditionError{
			Message: fmt.Sprintf("reorder for collection %d must include every field in the collection exactly once", collectionID),
		}
	}

	var clash []int64
	for _, ids := range byIndex {
		if len(ids) > 1 {
			clash = append(clash, ids...)
		}
	}
	if len(clash) > 0 {
		sort.Slice(clash, func(i, j int) bool { return clash[i] < clash[j] })
		return &PreconditionError{
			Message: fmt.Sprintf("reorder for collection %d assigns the same order index to fields: %s", collectionID, joinIDs(clash)),
			IDs:     clash,
		}
	}
	return nil
}

// RepairFieldOrder renumbers a collection's fields densely from 0 in
// (order_index, id) order.
func RepairFieldOrder(ctx context.Context, tx *sql.Tx, sqlt storage.SQL, collectionID int64) error {
	if err := collectionExists(ctx, tx, sqlt, collectionID); err != nil {
		return err
	}
	return renumberFields(ctx, tx, sqlt, collectionID)
}

func renumberFields(ctx context.Context, tx *sql.Tx, sqlt storage.SQL, collectionID int64) error {
	ids, err := fieldIDsInOrder(ctx, tx, sqlt, collectionID)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := shiftFields(ctx, tx, sqlt, collectionID, len(ids), len(ids)-1); err != nil {
		return err
	}
	for i, id := range ids {
		res, err := tx.ExecContext(ctx, sqlt.SetFieldOrder, i, id)
		if err != nil {
			return fmt.Errorf("renumber field %d: %w", id, err)
		}
		if err := expectOne(res, fmt.Sprintf("renumber field %d", id)); err != nil {
			return err
		}
	}
	return nil
}

// shiftFields moves every order index of the collection above both the
// current range and every target index, so the set phase that follows can
// never collide, even when uniqueness is checked row by row.
func shiftFields(ctx context.Context, tx *sql.Tx, sqlt storage.SQL, collectionID int64, n, maxTarget int) error {
	lo, hi, ok, err := fieldOrderBounds(ctx, tx, sqlt, collectionID)
	if err != nil || !ok {
		return err
	}
	top := hi
	if t := int64(maxTarget); t > top {
		top = t
	}
	shift := top - lo + 1
	if int64(n) > shift {
		shift = int64(n)
	}
	if _, err := tx.ExecContext(ctx, sqlt.ShiftFieldOrder, shift, collectionID); err != nil {
		return fmt.Errorf("shift field order: %w", err)
	}
	return nil
}

func fieldOrderBounds(ctx context.Context, q storage.Querier, sqlt storage.SQL, collectionID int64) (lo, hi int64, ok bool, err error) {
	var mn, mx sql.NullInt64
	if err := q.QueryRowContext(ctx, sqlt.FieldOrderBounds, collectionID).Scan(&mn, &mx); err != nil {
		return 0, 0, false, fmt.Errorf("field order bounds: %w", err)
	}
	if !mx.Valid {
		return 0, 0, false, nil
	}
	return mn.Int64, mx.Int64, true, nil
}

func fieldIDsInOrder(ctx context.Context, q storage.Querier, sqlt storage.SQL, collectionID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx, sqlt.FieldIDsInOrder, collectionID)
	if err != nil {
		return nil, fmt.Errorf("list field ids: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
