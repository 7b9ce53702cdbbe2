package ops

import (
	"fmt"
	"strconv"
	"strings"
)

// PreconditionError rejects a multi-row request that references missing,
// foreign or duplicate identities. Nothing has been written when it is
// returned.
type PreconditionError struct {
	Message string
	IDs     []int64
}

func (e *PreconditionError) Error() string { return e.Message }

// IntegrityError reports a write that did not touch exactly the rows it
// should have. The surrounding transaction must be rolled back.
type IntegrityError struct {
	Message string
}

func (e *IntegrityError) Error() string { return e.Message }

type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// CorruptError wraps a stored document that no longer parses.
type CorruptError struct {
	ItemID int64
	Err    error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("item %d: stored document is corrupt: %v", e.ItemID, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// DocumentError rejects a document supplied for, or produced for, one item.
// ItemID is zero for documents of items that do not exist yet; Index is the
// position in the request.
type DocumentError struct {
	ItemID int64
	Index  int
	Err    error
}

func (e *DocumentError) Error() string {
	if e.ItemID != 0 {
		return fmt.Sprintf("item %d: %v", e.ItemID, e.Err)
	}
	return fmt.Sprintf("item #%d: %v", e.Index, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
