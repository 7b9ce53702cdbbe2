package engine

import (
	"github.com/secondbrain/collections/engine/document"
	"github.com/secondbrain/collections/engine/ops"
	"github.com/secondbrain/collections/engine/planner"
)

type (
	Document   = document.Document
	Collection = ops.Collection
	View       = ops.View
	Field      = ops.Field
	Item       = ops.Item
	ItemCount  = ops.ItemCount
	FieldInput = ops.FieldInput
	FieldOrder = ops.FieldOrder
	ItemPatch  = ops.ItemPatch
	SortSpec   = planner.SortSpec

	ImportMode   = ops.ImportMode
	ImportResult = ops.ImportResult
)

const (
	ImportAppend  = ops.ImportAppend
	ImportReplace = ops.ImportReplace
)

const (
	FieldText     = "text"
	FieldTextarea = "textarea"
	FieldNumber   = "number"
	FieldDate     = "date"
	FieldSelect   = "select"

	ViewGrid     = "grid"
	ViewKanban   = "kanban"
	ViewCalendar = "calendar"
)

// InitResult reports how the engine came up.
type InitResult struct {
	Backend        string `json:"backend"`
	FullTextSearch bool   `json:"fullTextSearch"`
	Migrated       bool   `json:"migrated"`
}

type ItemsPage struct {
	Items  []Item `json:"items"`
	Total  int64  `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// Ack acknowledges a mutation of a single row.
type Ack struct {
	ID int64 `json:"id"`
}

// BulkResult reports the rows a bulk operation touched.
type BulkResult struct {
	Affected int64 `json:"affected"`
}
