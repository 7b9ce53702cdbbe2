package engine

import (
	"context"
	"database/sql"
	"strings"

	"github.com/secondbrain/collections/engine/ops"
	"github.com/secondbrain/collections/engine/planner"
	"github.com/secondbrain/collections/internal/logging"
)

// Operation is the closed set of requests the engine accepts. The execute
// method is unexported, so only the types in this package implement it.
type Operation interface {
	Kind() string
	execute(ctx context.Context, s *session) (any, error)
}

const (
	KindInit                    = "init"
	KindGetCollections          = "getCollections"
	KindGetCollectionItemCounts = "getCollectionItemCounts"
	KindAddCollection           = "addCollection"
	KindUpdateCollection        = "updateCollection"
	KindDeleteCollection        = "deleteCollection"
	KindGetViews                = "getViews"
	KindAddView                 = "addView"
	KindUpdateView              = "updateView"
	KindDeleteView              = "deleteView"
	KindGetFields               = "getFields"
	KindAddField                = "addField"
	KindUpdateField             = "updateField"
	KindReorderFields           = "reorderFields"
	KindRepairFieldOrder        = "repairFieldOrder"
	KindDeleteField             = "deleteField"
	KindGetItems                = "getItems"
	KindAddItem                 = "addItem"
	KindUpdateItem              = "updateItem"
	KindDeleteItem              = "deleteItem"
	KindBulkDeleteItems         = "bulkDeleteItems"
	KindBulkPatchItems          = "bulkPatchItems"
	KindImportCollection        = "importCollection"
)

// Init opens (or reopens) the store. Path is a file for sqlite and a DSN
// for postgres.
type Init struct {
	Path string `json:"path"`
}

func (*Init) Kind() string { return KindInit }

func (o *Init) execute(ctx context.Context, s *session) (any, error) {
	if strings.TrimSpace(o.Path) == "" {
		return nil, ValidationError("path", "path is required")
	}
	return s.e.open(ctx, o.Path)
}

// Collections

type GetCollections struct{}

func (*GetCollections) Kind() string { return KindGetCollections }

func (o *GetCollections) execute(ctx context.Context, s *session) (any, error) {
	return ops.ListCollections(ctx, s.h.db, s.sql())
}

type GetCollectionItemCounts struct{}

func (*GetCollectionItemCounts) Kind() string { return KindGetCollectionItemCounts }

func (o *GetCollectionItemCounts) execute(ctx context.Context, s *session) (any, error) {
	return ops.CollectionItemCounts(ctx, s.h.db, s.sql())
}

type AddCollection struct {
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

func (*AddCollection) Kind() string { return KindAddCollection }

func (o *AddCollection) execute(ctx context.Context, s *session) (any, error) {
	name, err := collectionName(o.Name)
	if err != nil {
		return nil, err
	}
	if o.Icon != "" {
		if err := checkIcon(o.Icon); err != nil {
			return nil, err
		}
	}
	var c Collection
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		c, err = ops.AddCollection(ctx, tx, s.sql(), name, o.Icon, s.nowMS())
		return err
	})
	return c, err
}

type UpdateCollection struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	Icon *string `json:"icon,omitempty"`
}

func (*UpdateCollection) Kind() string { return KindUpdateCollection }

func (o *UpdateCollection) execute(ctx context.Context, s *session) (any, error) {
	if err := checkID("id", o.ID); err != nil {
		return nil, err
	}
	name, err := collectionName(o.Name)
	if err != nil {
		return nil, err
	}
	if o.Icon != nil {
		if err := checkIcon(*o.Icon); err != nil {
			return nil, err
		}
	}
	var c Collection
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		c, err = ops.UpdateCollection(ctx, tx, s.sql(), o.ID, name, o.Icon)
		return err
	})
	return c, err
}

type DeleteCollection struct {
	ID int64 `json:"id"`
}

func (*DeleteCollection) Kind() string { return KindDeleteCollection }

func (o *DeleteCollection) execute(ctx context.Context, s *session) (any, error) {
	if err := checkID("id", o.ID); err != nil {
		return nil, err
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		return ops.DeleteCollection(ctx, tx, s.sql(), o.ID)
	})
	return Ack{ID: o.ID}, err
}

// Views

type GetViews struct {
	CollectionID int64 `json:"collectionId"`
}

func (*GetViews) Kind() string { return KindGetViews }

func (o *GetViews) execute(ctx context.Context, s *session) (any, error) {
	if err := checkID("collectionId", o.CollectionID); err != nil {
		return nil, err
	}
	return ops.ListViews(ctx, s.h.db, s.sql(), o.CollectionID)
}

type AddView struct {
	CollectionID int64  `json:"collectionId"`
	Name         string `json:"name"`
	Type         string `json:"type"`
}

func (*AddView) Kind() string { return KindAddView }

func (o *AddView) execute(ctx context.Context, s *session) (any, error) {
	if err := checkID("collectionId", o.CollectionID); err != nil {
		return nil, err
	}
	name, err := viewName(o.Name)
	if err != nil {
		return nil, err
	}
	if err := checkViewType(o.Type); err != nil {
		return nil, err
	}
	var v View
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		v, err = ops.AddView(ctx, tx, s.sql(), o.CollectionID, name, o.Type)
		return err
	})
	return v, err
}

type UpdateView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (*UpdateView) Kind() string { return KindUpdateView }

func (o *UpdateView) execute(ctx context.Context, s *session) (any, error) {
	if err := checkID("id", o.ID); err != nil {
		return nil, err
	}
	name, err := viewName(o.Name)
	if err != nil {
		return nil, err
	}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		return ops.UpdateView(ctx, tx, s.sql(), o.ID, name)
	})
	return Ack{ID: o.ID}, err
}

type DeleteView struct {
	ID int64 `json:"id"`
}

func (*DeleteView) Kind() string { return KindDeleteView }

func (o *DeleteView) execute(ctx context.Context, s *session) (any, error) {
	if err := checkID("id", o.ID); err != nil {
		return nil, err
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		return ops.DeleteView(ctx, tx, s.sql(), o.ID)
	})
	return Ack{ID: o.ID}, err
}

// Fields

type GetFields struct {
	CollectionID int64 `json:"collectionId"`
}

func (*GetFields) Kind() string { return KindGetFields }

func (o *GetFields) execute(ctx context.Context, s *session) (any, error) {
	if err := checkID("collectionId", o.CollectionID); err != nil {
		return nil, err
	}
	return ops.ListFields(ctx, s.h.db, s.sql(), o.CollectionID)
}

type AddField struct {
	CollectionID int64 `json:"collectionId"`
	FieldInput
}

func (*AddField) Kind() string { return KindAddField }

func (o *AddField) execute(ctx context.Context, s *session) (any, error) {
	if err := checkID("collectionId", o.CollectionID); err != nil {
		return nil, err
	}
	if err := checkFieldInput(o.FieldInput); err != nil {
		return nil, err
	}
	var f Field
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		f, err = ops.AddField(ctx, tx, s.sql(), o.CollectionID, o.FieldInput)
		return err
	})
	return f, err
}

type UpdateField struct {
	ID int64 `json:"id"`
	FieldInput
}

func (*UpdateField) Kind() string { return KindUpdateField }

func (o *UpdateField) execute(ctx context.Context, s *session) (any, error) {
	if err := checkID("id", o.ID); err != nil {
		return nil, err
	}
	if err := checkFieldInput(o.FieldInput); err != nil {
		return nil, err
	}
	var f Field
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		f, err = ops.UpdateField(ctx, tx, s.sql(), o.ID, o.FieldInput)
		return err
	})
	return f, err
}

// ReorderFields assigns new order indices to every field of a collection.
type ReorderFields struct {
	CollectionID int64        `json:"collectionId"`
	FieldOrders  []FieldOrder `json:"fieldOrders"`
}

func (*ReorderFields) Kind() string { return KindReorderFields }

func (o *ReorderFields) execute(ctx context.Context, s *session) (any, error) {
	if err := checkID("collectionId", o.CollectionID); err != nil {
		return nil, err
	}
	for _, fo := range o.FieldOrders {
		if err := checkID("fieldOrders.id", fo.ID); err != nil {
			return nil, err
		}
		if fo.OrderIndex < 0 {
			return nil, ValidationError("fieldOrders.orderIndex", "order index must not be negative")
		}
	}
	var fields []Field
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := ops.ReorderFields(ctx, tx, s.sql(), o.CollectionID, o.FieldOrders); err != nil {
			return err
		}
		var err error
		fields, err = ops.ListFields(ctx, tx, s.sql(), o.CollectionID)
		return err
	})
	return fields, err
}

// RepairFieldOrder renumbers a collection's fields densely from zero.
type RepairFieldOrder struct {
	CollectionID int64 `json:"collectionId"`
}

func (*RepairFieldOrder) Kind() string { return KindRepairFieldOrder }

func (o *RepairFieldOrder) execute(ctx context.Context, s *session) (any, error) {
	if err := checkID("collectionId", o.CollectionID); err != nil {
		return nil, err
	}
	var fields []Field
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := ops.RepairFieldOrder(ctx, tx, s.sql(), o.CollectionID); err != nil {
			return err
		}
		var err error
		fields, err = ops.ListFields(ctx, tx, s.sql(), o.CollectionID)
		return err
	})
	return fields, err
}

type DeleteField struct {
	ID int64 `json:"id"`
}

func (*DeleteField) Kind() string { return KindDeleteField }

func (o *DeleteField) execute(ctx context.Context, s *session) (any, error) {
	if err := checkID("id", o.ID); err != nil {
		return nil, err
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		return ops.DeleteField(ctx, tx, s.sql(), o.ID)
	})
	return Ack{ID: o.ID}, err
}

// Items

// GetItems returns one page of a collection's items.
type GetItems struct {
	CollectionID int64      `json:"collectionId"`
	Search       string     `json:"search,omitempty"`
	Sort         []SortSpec `json:"sort,omitempty"`
	Limit        int        `json:"limit"`
	Offset       int        `json:"offset"`
}

func (*GetItems) Kind() string { return KindGetItems }

func (o *GetItems) execute(ctx context.Context, s *session) (any, error) {
	if err := checkID("collectionId", o.CollectionID); err != nil {
		return nil, err
	}
	if err := checkPage(o.Limit, o.Offset); err != nil {
		return nil, err
	}

	req := planner.Request{
		CollectionID: o.CollectionID,
		Search:       o.Search,
		Sort:         o.Sort,
		Limit:        o.Limit,
		Offset:       o.Offset,
	}
	a := s.h.adapter
	fts := a.FTS()
	if !s.h.fullText {
		fts = nil
	}
	plan := planner.Build(a.PlaceholderStyle(), fts, a.Dialect(), req)

	if fts != nil && len(plan.Tokens) > 0 {
		rebuilt, err := ops.SyncSearchIndex(ctx, s.h.db, s.sql(), fts)
		if err != nil {
			return nil, err
		}
		if rebuilt {
			logging.With(ctx, s.e.opts.Logger).Info("search index rebuilt before query", "collection_id", o.CollectionID)
		}
	}

	page := ItemsPage{Limit: o.Limit, Offset: o.Offset}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		if page.Items, err = ops.QueryItems(ctx, tx, plan.RowsSQL, plan.RowsArgs); err != nil {
			return err
		}
		page.Total, err = ops.CountQuery(ctx, tx, plan.CountSQL, plan.CountArgs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

type AddItem struct {
	CollectionID int64    `json:"collectionId"`
	Data         Document `json:"data"`
}

func (*AddItem) Kind() string { return KindAddItem }

func (o *AddItem) execute(ctx context.Context, s *session) (any, error) {
	if err := checkID("collectionId", o.CollectionID); err != nil {
		return nil, err
	}
	if err := checkDocument("data", o.Data); err != nil {
		return nil, err
	}
	var it Item
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		it, err = ops.AddItem(ctx, tx, s.sql(), o.CollectionID, o.Data, s.nowMS())
		return err
	})
	return it, err
}

// UpdateItem replaces an item's document.
type UpdateItem struct {
	ID   int64    `json:"id"`
	Data Document `json:"data"`
}

func (*UpdateItem) Kind() string { return KindUpdateItem }

func (o *UpdateItem) execute(ctx context.Context, s *session) (any, error) {
	if err := checkID("id", o.ID); err != nil {
		return nil, err
	}
	if err := checkDocument("data", o.Data); err != nil {
		return nil, err
	}
	var it Item
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		it, err = ops.UpdateItem(ctx, tx, s.sql(), o.ID, o.Data, s.nowMS())
		return err
	})
	return it, err
}

type DeleteItem struct {
	ID int64 `json:"id"`
}

func (*DeleteItem) Kind() string { return KindDeleteItem }

func (o *DeleteItem) execute(ctx context.Context, s *session) (any, error) {
	if err := checkID("id", o.ID); err != nil {
		return nil, err
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		return ops.DeleteItem(ctx, tx, s.sql(), o.ID)
	})
	return Ack{ID: o.ID}, err
}

// BulkDeleteItems deletes all listed items of a collection, or none.
type BulkDeleteItems struct {
	CollectionID int64   `json:"collectionId"`
	ItemIDs      []int64 `json:"itemIds"`
}

func (*BulkDeleteItems) Kind() string { return KindBulkDeleteItems }

func (o *BulkDeleteItems) execute(ctx context.Context, s *session) (any, error) {
	if err := checkID("collectionId", o.CollectionID); err != nil {
		return nil, err
	}
	for _, id := range o.ItemIDs {
		if err := checkID("itemIds", id); err != nil {
			return nil, err
		}
	}
	var res BulkResult
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		res.Affected, err = s.bulk().DeleteItems(ctx, tx, o.CollectionID, o.ItemIDs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// BulkPatchItems shallow-merges a patch into each listed item, or into none.
type BulkPatchItems struct {
	CollectionID int64       `json:"collectionId"`
	Updates      []ItemPatch `json:"updates"`
}

func (*BulkPatchItems) Kind() string { return KindBulkPatchItems }

func (o *BulkPatchItems) execute(ctx context.Context, s *session) (any, error) {
	if err := checkID("collectionId", o.CollectionID); err != nil {
		return nil, err
	}
	for _, u := range o.Updates {
		if err := checkID("updates.id", u.ID); err != nil {
			return nil, err
		}
		if err := checkDocument("updates.patch", u.Patch); err != nil {
			return nil, err
		}
	}
	var res BulkResult
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		res.Affected, err = s.bulk().PatchItems(ctx, tx, o.CollectionID, o.Updates, s.nowMS())
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ImportCollection adds fields and items to a collection in one
// transaction. Replace mode clears the collection's items first.
type ImportCollection struct {
	CollectionID int64        `json:"collectionId"`
	Mode         ImportMode   `json:"mode"`
	NewFields    []FieldInput `json:"newFields"`
	Items        []Document   `json:"items"`
}

func (*ImportCollection) Kind() string { return KindImportCollection }

func (o *ImportCollection) execute(ctx context.Context, s *session) (any, error) {
	if err := checkID("collectionId", o.CollectionID); err != nil {
		return nil, err
	}
	if o.Mode != ImportAppend && o.Mode != ImportReplace {
		return nil, ValidationError("mode", "mode must be append or replace")
	}
	for _, f := range o.NewFields {
		if err := checkFieldInput(f); err != nil {
			return nil, err
		}
	}
	var res ImportResult
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		res, err = ops.Import(ctx, tx, s.sql(), o.CollectionID, o.Mode, o.NewFields, o.Items, s.nowMS())
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
