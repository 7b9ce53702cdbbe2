package sqlite

import "github.com/secondbrain/collections/engine/storage"

var SQLTemplates = storage.SQL{
	ListCollections:      "SELECT id, name, icon, created_at FROM collections ORDER BY created_at ASC, id ASC",
	GetCollection:        "SELECT id, name, icon, created_at FROM collections WHERE id = ?1",
	InsertCollection:     "INSERT INTO collections(name, icon, created_at) VALUES(?1, ?2, ?3) RETURNING id",
	UpdateCollection:     "UPDATE collections SET name = ?1, icon = ?2 WHERE id = ?3",
	DeleteCollection:     "DELETE FROM collections WHERE id = ?1",
	CollectionItemCounts: "SELECT collection_id, COUNT(*) FROM items GROUP BY collection_id ORDER BY collection_id",

	ListViews:    `SELECT id, collection_id, name, type, is_default, "order" FROM views WHERE collection_id = ?1 ORDER BY "order" ASC, id ASC`,
	InsertView:   `INSERT INTO views(collection_id, name, type, is_default, "order") VALUES(?1, ?2, ?3, ?4, ?5) RETURNING id`,
	UpdateView:   "UPDATE views SET name = ?1 WHERE id = ?2",
	DeleteView:   "DELETE FROM views WHERE id = ?1",
	MaxViewOrder: `SELECT MAX("order") FROM views WHERE collection_id = ?1`,

	ListFields:                "SELECT id, collection_id, name, type, options, order_index FROM fields WHERE collection_id = ?1 ORDER BY order_index ASC, id ASC",
	GetField:                  "SELECT id, collection_id, name, type, options, order_index FROM fields WHERE id = ?1",
	InsertField:               "INSERT INTO fields(collection_id, name, type, options, order_index) VALUES(?1, ?2, ?3, ?4, ?5) RETURNING id",
	UpdateField:               "UPDATE fields SET name = ?1, type = ?2, options = ?3, order_index = ?4 WHERE id = ?5",
	DeleteField:               "DELETE FROM fields WHERE id = ?1",
	FieldOrderBounds:          "SELECT MIN(order_index), MAX(order_index) FROM fields WHERE collection_id = ?1",
	FieldIDsInOrder:           "SELECT id FROM fields WHERE collection_id = ?1 ORDER BY order_index ASC, id ASC",
	FieldCollections:          "SELECT DISTINCT collection_id FROM fields ORDER BY collection_id ASC",
	SetFieldOrder:             "UPDATE fields SET order_index = ?1 WHERE id = ?2",
	ShiftFieldOrder:           "UPDATE fields SET order_index = order_index + ?1 WHERE collection_id = ?2",
	SetFieldOrderInCollection: "UPDATE fields SET order_index = ?1 WHERE id = ?2 AND collection_id = ?3",
	CreateFieldOrderIndex:     "CREATE UNIQUE INDEX IF NOT EXISTS " + storage.FieldOrderIndex + " ON fields(collection_id, order_index)",

	InsertItem:              "INSERT INTO items(collection_id, data, created_at, updated_at) VALUES(?1, ?2, ?3, ?3) RETURNING id",
	GetItem:                 "SELECT id, collection_id, data, created_at, updated_at FROM items WHERE id = ?1",
	UpdateItem:              "UPDATE items SET data = ?1, updated_at = ?2 WHERE id = ?3",
	UpdateItemInCollection:  "UPDATE items SET data = ?1, updated_at = ?2 WHERE id = ?3 AND collection_id = ?4",
	DeleteItem:              "DELETE FROM items WHERE id = ?1",
	DeleteItemsByCollection: "DELETE FROM items WHERE collection_id = ?1",
	CountItems:              "SELECT COUNT(*) FROM items",
}
