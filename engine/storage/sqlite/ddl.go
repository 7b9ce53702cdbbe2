package sqlite

var ddlBase = []string{
	`CREATE TABLE IF NOT EXISTS collections (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  name       TEXT    NOT NULL,
  icon       TEXT    NOT NULL DEFAULT 'folder',
  created_at INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS views (
  id            INTEGER PRIMARY KEY AUTOINCREMENT,
  collection_id INTEGER NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
  name          TEXT    NOT NULL,
  type          TEXT    NOT NULL,
  is_default    INTEGER NOT NULL DEFAULT 0,
  "order"       INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE INDEX IF NOT EXISTS idx_views_collection ON views(collection_id, "order", id)`,
	`CREATE TABLE IF NOT EXISTS fields (
  id            INTEGER PRIMARY KEY AUTOINCREMENT,
  collection_id INTEGER NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
  name          TEXT    NOT NULL,
  type          TEXT    NOT NULL,
  options       TEXT,
  order_index   INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS items (
  id            INTEGER PRIMARY KEY AUTOINCREMENT,
  collection_id INTEGER NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
  data          TEXT    NOT NULL,
  created_at    INTEGER NOT NULL,
  updated_at    INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_items_collection_created_at_id ON items(collection_id, created_at DESC, id DESC)`,
}

// ddlSearch creates the FTS5 projection and the triggers that keep it an
// exact function of the items table.
var ddlSearch = []string{
	`CREATE VIRTUAL TABLE IF NOT EXISTS items_fts USING fts5(content, tokenize='unicode61')`,
	`CREATE TRIGGER IF NOT EXISTS items_fts_ai AFTER INSERT ON items BEGIN
  INSERT INTO items_fts(rowid, content) VALUES (new.id, ` + contentExpr("new.data") + `);
END`,
	`CREATE TRIGGER IF NOT EXISTS items_fts_au AFTER UPDATE OF data ON items BEGIN
  DELETE FROM items_fts WHERE rowid = old.id;
  INSERT INTO items_fts(rowid, content) VALUES (new.id, ` + contentExpr("new.data") + `);
END`,
	`CREATE TRIGGER IF NOT EXISTS items_fts_ad AFTER DELETE ON items BEGIN
  DELETE FROM items_fts WHERE rowid = old.id;
END`,
}

// contentExpr concatenates the text and numeric values of a document column.
func contentExpr(col string) string {
	return `COALESCE((SELECT group_concat(CAST(je.value AS TEXT), ' ') FROM json_each(` + col + `) je WHERE je.type IN ('text', 'integer', 'real')), '')`
}
