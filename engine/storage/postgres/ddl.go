package postgres

var ddlBase = []string{
	`CREATE TABLE IF NOT EXISTS collections (
  id         BIGSERIAL PRIMARY KEY,
  name       TEXT   NOT NULL,
  icon       TEXT   NOT NULL DEFAULT 'folder',
  created_at BIGINT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS views (
  id            BIGSERIAL PRIMARY KEY,
  collection_id BIGINT  NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
  name          TEXT    NOT NULL,
  type          TEXT    NOT NULL,
  is_default    INTEGER NOT NULL DEFAULT 0,
  "order"       INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE INDEX IF NOT EXISTS idx_views_collection ON views(collection_id, "order", id)`,
	`CREATE TABLE IF NOT EXISTS fields (
  id            BIGSERIAL PRIMARY KEY,
  collection_id BIGINT  NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
  name          TEXT    NOT NULL,
  type          TEXT    NOT NULL,
  options       TEXT,
  order_index   INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS items (
  id            BIGSERIAL PRIMARY KEY,
  collection_id BIGINT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
  data          TEXT   NOT NULL,
  created_at    BIGINT NOT NULL,
  updated_at    BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_items_collection_created_at_id ON items(collection_id, created_at DESC, id DESC)`,
}

// ddlSearch keeps items_search in step with items: inserts and data updates
// go through the trigger, deletes through the foreign key cascade.
var ddlSearch = []string{
	`CREATE TABLE IF NOT EXISTS items_search (
  item_id BIGINT   PRIMARY KEY REFERENCES items(id) ON DELETE CASCADE,
  tsv     TSVECTOR NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_items_search_tsv ON items_search USING GIN (tsv)`,
	`CREATE OR REPLACE FUNCTION items_search_content(doc TEXT) RETURNS TEXT
LANGUAGE sql IMMUTABLE AS $$
  SELECT COALESCE(string_agg(je.value #>> '{}', ' '), '')
  FROM jsonb_each(doc::jsonb) je
  WHERE jsonb_typeof(je.value) IN ('string', 'number')
$$`,
	`CREATE OR REPLACE FUNCTION items_search_sync() RETURNS trigger
LANGUAGE plpgsql AS $$
BEGIN
  INSERT INTO items_search(item_id, tsv)
  VALUES (NEW.id, to_tsvector('simple', items_search_content(NEW.data)))
  ON CONFLICT (item_id) DO UPDATE SET tsv = EXCLUDED.tsv;
  RETURN NEW;
END
$$`,
	`CREATE OR REPLACE TRIGGER items_search_aiu
AFTER INSERT OR UPDATE OF data ON items
FOR EACH ROW EXECUTE FUNCTION items_search_sync()`,
}
