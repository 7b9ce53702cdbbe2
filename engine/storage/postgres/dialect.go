package postgres

import (
	"github.com/secondbrain/collections/engine/storage"
)

type Dialect struct{}

func (Dialect) Scan(b storage.Builder, tokens []string) storage.Clause {
	where := make([]string, len(tokens))
	for i, tok := range tokens {
		ph := b.Arg(storage.LikePattern(tok))
		where[i] = `EXISTS (SELECT 1 FROM jsonb_each(i.data::jsonb) je WHERE jsonb_typeof(je.value) IN ('string', 'number') AND LOWER(je.value #>> '{}') LIKE ` + ph + ` ESCAPE '\')`
	}
	return storage.Clause{Where: where}
}

// SortKey orders numbers numerically first, then everything by lower-cased
// text. Non-numeric values sort after numbers ascending.
func (Dialect) SortKey(b storage.Builder, field string, desc bool) []string {
	ph := b.Arg(field) + "::text"
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return []string{
		"(CASE WHEN jsonb_typeof(i.data::jsonb -> " + ph + ") = 'number' THEN (i.data::jsonb ->> " + ph + ")::double precision END) " + dir,
		"LOWER(i.data::jsonb ->> " + ph + ") " + dir,
	}
}
