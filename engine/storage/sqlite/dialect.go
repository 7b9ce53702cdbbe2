package sqlite

import (
	"strings"

	"github.com/secondbrain/collections/engine/storage"
)

type Dialect struct{}

func (Dialect) Scan(b storage.Builder, tokens []string) storage.Clause {
	where := make([]string, len(tokens))
	for i, tok := range tokens {
		ph := b.Arg(storage.LikePattern(tok))
		where[i] = `EXISTS (SELECT 1 FROM json_each(i.data) je WHERE je.type IN ('text', 'integer', 'real') AND LOWER(CAST(je.value AS TEXT)) LIKE ` + ph + ` ESCAPE '\')`
	}
	return storage.Clause{Where: where}
}

// SortKey extracts the typed JSON value, so numbers compare numerically and
// text compares without case.
func (Dialect) SortKey(b storage.Builder, field string, desc bool) []string {
	ph := b.Arg(`$."` + strings.ReplaceAll(field, `"`, `""`) + `"`)
	return []string{"json_extract(i.data, " + ph + ") COLLATE NOCASE " + direction(desc)}
}

func direction(desc bool) string {
	if desc {
		return "DESC"
	}
	return "ASC"
}
