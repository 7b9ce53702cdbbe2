// Package planner turns a page request into the rows and count SQL for the
// configured backend.
package planner

import (
	"strings"

	"github.com/secondbrain/collections/engine/document"
	"github.com/secondbrain/collections/engine/storage"
	"github.com/secondbrain/collections/engine/storage/sqlbuilder"
)

// SortSpec orders by a document field. Order -1 is descending, anything
// else ascending.
type SortSpec struct {
	Field string `json:"field"`
	Order int    `json:"order"`
}

type Request struct {
	CollectionID int64
	Search       string
	Sort         []SortSpec
	Limit        int
	Offset       int
}

// Plan holds the page query and the count query. Both share the same filter.
type Plan struct {
	RowsSQL   string
	RowsArgs  []any
	CountSQL  string
	CountArgs []any
	Tokens    []string
}

const itemColumns = "i.id, i.collection_id, i.data, i.created_at, i.updated_at"

const recencyOrder = "i.created_at DESC, i.id DESC"

var sortPrefixes = []string{"data.", "document."}

// Tokenize splits search text on runs of whitespace.
func Tokenize(search string) []string {
	return strings.Fields(search)
}

// SortField extracts the document field referenced by a sort path. Only
// data.<name> and document.<name> paths with a safe name are accepted.
func SortField(path string) (string, bool) {
	for _, p := range sortPrefixes {
		if strings.HasPrefix(path, p) {
			name := strings.TrimSpace(path[len(p):])
			if document.IsSafeName(name) {
				return name, true
			}
			return "", false
		}
	}
	return "", false
}

// Build plans a page query. fts is nil when indexed search is unavailable,
// in which case dialect's substring scan is used.
func Build(style sqlbuilder.PlaceholderStyle, fts storage.FTS, dialect storage.Dialect, req Request) Plan {
	b := sqlbuilder.New(style)
	tokens := Tokenize(req.Search)

	where := []string{"i.collection_id = " + b.Arg(req.CollectionID)}
	var clause storage.Clause
	if len(tokens) > 0 {
		if fts != nil {
			clause = fts.Match(b, tokens)
		} else {
			clause = dialect.Scan(b, tokens)
		}
		where = append(where, clause.Where...)
	}

	from := "FROM items i"
	if clause.Join != "" {
		from += " " + clause.Join
	}
	filter := from + " WHERE " + strings.Join(where, " AND ")

	countArgs := append([]any(nil), b.Args()...)
	p := Plan{
		CountSQL:  "SELECT COUNT(*) " + filter,
		CountArgs: countArgs,
		Tokens:    tokens,
	}

	var order []string
	for _, s := range req.Sort {
		name, ok := SortField(s.Field)
		if !ok {
			continue
		}
		order = append(order, dialect.SortKey(b, name, s.Order == -1)...)
	}
	if len(order) == 0 && clause.Rank != nil {
		order = append(order, clause.Rank(b))
	}
	order = append(order, recencyOrder)

	p.RowsSQL = "SELECT " + itemColumns + " " + filter +
		" ORDER BY " + strings.Join(order, ", ") +
		" LIMIT " + b.Arg(req.Limit) + " OFFSET " + b.Arg(req.Offset)
	p.RowsArgs = b.Args()
	return p
}
