package planner

import (
	"strings"
	"testing"

	"github.com/secondbrain/collections/engine/storage/postgres"
	"github.com/secondbrain/collections/engine/storage/sqlbuilder"
	"github.com/secondbrain/collections/engine/storage/sqlite"
)

func TestTokenize(t *testing.T) {
	if got := Tokenize("   "); len(got) != 0 {
		t.Fatalf("Tokenize(blank) = %q", got)
	}
	got := Tokenize("  dune\therbert \n 1965 ")
	if strings.Join(got, "|") != "dune|herbert|1965" {
		t.Fatalf("Tokenize = %q", got)
	}
}

func TestSortField(t *testing.T) {
	for path, want := range map[string]string{
		"data.Name":       "Name",
		"document.Rating": "Rating",
		"data.due date":   "due date",
	} {
		got, ok := SortField(path)
		if !ok || got != want {
			t.Errorf("SortField(%q) = %q, %v; want %q", path, got, ok, want)
		}
	}
	for _, path := range []string{"Name", "data.", "data.__proto__", "data.a.b", `data.x') DESC; --`, "meta.Name"} {
		if got, ok := SortField(path); ok {
			t.Errorf("SortField(%q) = %q, want rejected", path, got)
		}
	}
}

func TestBuildDefaultOrder(t *testing.T) {
	p := Build(sqlbuilder.PlaceholderQuestion, sqlite.FTS5{}, sqlite.Dialect{}, Request{CollectionID: 7, Limit: 3, Offset: 6})

	if !strings.HasSuffix(p.RowsSQL, "ORDER BY i.created_at DESC, i.id DESC LIMIT ? OFFSET ?") {
		t.Fatalf("rows sql = %s", p.RowsSQL)
	}
	if strings.Contains(p.RowsSQL, "items_fts") {
		t.Fatalf("no search should not join the index: %s", p.RowsSQL)
	}
	if len(p.RowsArgs) != 3 || p.RowsArgs[0] != int64(7) || p.RowsArgs[1] != 3 || p.RowsArgs[2] != 6 {
		t.Fatalf("rows args = %v", p.RowsArgs)
	}
	if p.CountSQL != "SELECT COUNT(*) FROM items i WHERE i.collection_id = ?" || len(p.CountArgs) != 1 {
		t.Fatalf("count = %s %v", p.CountSQL, p.CountArgs)
	}
}

func TestBuildIndexedSearch(t *testing.T) {
	p := Build(sqlbuilder.PlaceholderQuestion, sqlite.FTS5{}, sqlite.Dialect{}, Request{CollectionID: 1, Search: `dune "herbert`, Limit: 10})

	if !strings.Contains(p.RowsSQL, "items_fts MATCH ?") || !strings.Contains(p.RowsSQL, "ORDER BY bm25(items_fts) ASC, i.created_at DESC, i.id DESC") {
		t.Fatalf("rows sql = %s", p.RowsSQL)
	}
	if p.CountArgs[1] != `"dune" AND """herbert"` {
		t.Fatalf("match arg = %v", p.CountArgs[1])
	}
	if strings.Count(p.CountSQL, "?") != len(p.CountArgs) {
		t.Fatalf("count placeholders do not match args: %s %v", p.CountSQL, p.CountArgs)
	}
}

func TestBuildExplicitSortOverridesRelevance(t *testing.T) {
	p := Build(sqlbuilder.PlaceholderQuestion, sqlite.FTS5{}, sqlite.Dialect{}, Request{
		CollectionID: 1,
		Search:       "pie",
		Sort:         []SortSpec{{Field: "data.Rating", Order: -1}, {Field: "Title"}, {Field: "data.Name"}},
		Limit:        5,
	})
	want := "ORDER BY json_extract(i.data, ?) COLLATE NOCASE DESC, json_extract(i.data, ?) COLLATE NOCASE ASC, i.created_at DESC, i.id DESC"
	if !strings.Contains(p.RowsSQL, want) {
		t.Fatalf("rows sql = %s", p.RowsSQL)
	}
	if strings.Contains(p.RowsSQL, "bm25") {
		t.Fatalf("explicit sort should drop relevance: %s", p.RowsSQL)
	}
	// collection, match, two sort paths, limit, offset
	if len(p.RowsArgs) != 6 || p.RowsArgs[2] != `$."Rating"` || p.RowsArgs[3] != `$."Name"` {
		t.Fatalf("rows args = %v", p.RowsArgs)
	}
}

func TestBuildFallbackScan(t *testing.T) {
	p := Build(sqlbuilder.PlaceholderQuestion, nil, sqlite.Dialect{}, Request{CollectionID: 2, Search: "Ban_ana 50%", Limit: 10})

	if strings.Contains(p.RowsSQL, "items_fts") {
		t.Fatalf("fallback must not reference the index: %s", p.RowsSQL)
	}
	if strings.Count(p.CountSQL, "EXISTS") != 2 {
		t.Fatalf("expected one EXISTS per token: %s", p.CountSQL)
	}
	if p.CountArgs[1] != `%ban\_ana%` || p.CountArgs[2] != `%50\%%` {
		t.Fatalf("like args = %v", p.CountArgs)
	}
	if !strings.HasSuffix(p.RowsSQL, "ORDER BY i.created_at DESC, i.id DESC LIMIT ? OFFSET ?") {
		t.Fatalf("rows sql = %s", p.RowsSQL)
	}
}

func TestBuildPostgresNumbering(t *testing.T) {
	p := Build(sqlbuilder.PlaceholderDollar, postgres.FTS{}, postgres.Dialect{}, Request{CollectionID: 3, Search: "apple pie", Limit: 20, Offset: 40})

	if !strings.Contains(p.CountSQL, "$3") || strings.Contains(p.CountSQL, "$4") || len(p.CountArgs) != 3 {
		t.Fatalf("count = %s %v", p.CountSQL, p.CountArgs)
	}
	if !strings.Contains(p.RowsSQL, "plainto_tsquery('simple', $4)) DESC") {
		t.Fatalf("rank should bind after the filter: %s", p.RowsSQL)
	}
	if !strings.HasSuffix(p.RowsSQL, "LIMIT $5 OFFSET $6") || p.RowsArgs[3] != "apple pie" {
		t.Fatalf("rows = %s %v", p.RowsSQL, p.RowsArgs)
	}
}
