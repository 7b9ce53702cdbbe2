package engine_test

import (
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/secondbrain/collections/engine"
	"github.com/secondbrain/collections/engine/storage"
)

// newPostgresEngine runs against COLLECTIONS_TEST_PG_DSN in a throwaway
// schema that is dropped when the test ends.
func newPostgresEngine(t *testing.T) *engine.Engine {
	t.Helper()
	dsn := os.Getenv("COLLECTIONS_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("COLLECTIONS_TEST_PG_DSN not set")
	}
	schema := fmt.Sprintf("collections_test_%d", time.Now().UnixNano())

	opts := testOptions()
	opts.Backend = storage.BackendPostgres
	opts.PostgresSchema = schema
	e := openEngine(t, opts, dsn)

	t.Cleanup(func() {
		_ = e.Close()
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return
		}
		defer db.Close()
		_, _ = db.Exec(`DROP SCHEMA IF EXISTS "` + schema + `" CASCADE`)
	})
	return e
}

func TestPostgresFieldOrderAndBulk(t *testing.T) {
	e := newPostgresEngine(t)
	c := addCollection(t, e, "Books")
	a := addField(t, e, c.ID, "A")
	b := addField(t, e, c.ID, "B")
	if a.OrderIndex != 0 || b.OrderIndex != 1 {
		t.Fatalf("order indices = %d %d", a.OrderIndex, b.OrderIndex)
	}

	exec[[]engine.Field](t, e, &engine.ReorderFields{
		CollectionID: c.ID,
		FieldOrders:  []engine.FieldOrder{{ID: a.ID, OrderIndex: 1}, {ID: b.ID, OrderIndex: 0}},
	})
	if got, want := fieldOrders(t, e, c.ID), map[int64]int{a.ID: 1, b.ID: 0}; !reflect.DeepEqual(got, want) {
		t.Fatalf("orders = %v, want %v", got, want)
	}
	execErr(t, e, &engine.ReorderFields{
		CollectionID: c.ID,
		FieldOrders:  []engine.FieldOrder{{ID: a.ID, OrderIndex: 0}},
	}, engine.ErrPrecondition)

	x := addItem(t, e, c.ID, engine.Document{"Title": "x"})
	y := addItem(t, e, c.ID, engine.Document{"Title": "y"})
	execErr(t, e, &engine.BulkDeleteItems{CollectionID: c.ID, ItemIDs: []int64{x.ID, y.ID, 987654}}, engine.ErrPrecondition)
	if page := getItems(t, e, engine.GetItems{CollectionID: c.ID}); page.Total != 2 {
		t.Fatalf("items after failed delete = %d", page.Total)
	}
}

func TestPostgresSearchAndSort(t *testing.T) {
	e := newPostgresEngine(t)
	c := addCollection(t, e, "Books")
	addItem(t, e, c.ID, engine.Document{"Title": "Banana", "Rating": 10})
	dune := addItem(t, e, c.ID, engine.Document{"Title": "Dune", "Author": "Frank Herbert", "Rating": 1})
	addItem(t, e, c.ID, engine.Document{"Title": "apple", "Rating": 5})

	page := getItems(t, e, engine.GetItems{CollectionID: c.ID, Search: "dune herbert"})
	if !reflect.DeepEqual(itemIDs(page.Items), []int64{dune.ID}) || page.Total != 1 {
		t.Fatalf("search = %v (total %d)", itemIDs(page.Items), page.Total)
	}
	page = getItems(t, e, engine.GetItems{CollectionID: c.ID, Sort: []engine.SortSpec{{Field: "data.Rating", Order: 1}}})
	if got := titles(page.Items, "Rating"); !reflect.DeepEqual(got, []string{"1", "5", "10"}) {
		t.Fatalf("rating asc = %v", got)
	}
	page = getItems(t, e, engine.GetItems{CollectionID: c.ID, Sort: []engine.SortSpec{{Field: "data.Title", Order: -1}}})
	if got := titles(page.Items, "Title"); !reflect.DeepEqual(got, []string{"Dune", "Banana", "apple"}) {
		t.Fatalf("title desc = %v", got)
	}
}
