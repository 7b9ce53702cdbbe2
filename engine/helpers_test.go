package engine_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/secondbrain/collections/engine"
	_ "modernc.org/sqlite"
)

func monotonicNow(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Millisecond)
		return t
	}
}

func testOptions() engine.Options {
	opts := engine.DefaultOptions()
	opts.Now = monotonicNow(time.Unix(1700000000, 0)) // deterministic ordering
	return opts
}

func newEngine(t *testing.T, opts engine.Options) (*engine.Engine, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	return openEngine(t, opts, dbPath), dbPath
}

func openEngine(t *testing.T, opts engine.Options, dbPath string) *engine.Engine {
	t.Helper()
	e := engine.New(opts)
	if _, err := e.Execute(context.Background(), &engine.Init{Path: dbPath}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func exec[T any](t *testing.T, e *engine.Engine, op engine.Operation) T {
	t.Helper()
	res, err := e.Execute(context.Background(), op)
	if err != nil {
		t.Fatalf("%s: %v", op.Kind(), err)
	}
	v, ok := res.(T)
	if !ok {
		var zero T
		t.Fatalf("%s: result %T, want %T", op.Kind(), res, zero)
	}
	return v
}

func execErr(t *testing.T, e *engine.Engine, op engine.Operation, kind engine.ErrorKind) *engine.Error {
	t.Helper()
	res, err := e.Execute(context.Background(), op)
	if err == nil {
		t.Fatalf("%s: expected %s error, got result %v", op.Kind(), kind, res)
	}
	var ee *engine.Error
	if !errors.As(err, &ee) {
		t.Fatalf("%s: error %T is not *engine.Error: %v", op.Kind(), err, err)
	}
	if ee.Kind != kind {
		t.Fatalf("%s: error kind %s, want %s: %v", op.Kind(), ee.Kind, kind, err)
	}
	if res != nil {
		t.Fatalf("%s: failed call returned a result: %v", op.Kind(), res)
	}
	return ee
}

func addCollection(t *testing.T, e *engine.Engine, name string) engine.Collection {
	t.Helper()
	return exec[engine.Collection](t, e, &engine.AddCollection{Name: name})
}

func addField(t *testing.T, e *engine.Engine, collectionID int64, name string) engine.Field {
	t.Helper()
	return exec[engine.Field](t, e, &engine.AddField{
		CollectionID: collectionID,
		FieldInput:   engine.FieldInput{Name: name, Type: engine.FieldText},
	})
}

func addItem(t *testing.T, e *engine.Engine, collectionID int64, doc engine.Document) engine.Item {
	t.Helper()
	return exec[engine.Item](t, e, &engine.AddItem{CollectionID: collectionID, Data: doc})
}

func getItems(t *testing.T, e *engine.Engine, req engine.GetItems) engine.ItemsPage {
	t.Helper()
	if req.Limit == 0 {
		req.Limit = 100
	}
	return exec[engine.ItemsPage](t, e, &req)
}

func fieldOrders(t *testing.T, e *engine.Engine, collectionID int64) map[int64]int {
	t.Helper()
	fields := exec[[]engine.Field](t, e, &engine.GetFields{CollectionID: collectionID})
	out := make(map[int64]int, len(fields))
	for _, f := range fields {
		out[f.ID] = f.OrderIndex
	}
	return out
}

func itemIDs(items []engine.Item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func titles(items []engine.Item, key string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = fmt.Sprint(it.Data[key])
	}
	return out
}

func sortedIDs(ids []int64) []int64 {
	out := append([]int64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func rawDB(t *testing.T, dbPath string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		t.Fatalf("busy_timeout: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
