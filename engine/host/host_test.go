package host

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/secondbrain/collections/engine"
)

type execFunc func(ctx context.Context, op engine.Operation) (any, error)

func (f execFunc) Execute(ctx context.Context, op engine.Operation) (any, error) { return f(ctx, op) }

func newHost(t *testing.T, exec Executor, opts Options) *Host {
	t.Helper()
	h := New(exec, opts)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestTimeoutFor(t *testing.T) {
	h := newHost(t, execFunc(func(context.Context, engine.Operation) (any, error) { return nil, nil }),
		Options{Timeout: time.Second, LongTimeout: time.Minute})
	if got := h.TimeoutFor(engine.KindGetItems); got != time.Second {
		t.Fatalf("getItems timeout = %s", got)
	}
	for _, k := range []string{engine.KindImportCollection, engine.KindBulkDeleteItems, engine.KindBulkPatchItems} {
		if got := h.TimeoutFor(k); got != time.Minute {
			t.Fatalf("%s timeout = %s", k, got)
		}
	}
}

func TestDoAgainstEngine(t *testing.T) {
	e := engine.New(engine.DefaultOptions())
	t.Cleanup(func() { _ = e.Close() })
	h := newHost(t, e, DefaultOptions())
	ctx := context.Background()

	if _, err := h.Do(ctx, &engine.GetCollections{}); !engine.IsKind(err, engine.ErrNotReady) {
		t.Fatalf("before init: %v", err)
	}
	if _, err := h.Do(ctx, &engine.Init{Path: filepath.Join(t.TempDir(), "host.db")}); err != nil {
		t.Fatalf("init: %v", err)
	}
	res, err := h.Do(ctx, &engine.AddCollection{Name: "Books"})
	if err != nil {
		t.Fatalf("addCollection: %v", err)
	}
	if c := res.(engine.Collection); c.Name != "Books" {
		t.Fatalf("collection = %+v", c)
	}
	res, err = h.Do(ctx, &engine.GetCollections{})
	if err != nil || len(res.([]engine.Collection)) != 1 {
		t.Fatalf("getCollections = %v, %v", res, err)
	}
}

func TestTimedOutRequestStillCompletes(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	finished := make(chan error, 1)
	exec := execFunc(func(ctx context.Context, op engine.Operation) (any, error) {
		close(started)
		<-release
		finished <- ctx.Err()
		return engine.Ack{ID: 1}, nil
	})
	h := newHost(t, exec, Options{Timeout: 50 * time.Millisecond, LongTimeout: time.Minute})

	_, err := h.Do(context.Background(), &engine.DeleteItem{ID: 1})
	if !engine.IsKind(err, engine.ErrNotReady) || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("Do = %v, want timeout", err)
	}
	<-started
	close(release)
	select {
	case ctxErr := <-finished:
		if ctxErr != nil {
			t.Fatalf("operation context was cancelled: %v", ctxErr)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("operation never finished")
	}
}

func TestCancelledCallerDoesNotCancelTransaction(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	seen := make(chan error, 1)
	exec := execFunc(func(ctx context.Context, op engine.Operation) (any, error) {
		close(started)
		<-release
		seen <- ctx.Err()
		return nil, nil
	})
	h := newHost(t, exec, DefaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	p, err := h.Submit(ctx, &engine.GetCollections{})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	<-started
	cancel()
	if _, err := p.Wait(); !engine.IsKind(err, engine.ErrNotReady) {
		t.Fatalf("Wait = %v, want not_ready", err)
	}
	close(release)
	select {
	case err := <-seen:
		if err != nil {
			t.Fatalf("operation saw cancelled context: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("operation never finished")
	}
}

func TestCancelledBeforeStartIsSkipped(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var ran []string
	exec := execFunc(func(ctx context.Context, op engine.Operation) (any, error) {
		mu.Lock()
		ran = append(ran, op.Kind())
		mu.Unlock()
		if op.Kind() == engine.KindDeleteItem {
			close(started)
			<-release
		}
		return engine.Ack{ID: 1}, nil
	})
	h := newHost(t, exec, DefaultOptions())
	bg := context.Background()

	blocker, err := h.Submit(bg, &engine.DeleteItem{ID: 1})
	if err != nil {
		t.Fatalf("Submit blocker: %v", err)
	}
	<-started

	ctx, cancel := context.WithCancel(bg)
	p, err := h.Submit(ctx, &engine.GetCollections{})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	cancel()
	if _, err := p.Wait(); !engine.IsKind(err, engine.ErrNotReady) {
		t.Fatalf("Wait = %v, want not_ready", err)
	}

	close(release)
	if _, err := blocker.Wait(); err != nil {
		t.Fatalf("blocker: %v", err)
	}
	if _, err := h.Do(bg, &engine.GetFields{CollectionID: 1}); err != nil {
		t.Fatalf("getFields: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{engine.KindDeleteItem, engine.KindGetFields}
	if strings.Join(ran, ",") != strings.Join(want, ",") {
		t.Fatalf("executed %v, want %v", ran, want)
	}
}

func TestWorkerCrashFailsInFlightAndRestarts(t *testing.T) {
	release := make(chan struct{})
	exec := execFunc(func(ctx context.Context, op engine.Operation) (any, error) {
		if op.Kind() == engine.KindDeleteItem {
			<-release
			panic("boom")
		}
		return "ok", nil
	})
	h := newHost(t, exec, DefaultOptions())
	ctx := context.Background()

	crashing, err := h.Submit(ctx, &engine.DeleteItem{ID: 1})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	queued, err := h.Submit(ctx, &engine.GetCollections{})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	close(release)

	if _, err := crashing.Wait(); !engine.IsKind(err, engine.ErrNotReady) {
		t.Fatalf("crashing request = %v, want not_ready", err)
	}
	if _, err := queued.Wait(); !engine.IsKind(err, engine.ErrNotReady) {
		t.Fatalf("queued request = %v, want not_ready", err)
	}
	if h.Restarts() != 1 {
		t.Fatalf("restarts = %d", h.Restarts())
	}

	res, err := h.Do(ctx, &engine.GetCollections{})
	if err != nil || res != "ok" {
		t.Fatalf("after restart = %v, %v", res, err)
	}
}

func TestCloseFailsPending(t *testing.T) {
	release := make(chan struct{})
	exec := execFunc(func(ctx context.Context, op engine.Operation) (any, error) {
		<-release
		return nil, nil
	})
	h := New(exec, DefaultOptions())

	running, _ := h.Submit(context.Background(), &engine.GetCollections{})
	waiting, _ := h.Submit(context.Background(), &engine.GetCollections{})

	closed := make(chan struct{})
	go func() {
		_ = h.Close()
		close(closed)
	}()
	for {
		h.mu.Lock()
		c := h.closed
		h.mu.Unlock()
		if c {
			break
		}
		time.Sleep(time.Millisecond)
	}
	close(release)
	<-closed

	if _, err := running.Wait(); err != nil && !engine.IsKind(err, engine.ErrNotReady) {
		t.Fatalf("running request = %v", err)
	}
	if _, err := waiting.Wait(); !engine.IsKind(err, engine.ErrNotReady) {
		t.Fatalf("waiting request = %v, want not_ready", err)
	}
	if _, err := h.Do(context.Background(), &engine.GetCollections{}); !engine.IsKind(err, engine.ErrNotReady) {
		t.Fatalf("Do after Close = %v", err)
	}
}

func TestServe(t *testing.T) {
	e := engine.New(engine.DefaultOptions())
	t.Cleanup(func() { _ = e.Close() })
	h := newHost(t, e, DefaultOptions())

	dbPath := filepath.Join(t.TempDir(), "serve.db")
	initLine, _ := json.Marshal(map[string]any{
		"id":        "1",
		"operation": map[string]any{"type": "init", "payload": map[string]any{"path": dbPath}},
	})
	in := strings.Join([]string{
		string(initLine),
		`{"id":"2","operation":{"type":"addCollection","payload":{"name":"Books"}}}`,
		`{"id":"3","operation":{"type":"addItem","payload":{"collectionId":1,"data":{"Title":"Dune","Year":1965}}}}`,
		`{"id":"4","operation":{"type":"getItems","payload":{"collectionId":1,"search":"dune","limit":10}}}`,
		`{"id":"5","operation":{"type":"dropTables"}}`,
		`{"id":"6","operation":{"type":"bulkDeleteItems","payload":{"collectionId":1,"itemIds":[1,42]}}}`,
		``,
		`not json`,
	}, "\n")

	var out bytes.Buffer
	if err := h.Serve(context.Background(), strings.NewReader(in), &out); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	type wireResp struct {
		ID    string          `json:"id"`
		OK    bool            `json:"ok"`
		Data  json.RawMessage `json:"data"`
		Error *WireError      `json:"error"`
	}
	byID := map[string]wireResp{}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 7 {
		t.Fatalf("got %d response lines:\n%s", len(lines), out.String())
	}
	for _, l := range lines {
		var r wireResp
		if err := json.Unmarshal([]byte(l), &r); err != nil {
			t.Fatalf("bad response line %q: %v", l, err)
		}
		byID[r.ID] = r
	}

	for _, id := range []string{"1", "2", "3", "4"} {
		if !byID[id].OK {
			t.Fatalf("request %s failed: %+v", id, byID[id].Error)
		}
	}
	var page engine.ItemsPage
	if err := json.Unmarshal(byID["4"].Data, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Total != 1 || page.Items[0].Data["Title"] != "Dune" {
		t.Fatalf("page = %+v", page)
	}
	if r := byID["5"]; r.OK || r.Error.Code != "validation_failed" {
		t.Fatalf("unknown operation = %+v", r)
	}
	if r := byID["6"]; r.OK || r.Error.Code != "precondition_failed" || fmt.Sprint(r.Error.IDs) != "[42]" {
		t.Fatalf("bulk delete = %+v", r.Error)
	}
	if r := byID[""]; r.OK || r.Error.Code != "validation_failed" {
		t.Fatalf("malformed line = %+v", r)
	}
}
