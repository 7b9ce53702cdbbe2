// Package engine is the embedded data engine behind the collections
// manager. All access goes through Execute with one of the Operation types.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/secondbrain/collections/engine/ops"
	"github.com/secondbrain/collections/engine/storage"
	"github.com/secondbrain/collections/engine/storage/postgres"
	"github.com/secondbrain/collections/engine/storage/sqlite"
	"github.com/secondbrain/collections/internal/logging"
)

// Engine owns one storage handle at a time. Execute calls are serialized.
type Engine struct {
	opts Options

	mu  sync.Mutex
	h   *handle
	gen atomic.Uint64
}

// handle is replaced wholesale by Init and never mutated afterwards.
type handle struct {
	adapter  storage.Adapter
	db       *sql.DB
	fullText bool
}

func New(opts Options) *Engine {
	return &Engine{opts: opts.withDefaults()}
}

// Execute runs one operation. It never panics; every failure is an *Error.
func (e *Engine) Execute(ctx context.Context, op Operation) (result any, err error) {
	if op == nil {
		return nil, ValidationError("type", "missing operation")
	}
	gen := e.gen.Load()

	e.mu.Lock()
	defer e.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = NewError(ErrStorage, fmt.Sprintf("%s panicked: %v", op.Kind(), r))
		}
		if err != nil {
			result = nil
			ee := classify(op.Kind(), err)
			logging.OperationFailed(ctx, e.opts.Logger, op.Kind(), string(ee.Kind), ee)
			err = ee
		}
	}()

	if _, ok := op.(*Init); !ok {
		if e.h == nil {
			return nil, NotReadyError("engine is not initialized")
		}
		if e.gen.Load() != gen {
			return nil, NotReadyError("engine was re-initialized while the request was queued")
		}
	}
	return op.execute(ctx, &session{e: e, h: e.h})
}

// FullTextSearch reports whether the current handle uses the indexed
// search strategy.
func (e *Engine) FullTextSearch() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.h != nil && e.h.fullText
}

// Close releases the current handle. The engine can be initialized again.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen.Add(1)
	return e.closeHandle()
}

func (e *Engine) closeHandle() error {
	if e.h == nil {
		return nil
	}
	h := e.h
	e.h = nil
	err := h.db.Close()
	if cerr := h.adapter.Close(); err == nil {
		err = cerr
	}
	return err
}

func (e *Engine) newAdapter(target string) (storage.Adapter, error) {
	switch e.opts.Backend {
	case storage.BackendSQLite:
		return sqlite.New(target), nil
	case storage.BackendPostgres:
		return postgres.New(target, e.opts.PostgresSchema), nil
	}
	return nil, ValidationError("backend", "unknown backend "+quote(string(e.opts.Backend)))
}

// open replaces the current handle. Operations queued against the previous
// handle fail with not_ready. A bootstrap failure leaves the engine
// uninitialized.
func (e *Engine) open(ctx context.Context, target string) (InitResult, error) {
	e.gen.Add(1)
	if err := e.closeHandle(); err != nil {
		logging.With(ctx, e.opts.Logger).Warn("close previous handle", "error", err)
	}

	adapter, err := e.newAdapter(target)
	if err != nil {
		return InitResult{}, err
	}
	db, err := adapter.Connect(ctx)
	if err != nil {
		return InitResult{}, Wrap(ErrStorage, "connect to database", err)
	}
	migrated, err := ops.Bootstrap(ctx, db, adapter)
	if err != nil {
		_ = db.Close()
		return InitResult{}, Wrap(ErrStorage, "bootstrap schema", err)
	}

	log := logging.With(ctx, e.opts.Logger)
	if migrated {
		log.Info("field order migration applied", "index", storage.FieldOrderIndex)
	}

	h := &handle{adapter: adapter, db: db}
	if !e.opts.DisableFullText {
		if err := adapter.FTS().Enable(ctx, db); err != nil {
			log.Warn("full-text search unavailable, using substring search", "error", err)
		} else {
			h.fullText = true
			if rebuilt, err := ops.SyncSearchIndex(ctx, db, adapter.SQL(), adapter.FTS()); err != nil {
				_ = db.Close()
				return InitResult{}, Wrap(ErrStorage, "sync search index", err)
			} else if rebuilt {
				log.Info("search index rebuilt")
			}
		}
	}
	e.h = h
	log.Info("engine initialized", "backend", string(adapter.Backend()), "full_text", h.fullText)

	return InitResult{Backend: string(adapter.Backend()), FullTextSearch: h.fullText, Migrated: migrated}, nil
}

// session is the view of the engine an operation runs against.
type session struct {
	e *Engine
	h *handle
}

func (s *session) sql() storage.SQL { return s.h.adapter.SQL() }

func (s *session) nowMS() int64 { return s.e.opts.Now().UnixMilli() }

func (s *session) bulk() ops.Bulk {
	return ops.Bulk{
		SQL:       s.h.adapter.SQL(),
		Style:     s.h.adapter.PlaceholderStyle(),
		ChunkSize: s.e.opts.InClauseChunkSize,
	}
}

// inTx runs fn in one transaction and commits only if fn succeeds.
func (s *session) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.h.db.BeginTx(ctx, nil)
	if err != nil {
		return Wrap(ErrStorage, "begin transaction", err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return Wrap(ErrStorage, "commit", err)
	}
	return nil
}
