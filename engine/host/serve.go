package host

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/secondbrain/collections/engine"
	"github.com/secondbrain/collections/internal/logging"
)

// maxLine bounds one request line; imports carry whole collections.
const maxLine = 64 << 20

// Request is one line read by Serve.
type Request struct {
	ID        string          `json:"id"`
	Operation json.RawMessage `json:"operation"`
}

// Response is one line written by Serve.
type Response struct {
	ID    string     `json:"id"`
	OK    bool       `json:"ok"`
	Data  any        `json:"data,omitempty"`
	Error *WireError `json:"error,omitempty"`
}

type WireError struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Field   string  `json:"field,omitempty"`
	Details string  `json:"details,omitempty"`
	IDs     []int64 `json:"ids,omitempty"`
}

// ToWire converts any error into its wire form.
func ToWire(err error) *WireError {
	var ee *engine.Error
	if !errors.As(err, &ee) {
		return &WireError{Code: string(engine.ErrStorage), Message: err.Error()}
	}
	return &WireError{
		Code:    string(ee.Kind),
		Message: ee.Message,
		Field:   ee.Field,
		Details: ee.Details,
		IDs:     ee.IDs,
	}
}

// Serve reads newline-delimited requests from r and writes one response
// line per request to w. Requests execute in the order they were read but
// responses are written as they complete; match them by id. Serve
// returns when r is exhausted and every response has been written, or when
// ctx ends.
func (h *Host) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var (
		wg  sync.WaitGroup
		wmu sync.Mutex
		enc = json.NewEncoder(w)
	)
	write := func(resp Response) {
		wmu.Lock()
		defer wmu.Unlock()
		if err := enc.Encode(resp); err != nil {
			h.opts.Logger.Error("write response", "id", resp.ID, "error", err)
		}
	}
	defer wg.Wait()

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var req Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			write(Response{Error: ToWire(engine.Wrap(engine.ErrValidation, "malformed request", err))})
			continue
		}
		op, err := engine.DecodeOperation(req.Operation)
		if err != nil {
			write(Response{ID: req.ID, Error: ToWire(err)})
			continue
		}

		reqCtx := ctx
		if req.ID != "" {
			reqCtx = logging.WithRequestID(ctx, req.ID)
		}
		p, err := h.Submit(reqCtx, op)
		if err != nil {
			write(Response{ID: req.ID, Error: ToWire(err)})
			continue
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			data, err := p.Wait()
			if err != nil {
				write(Response{ID: id, Error: ToWire(err)})
				return
			}
			write(Response{ID: id, OK: true, Data: data})
		}(req.ID)

		if ctx.Err() != nil {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read requests: %w", err)
	}
	return ctx.Err()
}
