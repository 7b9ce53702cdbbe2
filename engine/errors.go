package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/secondbrain/collections/engine/document"
	"github.com/secondbrain/collections/engine/ops"
)

type ErrorKind string

const (
	ErrNotReady     ErrorKind = "not_ready"
	ErrValidation   ErrorKind = "validation_failed"
	ErrPrecondition ErrorKind = "precondition_failed"
	ErrIntegrity    ErrorKind = "integrity_violation"
	ErrDataCorrupt  ErrorKind = "data_corrupt"
	ErrStorage      ErrorKind = "storage_failure"
	ErrNotFound     ErrorKind = "not_found"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Field   string
	IDs     []int64
	Details string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	base := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Field != "" {
		base = fmt.Sprintf("%s (field=%s)", base, e.Field)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Wrap(kind ErrorKind, msg string, cause error) *Error {
	e := &Error{Kind: kind, Message: msg, Cause: cause}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func NotReadyError(msg string) *Error {
	return &Error{Kind: ErrNotReady, Message: msg}
}

func ValidationError(field, msg string) *Error {
	return &Error{Kind: ErrValidation, Field: field, Message: msg}
}

func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// classify maps errors from the ops and document layers onto the engine
// taxonomy. Anything unrecognised is a storage failure.
func classify(op string, err error) *Error {
	var (
		ee    *Error
		pre   *ops.PreconditionError
		integ *ops.IntegrityError
		nf    *ops.NotFoundError
		bad   *ops.CorruptError
		docE  *ops.DocumentError
		shape *document.ShapeError
	)
	switch {
	case errors.As(err, &ee):
		return ee
	case errors.As(err, &pre):
		return &Error{Kind: ErrPrecondition, Message: pre.Message, IDs: pre.IDs, Cause: err}
	case errors.As(err, &integ):
		return &Error{Kind: ErrIntegrity, Message: integ.Message, Cause: err}
	case errors.As(err, &nf):
		return &Error{Kind: ErrNotFound, Message: nf.Error(), IDs: []int64{nf.ID}, Cause: err}
	case errors.As(err, &bad):
		return &Error{Kind: ErrDataCorrupt, Message: bad.Error(), IDs: []int64{bad.ItemID}, Cause: err}
	case errors.As(err, &docE):
		e := &Error{Kind: ErrValidation, Message: docE.Error(), Cause: err}
		if docE.ItemID != 0 {
			e.IDs = []int64{docE.ItemID}
		}
		if errors.As(err, &shape) {
			e.Field = shape.Key
		}
		return e
	case errors.As(err, &shape):
		return &Error{Kind: ErrValidation, Message: shape.Error(), Field: shape.Key, Cause: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Wrap(ErrNotReady, op+" was abandoned", err)
	}
	return Wrap(ErrStorage, op+" failed", err)
}
