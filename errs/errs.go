// Package errs declares the error kinds used across the engine and
// provides the JSON-serializable envelope surfaced to callers.
package errs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	goerrors "gopkg.in/src-d/go-errors.v1"
)

// Kinds, one per AppError.type. Callers match on these with
// goerrors.Is / the Kind's Is method, not on string content.
var (
	ErrValidation    = goerrors.NewKind("validation error: %s")
	ErrConfiguration = goerrors.NewKind("configuration error: %s")
	ErrDependency    = goerrors.NewKind("dependency error: %s")
	ErrExecution     = goerrors.NewKind("execution error: %s")
	ErrData          = goerrors.NewKind("data error: %s")
	ErrNetwork       = goerrors.NewKind("network error: %s")
	ErrFile          = goerrors.NewKind("file error: %s")

	// Concrete data errors referenced by name across packages, matching
	// the UnknownColumn / DuplicateColumn vocabulary used throughout.
	ErrUnknownColumn   = goerrors.NewKind("unknown column: %s")
	ErrDuplicateColumn = goerrors.NewKind("duplicate column: %s")
)

// AppError is the serializable error envelope surfaced to callers.
type AppError struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Code      string         `json:"code,omitempty"`
	NodeID    string         `json:"nodeId,omitempty"`
	Field     string         `json:"field,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Stack     string         `json:"stack,omitempty"`
}

func (e *AppError) Error() string {
	return e.Message
}

// MarshalJSON is implemented explicitly so AppError stays
// serializable even when Details holds values that only round-trip
// through the domain's own Cell/Table types.
func (e *AppError) MarshalJSON() ([]byte, error) {
	type alias AppError
	return json.Marshal((*alias)(e))
}

// namedKinds orders the kinds checked by classify; DataError's aliases
// come before the generic ErrData so a more specific message wins.
var namedKinds = []struct {
	kind *goerrors.Kind
	name string
}{
	{ErrValidation, "ValidationError"},
	{ErrConfiguration, "ConfigurationError"},
	{ErrDependency, "DependencyError"},
	{ErrUnknownColumn, "DataError"},
	{ErrDuplicateColumn, "DataError"},
	{ErrData, "DataError"},
	{ErrNetwork, "NetworkError"},
	{ErrFile, "FileError"},
	{ErrExecution, "ExecutionError"},
}

// classify reports the AppError.type string for err by probing each
// known Kind's Is method, since go-errors.v1 does not expose the Kind
// of an already-constructed *Error value.
func classify(err error) string {
	for _, nk := range namedKinds {
		if nk.kind.Is(err) {
			return nk.name
		}
	}
	return "ExecutionError"
}

// Wrap converts any error into an *AppError, preserving the go-errors.v1
// Kind if one is present on the error chain and attaching nodeId/field
// context gathered at the call site. It never panics and never returns
// nil for a non-nil input.
func Wrap(err error, nodeID, field string) *AppError {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*AppError); ok {
		if ae.NodeID == "" {
			ae.NodeID = nodeID
		}
		if ae.Field == "" {
			ae.Field = field
		}
		return ae
	}

	cause := errors.Cause(err)
	typ := classify(cause)

	ae := &AppError{
		Type:      typ,
		Message:   err.Error(),
		NodeID:    nodeID,
		Field:     field,
		Timestamp: time.Now(),
	}
	if st, ok := err.(stackTracer); ok {
		ae.Stack = formatStack(st)
	}
	return ae
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func formatStack(st stackTracer) string {
	s := ""
	for i, f := range st.StackTrace() {
		if i > 3 {
			break
		}
		s += fmt.Sprintf("%+v\n", f)
	}
	return s
}

// Is reports whether err's cause was produced by kind.New(...).
func Is(err error, kind *goerrors.Kind) bool {
	return kind.Is(err)
}
