// Package registry implements the process-wide node-type registry and
// the default set of operator executors: a mutex-guarded name-to-
// implementation map in the style of a pluggable driver catalog.
package registry

import (
	"context"
	"time"

	"github.com/satori/go.uuid"

	"github.com/channely/datablocks-editor/table"
)

// ValidationError is one entry of a ValidationResult's Errors/Warnings
// list.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationResult is the pure, synchronous output of Executor.Validate.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
}

// ExecutionResult is the uniform envelope Executor.Execute returns.
type ExecutionResult struct {
	Success       bool           `json:"success"`
	Output        *table.Table   `json:"-"`
	ChartOutput   any            `json:"output,omitempty"`
	Error         string         `json:"error,omitempty"`
	ExecutionTime time.Duration  `json:"executionTime"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// ExecutionContext carries everything an executor needs for one run:
// the node id, the map of upstream outputs keyed by producing node id,
// the node's static configuration, and per-execution metadata.
type ExecutionContext struct {
	NodeID      string
	Config      map[string]any
	Upstream    map[string]*table.Table
	ExecutionID string
	StartedAt   time.Time
	Timeout     time.Duration
	Ctx         context.Context
}

// NewExecutionContext builds a context with a fresh execution id and
// StartedAt set to the caller-supplied clock reading — the scheduler
// owns the clock so contexts stay trivially testable.
func NewExecutionContext(nodeID string, config map[string]any, upstream map[string]*table.Table, startedAt time.Time, timeout time.Duration) ExecutionContext {
	return ExecutionContext{
		NodeID:      nodeID,
		Config:      config,
		Upstream:    upstream,
		ExecutionID: uuid.NewV4().String(),
		StartedAt:   startedAt,
		Timeout:     timeout,
		Ctx:         context.Background(),
	}
}

// execContext returns the execution's cancellation context, defaulting
// to context.Background() for contexts built outside
// NewExecutionContext (e.g. in unit tests).
func execContext(ctx ExecutionContext) context.Context {
	if ctx.Ctx != nil {
		return ctx.Ctx
	}
	return context.Background()
}

// Executor is the contract every node type registers, :
// a pure synchronous validator and an execution method the scheduler
// wraps with timing, retries, and uniform error capture.
type Executor interface {
	Validate(ctx ExecutionContext) ValidationResult
	Execute(ctx ExecutionContext) (ExecutionResult, error)
}
