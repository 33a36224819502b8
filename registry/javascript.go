package registry

import (
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/sirupsen/logrus"

	"github.com/channely/datablocks-editor/errs"
	"github.com/channely/datablocks-editor/table"
)

// JavaScriptExecutor runs a user expression against the input Table
// under a time budget. Each execution gets a fresh
// goja.Runtime — never reused across nodes or rows — with no host
// functions registered beyond a safe console.log shim, so the
// expression cannot observe or mutate process-wide state: no require,
// no filesystem, no network, no access to Go process globals. This
// resolves the corresponding Open Question with strict isolation.
type JavaScriptExecutor struct {
	log *logrus.Logger
}

// NewJavaScriptExecutor wires the executor to logrus's standard
// logger, which the console.log shim writes through.
func NewJavaScriptExecutor() JavaScriptExecutor {
	return JavaScriptExecutor{log: logrus.StandardLogger()}
}

func (JavaScriptExecutor) Validate(ctx ExecutionContext) ValidationResult {
	if _, err := requireString(ctx.Config, "expression"); err != nil {
		return invalid("expression", "javascript requires a non-empty expression", "REQUIRED")
	}
	return ok()
}

func (e JavaScriptExecutor) Execute(ctx ExecutionContext) (ExecutionResult, error) {
	started := time.Now()
	expr, err := requireString(ctx.Config, "expression")
	if err != nil {
		return ExecutionResult{}, err
	}
	in, err := singleUpstream(ctx)
	if err != nil {
		return ExecutionResult{}, err
	}

	vm := goja.New()
	vm.Set("console", map[string]any{
		"log": func(args ...any) {
			e.log.WithField("node", ctx.NodeID).Info(fmt.Sprint(args...))
		},
	})
	vm.Set("table", tableToJS(in))

	timeout := ctx.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	timer := time.AfterFunc(timeout, func() {
		vm.Interrupt("javascript execution timed out")
	})
	defer timer.Stop()
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-execContext(ctx).Done():
			vm.Interrupt("javascript execution cancelled")
		case <-stop:
		}
	}()

	val, runErr := vm.RunString(expr)
	if runErr != nil {
		if _, interrupted := runErr.(*goja.InterruptedError); interrupted {
			return ExecutionResult{}, errs.ErrExecution.New("javascript: %s", runErr)
		}
		return ExecutionResult{}, errs.ErrExecution.New("javascript: %s", runErr)
	}

	out, err := jsResultToTable(in, val)
	if err != nil {
		return ExecutionResult{}, err
	}
	return success(out, started, nil), nil
}

// tableToJS exposes the input as a plain array-of-objects value, the
// shape a JS expression naturally iterates with map/filter/reduce.
func tableToJS(t *table.Table) []map[string]any {
	rows := make([]map[string]any, t.RowCount())
	for i, row := range t.Rows {
		obj := make(map[string]any, len(t.Columns))
		for j, col := range t.Columns {
			if row[j].IsNull() {
				obj[col] = nil
			} else {
				obj[col] = row[j].Value()
			}
		}
		rows[i] = obj
	}
	return rows
}

// jsResultToTable accepts either a returned array-of-objects (the
// common case: `table.filter(...)`) or, when the expression mutates
// nothing and returns undefined, falls back to the original table.
func jsResultToTable(original *table.Table, val goja.Value) (*table.Table, error) {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return original, nil
	}
	exported := val.Export()
	maps, ok := exported.([]map[string]any)
	if !ok {
		if rawSlice, ok := exported.([]any); ok {
			maps = make([]map[string]any, 0, len(rawSlice))
			for _, item := range rawSlice {
				if m, ok := item.(map[string]any); ok {
					maps = append(maps, m)
				}
			}
		} else {
			return nil, errs.ErrExecution.New("javascript expression must return an array of row objects")
		}
	}
	return table.FromMaps(maps), nil
}
