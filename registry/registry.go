package registry

import (
	"sort"
	"sync"

	"github.com/channely/datablocks-editor/errs"
)

// Registry maps node type identifiers to their Executor, guarded by an
// RWMutex so lookups and registration are safe from concurrent callers.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]Executor
}

// NewRegistry returns an empty registry. Most callers use the
// process-wide Default instead.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[string]Executor)}
}

// Default is the process-wide registry the engine consults unless a
// caller supplies its own.
var Default = NewRegistry()

// Register adds or replaces the executor for a node type.
func (r *Registry) Register(nodeType string, exec Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[nodeType] = exec
}

// Unregister removes a node type's executor, if any.
func (r *Registry) Unregister(nodeType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.executors, nodeType)
}

// Get returns the executor for a node type, or a ValidationError-class
// error when the type has not been registered.
func (r *Registry) Get(nodeType string) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exec, ok := r.executors[nodeType]
	if !ok {
		return nil, errs.ErrValidation.New("unknown node type %q", nodeType)
	}
	return exec, nil
}

// Has reports whether a node type is registered.
func (r *Registry) Has(nodeType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.executors[nodeType]
	return ok
}

// GetRegisteredTypes returns every registered node type, sorted for
// deterministic output.
func (r *Registry) GetRegisteredTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.executors))
	for t := range r.executors {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Clear removes every registered executor.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors = make(map[string]Executor)
}

// RegisterDefaults installs the default set of node types into r.
func RegisterDefaults(r *Registry) {
	r.Register("example-data", ExampleDataExecutor{})
	r.Register("file-input", FileInputExecutor{})
	r.Register("paste-input", PasteInputExecutor{})
	r.Register("http-request", HTTPRequestExecutor{})
	r.Register("filter", FilterExecutor{})
	r.Register("sort", SortExecutor{})
	r.Register("group", GroupExecutor{})
	r.Register("chart", ChartExecutor{})
	r.Register("javascript", NewJavaScriptExecutor())
}

func init() {
	RegisterDefaults(Default)
}
