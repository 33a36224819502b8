package datablocks

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channely/datablocks-editor/errs"
	"github.com/channely/datablocks-editor/graph"
	"github.com/channely/datablocks-editor/registry"
	"github.com/channely/datablocks-editor/table"
)

// constExecutor always succeeds with a fixed table, ignoring config
// and upstream — used as a source node in engine tests.
type constExecutor struct{ t *table.Table }

func (c constExecutor) Validate(ctx registry.ExecutionContext) registry.ValidationResult {
	return registry.ValidationResult{Valid: true}
}

func (c constExecutor) Execute(ctx registry.ExecutionContext) (registry.ExecutionResult, error) {
	return registry.ExecutionResult{Success: true, Output: c.t}, nil
}

// flakyExecutor fails its first N executions then succeeds, counting
// attempts per node for scenario (5).
type flakyExecutor struct {
	failUntil int32
	attempts  int32
}

func (f *flakyExecutor) Validate(ctx registry.ExecutionContext) registry.ValidationResult {
	return registry.ValidationResult{Valid: true}
}

func (f *flakyExecutor) Execute(ctx registry.ExecutionContext) (registry.ExecutionResult, error) {
	n := atomic.AddInt32(&f.attempts, 1)
	if n <= f.failUntil {
		return registry.ExecutionResult{}, errs.ErrExecution.New("simulated failure %d", n)
	}
	var in *table.Table
	for _, t := range ctx.Upstream {
		in = t
	}
	return registry.ExecutionResult{Success: true, Output: in}, nil
}

// blockingExecutor ignores its context, closes started (once) to signal
// the test it has actually begun executing, then blocks forever — it
// never returns, so the only way runOne completes
// is via ctx.Done() racing ahead of doneCh.
type blockingExecutor struct {
	started chan struct{}
	once    sync.Once
}

func (b *blockingExecutor) Validate(ctx registry.ExecutionContext) registry.ValidationResult {
	return registry.ValidationResult{Valid: true}
}

func (b *blockingExecutor) Execute(ctx registry.ExecutionContext) (registry.ExecutionResult, error) {
	b.once.Do(func() { close(b.started) })
	select {}
}

func employeesTable(t *testing.T) *table.Table {
	t.Helper()
	tb, err := table.FromRows(
		[]string{"name", "age", "city", "salary"},
		[][]any{
			{"Alice", 30.0, "NY", 75000.0},
			{"Bob", 25.0, "LA", 65000.0},
		},
	)
	require.NoError(t, err)
	return tb
}

func TestExecuteGraphLinearSuccess(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("source", constExecutor{t: employeesTable(t)})
	r.Register("sink", constExecutor{t: employeesTable(t)})

	e := New(r)
	nodes := []NodeDef{{ID: "A", Type: "source"}, {ID: "B", Type: "sink"}}
	edges := []graph.Edge{{ID: "e1", SourceID: "A", TargetID: "B"}}

	stats, err := e.ExecuteGraph(context.Background(), nodes, edges)
	require.NoError(t, err)
	assert.True(t, stats.Success)
	assert.Equal(t, 2, stats.Stats.CompletedNodes)

	out, ok := e.GetNodeOutput("B")
	require.True(t, ok)
	assert.Equal(t, 2, out.RowCount())
}

func TestExecuteGraphCycleRejected(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("filter", constExecutor{t: employeesTable(t)})
	r.Register("sort", constExecutor{t: employeesTable(t)})

	e := New(r)
	nodes := []NodeDef{{ID: "A", Type: "filter"}, {ID: "B", Type: "sort"}}
	edges := []graph.Edge{
		{ID: "e1", SourceID: "A", TargetID: "B"},
		{ID: "e2", SourceID: "B", TargetID: "A"},
	}

	_, err := e.ExecuteGraph(context.Background(), nodes, edges)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrDependency))
}

func TestExecuteGraphUnknownNodeTypeIsConfigurationError(t *testing.T) {
	r := registry.NewRegistry()
	e := New(r)
	nodes := []NodeDef{{ID: "A", Type: "does-not-exist"}}

	_, err := e.ExecuteGraph(context.Background(), nodes, nil)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrConfiguration))
}

func TestExecuteGraphRetriesThenSucceeds(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("source", constExecutor{t: employeesTable(t)})
	flaky := &flakyExecutor{failUntil: 2}
	r.Register("flaky", flaky)

	e := New(r)
	nodes := []NodeDef{{ID: "A", Type: "source"}, {ID: "B", Type: "flaky"}}
	edges := []graph.Edge{{ID: "e1", SourceID: "A", TargetID: "B"}}

	var mu sync.Mutex
	var transitions []NodeStatus
	e.SetCallbacks(Callbacks{
		OnNodeStatusChange: func(nodeID string, status NodeStatus, appErr *errs.AppError) {
			if nodeID == "B" {
				mu.Lock()
				transitions = append(transitions, status)
				mu.Unlock()
			}
		},
	})

	stats, err := e.ExecuteGraph(context.Background(), nodes, edges)
	require.NoError(t, err)
	assert.True(t, stats.Success)
	assert.Equal(t, int32(3), atomic.LoadInt32(&flaky.attempts))
	assert.GreaterOrEqual(t, stats.Stats.RetriedTasks, 2)
}

func TestExecuteGraphExhaustsRetriesAndFails(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("source", constExecutor{t: employeesTable(t)})
	flaky := &flakyExecutor{failUntil: 100}
	r.Register("flaky", flaky)

	e := New(r)
	nodes := []NodeDef{{ID: "A", Type: "source"}, {ID: "B", Type: "flaky"}}
	edges := []graph.Edge{{ID: "e1", SourceID: "A", TargetID: "B"}}

	stats, err := e.ExecuteGraph(context.Background(), nodes, edges)
	require.NoError(t, err)
	assert.False(t, stats.Success)
	assert.Equal(t, int32(3), atomic.LoadInt32(&flaky.attempts))

	_, ok := e.GetNodeOutput("A")
	assert.True(t, ok, "upstream source output must remain cached despite downstream failure")
}

func TestExecuteGraphJavaScriptTimeout(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("source", constExecutor{t: employeesTable(t)})
	r.Register("javascript", registry.NewJavaScriptExecutor())

	e := New(r)
	require.NoError(t, e.Configure(Config{MaxConcurrentExecutions: 4, ExecutionTimeout: 100 * time.Millisecond, MaxFileSizeBytes: DefaultConfig().MaxFileSizeBytes}))

	nodes := []NodeDef{
		{ID: "A", Type: "source"},
		{ID: "B", Type: "javascript", Config: map[string]any{"expression": "while(true) {}"}},
	}
	edges := []graph.Edge{{ID: "e1", SourceID: "A", TargetID: "B"}}

	start := time.Now()
	stats, err := e.ExecuteGraph(context.Background(), nodes, edges)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.False(t, stats.Success)
	assert.Less(t, elapsed, 10*time.Second)
}

func TestExecuteGraphAbortStopsLongRunningNode(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("source", constExecutor{t: employeesTable(t)})
	blocking := &blockingExecutor{started: make(chan struct{})}
	r.Register("blocking", blocking)

	e := New(r)
	require.NoError(t, e.Configure(Config{MaxConcurrentExecutions: 4, ExecutionTimeout: 10 * time.Second, MaxFileSizeBytes: DefaultConfig().MaxFileSizeBytes}))

	nodes := []NodeDef{{ID: "A", Type: "source"}, {ID: "B", Type: "blocking"}}
	edges := []graph.Edge{{ID: "e1", SourceID: "A", TargetID: "B"}}

	type runResult struct {
		stats ExecutionStats
		err   error
	}
	resultCh := make(chan runResult, 1)
	go func() {
		stats, err := e.ExecuteGraph(context.Background(), nodes, edges)
		resultCh <- runResult{stats, err}
	}()

	select {
	case <-blocking.started:
	case <-time.After(5 * time.Second):
		t.Fatal("node B never started executing")
	}
	e.Abort()

	var result runResult
	select {
	case result = <-resultCh:
	case <-time.After(5 * time.Second):
		t.Fatal("ExecuteGraph did not return after Abort")
	}

	require.Error(t, result.err)
	assert.True(t, errs.Is(result.err, errs.ErrExecution))
	assert.Contains(t, result.err.Error(), "aborted")
	assert.False(t, result.stats.Success)
	assert.Equal(t, StatusError, e.GetNodeStatus("B"))
	appErr, ok := e.nodeError("B")
	require.True(t, ok)
	assert.Contains(t, appErr.Error(), "aborted")
}

func TestInvalidateNodeCascadesToDependents(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("source", constExecutor{t: employeesTable(t)})
	r.Register("sink", constExecutor{t: employeesTable(t)})

	e := New(r)
	nodes := []NodeDef{{ID: "A", Type: "source"}, {ID: "B", Type: "sink"}}
	edges := []graph.Edge{{ID: "e1", SourceID: "A", TargetID: "B"}}

	_, err := e.ExecuteGraph(context.Background(), nodes, edges)
	require.NoError(t, err)

	g, err := graph.Build([]graph.Node{{ID: "A"}, {ID: "B"}}, edges)
	require.NoError(t, err)

	e.InvalidateNode("A", g)
	_, aOk := e.GetNodeOutput("A")
	_, bOk := e.GetNodeOutput("B")
	assert.False(t, aOk)
	assert.False(t, bOk)
}

func TestSnapshotRoundTrip(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("source", constExecutor{t: employeesTable(t)})

	e := New(r)
	nodes := []NodeDef{{ID: "A", Type: "source"}}
	_, err := e.ExecuteGraph(context.Background(), nodes, nil)
	require.NoError(t, err)

	blob, err := e.Snapshot()
	require.NoError(t, err)

	e2 := New(r)
	require.NoError(t, e2.RestoreSnapshot(blob))
	out, ok := e2.GetNodeOutput("A")
	require.True(t, ok)
	assert.Equal(t, 2, out.RowCount())
}

func TestSnapshotFileRoundTrip(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("source", constExecutor{t: employeesTable(t)})

	e := New(r)
	nodes := []NodeDef{{ID: "A", Type: "source"}}
	_, err := e.ExecuteGraph(context.Background(), nodes, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "snapshot.db")
	require.NoError(t, e.SnapshotToFile(path))

	e2 := New(r)
	require.NoError(t, e2.RestoreSnapshotFromFile(path))
	out, ok := e2.GetNodeOutput("A")
	require.True(t, ok)
	assert.Equal(t, 2, out.RowCount())
}
