// Package datablocks implements the execution engine: a
// dependency-aware scheduler that drives the registry's executors
// over a node/edge graph, with bounded concurrency, retries, timeouts,
// and cooperative cancellation, behind a single entry-point Engine
// type.
package datablocks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/channely/datablocks-editor/errs"
	"github.com/channely/datablocks-editor/graph"
	"github.com/channely/datablocks-editor/registry"
	"github.com/channely/datablocks-editor/table"
)

// NodeDef is one node of the graph the caller submits to ExecuteGraph:
// its id, its registered operator type, and its static configuration.
type NodeDef struct {
	ID     string
	Type   string
	Config map[string]any
}

// NodeStatus is one of the lifecycle states per-task
// state machine moves a node through.
type NodeStatus string

const (
	StatusIdle       NodeStatus = "idle"
	StatusProcessing NodeStatus = "processing"
	StatusSuccess    NodeStatus = "success"
	StatusError      NodeStatus = "error"
)

// Stats mirrors the progress object callbacks carry.
type Stats struct {
	TotalNodes     int
	CompletedNodes int
	FailedNodes    int
	RetriedTasks   int
	StartedAt      time.Time
	ElapsedMs      int64
}

// Callbacks are the three event hooks names. Any of them
// may be nil; callback invocation is never on the scheduling critical
// path and a panicking callback never affects the run.
type Callbacks struct {
	OnNodeStatusChange  func(nodeID string, status NodeStatus, err *errs.AppError)
	OnExecutionProgress func(stats Stats)
	OnExecutionComplete func(success bool, stats Stats)
}

// ExecutionStats is ExecuteGraph's return value.
type ExecutionStats struct {
	Success bool
	Stats   Stats
}

// Engine is the process-wide scheduler. The zero value is not usable;
// construct with New.
type Engine struct {
	config   Config
	registry *registry.Registry
	metrics  *Metrics
	log      *logrus.Entry

	mu         sync.RWMutex
	cache      map[string]*table.Table
	nodeStatus map[string]NodeStatus
	nodeErrors map[string]*errs.AppError

	callbacksMu sync.RWMutex
	callbacks   Callbacks

	executing int32
	cancel    context.CancelFunc
	cancelMu  sync.Mutex

	// eventsCh/eventsDone back the per-run callback drain goroutine;
	// both are guarded by cancelMu and only live for the duration of
	// one ExecuteGraph call (the re-entrancy guard keeps there from
	// ever being more than one).
	eventsCh   chan event
	eventsDone chan struct{}
}

// New builds an Engine against r (use registry.Default for the
// built-in node set).
func New(r *registry.Registry) *Engine {
	return &Engine{
		config:     DefaultConfig(),
		registry:   r,
		metrics:    newMetrics(),
		log:        logrus.NewEntry(logrus.StandardLogger()),
		cache:      make(map[string]*table.Table),
		nodeStatus: make(map[string]NodeStatus),
		nodeErrors: make(map[string]*errs.AppError),
	}
}

// NewDefault builds an Engine against the process-wide default
// registry, the common case.
func NewDefault() *Engine {
	return New(registry.Default)
}

// Configure applies cfg after validating it.
func (e *Engine) Configure(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.config = cfg
	e.mu.Unlock()
	return nil
}

// SetCallbacks installs the event hooks.
func (e *Engine) SetCallbacks(cb Callbacks) {
	e.callbacksMu.Lock()
	e.callbacks = cb
	e.callbacksMu.Unlock()
}

// Abort idempotently cancels any in-flight ExecuteGraph call.
func (e *Engine) Abort() {
	e.cancelMu.Lock()
	defer e.cancelMu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// GetExecutionStatus reports a point-in-time snapshot of execution state.
func (e *Engine) GetExecutionStatus() (isExecuting bool, statuses map[string]NodeStatus, outputs map[string]*table.Table) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	statuses = make(map[string]NodeStatus, len(e.nodeStatus))
	for k, v := range e.nodeStatus {
		statuses[k] = v
	}
	outputs = make(map[string]*table.Table, len(e.cache))
	for k, v := range e.cache {
		outputs[k] = v
	}
	return atomic.LoadInt32(&e.executing) == 1, statuses, outputs
}

// GetNodeOutput returns the cached output for a node, if any.
func (e *Engine) GetNodeOutput(nodeID string) (*table.Table, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.cache[nodeID]
	return t, ok
}

// GetNodeStatus returns a node's current status, defaulting to idle.
func (e *Engine) GetNodeStatus(nodeID string) NodeStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if s, ok := e.nodeStatus[nodeID]; ok {
		return s
	}
	return StatusIdle
}

func (e *Engine) nodeError(nodeID string) (*errs.AppError, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	appErr, ok := e.nodeErrors[nodeID]
	return appErr, ok
}

// InvalidateNode drops a node's cached output along with the
// transitive closure of its dependents (their outputs are derived from
// it and are therefore stale too), resolving Open Question
// in favor of transitive invalidation over single-node invalidation.
func (e *Engine) InvalidateNode(nodeID string, g *graph.Graph) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.invalidateLocked(nodeID, g)
}

func (e *Engine) invalidateLocked(nodeID string, g *graph.Graph) {
	delete(e.cache, nodeID)
	e.nodeStatus[nodeID] = StatusIdle
	delete(e.nodeErrors, nodeID)
	if g == nil {
		return
	}
	for _, dep := range g.DependentIDs(nodeID) {
		if _, stillCached := e.cache[dep]; stillCached {
			e.invalidateLocked(dep, g)
		}
	}
}

// event is one callback notification, queued onto a run's eventsCh so
// the dedicated drain goroutine (runEventLoop) invokes user callbacks
// off the scheduling critical path, "callbacks MUST
// NOT be on the critical path" requirement.
type event struct {
	kind    string // "status", "progress", "complete"
	nodeID  string
	status  NodeStatus
	appErr  *errs.AppError
	stats   Stats
	success bool
}

// runEventLoop drains ch, invoking the currently-installed callback for
// each event, until ch is closed. A panicking callback never stops the
// loop or escapes to the scheduler.
func (e *Engine) runEventLoop(ch <-chan event, done chan<- struct{}) {
	defer close(done)
	for ev := range ch {
		e.dispatchEvent(ev)
	}
}

func (e *Engine) dispatchEvent(ev event) {
	defer func() { recover() }()

	e.callbacksMu.RLock()
	cb := e.callbacks
	e.callbacksMu.RUnlock()

	switch ev.kind {
	case "status":
		if cb.OnNodeStatusChange != nil {
			cb.OnNodeStatusChange(ev.nodeID, ev.status, ev.appErr)
		}
	case "progress":
		if cb.OnExecutionProgress != nil {
			cb.OnExecutionProgress(ev.stats)
		}
	case "complete":
		if cb.OnExecutionComplete != nil {
			cb.OnExecutionComplete(ev.success, ev.stats)
		}
	}
}

func (e *Engine) emitStatusChange(nodeID string, status NodeStatus, appErr *errs.AppError) {
	e.sendEvent(event{kind: "status", nodeID: nodeID, status: status, appErr: appErr})
}

func (e *Engine) emitProgress(stats Stats) {
	e.sendEvent(event{kind: "progress", stats: stats})
}

func (e *Engine) emitComplete(success bool, stats Stats) {
	e.sendEvent(event{kind: "complete", success: success, stats: stats})
}

// sendEvent is a no-op outside an in-flight ExecuteGraph call (eventsCh
// is only non-nil while the run's drain goroutine is alive).
func (e *Engine) sendEvent(ev event) {
	e.cancelMu.Lock()
	ch := e.eventsCh
	e.cancelMu.Unlock()
	if ch == nil {
		return
	}
	ch <- ev
}

type queueItem struct {
	nodeID     string
	deps       []string
	retryCount int
}

type taskOutcome struct {
	nodeID  string
	success bool
	output  *table.Table
	appErr  *errs.AppError
	item    queueItem
}

// ExecuteGraph drives a full run over (nodes, edges).
// Not re-entrant: a second concurrent call on the same Engine fails
// fast with ExecutionError.
func (e *Engine) ExecuteGraph(ctx context.Context, nodes []NodeDef, edges []graph.Edge) (ExecutionStats, error) {
	if !atomic.CompareAndSwapInt32(&e.executing, 0, 1) {
		return ExecutionStats{}, errs.ErrExecution.New("executeGraph: another execution is already in flight")
	}
	defer atomic.StoreInt32(&e.executing, 0)

	span, ctx := opentracing.StartSpanFromContext(ctx, "executeGraph")
	defer span.Finish()

	runCtx, cancel := context.WithCancel(ctx)
	eventsCh := make(chan event, len(nodes)*4+16)
	eventsDone := make(chan struct{})
	e.cancelMu.Lock()
	e.cancel = cancel
	e.eventsCh = eventsCh
	e.eventsDone = eventsDone
	e.cancelMu.Unlock()
	go e.runEventLoop(eventsCh, eventsDone)
	defer func() {
		close(eventsCh)
		<-eventsDone
		e.cancelMu.Lock()
		e.eventsCh = nil
		e.eventsDone = nil
		e.cancelMu.Unlock()
	}()
	defer cancel()

	defs := make(map[string]NodeDef, len(nodes))
	gnodes := make([]graph.Node, len(nodes))
	for i, n := range nodes {
		defs[n.ID] = n
		gnodes[i] = graph.Node{ID: n.ID}
	}

	for _, n := range nodes {
		if !e.registry.Has(n.Type) {
			return ExecutionStats{}, errs.ErrConfiguration.New("node %s: operator type %q is not registered", n.ID, n.Type)
		}
	}

	g, err := graph.Build(gnodes, edges)
	if err != nil {
		return ExecutionStats{}, err
	}

	e.resetState(nodes)

	cfg := e.currentConfig()
	stats := Stats{TotalNodes: len(nodes), StartedAt: time.Now()}

	queue := make([]queueItem, 0, len(nodes))
	for _, id := range g.OrderedIDs() {
		queue = append(queue, queueItem{nodeID: id, deps: g.DependencyIDs(id)})
	}

	completed := make(map[string]bool, len(nodes))
	failed := make(map[string]bool, len(nodes))
	active := make(map[string]bool, cfg.MaxConcurrentExecutions)

	resultsCh := make(chan taskOutcome, cfg.MaxConcurrentExecutions)
	grp, grpCtx := errgroup.WithContext(runCtx)

	success := true
	aborted := false

loop:
	for len(queue) > 0 || len(active) > 0 {
		select {
		case <-runCtx.Done():
			success = false
			aborted = true
			break loop
		default:
		}

		progressed := false
		remaining := queue[:0]
		for _, item := range queue {
			if len(active) >= cfg.MaxConcurrentExecutions {
				remaining = append(remaining, item)
				continue
			}
			if !depsSatisfied(item.deps, completed) {
				if depsFailed(item.deps, failed) {
					// Dependency permanently failed: this node and
					// its queue entry never become eligible; drop it
					// so the loop can terminate. It remains idle.
					continue
				}
				remaining = append(remaining, item)
				continue
			}
			active[item.nodeID] = true
			progressed = true
			e.dispatch(grpCtx, grp, resultsCh, defs[item.nodeID], item, cfg)
		}
		queue = remaining

		if len(active) == 0 {
			if !progressed {
				break loop
			}
			continue
		}

		select {
		case <-runCtx.Done():
			success = false
			aborted = true
			break loop
		case res := <-resultsCh:
			delete(active, res.nodeID)
			if res.success {
				e.mu.Lock()
				e.cache[res.nodeID] = res.output
				e.nodeStatus[res.nodeID] = StatusSuccess
				e.mu.Unlock()
				completed[res.nodeID] = true
				stats.CompletedNodes++
				e.emitStatusChange(res.nodeID, StatusSuccess, nil)
			} else if res.item.retryCount < 2 {
				res.item.retryCount++
				stats.RetriedTasks++
				queue = append(queue, res.item)
				e.log.WithFields(logrus.Fields{"nodeId": res.nodeID, "retryCount": res.item.retryCount}).Warn("node execution failed, retrying")
				e.emitStatusChange(res.nodeID, StatusIdle, res.appErr)
			} else {
				e.mu.Lock()
				e.nodeStatus[res.nodeID] = StatusError
				e.nodeErrors[res.nodeID] = res.appErr
				e.mu.Unlock()
				failed[res.nodeID] = true
				stats.FailedNodes++
				success = false
				e.log.WithField("nodeId", res.nodeID).Error("node execution failed permanently")
				e.emitStatusChange(res.nodeID, StatusError, res.appErr)
			}
			stats.ElapsedMs = time.Since(stats.StartedAt).Milliseconds()
			e.emitProgress(stats)
		}
	}

	_ = grp.Wait()

	if aborted {
		// Every dispatch still counted in active already sent (or is
		// about to send) exactly one outcome on resultsCh — dispatch
		// never blocks on that send — so draining len(active) of them
		// here recovers every node the main loop stopped waiting for
		// instead of leaving it stuck at StatusProcessing forever.
		for len(active) > 0 {
			res := <-resultsCh
			delete(active, res.nodeID)
			e.finalizeAbortedOutcome(res, &stats)
		}
	}

	if len(completed) != len(nodes) {
		success = false
	}
	stats.ElapsedMs = time.Since(stats.StartedAt).Milliseconds()
	e.emitComplete(success, stats)

	if aborted {
		return ExecutionStats{Success: success, Stats: stats}, errs.ErrExecution.New("execution aborted")
	}
	return ExecutionStats{Success: success, Stats: stats}, nil
}

// finalizeAbortedOutcome records the terminal state of a node whose task
// outcome arrived after the main scheduling loop stopped draining
// resultsCh because the run was aborted. Aborted nodes are always
// reported as errors regardless of res.success or remaining retries:
// an abort cancels the run, it does not retry it.
func (e *Engine) finalizeAbortedOutcome(res taskOutcome, stats *Stats) {
	appErr := res.appErr
	if appErr == nil {
		appErr = errs.Wrap(errs.ErrExecution.New("node %s: execution aborted", res.nodeID), res.nodeID, "")
	}
	e.mu.Lock()
	e.nodeStatus[res.nodeID] = StatusError
	e.nodeErrors[res.nodeID] = appErr
	e.mu.Unlock()
	stats.FailedNodes++
	e.log.WithField("nodeId", res.nodeID).Warn("node execution aborted")
	e.emitStatusChange(res.nodeID, StatusError, appErr)
}

func depsSatisfied(deps []string, completed map[string]bool) bool {
	for _, d := range deps {
		if !completed[d] {
			return false
		}
	}
	return true
}

func depsFailed(deps []string, failed map[string]bool) bool {
	for _, d := range deps {
		if failed[d] {
			return true
		}
	}
	return false
}

func (e *Engine) currentConfig() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config
}

func (e *Engine) resetState(nodes []NodeDef) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]*table.Table)
	e.nodeStatus = make(map[string]NodeStatus, len(nodes))
	e.nodeErrors = make(map[string]*errs.AppError)
	for _, n := range nodes {
		e.nodeStatus[n.ID] = StatusIdle
	}
}

// dispatch spawns one node's task goroutine under grp, bounded by the
// caller already having reserved a slot in the active set. It races
// the executor against the configured soft timeout and always reports
// exactly one taskOutcome on resultsCh: resultsCh is sized to
// cfg.MaxConcurrentExecutions and at most that many dispatches are ever
// in flight at once, so the send below never blocks — even once the
// main loop has stopped draining it (e.g. after an abort), every
// outcome still lands in the buffer for the post-loop drain to pick up.
func (e *Engine) dispatch(ctx context.Context, grp *errgroup.Group, resultsCh chan<- taskOutcome, def NodeDef, item queueItem, cfg Config) {
	e.mu.Lock()
	e.nodeStatus[def.ID] = StatusProcessing
	e.mu.Unlock()
	e.emitStatusChange(def.ID, StatusProcessing, nil)
	e.metrics.observeStarted()
	if item.retryCount > 0 {
		e.metrics.observeRetried()
	}

	grp.Go(func() (grpErr error) {
		taskCtx, cancel := context.WithTimeout(ctx, cfg.ExecutionTimeout)
		defer cancel()

		span, taskCtx := opentracing.StartSpanFromContext(taskCtx, "executeNode")
		span.SetTag("nodeId", def.ID)
		defer span.Finish()

		started := time.Now()
		outcome := e.runOne(taskCtx, def, item)
		if outcome.success {
			e.metrics.observeSucceeded(time.Since(started))
		} else {
			e.metrics.observeFailed(time.Since(started))
		}
		resultsCh <- outcome
		return nil
	})
}

// runOne resolves upstream outputs, runs validate then execute, and
// never lets a panic or a timeout escape as anything other than a
// failed taskOutcome.
func (e *Engine) runOne(ctx context.Context, def NodeDef, item queueItem) (outcome taskOutcome) {
	outcome.nodeID = def.ID
	outcome.item = item

	defer func() {
		if r := recover(); r != nil {
			outcome.success = false
			outcome.appErr = errs.Wrap(errs.ErrExecution.New("node %s panicked: %v", def.ID, r), def.ID, "")
		}
	}()

	exec, err := e.registry.Get(def.Type)
	if err != nil {
		outcome.appErr = errs.Wrap(err, def.ID, "")
		return outcome
	}

	upstream := e.gatherUpstream(item.deps)

	execCtx := registry.NewExecutionContext(def.ID, def.Config, upstream, time.Now(), e.currentConfig().ExecutionTimeout)
	execCtx.Ctx = ctx

	v := exec.Validate(execCtx)
	if !v.Valid {
		msg := "validation failed"
		if len(v.Errors) > 0 {
			msg = v.Errors[0].Message
		}
		outcome.appErr = errs.Wrap(errs.ErrValidation.New("node %s: %s", def.ID, msg), def.ID, "")
		return outcome
	}

	type execResult struct {
		res registry.ExecutionResult
		err error
	}
	doneCh := make(chan execResult, 1)
	go func() {
		res, err := exec.Execute(execCtx)
		doneCh <- execResult{res, err}
	}()

	select {
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			outcome.appErr = errs.Wrap(errs.ErrExecution.New("node %s execution timeout after %dms", def.ID, e.currentConfig().ExecutionTimeout.Milliseconds()), def.ID, "")
		} else {
			outcome.appErr = errs.Wrap(errs.ErrExecution.New("node %s: execution aborted", def.ID), def.ID, "")
		}
		return outcome
	case r := <-doneCh:
		if r.err != nil {
			outcome.appErr = errs.Wrap(r.err, def.ID, "")
			return outcome
		}
		if !r.res.Success {
			outcome.appErr = errs.Wrap(errs.ErrExecution.New("node %s: %s", def.ID, r.res.Error), def.ID, "")
			return outcome
		}
		outcome.success = true
		outcome.output = r.res.Output
		return outcome
	}
}

func (e *Engine) gatherUpstream(deps []string) map[string]*table.Table {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if len(deps) == 0 {
		return nil
	}
	out := make(map[string]*table.Table, len(deps))
	for _, d := range deps {
		if t, ok := e.cache[d]; ok {
			out[d] = t
		}
	}
	return out
}

// ExecuteNode runs a single node, materializing its dependencies first
// via a full graph build.
func (e *Engine) ExecuteNode(ctx context.Context, nodeID string, nodes []NodeDef, edges []graph.Edge) (registry.ExecutionResult, error) {
	stats, err := e.ExecuteGraph(ctx, nodes, edges)
	if err != nil {
		return registry.ExecutionResult{}, err
	}
	t, ok := e.GetNodeOutput(nodeID)
	if !ok {
		if appErr, has := e.nodeError(nodeID); has {
			return registry.ExecutionResult{Success: false, Error: appErr.Message}, nil
		}
		return registry.ExecutionResult{Success: false, Error: "node did not produce output"}, nil
	}
	return registry.ExecutionResult{
		Success:       true,
		Output:        t,
		ExecutionTime: time.Duration(stats.Stats.ElapsedMs) * time.Millisecond,
	}, nil
}
