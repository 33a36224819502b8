// Package graph implements dependency resolution over a user-authored
// node/edge graph: construction, cycle detection, level assignment,
// and a deterministic execution order.
package graph

import (
	"fmt"
	"sort"

	"github.com/channely/datablocks-editor/errs"
)

// Node is the minimal shape the analyzer needs from a caller's node
// value: an id. Callers' richer node types satisfy this trivially.
type Node struct {
	ID string
}

// Edge connects a source node's output port to a target node's input
// port.
type Edge struct {
	ID         string
	SourceID   string
	SourcePort string
	TargetID   string
	TargetPort string
}

// Vertex is the graph's per-node derived record. Dependencies and
// Dependents are held as indices into Graph.Vertices (the "arena as
// indices" design calls for), not pointers, so the vertex
// table is allocation-free to walk and trivially serializable.
type Vertex struct {
	ID           string
	Dependencies []int
	Dependents   []int
	Level        int
}

// Graph is the full analysis result for one (nodes, edges) input.
type Graph struct {
	Vertices []Vertex
	index    map[string]int
	// Order is the deterministic execution order: stable bucket sort by
	// level ascending, then by node id ascending.
	Order []int
}

// CycleError formats a detected cycle. Build does not return it: Build
// reports a cycle as an errs.ErrDependency error whose message lists the
// cycle's node ids. Cycle holds the node ids on the cycle; set equality
// with the true cycle is sufficient, order is not guaranteed.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %v", e.Cycle)
}

// Build constructs the dependency graph, detects cycles, assigns
// levels, and computes the deterministic execution order.
func Build(nodes []Node, edges []Edge) (*Graph, error) {
	g := &Graph{
		Vertices: make([]Vertex, len(nodes)),
		index:    make(map[string]int, len(nodes)),
	}
	for i, n := range nodes {
		g.Vertices[i] = Vertex{ID: n.ID}
		g.index[n.ID] = i
	}
	for _, e := range edges {
		si, ok := g.index[e.SourceID]
		if !ok {
			return nil, errs.ErrDependency.New("edge references unknown source node %s", e.SourceID)
		}
		ti, ok := g.index[e.TargetID]
		if !ok {
			return nil, errs.ErrDependency.New("edge references unknown target node %s", e.TargetID)
		}
		g.Vertices[ti].Dependencies = append(g.Vertices[ti].Dependencies, si)
		g.Vertices[si].Dependents = append(g.Vertices[si].Dependents, ti)
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, errs.ErrDependency.New("cycle detected among nodes %v", cycle)
	}

	g.assignLevels()
	g.computeOrder()
	return g, nil
}

// findCycle runs a DFS with a recursion-stack set; any back-edge
// yields the cycle as the slice of the current path from the
// revisited vertex to the revisit.
func (g *Graph) findCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, len(g.Vertices))
	var path []int
	var cycle []string

	var visit func(v int) bool
	visit = func(v int) bool {
		color[v] = gray
		path = append(path, v)
		for _, dep := range g.Vertices[v].Dependents {
			switch color[dep] {
			case white:
				if visit(dep) {
					return true
				}
			case gray:
				// Found a back-edge dep -> ... -> v -> dep. Extract the
				// cycle as the suffix of path starting at dep.
				start := 0
				for i, p := range path {
					if p == dep {
						start = i
						break
					}
				}
				for _, p := range path[start:] {
					cycle = append(cycle, g.Vertices[p].ID)
				}
				cycle = append(cycle, g.Vertices[dep].ID)
				return true
			}
		}
		path = path[:len(path)-1]
		color[v] = black
		return false
	}

	for i := range g.Vertices {
		if color[i] == white {
			if visit(i) {
				return cycle
			}
		}
	}
	return nil
}

// assignLevels computes level(v) = 1 + max(level(u) for u in deps(v)),
// roots at level 0, memoized via a visited flag (the graph is acyclic
// by the time this runs).
func (g *Graph) assignLevels() {
	computed := make([]bool, len(g.Vertices))
	var compute func(v int) int
	compute = func(v int) int {
		if computed[v] {
			return g.Vertices[v].Level
		}
		level := 0
		for _, dep := range g.Vertices[v].Dependencies {
			if l := compute(dep); l+1 > level {
				level = l + 1
			}
		}
		g.Vertices[v].Level = level
		computed[v] = true
		return level
	}
	for i := range g.Vertices {
		compute(i)
	}
}

// computeOrder performs the stable bucket sort by level ascending then
// id ascending requires for determinism.
func (g *Graph) computeOrder() {
	order := make([]int, len(g.Vertices))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := g.Vertices[order[i]], g.Vertices[order[j]]
		if a.Level != b.Level {
			return a.Level < b.Level
		}
		return a.ID < b.ID
	})
	g.Order = order
}

// IndexOf returns a vertex's index by node id.
func (g *Graph) IndexOf(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// OrderedIDs returns the node ids in execution order.
func (g *Graph) OrderedIDs() []string {
	ids := make([]string, len(g.Order))
	for i, vi := range g.Order {
		ids[i] = g.Vertices[vi].ID
	}
	return ids
}

// DependencyIDs returns the dependency node ids for id.
func (g *Graph) DependencyIDs(id string) []string {
	vi, ok := g.index[id]
	if !ok {
		return nil
	}
	deps := g.Vertices[vi].Dependencies
	out := make([]string, len(deps))
	for i, d := range deps {
		out[i] = g.Vertices[d].ID
	}
	return out
}

// DependentIDs returns the dependent node ids for id.
func (g *Graph) DependentIDs(id string) []string {
	vi, ok := g.index[id]
	if !ok {
		return nil
	}
	deps := g.Vertices[vi].Dependents
	out := make([]string, len(deps))
	for i, d := range deps {
		out[i] = g.Vertices[d].ID
	}
	return out
}
