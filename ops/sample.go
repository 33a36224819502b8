package ops

import (
	"sort"

	"github.com/channely/datablocks-editor/table"
)

// SampleMethod is one of random/stratified/systematic.
type SampleMethod string

const (
	SampleRandom      SampleMethod = "random"
	SampleStratified  SampleMethod = "stratified"
	SampleSystematic  SampleMethod = "systematic"
)

// SampleSpec configures sampling. Seed is only meaningful for
// SampleRandom; StratifyColumn only for SampleStratified; Offset only
// for SampleSystematic.
type SampleSpec struct {
	Method         SampleMethod
	Size           int
	Seed           *int64
	StratifyColumn string
	Offset         int
}

// lcg is the deterministic linear-congruential generator // mandates for reproducible random sampling: identical (table, size,
// seed) triples must produce identical samples across runs. Constants
// match the classic glibc rand() recurrence.
type lcg struct {
	state uint64
}

func newLCG(seed int64) *lcg {
	return &lcg{state: uint64(seed)}
}

func (g *lcg) next() uint64 {
	g.state = g.state*1103515245 + 12345
	return g.state
}

// intn returns a value in [0, n).
func (g *lcg) intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(g.next() % uint64(n))
}

// Sample returns a new table containing spec.Size rows chosen from t,
// preserving the relative order of the chosen rows.
func Sample(t *table.Table, spec SampleSpec) (*table.Table, error) {
	switch spec.Method {
	case SampleStratified:
		return sampleStratified(t, spec)
	case SampleSystematic:
		return sampleSystematic(t, spec), nil
	default:
		return sampleRandom(t, spec), nil
	}
}

func sampleRandom(t *table.Table, spec SampleSpec) *table.Table {
	n := len(t.Rows)
	size := spec.Size
	if size > n {
		size = n
	}
	if size <= 0 {
		return table.Derive(t.Columns, nil, table.OriginDerived)
	}

	seed := int64(1)
	if spec.Seed != nil {
		seed = *spec.Seed
	}
	g := newLCG(seed)

	// Fisher-Yates partial shuffle to pick `size` distinct indices.
	idxs := make([]int, n)
	for i := range idxs {
		idxs[i] = i
	}
	for i := 0; i < size; i++ {
		j := i + g.intn(n-i)
		idxs[i], idxs[j] = idxs[j], idxs[i]
	}
	chosen := append([]int(nil), idxs[:size]...)
	sort.Ints(chosen)

	rows := make([][]table.Cell, len(chosen))
	for i, idx := range chosen {
		rows[i] = append([]table.Cell(nil), t.Rows[idx]...)
	}
	return table.Derive(t.Columns, rows, table.OriginDerived)
}

func sampleSystematic(t *table.Table, spec SampleSpec) *table.Table {
	n := len(t.Rows)
	size := spec.Size
	if size <= 0 || n == 0 {
		return table.Derive(t.Columns, nil, table.OriginDerived)
	}
	step := n / size
	if step < 1 {
		step = 1
	}
	var rows [][]table.Cell
	for i := spec.Offset; i < n && len(rows) < size; i += step {
		rows = append(rows, append([]table.Cell(nil), t.Rows[i]...))
	}
	return table.Derive(t.Columns, rows, table.OriginDerived)
}

func sampleStratified(t *table.Table, spec SampleSpec) (*table.Table, error) {
	idx, err := t.ColumnIndex(spec.StratifyColumn)
	if err != nil {
		return nil, err
	}
	strata := make(map[string][]int)
	var order []string
	for ri, r := range t.Rows {
		key := r[idx].String()
		if _, ok := strata[key]; !ok {
			order = append(order, key)
		}
		strata[key] = append(strata[key], ri)
	}

	total := len(t.Rows)
	var chosen []int
	for _, key := range order {
		rowIdxs := strata[key]
		stratumSize := int(float64(len(rowIdxs))/float64(total)*float64(spec.Size) + 0.5)
		if stratumSize > len(rowIdxs) {
			stratumSize = len(rowIdxs)
		}
		chosen = append(chosen, rowIdxs[:stratumSize]...)
	}
	sort.Ints(chosen)

	rows := make([][]table.Cell, len(chosen))
	for i, ri := range chosen {
		rows[i] = append([]table.Cell(nil), t.Rows[ri]...)
	}
	return table.Derive(t.Columns, rows, table.OriginDerived), nil
}
