package ops

import (
	"sort"

	"github.com/channely/datablocks-editor/table"
)

// Direction is a sort key's direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortKey is one (column, direction, optional type-override) entry.
// Type is used only when HasType is true; otherwise the key's type is
// taken from the table's inferred column type.
type SortKey struct {
	Column    string
	Direction Direction
	Type      table.Kind
	HasType   bool
}

// Sort orders t's rows by keys, breaking ties on key i with key i+1,
// . The sort is stable; an unknown column in a key is
// silently skipped (treated as equal), the permissive policy.
func Sort(t *table.Table, keys []SortKey) *table.Table {
	rows := make([][]table.Cell, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = append([]table.Cell(nil), r...)
	}

	type resolvedKey struct {
		idx       int
		ok        bool
		direction Direction
		kind      table.Kind
	}
	resolved := make([]resolvedKey, len(keys))
	for i, k := range keys {
		idx, err := t.ColumnIndex(k.Column)
		rk := resolvedKey{idx: idx, ok: err == nil, direction: k.Direction}
		if k.HasType {
			rk.kind = k.Type
		} else if err == nil {
			rk.kind = t.Meta.Columns[k.Column].Type
		}
		resolved[i] = rk
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, rk := range resolved {
			if !rk.ok {
				continue // unknown column: treated as equal, try next key
			}
			a, b := rows[i][rk.idx], rows[j][rk.idx]
			cmp := compareForSort(a, b, rk.kind)
			if cmp == 0 {
				continue
			}
			if rk.direction == Desc {
				cmp = -cmp
			}
			return cmp < 0
		}
		return false
	})

	return table.Derive(t.Columns, rows, table.OriginDerived)
}

// compareForSort implements the null-ordering and type-aware rules:
// null sorts before non-null ascending (the caller flips the result
// for descending, which correctly pushes null after non-null then).
func compareForSort(a, b table.Cell, kind table.Kind) int {
	if a.IsNull() && b.IsNull() {
		return 0
	}
	if a.IsNull() {
		return -1
	}
	if b.IsNull() {
		return 1
	}
	switch kind {
	case table.KindNumber:
		af, _ := a.AsFloat64()
		bf, _ := b.AsFloat64()
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	case table.KindTimestamp, table.KindBool:
		return a.Compare(b)
	default:
		return a.Compare(b)
	}
}
