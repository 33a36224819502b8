// Package ops implements the pure, table-to-table operator library:
// filter, sort, group, join, slice, column add/remove/rename, pivot/
// unpivot/transpose, fill-missing, outlier removal, normalization, and
// sampling. Every function here reads a *table.Table (and a small
// config value) and returns a new *table.Table; none mutate their
// input.
package ops

import (
	"strings"

	"github.com/channely/datablocks-editor/table"
)

// CompareOp is the set of leaf predicate operators a filter tree supports.
type CompareOp string

const (
	OpEquals      CompareOp = "equals"
	OpNotEquals   CompareOp = "not_equals"
	OpGreaterThan CompareOp = "greater_than"
	OpGTE         CompareOp = "greater_than_or_equal"
	OpLessThan    CompareOp = "less_than"
	OpLTE         CompareOp = "less_than_or_equal"
	OpContains    CompareOp = "contains"
	OpNotContains CompareOp = "not_contains"
	OpStartsWith  CompareOp = "starts_with"
	OpEndsWith    CompareOp = "ends_with"
	OpIsNull      CompareOp = "is_null"
	OpIsNotNull   CompareOp = "is_not_null"
	OpIn          CompareOp = "in"
	OpNotIn       CompareOp = "not_in"
)

// BoolOp joins predicate subtrees.
type BoolOp string

const (
	BoolAnd BoolOp = "AND"
	BoolOr  BoolOp = "OR"
)

// Predicate is either a leaf comparison or a boolean tree of children.
// Exactly one of the two shapes is populated: a leaf has Column set and
// Children nil; a tree has BoolOp and Children set and Column empty.
type Predicate struct {
	// Leaf fields.
	Column string
	Op     CompareOp
	Value  any
	Values []any // for in/not_in

	// Tree fields.
	Bool     BoolOp
	Children []Predicate
}

func (p Predicate) isTree() bool { return len(p.Children) > 0 }

// Filter applies predicate to every row of t, preserving row order.
// A leaf predicate referencing an unknown column is permissive: the
// row is kept, rather than treated as a match failure.
func Filter(t *table.Table, predicate Predicate) *table.Table {
	var kept [][]table.Cell
	for _, row := range t.Rows {
		if evalPredicate(t, row, predicate) {
			kept = append(kept, append([]table.Cell(nil), row...))
		}
	}
	return table.Derive(t.Columns, kept, table.OriginDerived)
}

func evalPredicate(t *table.Table, row []table.Cell, p Predicate) bool {
	if p.isTree() {
		switch p.Bool {
		case BoolOr:
			for _, c := range p.Children {
				if evalPredicate(t, row, c) {
					return true
				}
			}
			return false
		default: // AND
			for _, c := range p.Children {
				if !evalPredicate(t, row, c) {
					return false
				}
			}
			return true
		}
	}

	idx, err := t.ColumnIndex(p.Column)
	if err != nil {
		// Permissive policy: unknown column keeps the row.
		return true
	}
	cell := row[idx]
	return evalLeaf(cell, p)
}

func evalLeaf(cell table.Cell, p Predicate) bool {
	switch p.Op {
	case OpIsNull:
		return cell.IsNull()
	case OpIsNotNull:
		return !cell.IsNull()
	}

	// All other operators: null never satisfies a comparison.
	if cell.IsNull() {
		return false
	}

	switch p.Op {
	case OpEquals:
		return cell.Equal(table.NewCell(p.Value))
	case OpNotEquals:
		return !cell.Equal(table.NewCell(p.Value))
	case OpGreaterThan:
		return compareValue(cell, p.Value) > 0
	case OpGTE:
		return compareValue(cell, p.Value) >= 0
	case OpLessThan:
		return compareValue(cell, p.Value) < 0
	case OpLTE:
		return compareValue(cell, p.Value) <= 0
	case OpContains:
		return strings.Contains(strings.ToLower(cell.String()), strings.ToLower(table.NewCell(p.Value).String()))
	case OpNotContains:
		return !strings.Contains(strings.ToLower(cell.String()), strings.ToLower(table.NewCell(p.Value).String()))
	case OpStartsWith:
		return strings.HasPrefix(strings.ToLower(cell.String()), strings.ToLower(table.NewCell(p.Value).String()))
	case OpEndsWith:
		return strings.HasSuffix(strings.ToLower(cell.String()), strings.ToLower(table.NewCell(p.Value).String()))
	case OpIn:
		for _, v := range p.Values {
			if cell.Equal(table.NewCell(v)) {
				return true
			}
		}
		return false
	case OpNotIn:
		for _, v := range p.Values {
			if cell.Equal(table.NewCell(v)) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func compareValue(cell table.Cell, v any) int {
	other := table.NewCell(v)
	if cell.Kind == table.KindNumber || other.Kind == table.KindNumber {
		cf, cok := cell.AsFloat64()
		of, ook := other.AsFloat64()
		if cok && ook {
			switch {
			case cf < of:
				return -1
			case cf > of:
				return 1
			default:
				return 0
			}
		}
	}
	return cell.Compare(other)
}
