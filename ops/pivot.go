package ops

import (
	"fmt"

	"github.com/channely/datablocks-editor/table"
)

// PivotSpec widens t: one output row per distinct tuple of IndexColumns,
// one output column per distinct value of PivotColumn, each cell the
// Agg aggregation of ValueColumn over the matching (index, pivot) rows.
type PivotSpec struct {
	IndexColumns []string
	PivotColumn  string
	ValueColumn  string
	Agg          AggFunc
}

func Pivot(t *table.Table, spec PivotSpec) (*table.Table, error) {
	pivotVals, err := GetUniqueValues(t, spec.PivotColumn)
	if err != nil {
		return nil, err
	}
	pivotIdx, err := t.ColumnIndex(spec.PivotColumn)
	if err != nil {
		return nil, err
	}
	valueIdx, err := t.ColumnIndex(spec.ValueColumn)
	if err != nil {
		return nil, err
	}
	for _, c := range spec.IndexColumns {
		if _, err := t.ColumnIndex(c); err != nil {
			return nil, err
		}
	}

	grouped, err := Group(t, GroupSpec{GroupColumns: spec.IndexColumns})
	if err != nil {
		return nil, err
	}

	outColumns := append([]string(nil), spec.IndexColumns...)
	pivotColNames := make([]string, len(pivotVals))
	for i, v := range pivotVals {
		pivotColNames[i] = v.String()
		outColumns = append(outColumns, pivotColNames[i])
	}

	outRows := make([][]table.Cell, 0, len(grouped.Rows))
	for _, gRow := range grouped.Rows {
		matchIdx := make([]int, 0)
		for ri, row := range t.Rows {
			match := true
			for ci := range spec.IndexColumns {
				idx, _ := t.ColumnIndex(spec.IndexColumns[ci])
				if !row[idx].Equal(gRow[ci]) {
					match = false
					break
				}
			}
			if match {
				matchIdx = append(matchIdx, ri)
			}
		}
		row := append([]table.Cell(nil), gRow[:len(spec.IndexColumns)]...)
		for _, pv := range pivotVals {
			var cellsForPivot []int
			for _, ri := range matchIdx {
				if t.Rows[ri][pivotIdx].Equal(pv) {
					cellsForPivot = append(cellsForPivot, ri)
				}
			}
			_ = valueIdx
			row = append(row, computeAggregation(t, cellsForPivot, Aggregation{Func: spec.Agg, Column: spec.ValueColumn}))
		}
		outRows = append(outRows, row)
	}

	return table.Derive(outColumns, outRows, table.OriginDerived), nil
}

// UnpivotSpec narrows t: IDColumns are carried through unchanged,
// ValueColumns are melted into two columns (NameColumn, ValueColumnOut),
// one output row per (input row, melted column) pair.
type UnpivotSpec struct {
	IDColumns      []string
	ValueColumns   []string
	NameColumn     string
	ValueColumnOut string
}

func Unpivot(t *table.Table, spec UnpivotSpec) (*table.Table, error) {
	idIdx := make([]int, len(spec.IDColumns))
	for i, c := range spec.IDColumns {
		idx, err := t.ColumnIndex(c)
		if err != nil {
			return nil, err
		}
		idIdx[i] = idx
	}
	valIdx := make([]int, len(spec.ValueColumns))
	for i, c := range spec.ValueColumns {
		idx, err := t.ColumnIndex(c)
		if err != nil {
			return nil, err
		}
		valIdx[i] = idx
	}

	outColumns := append(append([]string(nil), spec.IDColumns...), spec.NameColumn, spec.ValueColumnOut)
	var outRows [][]table.Cell
	for _, row := range t.Rows {
		for ci, vi := range valIdx {
			nr := make([]table.Cell, 0, len(outColumns))
			for _, idx := range idIdx {
				nr = append(nr, row[idx])
			}
			nr = append(nr, table.TextCell(spec.ValueColumns[ci]), row[vi])
			outRows = append(outRows, nr)
		}
	}
	return table.Derive(outColumns, outRows, table.OriginDerived), nil
}

// Transpose swaps rows and columns: the first output column holds the
// original column names, and each original row becomes an output
// column named by its position.
func Transpose(t *table.Table) *table.Table {
	outColumns := []string{"field"}
	for i := range t.Rows {
		outColumns = append(outColumns, fmt.Sprintf("row_%d", i))
	}
	outRows := make([][]table.Cell, len(t.Columns))
	for ci, name := range t.Columns {
		row := make([]table.Cell, 0, len(outColumns))
		row = append(row, table.TextCell(name))
		for _, r := range t.Rows {
			row = append(row, r[ci])
		}
		outRows[ci] = row
	}
	return table.Derive(outColumns, outRows, table.OriginDerived)
}
