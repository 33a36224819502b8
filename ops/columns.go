package ops

import (
	"github.com/channely/datablocks-editor/errs"
	"github.com/channely/datablocks-editor/table"
)

// RenameColumns applies a name->name map, failing with ErrDuplicateColumn
// if the result would contain repeats.
func RenameColumns(t *table.Table, renames map[string]string) (*table.Table, error) {
	newCols := make([]string, len(t.Columns))
	seen := make(map[string]bool, len(t.Columns))
	for i, c := range t.Columns {
		name := c
		if r, ok := renames[c]; ok {
			name = r
		}
		if seen[name] {
			return nil, errs.ErrDuplicateColumn.New(name)
		}
		seen[name] = true
		newCols[i] = name
	}
	rows := make([][]table.Cell, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = append([]table.Cell(nil), r...)
	}
	return table.Derive(newCols, rows, table.OriginDerived), nil
}

// CellFunc computes a new column's value for a row; errors propagate to
// the caller as part of addColumn's contract (ExecutionError at the
// executor boundary).
type CellFunc func(row []table.Cell, rowIndex int) (any, error)

// AddColumn inserts a new column computed by fn at index (appended when
// index is nil), failing with ErrDuplicateColumn if name exists.
func AddColumn(t *table.Table, name string, fn CellFunc, index *int) (*table.Table, error) {
	if t.HasColumn(name) {
		return nil, errs.ErrDuplicateColumn.New(name)
	}
	pos := len(t.Columns)
	if index != nil {
		pos = *index
		if pos < 0 {
			pos = 0
		}
		if pos > len(t.Columns) {
			pos = len(t.Columns)
		}
	}

	newCols := make([]string, 0, len(t.Columns)+1)
	newCols = append(newCols, t.Columns[:pos]...)
	newCols = append(newCols, name)
	newCols = append(newCols, t.Columns[pos:]...)

	rows := make([][]table.Cell, len(t.Rows))
	for i, r := range t.Rows {
		v, err := fn(r, i)
		if err != nil {
			return nil, errs.ErrExecution.New(err.Error())
		}
		nr := make([]table.Cell, 0, len(r)+1)
		nr = append(nr, r[:pos]...)
		nr = append(nr, table.NewCell(v))
		nr = append(nr, r[pos:]...)
		rows[i] = nr
	}
	return table.Derive(newCols, rows, table.OriginDerived), nil
}

// RemoveColumns drops the named columns; unknown names are ignored
// (removing something already absent is a no-op, not an error).
func RemoveColumns(t *table.Table, names []string) *table.Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	var keepIdx []int
	var newCols []string
	for i, c := range t.Columns {
		if !drop[c] {
			keepIdx = append(keepIdx, i)
			newCols = append(newCols, c)
		}
	}
	rows := make([][]table.Cell, len(t.Rows))
	for i, r := range t.Rows {
		nr := make([]table.Cell, len(keepIdx))
		for j, idx := range keepIdx {
			nr[j] = r[idx]
		}
		rows[i] = nr
	}
	return table.Derive(newCols, rows, table.OriginDerived)
}

// GetUniqueValues returns the distinct, non-null values of column in
// first-seen order.
func GetUniqueValues(t *table.Table, column string) ([]table.Cell, error) {
	idx, err := t.ColumnIndex(column)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []table.Cell
	for _, r := range t.Rows {
		c := r[idx]
		if c.IsNull() {
			continue
		}
		key := c.String()
		if !seen[key] {
			seen[key] = true
			out = append(out, c)
		}
	}
	return out, nil
}

// ColumnStats returns the (count, nullCount, uniqueCount, min, max,
// avg, sum) summary for a single column.
func ColumnStats(t *table.Table, column string) (table.ColumnStats, error) {
	col, err := t.Column(column)
	if err != nil {
		return table.ColumnStats{}, err
	}
	return table.Stats(col), nil
}
