package ops

import "github.com/channely/datablocks-editor/table"

// Slice returns rows [start, end) — a half-open range. end defaults to
// the row count when it is nil. Negative indices are not supported,
// Negative indices are not supported.
func Slice(t *table.Table, start int, end *int) *table.Table {
	stop := len(t.Rows)
	if end != nil {
		stop = *end
	}
	if start < 0 {
		start = 0
	}
	if stop > len(t.Rows) {
		stop = len(t.Rows)
	}
	if start >= stop {
		return table.Derive(t.Columns, nil, table.OriginDerived)
	}
	rows := make([][]table.Cell, stop-start)
	for i := start; i < stop; i++ {
		rows[i-start] = append([]table.Cell(nil), t.Rows[i]...)
	}
	return table.Derive(t.Columns, rows, table.OriginDerived)
}
