package ops

import "github.com/channely/datablocks-editor/table"

// FillMethod is one of the supported missing-value fill strategies.
type FillMethod string

const (
	FillForward  FillMethod = "forward"
	FillBackward FillMethod = "backward"
	FillMean     FillMethod = "mean"
	FillMedian   FillMethod = "median"
	FillMode     FillMethod = "mode"
	FillConstant FillMethod = "constant"
)

// FillMissingSpec configures fillMissing.
type FillMissingSpec struct {
	Columns  []string
	Method   FillMethod
	Constant any
}

// FillMissing replaces null cells in spec.Columns according to
// spec.Method. Row order is preserved.
func FillMissing(t *table.Table, spec FillMissingSpec) (*table.Table, error) {
	nt := t.Clone()
	for _, col := range spec.Columns {
		idx, err := nt.ColumnIndex(col)
		if err != nil {
			return nil, err
		}
		switch spec.Method {
		case FillForward:
			var last table.Cell
			haveLast := false
			for i := range nt.Rows {
				if nt.Rows[i][idx].IsNull() {
					if haveLast {
						nt.Rows[i][idx] = last
					}
					continue
				}
				last = nt.Rows[i][idx]
				haveLast = true
			}
		case FillBackward:
			var next table.Cell
			haveNext := false
			for i := len(nt.Rows) - 1; i >= 0; i-- {
				if nt.Rows[i][idx].IsNull() {
					if haveNext {
						nt.Rows[i][idx] = next
					}
					continue
				}
				next = nt.Rows[i][idx]
				haveNext = true
			}
		case FillMean, FillMedian, FillMode:
			col, _ := nt.Column(col)
			var fill table.Cell
			switch spec.Method {
			case FillMean:
				s := table.Stats(col)
				fill = table.NumberCell(s.Avg)
			case FillMedian:
				fill = table.NumberCell(table.Median(col))
			case FillMode:
				fill = mode(col)
			}
			for i := range nt.Rows {
				if nt.Rows[i][idx].IsNull() {
					nt.Rows[i][idx] = fill
				}
			}
		case FillConstant:
			fill := table.NewCell(spec.Constant)
			for i := range nt.Rows {
				if nt.Rows[i][idx].IsNull() {
					nt.Rows[i][idx] = fill
				}
			}
		}
	}
	nt.Infer()
	return nt, nil
}

func mode(values []table.Cell) table.Cell {
	counts := make(map[string]int)
	first := make(map[string]table.Cell)
	var order []string
	for _, c := range values {
		if c.IsNull() {
			continue
		}
		key := c.String()
		if counts[key] == 0 {
			first[key] = c
			order = append(order, key)
		}
		counts[key]++
	}
	best := ""
	bestCount := -1
	for _, k := range order {
		if counts[k] > bestCount {
			bestCount = counts[k]
			best = k
		}
	}
	if best == "" {
		return table.Null
	}
	return first[best]
}
