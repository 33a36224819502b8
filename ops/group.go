package ops

import (
	"fmt"

	"github.com/mitchellh/hashstructure"

	"github.com/channely/datablocks-editor/table"
)

// AggFunc is one of the supported aggregation functions.
type AggFunc string

const (
	AggCount AggFunc = "count"
	AggSum   AggFunc = "sum"
	AggAvg   AggFunc = "avg"
	AggMin   AggFunc = "min"
	AggMax   AggFunc = "max"
	AggFirst AggFunc = "first"
	AggLast  AggFunc = "last"
)

// Aggregation describes one output column of a group-by.
type Aggregation struct {
	Func   AggFunc
	Column string // may be empty for count
	Alias  string
}

func (a Aggregation) alias() string {
	if a.Alias != "" {
		return a.Alias
	}
	return fmt.Sprintf("%s_%s", a.Func, a.Column)
}

// GroupSpec is group's configuration.
type GroupSpec struct {
	GroupColumns []string
	Aggregations []Aggregation
}

type groupBucket struct {
	key  []table.Cell
	rows []int
}

// Group builds one output row per distinct tuple of group-column
// values (null is its own group key), in first-seen order. Fails
// with ErrUnknownColumn if any group column or
// aggregation column (other than count's optional column) is absent.
func Group(t *table.Table, spec GroupSpec) (*table.Table, error) {
	groupIdx := make([]int, len(spec.GroupColumns))
	for i, c := range spec.GroupColumns {
		idx, err := t.ColumnIndex(c)
		if err != nil {
			return nil, err
		}
		groupIdx[i] = idx
	}
	for _, a := range spec.Aggregations {
		if a.Func == AggCount && a.Column == "" {
			continue
		}
		if _, err := t.ColumnIndex(a.Column); err != nil {
			return nil, err
		}
	}

	// Bucket rows by a structural hash of the group key, then confirm
	// with an exact comparison to handle the (rare) hash collision.
	buckets := make(map[uint64][]*groupBucket)
	var order []*groupBucket

	for ri, row := range t.Rows {
		key := make([]table.Cell, len(groupIdx))
		for i, idx := range groupIdx {
			key[i] = row[idx]
		}
		h, _ := hashstructure.Hash(cellKeyValues(key), nil)
		var bucket *groupBucket
		for _, b := range buckets[h] {
			if sameKey(b.key, key) {
				bucket = b
				break
			}
		}
		if bucket == nil {
			bucket = &groupBucket{key: key}
			buckets[h] = append(buckets[h], bucket)
			order = append(order, bucket)
		}
		bucket.rows = append(bucket.rows, ri)
	}

	outColumns := append([]string(nil), spec.GroupColumns...)
	for _, a := range spec.Aggregations {
		outColumns = append(outColumns, a.alias())
	}

	outRows := make([][]table.Cell, 0, len(order))
	for _, b := range order {
		row := append([]table.Cell(nil), b.key...)
		for _, a := range spec.Aggregations {
			row = append(row, computeAggregation(t, b.rows, a))
		}
		outRows = append(outRows, row)
	}

	return table.Derive(outColumns, outRows, table.OriginDerived), nil
}

func cellKeyValues(key []table.Cell) []any {
	vals := make([]any, len(key))
	for i, c := range key {
		vals[i] = fmt.Sprintf("%d:%s", c.Kind, c.String())
	}
	return vals
}

func sameKey(a, b []table.Cell) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].IsNull() != b[i].IsNull() {
			return false
		}
		if a[i].IsNull() {
			continue
		}
		if a[i].Kind != b[i].Kind || a[i].String() != b[i].String() {
			return false
		}
	}
	return true
}

func computeAggregation(t *table.Table, rowIdxs []int, a Aggregation) table.Cell {
	switch a.Func {
	case AggCount:
		if a.Column == "" {
			return table.NumberCell(float64(len(rowIdxs)))
		}
		idx, _ := t.ColumnIndex(a.Column)
		n := 0
		for _, ri := range rowIdxs {
			if !t.Rows[ri][idx].IsNull() {
				n++
			}
		}
		return table.NumberCell(float64(n))
	case AggFirst:
		idx, _ := t.ColumnIndex(a.Column)
		if len(rowIdxs) == 0 {
			return table.Null
		}
		return t.Rows[rowIdxs[0]][idx]
	case AggLast:
		idx, _ := t.ColumnIndex(a.Column)
		if len(rowIdxs) == 0 {
			return table.Null
		}
		return t.Rows[rowIdxs[len(rowIdxs)-1]][idx]
	case AggSum, AggAvg, AggMin, AggMax:
		idx, _ := t.ColumnIndex(a.Column)
		var sum float64
		var count int
		var min, max float64
		first := true
		for _, ri := range rowIdxs {
			f, ok := t.Rows[ri][idx].AsFloat64()
			if !ok {
				continue
			}
			sum += f
			count++
			if first || f < min {
				min = f
			}
			if first || f > max {
				max = f
			}
			first = false
		}
		switch a.Func {
		case AggSum:
			return table.NumberCell(sum)
		case AggAvg:
			if count == 0 {
				return table.Null
			}
			return table.NumberCell(sum / float64(count))
		case AggMin:
			if count == 0 {
				return table.Null
			}
			return table.NumberCell(min)
		default: // AggMax
			if count == 0 {
				return table.Null
			}
			return table.NumberCell(max)
		}
	default:
		return table.Null
	}
}
