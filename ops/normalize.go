package ops

import "github.com/channely/datablocks-editor/table"

// NormalizeMethod selects the scaling rule.
type NormalizeMethod string

const (
	NormalizeMinMax NormalizeMethod = "min-max"
	NormalizeZScore NormalizeMethod = "z-score"
	NormalizeRobust NormalizeMethod = "robust"
)

// NormalizeSpec configures normalize.
type NormalizeSpec struct {
	Column string
	Method NormalizeMethod
}

// Normalize rescales Column in place (within a cloned table), leaving
// non-numeric cells untouched.
func Normalize(t *table.Table, spec NormalizeSpec) (*table.Table, error) {
	idx, err := t.ColumnIndex(spec.Column)
	if err != nil {
		return nil, err
	}
	nt := t.Clone()

	var nums []float64
	for _, r := range nt.Rows {
		if f, ok := r[idx].AsFloat64(); ok {
			nums = append(nums, f)
		}
	}
	if len(nums) == 0 {
		return nt, nil
	}

	var scale func(float64) float64
	switch spec.Method {
	case NormalizeZScore:
		mean, std := meanStd(nums)
		scale = func(f float64) float64 {
			if std == 0 {
				return 0
			}
			return (f - mean) / std
		}
	case NormalizeRobust:
		q1, q3 := quartiles(nums)
		median := table.Median(cellsOf(nums))
		iqr := q3 - q1
		scale = func(f float64) float64 {
			if iqr == 0 {
				return 0
			}
			return (f - median) / iqr
		}
	default: // min-max
		min, max := nums[0], nums[0]
		for _, n := range nums {
			if n < min {
				min = n
			}
			if n > max {
				max = n
			}
		}
		span := max - min
		scale = func(f float64) float64 {
			if span == 0 {
				return 0
			}
			return (f - min) / span
		}
	}

	for i, r := range nt.Rows {
		if f, ok := r[idx].AsFloat64(); ok {
			nt.Rows[i][idx] = table.NumberCell(scale(f))
		}
	}
	nt.Infer()
	return nt, nil
}

func cellsOf(nums []float64) []table.Cell {
	cells := make([]table.Cell, len(nums))
	for i, n := range nums {
		cells[i] = table.NumberCell(n)
	}
	return cells
}
