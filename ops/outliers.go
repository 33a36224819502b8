package ops

import (
	"math"
	"sort"

	"github.com/channely/datablocks-editor/table"
)

// OutlierMethod selects the detection rule.
type OutlierMethod string

const (
	OutlierIQR    OutlierMethod = "iqr"
	OutlierZScore OutlierMethod = "z-score"
)

// OutlierSpec configures removeOutliers.
type OutlierSpec struct {
	Column    string
	Method    OutlierMethod
	Threshold float64 // IQR multiplier (default 1.5) or z-score cutoff (default 3)
}

// RemoveOutliers drops rows whose Column value is an outlier by
// Method, preserving the order of surviving rows.
func RemoveOutliers(t *table.Table, spec OutlierSpec) (*table.Table, error) {
	idx, err := t.ColumnIndex(spec.Column)
	if err != nil {
		return nil, err
	}
	var nums []float64
	for _, r := range t.Rows {
		if f, ok := r[idx].AsFloat64(); ok {
			nums = append(nums, f)
		}
	}

	isOutlier := outlierPredicate(nums, spec)

	var kept [][]table.Cell
	for _, r := range t.Rows {
		f, ok := r[idx].AsFloat64()
		if ok && isOutlier(f) {
			continue
		}
		kept = append(kept, append([]table.Cell(nil), r...))
	}
	return table.Derive(t.Columns, kept, table.OriginDerived), nil
}

func outlierPredicate(nums []float64, spec OutlierSpec) func(float64) bool {
	switch spec.Method {
	case OutlierZScore:
		threshold := spec.Threshold
		if threshold == 0 {
			threshold = 3
		}
		mean, std := meanStd(nums)
		return func(f float64) bool {
			if std == 0 {
				return false
			}
			z := math.Abs((f - mean) / std)
			return z > threshold
		}
	default: // IQR
		mult := spec.Threshold
		if mult == 0 {
			mult = 1.5
		}
		q1, q3 := quartiles(nums)
		iqr := q3 - q1
		lower := q1 - mult*iqr
		upper := q3 + mult*iqr
		return func(f float64) bool {
			return f < lower || f > upper
		}
	}
}

func meanStd(nums []float64) (mean, std float64) {
	if len(nums) == 0 {
		return 0, 0
	}
	for _, n := range nums {
		mean += n
	}
	mean /= float64(len(nums))
	var sq float64
	for _, n := range nums {
		sq += (n - mean) * (n - mean)
	}
	std = math.Sqrt(sq / float64(len(nums)))
	return
}

func quartiles(nums []float64) (q1, q3 float64) {
	if len(nums) == 0 {
		return 0, 0
	}
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)
	q1 = percentile(sorted, 0.25)
	q3 = percentile(sorted, 0.75)
	return
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := p * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
