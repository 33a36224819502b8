package profile

import (
	"fmt"

	"github.com/channely/datablocks-editor/table"
)

// qualityOf scores the four dimensions names, each 0-100,
// against the already-computed column profiles and the source table.
func qualityOf(t *table.Table, cols []ColumnProfile) Quality {
	return Quality{
		Completeness: completeness(cols),
		Consistency:  consistency(t, cols),
		Accuracy:     accuracy(t, cols),
		Uniqueness:   uniqueness(cols),
	}
}

func completeness(cols []ColumnProfile) QualityDimension {
	if len(cols) == 0 {
		return QualityDimension{Score: 100}
	}
	var sumNull float64
	var issues []string
	for _, c := range cols {
		sumNull += c.NullPercent
		if c.NullPercent > 20 {
			issues = append(issues, fmt.Sprintf("column %q is %.1f%% null", c.Name, c.NullPercent))
		}
	}
	avgNull := sumNull / float64(len(cols))
	return QualityDimension{Score: clamp(100 - avgNull), Issues: issues}
}

// consistency penalizes columns that have a detected value pattern
// matched by under 80% of their non-null values (mixed representations
// within a column). Columns with no detected pattern score 100.
func consistency(t *table.Table, cols []ColumnProfile) QualityDimension {
	if len(cols) == 0 {
		return QualityDimension{Score: 100}
	}
	var score float64
	var issues []string
	for _, c := range cols {
		cm := t.Meta.Columns[c.Name]
		if cm == nil {
			continue
		}
		colScore := 100.0
		if len(c.Patterns) > 0 && c.Confidence < 0.8 {
			colScore = c.Confidence * 100
			issues = append(issues, fmt.Sprintf("column %q has mixed value formats", c.Name))
		}
		score += colScore
	}
	return QualityDimension{Score: clamp(score / float64(len(cols))), Issues: issues}
}

// accuracy scores numeric columns by the fraction of values that are
// NOT IQR outliers, "accuracy via IQR outliers".
func accuracy(t *table.Table, cols []ColumnProfile) QualityDimension {
	var scored int
	var total float64
	var issues []string
	for _, c := range cols {
		if c.InferredType != table.KindNumber {
			continue
		}
		values, _ := t.Column(c.Name)
		outlierFrac := iqrOutlierFraction(values)
		score := clamp(100 - outlierFrac*100)
		total += score
		scored++
		if outlierFrac > 0.1 {
			issues = append(issues, fmt.Sprintf("column %q has %.1f%% IQR outliers", c.Name, outlierFrac*100))
		}
	}
	if scored == 0 {
		return QualityDimension{Score: 100}
	}
	return QualityDimension{Score: total / float64(scored), Issues: issues}
}

func iqrOutlierFraction(values []table.Cell) float64 {
	var nums []float64
	for _, c := range values {
		if c.IsNull() {
			continue
		}
		if f, ok := c.AsFloat64(); ok {
			nums = append(nums, f)
		}
	}
	if len(nums) < 4 {
		return 0
	}
	sorted := append([]float64(nil), nums...)
	insertionSort(sorted)
	q1 := percentileOf(sorted, 0.25)
	q3 := percentileOf(sorted, 0.75)
	iqr := q3 - q1
	lower, upper := q1-1.5*iqr, q3+1.5*iqr
	count := 0
	for _, n := range nums {
		if n < lower || n > upper {
			count++
		}
	}
	return float64(count) / float64(len(nums))
}

func percentileOf(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := p * float64(len(sorted)-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func insertionSort(a []float64) {
	for i := 1; i < len(a); i++ {
		v := a[i]
		j := i - 1
		for j >= 0 && a[j] > v {
			a[j+1] = a[j]
			j--
		}
		a[j+1] = v
	}
}

func uniqueness(cols []ColumnProfile) QualityDimension {
	if len(cols) == 0 {
		return QualityDimension{Score: 100}
	}
	var sum float64
	var issues []string
	for _, c := range cols {
		sum += c.UniquePercent
		if c.UniquePercent < 50 {
			issues = append(issues, fmt.Sprintf("column %q is only %.1f%% unique", c.Name, c.UniquePercent))
		}
	}
	return QualityDimension{Score: clamp(sum / float64(len(cols))), Issues: issues}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// recommend derives human-readable suggestions from the computed
// thresholds, "recommendations derived from
// thresholds".
func recommend(p DataProfile) []string {
	var recs []string
	if p.Overview.DuplicateRowCount > 0 {
		recs = append(recs, fmt.Sprintf("remove %d duplicate row(s)", p.Overview.DuplicateRowCount))
	}
	if p.Quality.Completeness.Score < 80 {
		recs = append(recs, "consider filling missing values in low-completeness columns")
	}
	if p.Quality.Accuracy.Score < 80 {
		recs = append(recs, "review numeric columns for outliers")
	}
	for _, c := range p.Correlations {
		recs = append(recs, fmt.Sprintf("columns %q and %q are strongly correlated (r=%.2f)", c.ColumnA, c.ColumnB, c.R))
	}
	return recs
}
