// Package profile computes a DataProfile describing a table's shape:
// dataset overview, per-column statistics and pattern detection,
// quality scoring, and pairwise correlation, built on the statistics
// primitives in package table.
package profile

import (
	"github.com/mitchellh/hashstructure"

	"github.com/channely/datablocks-editor/table"
)

// Overview is the dataset-level summary.
type Overview struct {
	RowCount         int
	ColumnCount      int
	ByteEstimate     int64
	SparsityPercent  float64
	DuplicateRowCount int
}

// FrequentValue is one entry of a column's top-N most-frequent values.
type FrequentValue struct {
	Value string
	Count int
}

// ColumnProfile is the per-column section of a DataProfile.
type ColumnProfile struct {
	Name            string
	InferredType    table.Kind
	Confidence      float64
	Patterns        []string
	NullPercent     float64
	UniquePercent   float64
	TopValues       []FrequentValue
	Min             *float64
	Max             *float64
	Mean            *float64
	Median          *float64
	StdDev          *float64
	MeanLength      *float64
	MinLength       *int
	MaxLength       *int
}

// QualityDimension is one of the four scored quality axes.
type QualityDimension struct {
	Score  float64
	Issues []string
}

// Quality bundles the four scored dimensions of data quality.
type Quality struct {
	Completeness QualityDimension
	Consistency  QualityDimension
	Accuracy     QualityDimension
	Uniqueness   QualityDimension
}

// Correlation is one pairwise Pearson result with |r| > 0.5.
type Correlation struct {
	ColumnA string
	ColumnB string
	R       float64
}

// DataProfile is the full output of Profile.
type DataProfile struct {
	Overview        Overview
	Columns         []ColumnProfile
	Quality         Quality
	Correlations    []Correlation
	Recommendations []string
}

// Profile computes the full DataProfile for t.
func Profile(t *table.Table) DataProfile {
	t.Infer()

	p := DataProfile{
		Overview: overviewOf(t),
	}
	for _, col := range t.Columns {
		p.Columns = append(p.Columns, columnProfileOf(t, col))
	}
	p.Quality = qualityOf(t, p.Columns)
	p.Correlations = Correlate(t)
	p.Recommendations = recommend(p)
	return p
}

func overviewOf(t *table.Table) Overview {
	o := Overview{
		RowCount:    t.RowCount(),
		ColumnCount: t.ColumnCount(),
	}
	var bytes int64
	nullCells := 0
	total := t.RowCount() * t.ColumnCount()
	for _, row := range t.Rows {
		for _, c := range row {
			bytes += int64(len(c.String())) + 16
			if c.IsNull() {
				nullCells++
			}
		}
	}
	o.ByteEstimate = bytes
	if total > 0 {
		o.SparsityPercent = 100 * float64(nullCells) / float64(total)
	}
	o.DuplicateRowCount = countDuplicateRows(t)
	return o
}

// countDuplicateRows buckets rows by a hashstructure digest of their
// cell values, then confirms each bucket with a deep-equality pass, so
// hash collisions never inflate the count — grounded on the same
// hashstructure-then-verify pattern package ops uses for group-by.
func countDuplicateRows(t *table.Table) int {
	buckets := make(map[uint64][]int)
	for i, row := range t.Rows {
		h, err := hashstructure.Hash(cellKey(row), nil)
		if err != nil {
			continue
		}
		buckets[h] = append(buckets[h], i)
	}
	dup := 0
	for _, idxs := range buckets {
		if len(idxs) < 2 {
			continue
		}
		seen := make([]int, 0, len(idxs))
		for _, i := range idxs {
			isDup := false
			for _, j := range seen {
				if rowsEqual(t.Rows[i], t.Rows[j]) {
					isDup = true
					break
				}
			}
			if isDup {
				dup++
			} else {
				seen = append(seen, i)
			}
		}
	}
	return dup
}

func cellKey(row []table.Cell) []string {
	keys := make([]string, len(row))
	for i, c := range row {
		keys[i] = c.String()
	}
	return keys
}

func rowsEqual(a, b []table.Cell) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
