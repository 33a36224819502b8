package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channely/datablocks-editor/table"
)

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	tb, err := table.FromRows(
		[]string{"name", "age", "city", "salary"},
		[][]any{
			{"Alice", 30.0, "NY", 75000.0},
			{"Bob", 25.0, "LA", 65000.0},
			{"Charlie", 35.0, "Chicago", 80000.0},
			{"Diana", 28.0, "NY", 70000.0},
			{"Eve", 32.0, "LA", 85000.0},
		},
	)
	require.NoError(t, err)
	return tb
}

func TestProfileOverviewBasics(t *testing.T) {
	tb := sampleTable(t)
	p := Profile(tb)
	assert.Equal(t, 5, p.Overview.RowCount)
	assert.Equal(t, 4, p.Overview.ColumnCount)
	assert.Equal(t, 0, p.Overview.DuplicateRowCount)
}

func TestProfileDetectsDuplicateRows(t *testing.T) {
	tb, err := table.FromRows([]string{"v"}, [][]any{{1.0}, {1.0}, {2.0}})
	require.NoError(t, err)
	p := Profile(tb)
	assert.Equal(t, 1, p.Overview.DuplicateRowCount)
}

func TestProfileColumnStatsForNumeric(t *testing.T) {
	tb := sampleTable(t)
	p := Profile(tb)
	var salary *ColumnProfile
	for i := range p.Columns {
		if p.Columns[i].Name == "salary" {
			salary = &p.Columns[i]
		}
	}
	require.NotNil(t, salary)
	assert.Equal(t, table.KindNumber, salary.InferredType)
	require.NotNil(t, salary.Mean)
	assert.InDelta(t, 75000, *salary.Mean, 1e-6)
}

func TestProfileCorrelationReported(t *testing.T) {
	tb, err := table.FromRows([]string{"a", "b"}, [][]any{
		{1.0, 2.0}, {2.0, 4.0}, {3.0, 6.0}, {4.0, 8.0},
	})
	require.NoError(t, err)
	p := Profile(tb)
	require.Len(t, p.Correlations, 1)
	assert.InDelta(t, 1.0, p.Correlations[0].R, 1e-6)
}

func TestProfileQualityScoresBounded(t *testing.T) {
	tb := sampleTable(t)
	p := Profile(tb)
	for _, dim := range []QualityDimension{p.Quality.Completeness, p.Quality.Consistency, p.Quality.Accuracy, p.Quality.Uniqueness} {
		assert.GreaterOrEqual(t, dim.Score, 0.0)
		assert.LessOrEqual(t, dim.Score, 100.0)
	}
}

func TestProfileRecommendsOnDuplicates(t *testing.T) {
	tb, err := table.FromRows([]string{"v"}, [][]any{{1.0}, {1.0}})
	require.NoError(t, err)
	p := Profile(tb)
	assert.Contains(t, p.Recommendations[0], "duplicate")
}
