package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupAggregateScenario(t *testing.T) {
	tb := sampleTable(t)
	out, err := Group(tb, GroupSpec{
		GroupColumns: []string{"city"},
		Aggregations: []Aggregation{
			{Func: AggAvg, Column: "salary", Alias: "avg_salary"},
			{Func: AggMax, Column: "age", Alias: "max_age"},
			{Func: AggCount, Column: "name", Alias: "count"},
		},
	})
	require.NoError(t, err)

	cityIdx, _ := out.ColumnIndex("city")
	avgIdx, _ := out.ColumnIndex("avg_salary")
	maxIdx, _ := out.ColumnIndex("max_age")
	countIdx, _ := out.ColumnIndex("count")

	for _, r := range out.Rows {
		if r[cityIdx].Str == "LA" {
			assert.Equal(t, float64(75000), r[avgIdx].Num)
			assert.Equal(t, float64(32), r[maxIdx].Num)
			assert.Equal(t, float64(2), r[countIdx].Num)
		}
	}
}

func TestGroupUnknownColumn(t *testing.T) {
	tb := sampleTable(t)
	_, err := Group(tb, GroupSpec{GroupColumns: []string{"nope"}})
	require.Error(t, err)
}

func TestGroupEmptyTableReturnsZeroRows(t *testing.T) {
	tb := sampleTable(t)
	empty := Slice(tb, 0, intp(0))
	out, err := Group(empty, GroupSpec{
		GroupColumns: []string{"city"},
		Aggregations: []Aggregation{{Func: AggCount, Alias: "n"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, out.RowCount())
	assert.Equal(t, []string{"city", "n"}, out.Columns)
}

func intp(i int) *int { return &i }
