package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnpivotThenColumnCount(t *testing.T) {
	tb := sampleTable(t)
	out, err := Unpivot(tb, UnpivotSpec{
		IDColumns:      []string{"name"},
		ValueColumns:   []string{"age", "salary"},
		NameColumn:     "metric",
		ValueColumnOut: "value",
	})
	require.NoError(t, err)
	assert.Equal(t, tb.RowCount()*2, out.RowCount())
	assert.Equal(t, []string{"name", "metric", "value"}, out.Columns)
}

func TestTransposeSwapsDimensions(t *testing.T) {
	tb := sampleTable(t)
	out := Transpose(tb)
	assert.Equal(t, len(tb.Columns), out.RowCount())
	assert.Equal(t, tb.RowCount()+1, out.ColumnCount())
}

func TestPivotProducesColumnPerPivotValue(t *testing.T) {
	tb := sampleTable(t)
	out, err := Pivot(tb, PivotSpec{
		IndexColumns: []string{"city"},
		PivotColumn:  "name",
		ValueColumn:  "salary",
		Agg:          AggSum,
	})
	require.NoError(t, err)
	assert.Equal(t, 1+tb.RowCount(), out.ColumnCount())
}
