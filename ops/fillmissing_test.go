package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channely/datablocks-editor/table"
)

func TestFillMissingForward(t *testing.T) {
	tb, _ := table.FromRows([]string{"v"}, [][]any{{1.0}, {nil}, {nil}, {3.0}})
	out, err := FillMissing(tb, FillMissingSpec{Columns: []string{"v"}, Method: FillForward})
	require.NoError(t, err)
	assert.Equal(t, float64(1), out.Rows[1][0].Num)
	assert.Equal(t, float64(1), out.Rows[2][0].Num)
}

func TestFillMissingConstant(t *testing.T) {
	tb, _ := table.FromRows([]string{"v"}, [][]any{{nil}, {2.0}})
	out, err := FillMissing(tb, FillMissingSpec{Columns: []string{"v"}, Method: FillConstant, Constant: 0.0})
	require.NoError(t, err)
	assert.Equal(t, float64(0), out.Rows[0][0].Num)
}

func TestFillMissingMean(t *testing.T) {
	tb, _ := table.FromRows([]string{"v"}, [][]any{{2.0}, {4.0}, {nil}})
	out, err := FillMissing(tb, FillMissingSpec{Columns: []string{"v"}, Method: FillMean})
	require.NoError(t, err)
	assert.Equal(t, float64(3), out.Rows[2][0].Num)
}
