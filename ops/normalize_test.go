package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channely/datablocks-editor/table"
)

func TestNormalizeMinMax(t *testing.T) {
	tb, _ := table.FromRows([]string{"v"}, [][]any{{0.0}, {5.0}, {10.0}})
	out, err := Normalize(tb, NormalizeSpec{Column: "v", Method: NormalizeMinMax})
	require.NoError(t, err)
	assert.Equal(t, float64(0), out.Rows[0][0].Num)
	assert.Equal(t, float64(1), out.Rows[2][0].Num)
	assert.InDelta(t, 0.5, out.Rows[1][0].Num, 1e-9)
}

func TestNormalizeZScoreZeroStdDev(t *testing.T) {
	tb, _ := table.FromRows([]string{"v"}, [][]any{{5.0}, {5.0}})
	out, err := Normalize(tb, NormalizeSpec{Column: "v", Method: NormalizeZScore})
	require.NoError(t, err)
	assert.Equal(t, float64(0), out.Rows[0][0].Num)
}
