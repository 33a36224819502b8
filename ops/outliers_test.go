package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channely/datablocks-editor/table"
)

func TestRemoveOutliersIQR(t *testing.T) {
	tb, _ := table.FromRows([]string{"v"}, [][]any{{1.0}, {2.0}, {3.0}, {4.0}, {1000.0}})
	out, err := RemoveOutliers(tb, OutlierSpec{Column: "v", Method: OutlierIQR})
	require.NoError(t, err)
	assert.Equal(t, 4, out.RowCount())
}

func TestRemoveOutliersZScore(t *testing.T) {
	tb, _ := table.FromRows([]string{"v"}, [][]any{{10.0}, {11.0}, {9.0}, {10.0}, {500.0}})
	out, err := RemoveOutliers(tb, OutlierSpec{Column: "v", Method: OutlierZScore, Threshold: 1.5})
	require.NoError(t, err)
	assert.Less(t, out.RowCount(), tb.RowCount())
}
