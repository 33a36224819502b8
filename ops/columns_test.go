package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channely/datablocks-editor/table"
)

func TestRenameColumnsDuplicate(t *testing.T) {
	tb := sampleTable(t)
	_, err := RenameColumns(tb, map[string]string{"name": "age"})
	require.Error(t, err)
}

func TestRenameColumnsOK(t *testing.T) {
	tb := sampleTable(t)
	out, err := RenameColumns(tb, map[string]string{"name": "full_name"})
	require.NoError(t, err)
	assert.True(t, out.HasColumn("full_name"))
}

func TestAddColumnDuplicate(t *testing.T) {
	tb := sampleTable(t)
	_, err := AddColumn(tb, "name", func(row []table.Cell, i int) (any, error) {
		return nil, nil
	}, nil)
	require.Error(t, err)
}

func TestAddColumnComputesValue(t *testing.T) {
	tb := sampleTable(t)
	out, err := AddColumn(tb, "bonus", func(row []table.Cell, i int) (any, error) {
		salary, _ := row[3].AsFloat64()
		return salary * 0.1, nil
	}, nil)
	require.NoError(t, err)
	idx, _ := out.ColumnIndex("bonus")
	assert.Equal(t, float64(7500), out.Rows[0][idx].Num)
}

func TestRemoveColumnsIgnoresUnknown(t *testing.T) {
	tb := sampleTable(t)
	out := RemoveColumns(tb, []string{"nope", "age"})
	assert.False(t, out.HasColumn("age"))
	assert.Equal(t, tb.RowCount(), out.RowCount())
}

func TestGetUniqueValues(t *testing.T) {
	tb := sampleTable(t)
	vals, err := GetUniqueValues(tb, "city")
	require.NoError(t, err)
	assert.Len(t, vals, 3)
}

func TestColumnStats(t *testing.T) {
	tb := sampleTable(t)
	stats, err := ColumnStats(tb, "salary")
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Count)
	assert.Equal(t, float64(375000), stats.Sum)
}
