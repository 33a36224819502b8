package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channely/datablocks-editor/table"
)

func rightTable(t *testing.T) *table.Table {
	t.Helper()
	tb, err := table.FromRows(
		[]string{"city", "state", "population"},
		[][]any{
			{"NY", "NY", 8000000.0},
			{"LA", "CA", 4000000.0},
			{"Chicago", "IL", 2700000.0},
			{"Houston", "TX", 2300000.0},
		},
	)
	require.NoError(t, err)
	return tb
}

func TestInnerJoinScenario(t *testing.T) {
	left := sampleTable(t)
	right := rightTable(t)
	out, err := Join(left, right, JoinSpec{Type: JoinInner, LeftKey: "city", RightKey: "city", Suffix: "_r"})
	require.NoError(t, err)

	assert.Equal(t, 5, out.RowCount())
	assert.Equal(t, []string{"name", "age", "city", "salary", "state", "population"}, out.Columns)

	nameIdx, _ := out.ColumnIndex("name")
	stateIdx, _ := out.ColumnIndex("state")
	popIdx, _ := out.ColumnIndex("population")
	assert.Equal(t, "Alice", out.Rows[0][nameIdx].Str)
	assert.Equal(t, "NY", out.Rows[0][stateIdx].Str)
	assert.Equal(t, float64(8000000), out.Rows[0][popIdx].Num)

	for _, r := range out.Rows {
		assert.NotEqual(t, "Houston", r[2].Str)
	}
}

func TestLeftJoinUnmatchedEmitsNulls(t *testing.T) {
	left := sampleTable(t)
	right, _ := table.FromRows([]string{"city", "state"}, [][]any{{"NY", "NY"}})
	out, err := Join(left, right, JoinSpec{Type: JoinLeft, LeftKey: "city", RightKey: "city"})
	require.NoError(t, err)
	assert.Equal(t, left.RowCount(), out.RowCount())

	stateIdx, _ := out.ColumnIndex("state")
	var sawNull bool
	for _, r := range out.Rows {
		if r[stateIdx].IsNull() {
			sawNull = true
		}
	}
	assert.True(t, sawNull)
}

func TestRightJoinFillsLeftKeyFromRightKey(t *testing.T) {
	left, _ := table.FromRows([]string{"city", "name"}, [][]any{{"NY", "Alice"}})
	right := rightTable(t)
	out, err := Join(left, right, JoinSpec{Type: JoinRight, LeftKey: "city", RightKey: "city"})
	require.NoError(t, err)
	assert.Equal(t, 4, out.RowCount())

	cityIdx, _ := out.ColumnIndex("city")
	var sawHouston bool
	for _, r := range out.Rows {
		if r[cityIdx].Str == "Houston" {
			sawHouston = true
		}
	}
	assert.True(t, sawHouston)
}

func TestJoinUnknownKey(t *testing.T) {
	left := sampleTable(t)
	right := rightTable(t)
	_, err := Join(left, right, JoinSpec{Type: JoinInner, LeftKey: "nope", RightKey: "city"})
	require.Error(t, err)
}
