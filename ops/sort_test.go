package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterThenSortScenario(t *testing.T) {
	tb := sampleTable(t)
	filtered := Filter(tb, Predicate{Column: "age", Op: OpGreaterThan, Value: 27.0})
	sorted := Sort(filtered, []SortKey{{Column: "salary", Direction: Desc}})

	require.Equal(t, 4, sorted.RowCount())
	nameIdx, _ := sorted.ColumnIndex("name")
	names := make([]string, sorted.RowCount())
	for i, r := range sorted.Rows {
		names[i] = r[nameIdx].Str
	}
	assert.Equal(t, []string{"Eve", "Charlie", "Alice", "Diana"}, names)
}

func TestSortStable(t *testing.T) {
	tb := sampleTable(t)
	sorted := Sort(tb, []SortKey{{Column: "city", Direction: Asc}})
	// Two LA rows (Bob, Eve) must keep their relative input order.
	nameIdx, _ := sorted.ColumnIndex("name")
	var laNames []string
	for _, r := range sorted.Rows {
		cityIdx, _ := sorted.ColumnIndex("city")
		if r[cityIdx].Str == "LA" {
			laNames = append(laNames, r[nameIdx].Str)
		}
	}
	assert.Equal(t, []string{"Bob", "Eve"}, laNames)
}

func TestSortIdempotent(t *testing.T) {
	tb := sampleTable(t)
	keys := []SortKey{{Column: "salary", Direction: Asc}}
	once := Sort(tb, keys)
	twice := Sort(once, keys)
	for i := range once.Rows {
		assert.True(t, once.Rows[i][0].Equal(twice.Rows[i][0]))
	}
}

func TestSortUnknownColumnSkipped(t *testing.T) {
	tb := sampleTable(t)
	sorted := Sort(tb, []SortKey{{Column: "nope", Direction: Asc}, {Column: "age", Direction: Asc}})
	ageIdx, _ := sorted.ColumnIndex("age")
	assert.Equal(t, float64(25), sorted.Rows[0][ageIdx].Num)
}
