package ioformats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channely/datablocks-editor/table"
)

func TestParseJSONArrayOfObjects(t *testing.T) {
	data := []byte(`[{"name":"Alice","age":30},{"name":"Bob","age":25}]`)
	tb, err := ParseJSON(data)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"name", "age"}, tb.Columns)
	assert.Equal(t, 2, tb.RowCount())
}

func TestParseJSONStructured(t *testing.T) {
	data := []byte(`{"columns":["a","b"],"rows":[[1,2],[3,4]]}`)
	tb, err := ParseJSON(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tb.Columns)
	assert.Equal(t, 2, tb.RowCount())
}

func TestWriteJSONArrayOfObjects(t *testing.T) {
	tb, err := table.FromRows([]string{"name"}, [][]any{{"Alice"}})
	require.NoError(t, err)
	out, err := WriteJSON(tb)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"name":"Alice"`)
}

func TestWriteJSONStructuredRoundTrip(t *testing.T) {
	tb, err := table.FromRows([]string{"a", "b"}, [][]any{{1.0, 2.0}})
	require.NoError(t, err)
	out, err := WriteJSONStructured(tb)
	require.NoError(t, err)
	parsed, err := ParseJSON(out)
	require.NoError(t, err)
	assert.Equal(t, tb.Columns, parsed.Columns)
}
