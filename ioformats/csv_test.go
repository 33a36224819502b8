package ioformats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channely/datablocks-editor/table"
)

func TestParseCSVBasic(t *testing.T) {
	data := []byte("name,age\nAlice,30\nBob,25\n")
	tb, err := ParseCSV(data, DefaultCSVOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age"}, tb.Columns)
	assert.Equal(t, 2, tb.RowCount())
}

func TestParseCSVNullMarker(t *testing.T) {
	data := []byte("name,age\nAlice,NA\n")
	opts := DefaultCSVOptions()
	opts.NullMarker = "NA"
	tb, err := ParseCSV(data, opts)
	require.NoError(t, err)
	idx, _ := tb.ColumnIndex("age")
	assert.True(t, tb.Rows[0][idx].IsNull())
}

func TestParseCSVEmbeddedQuotesAndDelimiter(t *testing.T) {
	data := []byte("name,note\n\"Alice\",\"hello, \"\"world\"\"\"\n")
	tb, err := ParseCSV(data, DefaultCSVOptions())
	require.NoError(t, err)
	idx, _ := tb.ColumnIndex("note")
	assert.Equal(t, `hello, "world"`, tb.Rows[0][idx].Str)
}

func TestWriteCSVQuotesFieldsWithDelimiter(t *testing.T) {
	tb, err := table.FromRows([]string{"name", "note"}, [][]any{{"Alice", "hello, world"}})
	require.NoError(t, err)
	out, err := WriteCSV(tb, DefaultCSVOptions())
	require.NoError(t, err)
	assert.Contains(t, string(out), `"hello, world"`)
}

func TestCSVRoundTrip(t *testing.T) {
	tb, err := table.FromRows([]string{"a", "b"}, [][]any{{"1", "x"}, {"2", "y"}})
	require.NoError(t, err)
	out, err := WriteCSV(tb, DefaultCSVOptions())
	require.NoError(t, err)
	parsed, err := ParseCSV(out, DefaultCSVOptions())
	require.NoError(t, err)
	assert.Equal(t, tb.Columns, parsed.Columns)
	assert.Equal(t, tb.RowCount(), parsed.RowCount())
}

func TestTSVOptionsUsesTabDelimiter(t *testing.T) {
	data := []byte("name\tage\nAlice\t30\n")
	tb, err := ParseCSV(data, TSVOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age"}, tb.Columns)
}
