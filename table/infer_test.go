package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferNumberColumn(t *testing.T) {
	tb, _ := FromRows([]string{"n"}, [][]any{{"1"}, {"2.5"}, {nil}})
	assert.Equal(t, KindNumber, tb.Meta.Columns["n"].Type)
	assert.True(t, tb.Meta.Columns["n"].Nullable)
}

func TestInferBooleanColumn(t *testing.T) {
	tb, _ := FromRows([]string{"b"}, [][]any{{"true"}, {"false"}, {true}})
	assert.Equal(t, KindBool, tb.Meta.Columns["b"].Type)
}

func TestInferTimestampISO(t *testing.T) {
	tb, _ := FromRows([]string{"d"}, [][]any{{"2024-01-02"}, {"2024-03-04"}})
	assert.Equal(t, KindTimestamp, tb.Meta.Columns["d"].Type)
}

func TestInferTextFallback(t *testing.T) {
	tb, _ := FromRows([]string{"s"}, [][]any{{"hello"}, {"world"}})
	assert.Equal(t, KindText, tb.Meta.Columns["s"].Type)
}

func TestInferUniqueFlag(t *testing.T) {
	tb, _ := FromRows([]string{"a"}, [][]any{{"x"}, {"x"}})
	assert.False(t, tb.Meta.Columns["a"].Unique)
}

func TestDetectPatternEmail(t *testing.T) {
	cells := []Cell{TextCell("a@b.com"), TextCell("c@d.org"), TextCell("not-an-email")}
	r := DetectPattern(cells)
	assert.Equal(t, PatternEmail, r.Pattern)
	assert.InDelta(t, 2.0/3.0, r.Confidence, 1e-9)
}
