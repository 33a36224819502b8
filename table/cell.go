// Package table implements the in-memory tabular container operators
// are built on: an ordered list of typed columns, an ordered list of
// rows, and the metadata derived from them (row/column counts, inferred
// per-column type, nullability, uniqueness).
package table

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Kind tags the dynamic type of a Cell.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindText
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Cell is a single table value. It is a tagged union rather than an
// interface{} so comparisons and type-aware sorting never need a type
// switch over arbitrary Go types: every cell that isn't null carries
// exactly one of Bool/Num/Str/Time populated according to Kind.
type Cell struct {
	Kind Kind
	Bool bool
	Num  float64
	Str  string
	Time time.Time
}

// Null is the shared null marker.
var Null = Cell{Kind: KindNull}

func BoolCell(b bool) Cell           { return Cell{Kind: KindBool, Bool: b} }
func NumberCell(n float64) Cell       { return Cell{Kind: KindNumber, Num: n} }
func TextCell(s string) Cell          { return Cell{Kind: KindText, Str: s} }
func TimestampCell(t time.Time) Cell  { return Cell{Kind: KindTimestamp, Time: t} }
func (c Cell) IsNull() bool           { return c.Kind == KindNull }

// NewCell builds a Cell from an arbitrary Go value as produced by
// callers assembling rows from maps, JSON, or CSV text. nil and the
// empty interface produce Null; everything else is coerced with
// github.com/spf13/cast, matching how the kernel infers types later.
func NewCell(v any) Cell {
	switch val := v.(type) {
	case nil:
		return Null
	case Cell:
		return val
	case bool:
		return BoolCell(val)
	case string:
		return TextCell(val)
	case time.Time:
		return TimestampCell(val)
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		if f, err := cast.ToFloat64E(val); err == nil {
			return NumberCell(f)
		}
		return TextCell(fmt.Sprint(val))
	default:
		return TextCell(fmt.Sprint(val))
	}
}

// Value unwraps the Cell back to a plain Go value, the representation
// used at the JSON/CSV export boundary.
func (c Cell) Value() any {
	switch c.Kind {
	case KindNull:
		return nil
	case KindBool:
		return c.Bool
	case KindNumber:
		return c.Num
	case KindText:
		return c.Str
	case KindTimestamp:
		return c.Time
	default:
		return nil
	}
}

// String renders the cell's string form, used by text operators
// (contains, starts_with, ...) and by lexicographic sort fallback.
// Comparisons against it are case-insensitive at the call site.
func (c Cell) String() string {
	switch c.Kind {
	case KindNull:
		return ""
	case KindBool:
		if c.Bool {
			return "true"
		}
		return "false"
	case KindNumber:
		return cast.ToString(c.Num)
	case KindText:
		return c.Str
	case KindTimestamp:
		return c.Time.Format(time.RFC3339)
	default:
		return ""
	}
}

// Equal reports value equality; two nulls compare equal. ops.Join never
// passes null keys here, so nulls never match in a join, and ops.Filter
// rejects a null cell before comparing it.
func (c Cell) Equal(other Cell) bool {
	if c.Kind != other.Kind {
		// Permit cross-kind equality when both render to the same text,
		// since cells arriving from CSV/paste input are text until
		// inference promotes a whole column.
		return strings.EqualFold(c.String(), other.String())
	}
	switch c.Kind {
	case KindNull:
		return true
	case KindBool:
		return c.Bool == other.Bool
	case KindNumber:
		return c.Num == other.Num
	case KindText:
		return c.Str == other.Str
	case KindTimestamp:
		return c.Time.Equal(other.Time)
	default:
		return false
	}
}

// Compare orders c against other by c's Kind: numbers by value,
// timestamps by instant, booleans false before true, and every other
// kind by case-insensitive string form. other's Kind is not checked and
// no coercion happens here. Returns -1, 0, 1.
func (c Cell) Compare(other Cell) int {
	switch c.Kind {
	case KindNumber:
		switch {
		case c.Num < other.Num:
			return -1
		case c.Num > other.Num:
			return 1
		default:
			return 0
		}
	case KindTimestamp:
		switch {
		case c.Time.Before(other.Time):
			return -1
		case c.Time.After(other.Time):
			return 1
		default:
			return 0
		}
	case KindBool:
		if c.Bool == other.Bool {
			return 0
		}
		if !c.Bool {
			return -1
		}
		return 1
	default:
		a, b := strings.ToLower(c.String()), strings.ToLower(other.String())
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
}

// AsFloat64 coerces the cell to a float for numeric aggregation,
// returning ok=false for non-numeric, non-numeric-string cells.
func (c Cell) AsFloat64() (float64, bool) {
	switch c.Kind {
	case KindNumber:
		return c.Num, true
	case KindText:
		f, err := cast.ToFloat64E(c.Str)
		return f, err == nil
	case KindBool:
		if c.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
