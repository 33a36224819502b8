package table

import (
	"sort"
	"time"

	"github.com/channely/datablocks-editor/errs"
)

// Origin records where a Table's data came from, for display in the
// editor and for decisions like re-inference after a derivation.
type Origin string

const (
	OriginPaste   Origin = "paste"
	OriginFile    Origin = "file"
	OriginHTTP    Origin = "http"
	OriginExample Origin = "example"
	OriginDerived Origin = "derived"
)

// ColumnMeta is the per-column slice of Metadata.
type ColumnMeta struct {
	Type       Kind
	Nullable   bool
	Unique     bool
	Confidence float64
	Pattern    string
}

// Metadata is the derived, always-in-sync description of a Table.
type Metadata struct {
	RowCount     int
	ColumnCount  int
	Columns      map[string]*ColumnMeta
	CreatedAt    time.Time
	ModifiedAt   time.Time
	Origin       Origin
}

// Table is an ordered list of unique, non-empty column names together
// with an ordered list of rows of equal width. Every derivation
// (filter, sort, group, ...) returns a new Table; Tables themselves are
// never mutated in place once returned from a constructor, so a Table
// can be safely shared by multiple cache readers.
type Table struct {
	Columns []string
	Rows    [][]Cell
	Meta    *Metadata

	index map[string]int // column name -> position, built lazily
}

// New builds an empty Table with the given columns.
func New(columns []string) *Table {
	t := &Table{
		Columns: append([]string(nil), columns...),
		Rows:    nil,
	}
	t.reindex()
	t.Meta = newMetadata(t, OriginDerived)
	return t
}

// FromRows builds a Table from row-major data: the first argument is
// the column list, the second the rows, each of equal length.
func FromRows(columns []string, rows [][]any) (*Table, error) {
	t := New(columns)
	t.Rows = make([][]Cell, len(rows))
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, errs.ErrData.New("row %d has %d values, expected %d", i, len(r), len(columns))
		}
		row := make([]Cell, len(r))
		for j, v := range r {
			row[j] = NewCell(v)
		}
		t.Rows[i] = row
	}
	t.Infer()
	return t, nil
}

// FromMaps builds a Table from an ordered sequence of name->value maps.
// The column order is the union of keys in first-seen order across the
// maps; keys first seen in the same map carry no order of their own (a
// Go map has none), so they are appended sorted by name. Rows missing a
// key get a null in that column.
func FromMaps(maps []map[string]any) *Table {
	var columns []string
	seen := map[string]bool{}
	for _, m := range maps {
		var fresh []string
		for k := range m {
			if !seen[k] {
				seen[k] = true
				fresh = append(fresh, k)
			}
		}
		sort.Strings(fresh)
		columns = append(columns, fresh...)
	}
	t := New(columns)
	t.Rows = make([][]Cell, len(maps))
	for i, m := range maps {
		row := make([]Cell, len(columns))
		for j, c := range columns {
			if v, ok := m[c]; ok {
				row[j] = NewCell(v)
			} else {
				row[j] = Null
			}
		}
		t.Rows[i] = row
	}
	t.Infer()
	return t
}

func newMetadata(t *Table, origin Origin) *Metadata {
	now := time.Now()
	m := &Metadata{
		RowCount:    len(t.Rows),
		ColumnCount: len(t.Columns),
		Columns:     make(map[string]*ColumnMeta, len(t.Columns)),
		CreatedAt:   now,
		ModifiedAt:  now,
		Origin:      origin,
	}
	for _, c := range t.Columns {
		m.Columns[c] = &ColumnMeta{Type: KindText}
	}
	return m
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.index[c] = i
	}
}

// ColumnIndex returns the positional index of name, or ErrUnknownColumn.
func (t *Table) ColumnIndex(name string) (int, error) {
	if t.index == nil {
		t.reindex()
	}
	i, ok := t.index[name]
	if !ok {
		return -1, errs.ErrUnknownColumn.New(name)
	}
	return i, nil
}

// HasColumn reports whether name exists without erroring.
func (t *Table) HasColumn(name string) bool {
	_, err := t.ColumnIndex(name)
	return err == nil
}

// Clone produces a deep copy safe for a caller to mutate. Operators
// that need to mutate a table in place (rare; most build fresh slices)
// must Clone first.
func (t *Table) Clone() *Table {
	cols := append([]string(nil), t.Columns...)
	rows := make([][]Cell, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = append([]Cell(nil), r...)
	}
	nt := &Table{Columns: cols, Rows: rows}
	nt.reindex()
	nt.Meta = cloneMetadata(t.Meta)
	return nt
}

func cloneMetadata(m *Metadata) *Metadata {
	if m == nil {
		return nil
	}
	nm := &Metadata{
		RowCount:    m.RowCount,
		ColumnCount: m.ColumnCount,
		Columns:     make(map[string]*ColumnMeta, len(m.Columns)),
		CreatedAt:   m.CreatedAt,
		ModifiedAt:  m.ModifiedAt,
		Origin:      m.Origin,
	}
	for k, v := range m.Columns {
		cm := *v
		nm.Columns[k] = &cm
	}
	return nm
}

// Derive creates a new Table from a copy of columns and the given rows
// (the rows slice is used as passed, not copied), sets fresh metadata
// with RowCount/ColumnCount/ModifiedAt, and re-infers per-column
// type/nullability/uniqueness. Every operator in package ops calls this
// (directly or via a helper) to keep Table invariants in sync on
// every derivation.
func Derive(columns []string, rows [][]Cell, origin Origin) *Table {
	t := &Table{Columns: append([]string(nil), columns...), Rows: rows}
	t.reindex()
	t.Meta = newMetadata(t, origin)
	t.Infer()
	return t
}

// RowCount/ColumnCount report the lengths of the live slices rather
// than Meta's cached counts, so a caller who appended directly to Rows still
// observes a correct count (defensive; operators should use Derive).
func (t *Table) RowCount() int    { return len(t.Rows) }
func (t *Table) ColumnCount() int { return len(t.Columns) }

// Validate checks the structural invariants a Table must hold.
func (t *Table) Validate() error {
	if len(t.Columns) != t.Meta.ColumnCount {
		return errs.ErrData.New("column count mismatch: have %d, meta says %d", len(t.Columns), t.Meta.ColumnCount)
	}
	if len(t.Rows) != t.Meta.RowCount {
		return errs.ErrData.New("row count mismatch: have %d, meta says %d", len(t.Rows), t.Meta.RowCount)
	}
	for i, r := range t.Rows {
		if len(r) != len(t.Columns) {
			return errs.ErrData.New("row %d has %d cells, expected %d", i, len(r), len(t.Columns))
		}
	}
	return nil
}

// Column returns the named column's values in row order.
func (t *Table) Column(name string) ([]Cell, error) {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]Cell, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[idx]
	}
	return out, nil
}
