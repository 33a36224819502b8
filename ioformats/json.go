package ioformats

import (
	json "github.com/goccy/go-json"

	"github.com/channely/datablocks-editor/errs"
	"github.com/channely/datablocks-editor/table"
)

// structuredJSON is the `{columns, rows, metadata}` form // names as the alternative to array-of-objects.
type structuredJSON struct {
	Columns  []string         `json:"columns"`
	Rows     [][]any          `json:"rows"`
	Metadata *json.RawMessage `json:"metadata,omitempty"`
}

// ParseJSON accepts either an array-of-objects (keys become column
// names in first-seen order across objects, keys new in the same object
// sorted by name) or the structured {columns, rows,
// metadata} form, dispatching on the JSON's outermost shape.
func ParseJSON(data []byte) (*table.Table, error) {
	var structured structuredJSON
	if err := json.Unmarshal(data, &structured); err == nil && structured.Columns != nil {
		return table.FromRows(structured.Columns, structured.Rows)
	}

	var objects []map[string]any
	if err := json.Unmarshal(data, &objects); err == nil {
		return table.FromMaps(objects), nil
	}

	var single map[string]any
	if err := json.Unmarshal(data, &single); err == nil {
		return table.FromMaps([]map[string]any{single}), nil
	}

	return nil, errs.ErrFile.New("json input is neither an array of objects nor a {columns,rows} object")
}

// WriteJSON serializes t as array-of-objects, the canonical export
// shape; WriteJSONStructured produces the alternative {columns, rows}
// form when a caller wants to round-trip column order explicitly.
func WriteJSON(t *table.Table) ([]byte, error) {
	objs := make([]map[string]any, t.RowCount())
	for i, row := range t.Rows {
		obj := make(map[string]any, len(t.Columns))
		for j, col := range t.Columns {
			if row[j].IsNull() {
				obj[col] = nil
			} else {
				obj[col] = row[j].Value()
			}
		}
		objs[i] = obj
	}
	out, err := json.Marshal(objs)
	if err != nil {
		return nil, errs.ErrFile.New("marshal json: %s", err)
	}
	return out, nil
}

// WriteJSONStructured serializes t as {columns, rows}.
func WriteJSONStructured(t *table.Table) ([]byte, error) {
	rows := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		r := make([]any, len(row))
		for j, c := range row {
			if c.IsNull() {
				r[j] = nil
			} else {
				r[j] = c.Value()
			}
		}
		rows[i] = r
	}
	out, err := json.Marshal(structuredJSON{Columns: t.Columns, Rows: rows})
	if err != nil {
		return nil, errs.ErrFile.New("marshal structured json: %s", err)
	}
	return out, nil
}
