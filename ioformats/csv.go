// Package ioformats implements the import/export surface // describes: CSV/TSV, JSON, pasted text, and HTTP ingestion, dispatched
// by content type the way a result-set encoder picks its wire format.
package ioformats

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/channely/datablocks-editor/errs"
	"github.com/channely/datablocks-editor/table"
)

// CSVOptions configures both ParseCSV and WriteCSV: delimiter, header
// inclusion and null marker. The quote character is not configurable;
// it is always the double quote.
type CSVOptions struct {
	Delimiter  rune
	HasHeader  bool
	NullMarker string
}

// DefaultCSVOptions is the common case: comma-delimited, header
// present, empty string marks null.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{Delimiter: ',', HasHeader: true, NullMarker: ""}
}

// TSVOptions is CSVOptions with a tab delimiter, per "TSV = CSV with \t
// delimiter".
func TSVOptions() CSVOptions {
	o := DefaultCSVOptions()
	o.Delimiter = '\t'
	return o
}

// ParseCSV tokenizes with encoding/csv (the one stdlib-only choice in
// this package — no CSV library appears anywhere in the retrieved
// pack) and maps null-marker cells to Null, leaving the rest as text
// for Table.Infer to later type.
func ParseCSV(data []byte, opts CSVOptions) (*table.Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = opts.Delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = false

	records, err := r.ReadAll()
	if err != nil {
		return nil, errs.ErrFile.New("parse csv: %s", err)
	}
	if len(records) == 0 {
		return table.New(nil), nil
	}

	var columns []string
	dataRows := records
	if opts.HasHeader {
		columns = records[0]
		dataRows = records[1:]
	} else {
		for i := range records[0] {
			columns = append(columns, columnLetter(i))
		}
	}

	rows := make([][]any, len(dataRows))
	for i, rec := range dataRows {
		row := make([]any, len(columns))
		for j := range columns {
			if j >= len(rec) {
				row[j] = nil
				continue
			}
			v := rec[j]
			if v == opts.NullMarker {
				row[j] = nil
			} else {
				row[j] = v
			}
		}
		rows[i] = row
	}
	return table.FromRows(columns, rows)
}

func columnLetter(i int) string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	if i < len(letters) {
		return string(letters[i])
	}
	return string(letters[i/len(letters)-1]) + string(letters[i%len(letters)])
}

// WriteCSV serializes t following escaping rule: quote
// any field containing the delimiter, the quote character, CR, or LF,
// and escape embedded quotes by doubling them. encoding/csv.Writer
// already implements exactly this for comma/tab delimiters, so this is
// a thin wrapper rather than a reimplementation.
func WriteCSV(t *table.Table, opts CSVOptions) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = opts.Delimiter

	if opts.HasHeader {
		if err := w.Write(t.Columns); err != nil {
			return nil, errs.ErrFile.New("write csv header: %s", err)
		}
	}
	for _, row := range t.Rows {
		rec := make([]string, len(row))
		for i, c := range row {
			if c.IsNull() {
				rec[i] = opts.NullMarker
			} else {
				rec[i] = c.String()
			}
		}
		if err := w.Write(rec); err != nil {
			return nil, errs.ErrFile.New("write csv row: %s", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errs.ErrFile.New("flush csv: %s", err)
	}
	return buf.Bytes(), nil
}

// sniffDelimiter is used by the paste-input CSV subtype when the
// caller hasn't pinned one: count commas vs tabs on the first line.
func sniffDelimiter(data []byte) rune {
	firstLine := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		firstLine = data[:idx]
	}
	line := string(firstLine)
	if strings.Count(line, "\t") > strings.Count(line, ",") {
		return '\t'
	}
	return ','
}
