package ioformats

import (
	"strings"

	"github.com/channely/datablocks-editor/errs"
	"github.com/channely/datablocks-editor/table"
)

// PasteSubtype selects the pasted-text parser, // "dispatch on configured subtype (table/csv/json)".
type PasteSubtype string

const (
	PasteTable PasteSubtype = "table"
	PasteCSV   PasteSubtype = "csv"
	PasteJSON  PasteSubtype = "json"
)

// ParsePaste dispatches pasted text to the configured parser. The
// "table" subtype treats the text as tab-delimited rows
// with a header line, the common copy-from-spreadsheet shape; "csv"
// reuses ParseCSV with a sniffed delimiter so both comma- and
// tab-separated pastes work without extra configuration.
func ParsePaste(text string, subtype PasteSubtype) (*table.Table, error) {
	switch subtype {
	case PasteCSV:
		opts := DefaultCSVOptions()
		opts.Delimiter = sniffDelimiter([]byte(text))
		return ParseCSV([]byte(text), opts)
	case PasteJSON:
		return ParseJSON([]byte(text))
	case PasteTable:
		return parsePastedTable(text)
	default:
		return nil, errs.ErrValidation.New("unknown paste subtype %q", subtype)
	}
}

func parsePastedTable(text string) (*table.Table, error) {
	lines := splitNonEmptyLines(text)
	if len(lines) == 0 {
		return table.New(nil), nil
	}
	columns := strings.Split(lines[0], "\t")
	for i := range columns {
		columns[i] = strings.TrimSpace(columns[i])
	}
	rows := make([][]any, 0, len(lines)-1)
	for _, line := range lines[1:] {
		fields := strings.Split(line, "\t")
		row := make([]any, len(columns))
		for i := range columns {
			if i < len(fields) {
				row[i] = strings.TrimSpace(fields[i])
			} else {
				row[i] = nil
			}
		}
		rows = append(rows, row)
	}
	return table.FromRows(columns, rows)
}

func splitNonEmptyLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var out []string
	for _, l := range raw {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
