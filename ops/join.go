package ops

import (
	"github.com/cespare/xxhash"

	"github.com/channely/datablocks-editor/table"
)

// JoinType is one of the four supported join variants.
type JoinType string

const (
	JoinInner JoinType = "inner"
	JoinLeft  JoinType = "left"
	JoinRight JoinType = "right"
	JoinOuter JoinType = "outer"
)

// JoinSpec is join's configuration.
type JoinSpec struct {
	Type     JoinType
	LeftKey  string
	RightKey string
	Suffix   string
}

// Join combines left and right on spec.LeftKey = spec.RightKey. Output
// columns are leftColumns ++ (rightColumns \ rightKey); a name clash
// with a left column gets spec.Suffix appended. Matching uses an
// equality hash on the right side; nulls never match other nulls.
func Join(left, right *table.Table, spec JoinSpec) (*table.Table, error) {
	leftIdx, err := left.ColumnIndex(spec.LeftKey)
	if err != nil {
		return nil, err
	}
	rightIdx, err := right.ColumnIndex(spec.RightKey)
	if err != nil {
		return nil, err
	}

	rightColumnsKept := make([]int, 0, len(right.Columns))
	for i, c := range right.Columns {
		if i == rightIdx {
			continue
		}
		rightColumnsKept = append(rightColumnsKept, i)
	}

	outColumns := append([]string(nil), left.Columns...)
	leftNames := make(map[string]bool, len(left.Columns))
	for _, c := range left.Columns {
		leftNames[c] = true
	}
	for _, ci := range rightColumnsKept {
		name := right.Columns[ci]
		if leftNames[name] {
			name += spec.Suffix
		}
		outColumns = append(outColumns, name)
	}

	// Hash the right side by key for O(1) lookup of candidate matches.
	rightBuckets := make(map[uint64][]int)
	for ri, row := range right.Rows {
		cell := row[rightIdx]
		if cell.IsNull() {
			continue
		}
		h := hashCell(cell)
		rightBuckets[h] = append(rightBuckets[h], ri)
	}

	matchedRight := make([]bool, len(right.Rows))
	var outRows [][]table.Cell

	emitRow := func(leftRow []table.Cell, rightRow []table.Cell) []table.Cell {
		row := make([]table.Cell, 0, len(outColumns))
		if leftRow != nil {
			row = append(row, leftRow...)
		} else {
			for range left.Columns {
				row = append(row, table.Null)
			}
		}
		if rightRow != nil {
			for _, ci := range rightColumnsKept {
				row = append(row, rightRow[ci])
			}
		} else {
			for range rightColumnsKept {
				row = append(row, table.Null)
			}
		}
		return row
	}

	for _, leftRow := range left.Rows {
		cell := leftRow[leftIdx]
		var matches []int
		if !cell.IsNull() {
			for _, ri := range rightBuckets[hashCell(cell)] {
				if cell.Equal(right.Rows[ri][rightIdx]) {
					matches = append(matches, ri)
				}
			}
		}
		if len(matches) == 0 {
			if spec.Type == JoinLeft || spec.Type == JoinOuter {
				outRows = append(outRows, emitRow(leftRow, nil))
			}
			continue
		}
		for _, ri := range matches {
			matchedRight[ri] = true
			outRows = append(outRows, emitRow(leftRow, right.Rows[ri]))
		}
	}

	if spec.Type == JoinRight || spec.Type == JoinOuter {
		for ri, rightRow := range right.Rows {
			if matchedRight[ri] {
				continue
			}
			row := emitRow(nil, rightRow)
			// Fill the left key position with the right key's value.
			row[leftIdx] = rightRow[rightIdx]
			outRows = append(outRows, row)
		}
	}

	return table.Derive(outColumns, outRows, table.OriginDerived), nil
}

func hashCell(c table.Cell) uint64 {
	return xxhash.Sum64String(c.String())
}
