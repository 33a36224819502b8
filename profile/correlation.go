package profile

import (
	"math"

	"github.com/channely/datablocks-editor/table"
)

// Correlate computes pairwise Pearson correlation over every pair of
// numeric columns, reporting only |r| > 0.5 . Plain
// math suffices here — see DESIGN.md for why no matrix/stats library
// from the pack was pulled in for this.
func Correlate(t *table.Table) []Correlation {
	var numericCols []string
	for _, name := range t.Columns {
		if cm := t.Meta.Columns[name]; cm != nil && cm.Type == table.KindNumber {
			numericCols = append(numericCols, name)
		}
	}

	var out []Correlation
	for i := 0; i < len(numericCols); i++ {
		for j := i + 1; j < len(numericCols); j++ {
			a, _ := t.Column(numericCols[i])
			b, _ := t.Column(numericCols[j])
			r, ok := pearson(a, b)
			if !ok {
				continue
			}
			if math.Abs(r) > 0.5 {
				out = append(out, Correlation{ColumnA: numericCols[i], ColumnB: numericCols[j], R: r})
			}
		}
	}
	return out
}

func pearson(a, b []table.Cell) (float64, bool) {
	n := len(a)
	if n != len(b) || n == 0 {
		return 0, false
	}
	var xs, ys []float64
	for i := 0; i < n; i++ {
		xf, okx := a[i].AsFloat64()
		yf, oky := b[i].AsFloat64()
		if !okx || !oky {
			continue
		}
		xs = append(xs, xf)
		ys = append(ys, yf)
	}
	if len(xs) < 2 {
		return 0, false
	}
	var sx, sy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
	}
	mx, my := sx/float64(len(xs)), sy/float64(len(ys))

	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0, false
	}
	return cov / math.Sqrt(vx*vy), true
}
