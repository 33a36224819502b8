package profile

import (
	"sort"

	"github.com/channely/datablocks-editor/table"
)

const topValuesN = 5

func columnProfileOf(t *table.Table, name string) ColumnProfile {
	values, _ := t.Column(name)
	cm := t.Meta.Columns[name]

	cp := ColumnProfile{Name: name}
	if cm != nil {
		cp.InferredType = cm.Type
	}
	pr := table.DetectPattern(values)
	if pr.Pattern != "" {
		cp.Patterns = []string{pr.Pattern}
	}
	cp.Confidence = pr.Confidence

	total := len(values)
	nullCount := 0
	seen := make(map[string]struct{}, total)
	freq := make(map[string]int, total)
	for _, c := range values {
		if c.IsNull() {
			nullCount++
			continue
		}
		s := c.String()
		seen[s] = struct{}{}
		freq[s]++
	}
	if total > 0 {
		cp.NullPercent = 100 * float64(nullCount) / float64(total)
		cp.UniquePercent = 100 * float64(len(seen)) / float64(total)
	}
	cp.TopValues = topFrequent(freq)

	switch cp.InferredType {
	case table.KindNumber:
		stats := table.Stats(values)
		mean, med, sd := stats.Avg, table.Median(values), table.StdDev(values)
		minV, maxV := stats.Min, stats.Max
		if minV != nil {
			m := minV.Num
			cp.Min = &m
		}
		if maxV != nil {
			m := maxV.Num
			cp.Max = &m
		}
		cp.Mean = &mean
		cp.Median = &med
		cp.StdDev = &sd
	case table.KindText:
		minLen, maxLen, sumLen, n := 0, 0, 0, 0
		for _, c := range values {
			if c.IsNull() {
				continue
			}
			l := len(c.String())
			if n == 0 || l < minLen {
				minLen = l
			}
			if l > maxLen {
				maxLen = l
			}
			sumLen += l
			n++
		}
		if n > 0 {
			meanLen := float64(sumLen) / float64(n)
			cp.MeanLength = &meanLen
			cp.MinLength = &minLen
			cp.MaxLength = &maxLen
		}
	}
	return cp
}

func topFrequent(freq map[string]int) []FrequentValue {
	out := make([]FrequentValue, 0, len(freq))
	for v, c := range freq {
		out = append(out, FrequentValue{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > topValuesN {
		out = out[:topValuesN]
	}
	return out
}
