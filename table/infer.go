package table

import (
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// datePatterns are the fixed set of date layouts names:
// ISO YYYY-MM-DD, US M/D/YYYY, European D.M.YYYY.
var datePatterns = []string{
	"2006-01-02",
	"1/2/2006",
	"2.1.2006",
}

func looksLikeDate(s string) (time.Time, bool) {
	for _, layout := range datePatterns {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Infer recomputes, for every column, the inferred Kind, nullability,
// and uniqueness flags and writes them into t.Meta.Columns, using a
// fixed precedence: timestamp beats number beats boolean beats text,
// decided over non-null values only.
func (t *Table) Infer() {
	if t.Meta == nil {
		t.Meta = newMetadata(t, OriginDerived)
	}
	t.Meta.RowCount = len(t.Rows)
	t.Meta.ColumnCount = len(t.Columns)
	t.Meta.ModifiedAt = time.Now()

	for ci, name := range t.Columns {
		cm, ok := t.Meta.Columns[name]
		if !ok {
			cm = &ColumnMeta{}
			t.Meta.Columns[name] = cm
		}
		kind, nullable, unique := inferColumn(t.Rows, ci)
		cm.Type = kind
		cm.Nullable = nullable
		cm.Unique = unique
	}
}

func inferColumn(rows [][]Cell, ci int) (kind Kind, nullable bool, unique bool) {
	seen := make(map[string]struct{}, len(rows))
	unique = true
	nonNull := 0

	isTimestamp, isNumber, isBool := true, true, true

	for _, r := range rows {
		c := r[ci]
		if c.IsNull() {
			nullable = true
			continue
		}
		nonNull++
		key := c.String()
		if _, dup := seen[key]; dup {
			unique = false
		} else {
			seen[key] = struct{}{}
		}

		if isTimestamp {
			if c.Kind != KindTimestamp {
				if _, ok := looksLikeDate(strings.TrimSpace(c.String())); !ok {
					isTimestamp = false
				}
			}
		}
		if isNumber {
			if c.Kind != KindNumber {
				if _, err := cast.ToFloat64E(c.String()); err != nil {
					isNumber = false
				}
			}
		}
		if isBool {
			switch c.Kind {
			case KindBool:
			default:
				s := strings.ToLower(strings.TrimSpace(c.String()))
				if s != "true" && s != "false" {
					isBool = false
				}
			}
		}
	}

	if nonNull == 0 {
		return KindText, nullable, unique
	}
	switch {
	case isTimestamp:
		return KindTimestamp, nullable, unique
	case isNumber:
		return KindNumber, nullable, unique
	case isBool:
		return KindBool, nullable, unique
	default:
		return KindText, nullable, unique
	}
}

// Pattern family names recognized by the enhanced inference step.
const (
	PatternEmail    = "email"
	PatternURL      = "url"
	PatternPhone    = "phone"
	PatternCurrency = "currency"
)

var patternRegexes = []struct {
	name string
	re   *regexp.Regexp
}{
	{PatternEmail, regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)},
	{PatternURL, regexp.MustCompile(`^https?://[^\s]+$`)},
	{PatternPhone, regexp.MustCompile(`^\+?[\d\s().-]{7,}$`)},
	{PatternCurrency, regexp.MustCompile(`^[$€£¥]\s?-?\d[\d,]*(\.\d+)?$`)},
}

// PatternResult is the outcome of the enhanced, pattern-aware inference
// step: a dominant pattern family and a confidence equal to the
// largest matched fraction, or 0.5 when no family matches any value.
type PatternResult struct {
	Pattern    string
	Confidence float64
}

// DetectPattern runs the regex families against a column's non-null
// values and reports the dominant one.
func DetectPattern(values []Cell) PatternResult {
	total := 0
	counts := make(map[string]int, len(patternRegexes))
	for _, c := range values {
		if c.IsNull() {
			continue
		}
		total++
		s := strings.TrimSpace(c.String())
		for _, pr := range patternRegexes {
			if pr.re.MatchString(s) {
				counts[pr.name]++
			}
		}
	}
	if total == 0 {
		return PatternResult{Confidence: 0.5}
	}
	bestName := ""
	bestCount := 0
	for _, pr := range patternRegexes {
		if counts[pr.name] > bestCount {
			bestCount = counts[pr.name]
			bestName = pr.name
		}
	}
	if bestName == "" {
		return PatternResult{Confidence: 0.5}
	}
	return PatternResult{Pattern: bestName, Confidence: float64(bestCount) / float64(total)}
}
