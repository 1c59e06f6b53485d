package markblog

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are the frontmatter date formats accepted in addition to native timestamps.
var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"January 2, 2006",
}

// anyToString returns a non-empty string, or a bool or number scalar formatted as text.
// Maps, sequences and nil are rejected.
func anyToString(value any) (string, bool) {
	switch val := value.(type) {
	case string:
		return trimmedString(val)
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(val), true
	}
	return "", false
}

// trimmedString returns the trimmed value if it is a non-empty string.
func trimmedString(value any) (string, bool) {
	val, ok := value.(string)
	if !ok {
		return "", false
	}
	val = strings.TrimSpace(val)
	return val, val != ""
}

// anyToStringSlice converts a frontmatter value to a []string. A single string becomes a
// one-element slice and non-string items of a sequence are skipped.
func anyToStringSlice(value any) []string {
	if val, ok := trimmedString(value); ok {
		return []string{val}
	}

	var items []any
	switch val := value.(type) {
	case []any:
		items = val
	case []string:
		for _, s := range val {
			items = append(items, s)
		}
	}

	var result []string
	for _, v := range items {
		if s, ok := trimmedString(v); ok {
			result = append(result, s)
		}
	}
	return result
}

// anyToDate converts a frontmatter value to a YYYY-MM-DD date string.
func anyToDate(value any) (string, bool) {
	switch val := value.(type) {
	case time.Time:
		if val.IsZero() {
			return "", false
		}
		return val.Format(DateLayout), true
	case string:
		val = strings.TrimSpace(val)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, val); err == nil {
				return t.Format(DateLayout), true
			}
		}
	}
	return "", false
}
