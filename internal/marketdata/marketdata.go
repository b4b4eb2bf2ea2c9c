// Package marketdata reads the two upstream tables — trade executions and
// the consolidated quote stream — into domain types. Files are delimited
// text with a header row; column names are matched case-insensitively and
// the upstream system's FIX-derived names are accepted as aliases. The
// quote stream can exceed memory and is only ever consumed row by row.
package marketdata

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"sor_go/internal/domain"
)

// fixTimeLayout is the upstream FIX transact-time format.
const fixTimeLayout = "20060102-15:04:05.000000"

// ParseTimestamp accepts the three timestamp encodings seen upstream:
// integer nanoseconds since epoch (SIP feeds), FIX transact time
// "YYYYMMDD-HH:MM:SS.ffffff", and RFC3339.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, &domain.RecordError{Field: "timestamp", Reason: "empty"}
	}

	if ns, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(0, ns).UTC(), nil
	}
	if t, err := time.Parse(fixTimeLayout, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("20060102-15:04:05", s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, &domain.RecordError{Field: "timestamp", Reason: "unparseable " + s}
}

// InMarketHours reports whether t falls inside regular trading hours,
// 09:30 through 16:00. The 16:00:00 boundary minute is included.
func InMarketHours(t time.Time) bool {
	h, m := t.Hour(), t.Minute()
	switch {
	case h == 9:
		return m >= 30
	case h >= 10 && h < 16:
		return true
	case h == 16:
		return m == 0
	default:
		return false
	}
}

// columnIndex resolves a header row against an alias table mapping raw
// column names (lowercased) to canonical field names. Missing required
// columns are a batch-fatal configuration problem.
func columnIndex(header []string, aliases map[string]string, required []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if canonical, ok := aliases[key]; ok {
			if _, dup := cols[canonical]; !dup {
				cols[canonical] = i
			}
		}
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, &domain.ConfigError{
				Field: name,
				Err:   fmt.Errorf("column not found in header %v", header),
			}
		}
	}
	return cols, nil
}

// field returns the raw cell for a canonical column, or "" when the row is
// short or the optional column is absent.
func field(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
