package tabular

import "time"

// Row is a single record keyed by column name. Values are the native Go types
// produced by the upstream loader: string, float64, bool, time.Time, []string.
type Row = map[string]any

// String reads a string column from a row.
func String(row Row, column string) (string, bool) {
	value, ok := row[column].(string)
	return value, ok
}

// Float reads a numeric column from a row, accepting ints loaded as such.
func Float(row Row, column string) (float64, bool) {
	switch value := row[column].(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	default:
		return 0, false
	}
}

// Time reads a timestamp column from a row.
func Time(row Row, column string) (time.Time, bool) {
	value, ok := row[column].(time.Time)
	return value, ok
}

// Bool reads a boolean column from a row.
func Bool(row Row, column string) (bool, bool) {
	value, ok := row[column].(bool)
	return value, ok
}

// Strings reads a multi-value column from a row.
func Strings(row Row, column string) ([]string, bool) {
	value, ok := row[column].([]string)
	return value, ok
}

// CloneRow returns a shallow copy of a row so callers can rewrite columns
// without mutating stored data.
func CloneRow(row Row) Row {
	clone := make(Row, len(row))
	for column, value := range row {
		clone[column] = value
	}
	return clone
}

// GroupRows buckets rows by the derived key, preserving input order within
// each bucket. Rows for which keyFn returns ok=false are dropped.
func GroupRows(rows []Row, keyFn func(Row) (string, bool)) map[string][]Row {
	groups := make(map[string][]Row)
	for _, row := range rows {
		key, ok := keyFn(row)
		if !ok {
			continue
		}
		groups[key] = append(groups[key], row)
	}
	return groups
}
