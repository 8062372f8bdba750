package tabular

import "sync"

// Store is an in-memory columnar table abstraction over named record sets.
// Tables are replaced wholesale via Load; reads never mutate stored rows.
// The lock serializes writers per store so a reload cannot be observed torn.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table
}

type table struct {
	rows    []Row
	columns map[string]struct{}
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{tables: make(map[string]*table)}
}

// Load replaces or initializes a named table. For tables the engine depends
// on, every row must carry the required columns; schema problems are reported
// once here rather than scattered through every aggregation call.
func (s *Store) Load(name string, rows []Row) error {
	required := requiredColumns[name]
	columns := make(map[string]struct{})
	for _, row := range rows {
		for _, column := range required {
			if _, ok := row[column]; !ok {
				return &SchemaError{Table: name, Column: column}
			}
		}
		for column := range row {
			columns[column] = struct{}{}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = &table{rows: rows, columns: columns}
	return nil
}

// Rows returns a copy of the table's row slice.
func (s *Store) Rows(name string) ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return nil, &SchemaError{Table: name}
	}
	return append([]Row(nil), t.rows...), nil
}

// Count returns the number of rows in a table, zero when it is not loaded.
func (s *Store) Count(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return 0
	}
	return len(t.rows)
}

// HasColumn reports whether any loaded row of the table carries the column.
func (s *Store) HasColumn(name, column string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return false
	}
	_, ok = t.columns[column]
	return ok
}

// RequireColumns returns a SchemaError naming the first column the table does
// not carry, so rules can fail early instead of mid-aggregation.
func (s *Store) RequireColumns(name string, columns ...string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return &SchemaError{Table: name}
	}
	for _, column := range columns {
		if _, ok := t.columns[column]; !ok {
			return &SchemaError{Table: name, Column: column}
		}
	}
	return nil
}

// Filter returns the subset of rows matching the predicate. The source table
// is never mutated; the result shares row maps but not the slice.
func (s *Store) Filter(name string, pred func(Row) bool) ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return nil, &SchemaError{Table: name}
	}

	matched := make([]Row, 0)
	for _, row := range t.rows {
		if pred(row) {
			matched = append(matched, row)
		}
	}
	return matched, nil
}

// GroupBy buckets the table's rows by a derived key, preserving load order
// within each bucket. Grouping keys are typically computed values such as
// hour-of-day or risk level rather than raw columns.
func (s *Store) GroupBy(name string, keyFn func(Row) (string, bool)) (map[string][]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return nil, &SchemaError{Table: name}
	}
	return GroupRows(t.rows, keyFn), nil
}
