package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sahay-platform/insights-engine/internal/tabular"
)

// Column decoding rules for the input CSVs. Pipe-delimited multi-value
// columns and typed columns are converted to native values before the rows
// reach the engine, which only ever sees decoded tables.
var (
	pipeColumns = map[string]struct{}{
		"interests": {},
	}
	timeColumns = map[string]struct{}{
		"created_at":      {},
		"enrollment_date": {},
	}
	boolColumns = map[string]struct{}{
		"data_consent":      {},
		"anonymous_sharing": {},
		"needs_escalation":  {},
	}
	floatColumns = map[string]struct{}{
		"mood_score":       {},
		"anxiety_score":    {},
		"total_score":      {},
		"quiz_score":       {},
		"focus_score":      {},
		"duration_minutes": {},
		"retention_period": {},
	}
)

// loadTable reads <dir>/<name>.csv into decoded rows. A missing file loads an
// empty table so a partial data directory still produces a complete report.
func loadTable(store *tabular.Store, dir, name string) (int, error) {
	path := filepath.Join(dir, name+".csv")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, store.Load(name, []tabular.Row{})
		}
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return 0, store.Load(name, []tabular.Row{})
	}

	header := records[0]
	rows := make([]tabular.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(tabular.Row, len(header))
		for i, column := range header {
			if i >= len(record) {
				continue
			}
			row[column] = decodeCell(column, record[i])
		}
		rows = append(rows, row)
	}

	if err := store.Load(name, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func decodeCell(column, raw string) any {
	raw = strings.TrimSpace(raw)
	if _, ok := pipeColumns[column]; ok {
		if raw == "" {
			return []string{}
		}
		return strings.Split(raw, "|")
	}
	if _, ok := timeColumns[column]; ok {
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, raw); err == nil {
				return ts.UTC()
			}
		}
		return raw
	}
	if _, ok := boolColumns[column]; ok {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return false
		}
		return value
	}
	if _, ok := floatColumns[column]; ok {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0.0
		}
		return value
	}
	return raw
}
