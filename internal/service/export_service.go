package service

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/sahay-platform/insights-engine/internal/dto"
	"github.com/sahay-platform/insights-engine/internal/observability"
	"github.com/sahay-platform/insights-engine/internal/privacy"
	"github.com/sahay-platform/insights-engine/internal/tabular"
)

// exportColumns is the preferred column order for wellness exports. Free-text
// columns are never listed here and are stripped before release.
var exportColumns = []string{
	"session_id",
	"student_pseudonym",
	"created_at",
	"mood_score",
	"anxiety_score",
	"screener_type",
	"total_score",
	"risk_level",
	"needs_escalation",
}

// freeTextColumns must never appear in aggregate output.
var freeTextColumns = []string{"notes", "action_text", "content"}

// ExportService produces anonymized tabular releases: the subject identifier
// column is replaced by its pseudonym, suppressed groups are absent entirely,
// and released timestamps are truncated to the hour.
type ExportService interface {
	WellnessTable(start, end time.Time) (dto.ExportTable, error)
}

type exportService struct {
	store         *tabular.Store
	pseudonymizer *privacy.Pseudonymizer
	filter        *privacy.KAnonymityFilter
	retentionDays int
	logger        zerolog.Logger
	now           func() time.Time
}

// NewExportService constructs the export service. retentionDays is the global
// retention default applied when a student has no explicit retention period.
func NewExportService(
	store *tabular.Store,
	pseudonymizer *privacy.Pseudonymizer,
	filter *privacy.KAnonymityFilter,
	retentionDays int,
	logger zerolog.Logger,
) ExportService {
	return &exportService{
		store:         store,
		pseudonymizer: pseudonymizer,
		filter:        filter,
		retentionDays: retentionDays,
		logger:        logger.With().Str("component", "export_service").Logger(),
		now:           time.Now,
	}
}

func (s *exportService) WellnessTable(start, end time.Time) (dto.ExportTable, error) {
	rows, err := s.store.Filter(tabular.TableWellnessSessions, func(row tabular.Row) bool {
		at, ok := tabular.Time(row, "created_at")
		if !ok {
			return false
		}
		if !start.IsZero() && at.Before(start) {
			return false
		}
		if !end.IsZero() && at.After(end) {
			return false
		}
		return true
	})
	if err != nil {
		return dto.ExportTable{}, fmt.Errorf("failed to load wellness sessions: %w", err)
	}

	rows, err = s.applyConsentAndRetention(rows)
	if err != nil {
		return dto.ExportTable{}, err
	}

	rows = s.pseudonymizeRows(rows)

	// Sequential suppression over the quasi-identifiers, whole groups only.
	rows = s.filter.Suppress(rows, riskLevelKey)
	if len(rows) > 0 {
		if _, ok := rows[0]["screener_type"]; ok {
			rows = s.filter.Suppress(rows, func(row tabular.Row) (string, bool) {
				return tabular.String(row, "screener_type")
			})
		}
	}

	rows = privacy.TruncateTimestamps(rows, "created_at")

	table := buildExportTable(rows)
	observability.ExportRowsReleased().Add(float64(len(table.Records)))
	s.logger.Info().Int("rows", len(table.Records)).Msg("anonymized wellness export prepared")
	return table, nil
}

// applyConsentAndRetention drops rows for students who opted out of anonymous
// sharing and rows older than the student's retention period (falling back to
// the global default). Students missing from the table are excluded: consent
// is opt-in, never assumed.
func (s *exportService) applyConsentAndRetention(rows []tabular.Row) ([]tabular.Row, error) {
	students, err := s.store.Rows(tabular.TableStudents)
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}

	type policy struct {
		sharing   bool
		retention int
	}
	policies := make(map[string]policy, len(students))
	for _, row := range students {
		id, ok := tabular.String(row, "student_id")
		if !ok {
			continue
		}
		p := policy{retention: s.retentionDays}
		if sharing, ok := tabular.Bool(row, "anonymous_sharing"); ok {
			p.sharing = sharing
		}
		if retention, ok := tabular.Float(row, "retention_period"); ok && retention > 0 {
			p.retention = int(retention)
		}
		policies[id] = p
	}

	now := s.now()
	kept := make([]tabular.Row, 0, len(rows))
	for _, row := range rows {
		id, _ := tabular.String(row, "student_id")
		p, ok := policies[id]
		if !ok || !p.sharing {
			continue
		}
		at, ok := tabular.Time(row, "created_at")
		if !ok || at.Before(now.AddDate(0, 0, -p.retention)) {
			continue
		}
		kept = append(kept, row)
	}
	return kept, nil
}

// pseudonymizeRows replaces the raw identifier with its pseudonym and strips
// free-text columns on copies of the rows.
func (s *exportService) pseudonymizeRows(rows []tabular.Row) []tabular.Row {
	out := make([]tabular.Row, 0, len(rows))
	for _, row := range rows {
		clone := tabular.CloneRow(row)
		if id, ok := tabular.String(clone, "student_id"); ok {
			clone["student_pseudonym"] = s.pseudonymizer.Pseudonymize(id)
		}
		delete(clone, "student_id")
		for _, column := range freeTextColumns {
			delete(clone, column)
		}
		out = append(out, clone)
	}
	return out
}

func buildExportTable(rows []tabular.Row) dto.ExportTable {
	if len(rows) == 0 {
		return dto.ExportTable{Header: []string{}, Records: [][]string{}}
	}

	present := make(map[string]struct{})
	for _, row := range rows {
		for column := range row {
			present[column] = struct{}{}
		}
	}

	header := make([]string, 0, len(present))
	for _, column := range exportColumns {
		if _, ok := present[column]; ok {
			header = append(header, column)
			delete(present, column)
		}
	}
	extras := make([]string, 0, len(present))
	for column := range present {
		extras = append(extras, column)
	}
	sort.Strings(extras)
	header = append(header, extras...)

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		record := make([]string, len(header))
		for i, column := range header {
			record[i] = formatCell(row[column])
		}
		records = append(records, record)
	}
	return dto.ExportTable{Header: header, Records: records}
}

func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case []string:
		out := ""
		for i, item := range v {
			if i > 0 {
				out += "|"
			}
			out += item
		}
		return out
	default:
		return fmt.Sprintf("%v", v)
	}
}
