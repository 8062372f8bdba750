package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/sahay-platform/insights-engine/internal/models"
	"github.com/sahay-platform/insights-engine/internal/observability"
	"github.com/sahay-platform/insights-engine/internal/privacy"
	"github.com/sahay-platform/insights-engine/internal/tabular"
)

// Mean anxiety thresholds for the temporal rule. Groups at or below the
// report threshold are not reported at all; absence of a pattern is the
// "nothing notable" case.
const (
	temporalReportThreshold = 6.0
	temporalHighThreshold   = 8.0
)

// recommended_actions lookup tables. Keyed by severity or risk level, never
// derived per-row, so recommendations cannot vary with identifiable detail.
var (
	temporalActions = map[string][]string{
		models.SeverityMedium: {
			"Monitor stress levels during the identified hours",
			"Share relaxation resources in the affected time slots",
		},
		models.SeverityHigh: {
			"Schedule support during high-stress hours",
			"Alert wellness staff to the identified time window",
		},
	}

	riskActions = map[models.RiskLevel][]string{
		models.RiskL1: {"Continue routine wellness check-ins"},
		models.RiskL2: {
			"Increase availability of counseling slots",
			"Promote stress management workshops",
		},
		models.RiskL3: {
			"Escalate to counseling services",
			"Review screening cadence for the cohort",
		},
	}

	academicActions = map[string][]string{
		models.SeverityMedium: {
			"Review pacing for the affected topics",
			"Offer optional revision sessions",
		},
		models.SeverityHigh: {
			"Provide additional resources for challenging topics",
			"Consider re-teaching the affected material",
		},
	}
)

// PatternDetector runs the detection rules over a snapshot of session rows.
// Stateless: every call evaluates the rules against the rows it is given,
// and every rule independently applies k-anonymity suppression.
type PatternDetector interface {
	Detect(wellness, learning []tabular.Row, classID string, windowDays int) []models.Pattern
}

type patternDetector struct {
	filter *privacy.KAnonymityFilter
	logger zerolog.Logger
	now    func() time.Time
}

// NewPatternDetector constructs a detector bound to an anonymity filter.
func NewPatternDetector(filter *privacy.KAnonymityFilter, logger zerolog.Logger) PatternDetector {
	return &patternDetector{
		filter: filter,
		logger: logger.With().Str("component", "pattern_detector").Logger(),
		now:    time.Now,
	}
}

func (d *patternDetector) Detect(wellness, learning []tabular.Row, classID string, windowDays int) []models.Pattern {
	patterns := make([]models.Pattern, 0)

	patterns = append(patterns, d.runRule("temporal", func() ([]models.Pattern, error) {
		return d.temporalRule(wellness, classID, windowDays)
	})...)
	patterns = append(patterns, d.runRule("risk", func() ([]models.Pattern, error) {
		return d.riskRule(wellness, classID, windowDays)
	})...)
	if classID != "" {
		patterns = append(patterns, d.runRule("academic", func() ([]models.Pattern, error) {
			return d.academicRule(learning, classID, windowDays)
		})...)
	}

	for _, pattern := range patterns {
		observability.PatternsEmitted().WithLabelValues(pattern.PatternType, pattern.Severity).Inc()
	}
	return patterns
}

// runRule isolates rule failures: one broken rule is logged and skipped so
// the rest of the batch still runs.
func (d *patternDetector) runRule(name string, rule func() ([]models.Pattern, error)) []models.Pattern {
	patterns, err := rule()
	if err != nil {
		d.logger.Warn().Err(err).Str("rule", name).Msg("detection rule skipped")
		return nil
	}
	return patterns
}

// temporalRule groups wellness sessions by hour-of-day and reports surviving
// groups whose mean anxiety exceeds the report threshold.
func (d *patternDetector) temporalRule(wellness []tabular.Row, classID string, windowDays int) ([]models.Pattern, error) {
	if len(wellness) == 0 {
		return nil, nil
	}
	if err := requireColumns(wellness, "created_at", "anxiety_score"); err != nil {
		return nil, err
	}

	kept := d.filter.Suppress(wellness, hourOfDayKey)
	groups := tabular.GroupRows(kept, hourOfDayKey)

	hours := make([]string, 0, len(groups))
	for hour := range groups {
		hours = append(hours, hour)
	}
	sort.Strings(hours)

	patterns := make([]models.Pattern, 0)
	for _, hour := range hours {
		rows := groups[hour]
		mean := meanColumn(rows, "anxiety_score")
		if mean <= temporalReportThreshold {
			continue
		}

		severity := models.SeverityMedium
		if mean >= temporalHighThreshold {
			severity = models.SeverityHigh
		}

		patterns = append(patterns, models.Pattern{
			ID:          uuid.NewString(),
			PatternType: models.PatternTemporal,
			KCount:      len(rows),
			PatternData: datatypes.JSONMap{
				"hour":         hour,
				"mean_anxiety": mean,
				"description":  fmt.Sprintf("High anxiety at hour %s", hour),
			},
			Severity:           severity,
			RecommendedActions: temporalActions[severity],
			ClassID:            classID,
			TimeWindowDays:     windowDays,
			CreatedAt:          d.now(),
		})
	}
	return patterns, nil
}

// riskRule groups wellness sessions by risk level. The percentage in the
// pattern data is computed against the unfiltered window total, so the
// denominator never discloses a sub-threshold group.
func (d *patternDetector) riskRule(wellness []tabular.Row, classID string, windowDays int) ([]models.Pattern, error) {
	if len(wellness) == 0 {
		return nil, nil
	}
	if err := requireColumns(wellness, "risk_level"); err != nil {
		return nil, err
	}

	total := len(wellness)
	kept := d.filter.Suppress(wellness, riskLevelKey)
	groups := tabular.GroupRows(kept, riskLevelKey)

	levels := make([]string, 0, len(groups))
	for level := range groups {
		levels = append(levels, level)
	}
	sort.Slice(levels, func(i, j int) bool {
		return models.RiskLevel(levels[i]).Ordinal() < models.RiskLevel(levels[j]).Ordinal()
	})

	patterns := make([]models.Pattern, 0)
	for _, level := range levels {
		rows := groups[level]
		severity := models.SeverityMedium
		if models.RiskLevel(level) == models.RiskL3 {
			severity = models.SeverityHigh
		}

		patterns = append(patterns, models.Pattern{
			ID:          uuid.NewString(),
			PatternType: models.PatternRisk,
			KCount:      len(rows),
			PatternData: datatypes.JSONMap{
				"risk_level": level,
				"percentage": float64(len(rows)) / float64(total) * 100,
			},
			Severity:           severity,
			RecommendedActions: riskActions[models.RiskLevel(level)],
			ClassID:            classID,
			TimeWindowDays:     windowDays,
			CreatedAt:          d.now(),
		})
	}
	return patterns, nil
}

// academicRule only runs with a class scope. It reports low-comprehension
// groups that survive suppression, escalating when the group exceeds twice
// the anonymity threshold.
func (d *patternDetector) academicRule(learning []tabular.Row, classID string, windowDays int) ([]models.Pattern, error) {
	if len(learning) == 0 {
		return nil, nil
	}
	if err := requireColumns(learning, "comprehension_level"); err != nil {
		return nil, err
	}

	kept := d.filter.Suppress(learning, comprehensionKey)
	groups := tabular.GroupRows(kept, comprehensionKey)

	rows, ok := groups[models.ComprehensionLow]
	if !ok {
		return nil, nil
	}

	severity := models.SeverityMedium
	if len(rows) > 2*d.filter.K() {
		severity = models.SeverityHigh
	}

	return []models.Pattern{{
		ID:          uuid.NewString(),
		PatternType: models.PatternAcademic,
		KCount:      len(rows),
		PatternData: datatypes.JSONMap{
			"comprehension_level": models.ComprehensionLow,
			"topics":              topTopicCounts(rows, 3),
		},
		Severity:           severity,
		RecommendedActions: academicActions[severity],
		ClassID:            classID,
		TimeWindowDays:     windowDays,
		CreatedAt:          d.now(),
	}}, nil
}

func hourOfDayKey(row tabular.Row) (string, bool) {
	ts, ok := tabular.Time(row, "created_at")
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%02d", ts.Hour()), true
}

func riskLevelKey(row tabular.Row) (string, bool) {
	return tabular.String(row, "risk_level")
}

func comprehensionKey(row tabular.Row) (string, bool) {
	return tabular.String(row, "comprehension_level")
}

// requireColumns checks the first row for the named columns. Rows in a table
// share a schema, so one row is representative.
func requireColumns(rows []tabular.Row, columns ...string) error {
	for _, column := range columns {
		if _, ok := rows[0][column]; !ok {
			return fmt.Errorf("rows are missing column %q", column)
		}
	}
	return nil
}

func meanColumn(rows []tabular.Row, column string) float64 {
	if len(rows) == 0 {
		return 0
	}
	sum := 0.0
	counted := 0
	for _, row := range rows {
		if value, ok := tabular.Float(row, column); ok {
			sum += value
			counted++
		}
	}
	if counted == 0 {
		return 0
	}
	return sum / float64(counted)
}

// topTopicCounts returns the most frequent topics in the rows, capped at n.
func topTopicCounts(rows []tabular.Row, n int) map[string]int {
	counts := make(map[string]int)
	for _, row := range rows {
		if topic, ok := tabular.String(row, "topic"); ok && topic != "" {
			counts[topic]++
		}
	}

	topics := make([]string, 0, len(counts))
	for topic := range counts {
		topics = append(topics, topic)
	}
	sort.Slice(topics, func(i, j int) bool {
		if counts[topics[i]] != counts[topics[j]] {
			return counts[topics[i]] > counts[topics[j]]
		}
		return topics[i] < topics[j]
	})

	if len(topics) > n {
		topics = topics[:n]
	}
	top := make(map[string]int, len(topics))
	for _, topic := range topics {
		top[topic] = counts[topic]
	}
	return top
}
