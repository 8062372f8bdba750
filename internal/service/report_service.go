package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/sahay-platform/insights-engine/internal/dto"
	"github.com/sahay-platform/insights-engine/internal/models"
	"github.com/sahay-platform/insights-engine/internal/observability"
	"github.com/sahay-platform/insights-engine/internal/privacy"
	"github.com/sahay-platform/insights-engine/internal/repository"
	"github.com/sahay-platform/insights-engine/internal/tabular"
)

// Recommendation thresholds over the summary metrics.
const (
	anxietyConcernThreshold   = 6.0
	highRiskCriticalPercent   = 20.0
	quizScoreConcernThreshold = 60.0
)

// ReportService composes tabular queries, the anonymity filter, and the
// pattern detector into versioned report documents.
type ReportService interface {
	Generate(ctx context.Context, windowDays int, classID string) (dto.ReportDocument, error)
	Overview(ctx context.Context) (dto.OverviewResponse, error)
}

type reportService struct {
	store    *tabular.Store
	detector PatternDetector
	filter   *privacy.KAnonymityFilter
	patterns repository.PatternRepository
	reports  repository.ReportRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewReportService constructs the report service. The cache client may be nil.
func NewReportService(
	store *tabular.Store,
	detector PatternDetector,
	filter *privacy.KAnonymityFilter,
	patterns repository.PatternRepository,
	reports repository.ReportRepository,
	cache *redis.Client,
	ttl time.Duration,
	logger zerolog.Logger,
) ReportService {
	return &reportService{
		store:    store,
		detector: detector,
		filter:   filter,
		patterns: patterns,
		reports:  reports,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "report_service").Logger(),
		now:      time.Now,
	}
}

func (s *reportService) Generate(ctx context.Context, windowDays int, classID string) (dto.ReportDocument, error) {
	cacheKey := fmt.Sprintf("insights:report:%d:%s", windowDays, classID)
	tracer := otel.Tracer("github.com/sahay-platform/insights-engine/internal/service/report")
	ctx, span := tracer.Start(ctx, "report.generate")
	span.SetAttributes(
		attribute.Int("report.window_days", windowDays),
		attribute.String("report.class_id", classID),
	)
	defer span.End()

	started := s.now()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var document dto.ReportDocument
			if unmarshalErr := json.Unmarshal([]byte(cached), &document); unmarshalErr == nil {
				document.CacheHit = true
				span.SetAttributes(attribute.Bool("report.cache_hit", true))
				return document, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read report cache")
			span.RecordError(err)
		}
	}

	cutoff := started.AddDate(0, 0, -windowDays)

	wellness, err := s.sessionsSince(tabular.TableWellnessSessions, cutoff)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load_wellness_failed")
		return dto.ReportDocument{}, err
	}
	learning, err := s.sessionsSince(tabular.TableLearningSessions, cutoff)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load_learning_failed")
		return dto.ReportDocument{}, err
	}

	if classID != "" {
		wellness, learning = scopeToClass(wellness, learning, classID)
	}

	patterns := s.detector.Detect(wellness, learning, classID, windowDays)
	for i := range patterns {
		if err := s.patterns.Create(ctx, &patterns[i]); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "store_pattern_failed")
			return dto.ReportDocument{}, err
		}
	}

	document := s.buildDocument(windowDays, classID, wellness, learning, patterns)
	span.SetAttributes(
		attribute.Int("report.wellness_sessions", len(wellness)),
		attribute.Int("report.pattern_count", len(patterns)),
	)

	raw, err := json.Marshal(document)
	if err != nil {
		return dto.ReportDocument{}, fmt.Errorf("failed to encode report: %w", err)
	}
	record := models.Report{
		ID:          document.ReportID,
		ClassID:     classID,
		WindowDays:  windowDays,
		Document:    raw,
		GeneratedAt: document.GeneratedAt,
	}
	if err := s.reports.Create(ctx, &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store_report_failed")
		return dto.ReportDocument{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, raw, s.cacheTTL).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to store report cache")
			span.RecordError(err)
		}
	}

	observability.ReportsGenerated().Inc()
	observability.ReportDuration().Observe(time.Since(started).Seconds())

	return document, nil
}

func (s *reportService) buildDocument(windowDays int, classID string, wellness, learning []tabular.Row, patterns []models.Pattern) dto.ReportDocument {
	responses := make([]dto.PatternResponse, 0, len(patterns))
	for _, pattern := range patterns {
		responses = append(responses, dto.NewPatternResponse(pattern))
	}

	wellnessMetrics := buildWellnessMetrics(wellness)
	learningMetrics := buildLearningMetrics(learning)

	document := dto.ReportDocument{
		ReportID:        uuid.NewString(),
		GeneratedAt:     s.now(),
		TimeWindowDays:  windowDays,
		ClassID:         classID,
		TotalStudents:   s.store.Count(tabular.TableStudents),
		ActiveStudents:  distinctStudents(wellness),
		WellnessMetrics: wellnessMetrics,
		LearningMetrics: learningMetrics,
		Patterns:        responses,
	}
	document.Recommendations = buildRecommendations(wellnessMetrics, learningMetrics, patterns)
	return document
}

// Overview computes the k-anonymized dashboard statistics. Distribution
// buckets below the threshold are dropped entirely rather than rounded.
func (s *reportService) Overview(ctx context.Context) (dto.OverviewResponse, error) {
	students, err := s.store.Rows(tabular.TableStudents)
	if err != nil {
		return dto.OverviewResponse{}, err
	}
	wellness, err := s.store.Rows(tabular.TableWellnessSessions)
	if err != nil {
		return dto.OverviewResponse{}, err
	}
	learning, err := s.store.Rows(tabular.TableLearningSessions)
	if err != nil {
		return dto.OverviewResponse{}, err
	}

	k := s.filter.K()

	weeklyMood := make(map[string]float64)
	weekSums := make(map[string]float64)
	weekCounts := make(map[string]int)
	for _, row := range wellness {
		at, okTime := tabular.Time(row, "created_at")
		mood, okMood := tabular.Float(row, "mood_score")
		if !okTime || !okMood {
			continue
		}
		year, week := at.ISOWeek()
		key := fmt.Sprintf("%d-W%02d", year, week)
		weekSums[key] += mood
		weekCounts[key]++
	}
	for key, sum := range weekSums {
		weeklyMood[key] = sum / float64(weekCounts[key])
	}

	return dto.OverviewResponse{
		TotalStudents:         len(students),
		TotalWellnessSessions: len(wellness),
		TotalLearningSessions: len(learning),
		LanguageDistribution:  thresholdedCounts(students, "language_pref", k),
		AgeDistribution:       thresholdedCounts(students, "age_band", k),
		PopularTopics:         thresholdedCounts(learning, "topic", k),
		WeeklyMood:            weeklyMood,
	}, nil
}

func (s *reportService) sessionsSince(table string, cutoff time.Time) ([]tabular.Row, error) {
	rows, err := s.store.Filter(table, func(row tabular.Row) bool {
		at, ok := tabular.Time(row, "created_at")
		return ok && !at.Before(cutoff)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", table, err)
	}
	return rows, nil
}

// scopeToClass restricts learning sessions to the course and wellness
// sessions to the students who attended it.
func scopeToClass(wellness, learning []tabular.Row, classID string) ([]tabular.Row, []tabular.Row) {
	scopedLearning := make([]tabular.Row, 0)
	classStudents := make(map[string]struct{})
	for _, row := range learning {
		course, _ := tabular.String(row, "course_id")
		if course != classID {
			continue
		}
		scopedLearning = append(scopedLearning, row)
		if id, ok := tabular.String(row, "student_id"); ok {
			classStudents[id] = struct{}{}
		}
	}

	scopedWellness := make([]tabular.Row, 0)
	for _, row := range wellness {
		id, _ := tabular.String(row, "student_id")
		if _, ok := classStudents[id]; ok {
			scopedWellness = append(scopedWellness, row)
		}
	}
	return scopedWellness, scopedLearning
}

func buildWellnessMetrics(rows []tabular.Row) dto.WellnessMetrics {
	metrics := dto.WellnessMetrics{
		RiskDistribution: map[string]int{},
		TotalSessions:    len(rows),
	}
	if len(rows) == 0 {
		return metrics
	}

	metrics.AvgMoodScore = meanColumn(rows, "mood_score")
	metrics.AvgAnxietyScore = meanColumn(rows, "anxiety_score")

	highRisk := 0
	for _, row := range rows {
		level, ok := tabular.String(row, "risk_level")
		if !ok {
			continue
		}
		metrics.RiskDistribution[level]++
		if models.RiskLevel(level) == models.RiskL3 {
			highRisk++
		}
	}
	metrics.HighRiskPercentage = float64(highRisk) / float64(len(rows)) * 100
	return metrics
}

func buildLearningMetrics(rows []tabular.Row) dto.LearningMetrics {
	metrics := dto.LearningMetrics{
		ComprehensionDistribution: map[string]int{},
		TotalSessions:             len(rows),
	}
	if len(rows) == 0 {
		return metrics
	}

	metrics.AvgQuizScore = meanColumn(rows, "quiz_score")
	metrics.AvgDurationMinutes = meanColumn(rows, "duration_minutes")
	for _, row := range rows {
		if level, ok := tabular.String(row, "comprehension_level"); ok {
			metrics.ComprehensionDistribution[level]++
		}
	}
	return metrics
}

func buildRecommendations(wellness dto.WellnessMetrics, learning dto.LearningMetrics, patterns []models.Pattern) []string {
	recommendations := []string{}

	if wellness.TotalSessions > 0 && wellness.AvgAnxietyScore > anxietyConcernThreshold {
		recommendations = append(recommendations, "Increase wellness support resources - high anxiety detected")
	}
	if wellness.HighRiskPercentage > highRiskCriticalPercent {
		recommendations = append(recommendations, "Critical: Over 20% of sessions show high risk - immediate intervention needed")
	}
	if learning.TotalSessions > 0 && learning.AvgQuizScore < quizScoreConcernThreshold {
		recommendations = append(recommendations, "Review teaching methods - low quiz scores across sessions")
	}

	for _, pattern := range patterns {
		if pattern.Severity != models.SeverityHigh {
			continue
		}
		switch pattern.PatternType {
		case models.PatternTemporal:
			recommendations = append(recommendations, "Schedule support during high-stress hours")
		case models.PatternAcademic:
			recommendations = append(recommendations, "Provide additional resources for challenging topics")
		}
	}
	return dedupe(recommendations)
}

func distinctStudents(rows []tabular.Row) int {
	seen := make(map[string]struct{})
	for _, row := range rows {
		if id, ok := tabular.String(row, "student_id"); ok {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}

// thresholdedCounts tallies a categorical column and drops buckets smaller
// than k.
func thresholdedCounts(rows []tabular.Row, column string, k int) map[string]int {
	counts := make(map[string]int)
	for _, row := range rows {
		if value, ok := tabular.String(row, column); ok && value != "" {
			counts[value]++
		}
	}
	for value, count := range counts {
		if count < k {
			delete(counts, value)
		}
	}
	return counts
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
