package dto

import (
	"time"

	"github.com/sahay-platform/insights-engine/internal/models"
)

// WellnessMetrics summarises wellness sessions in a window. These are
// full-set statistics: no row-level value is exposed, so they are safe to
// report without suppression.
type WellnessMetrics struct {
	AvgMoodScore       float64        `json:"avg_mood_score"`
	AvgAnxietyScore    float64        `json:"avg_anxiety_score"`
	RiskDistribution   map[string]int `json:"risk_distribution"`
	TotalSessions      int            `json:"total_sessions"`
	HighRiskPercentage float64        `json:"high_risk_percentage"`
}

// LearningMetrics summarises learning sessions in a window.
type LearningMetrics struct {
	AvgQuizScore              float64        `json:"avg_quiz_score"`
	AvgDurationMinutes        float64        `json:"avg_duration_minutes"`
	ComprehensionDistribution map[string]int `json:"comprehension_distribution"`
	TotalSessions             int            `json:"total_sessions"`
}

// PatternResponse serializes a detected pattern for downstream consumers.
type PatternResponse struct {
	ID                 string         `json:"id"`
	PatternType        string         `json:"pattern_type"`
	KCount             int            `json:"k_count"`
	PatternData        map[string]any `json:"pattern_data"`
	Severity           string         `json:"severity"`
	RecommendedActions []string       `json:"recommended_actions"`
	ClassID            string         `json:"class_id,omitempty"`
	TimeWindowDays     int            `json:"time_window_days"`
	CreatedAt          time.Time      `json:"created_at"`
}

// NewPatternResponse converts a pattern model into a DTO.
func NewPatternResponse(pattern models.Pattern) PatternResponse {
	data := map[string]any(pattern.PatternData)
	if data == nil {
		data = map[string]any{}
	}
	return PatternResponse{
		ID:                 pattern.ID,
		PatternType:        pattern.PatternType,
		KCount:             pattern.KCount,
		PatternData:        data,
		Severity:           pattern.Severity,
		RecommendedActions: pattern.RecommendedActions,
		ClassID:            pattern.ClassID,
		TimeWindowDays:     pattern.TimeWindowDays,
		CreatedAt:          pattern.CreatedAt,
	}
}

// ReportDocument is the immutable analytics report produced for a window.
type ReportDocument struct {
	ReportID        string            `json:"report_id"`
	GeneratedAt     time.Time         `json:"generated_at"`
	TimeWindowDays  int               `json:"time_window_days"`
	ClassID         string            `json:"class_id,omitempty"`
	TotalStudents   int               `json:"total_students"`
	ActiveStudents  int               `json:"active_students"`
	WellnessMetrics WellnessMetrics   `json:"wellness_metrics"`
	LearningMetrics LearningMetrics   `json:"learning_metrics"`
	Patterns        []PatternResponse `json:"patterns"`
	Recommendations []string          `json:"recommendations"`
	CacheHit        bool              `json:"cache_hit"`
}

// RiskAssessmentResponse is a single subject's private trend view. It is
// exempt from k-anonymity because it only ever reflects the subject's own
// history; callers must not expose it as a population statistic.
type RiskAssessmentResponse struct {
	StudentID       string     `json:"student_id"`
	RiskLevel       string     `json:"risk_level"`
	CurrentMood     float64    `json:"current_mood,omitempty"`
	CurrentAnxiety  float64    `json:"current_anxiety,omitempty"`
	Trend           string     `json:"trend"`
	LastSession     *time.Time `json:"last_session,omitempty"`
	SessionCount    int        `json:"session_count"`
	Recommendations []string   `json:"recommendations"`
}

// RecommendedAction is one personalized suggestion for a student.
type RecommendedAction struct {
	Category        string `json:"category"`
	ActionText      string `json:"action_text"`
	DurationMinutes int    `json:"duration_minutes"`
	Priority        string `json:"priority"`
}

// OverviewResponse carries the k-anonymized dashboard statistics. Buckets
// smaller than the anonymity threshold are absent entirely.
type OverviewResponse struct {
	TotalStudents         int                `json:"total_students"`
	TotalWellnessSessions int                `json:"total_wellness_sessions"`
	TotalLearningSessions int                `json:"total_learning_sessions"`
	LanguageDistribution  map[string]int     `json:"language_distribution"`
	AgeDistribution       map[string]int     `json:"age_distribution"`
	PopularTopics         map[string]int     `json:"popular_topics"`
	WeeklyMood            map[string]float64 `json:"weekly_mood"`
}

// ExportTable is an anonymized tabular release: ordered header plus records
// ready for CSV serialization by the caller.
type ExportTable struct {
	Header  []string   `json:"header"`
	Records [][]string `json:"records"`
}
