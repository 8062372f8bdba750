package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/sahay-platform/insights-engine/internal/dto"
	"github.com/sahay-platform/insights-engine/internal/models"
	"github.com/sahay-platform/insights-engine/internal/tabular"
)

// Trend labels for a subject's anxiety history.
const (
	TrendNoData       = "No data"
	TrendInsufficient = "Insufficient data"
	TrendWorsening    = "Worsening"
	TrendImproving    = "Improving"
	TrendStable       = "Stable"
)

// trendMargin is how far the second-half mean must move from the first-half
// mean before the trend stops being Stable.
const trendMargin = 1.0

var studentRecommendations = map[models.RiskLevel][]string{
	models.RiskL1: {
		"Continue current wellness practices",
		"Maintain healthy study schedule",
		"Stay connected with support network",
	},
	models.RiskL2: {
		"Practice stress management techniques",
		"Consider talking to a counselor",
		"Take regular breaks from studies",
	},
	models.RiskL3: {
		"Seek immediate counseling support",
		"Take a break from academic work",
		"Contact crisis support if needed",
	},
}

// RiskAssessor computes per-subject trends from a subject's own history. It
// operates on non-aggregated, non-anonymized data: the output is the
// subject's private view and must never be exposed as a population statistic.
type RiskAssessor interface {
	Assess(studentID string, daysBack int) (dto.RiskAssessmentResponse, error)
	ActionPlan(studentID string, limit int) ([]dto.RecommendedAction, error)
}

type riskAssessor struct {
	store  *tabular.Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewRiskAssessor constructs a risk assessor over the tabular store.
func NewRiskAssessor(store *tabular.Store, logger zerolog.Logger) RiskAssessor {
	return &riskAssessor{
		store:  store,
		logger: logger.With().Str("component", "risk_assessor").Logger(),
		now:    time.Now,
	}
}

func (a *riskAssessor) Assess(studentID string, daysBack int) (dto.RiskAssessmentResponse, error) {
	sessions, err := a.studentSessions(studentID, daysBack)
	if err != nil {
		return dto.RiskAssessmentResponse{}, err
	}

	if len(sessions) == 0 {
		return dto.RiskAssessmentResponse{
			StudentID:       studentID,
			RiskLevel:       "Unknown",
			Trend:           TrendNoData,
			Recommendations: []string{"Complete wellness screening"},
		}, nil
	}

	latest := sessions[len(sessions)-1]
	trend := anxietyTrend(sessions)

	level, _ := tabular.String(latest, "risk_level")
	mood, _ := tabular.Float(latest, "mood_score")
	anxiety, _ := tabular.Float(latest, "anxiety_score")
	lastAt, _ := tabular.Time(latest, "created_at")

	return dto.RiskAssessmentResponse{
		StudentID:       studentID,
		RiskLevel:       level,
		CurrentMood:     mood,
		CurrentAnxiety:  anxiety,
		Trend:           trend,
		LastSession:     &lastAt,
		SessionCount:    len(sessions),
		Recommendations: assessmentRecommendations(models.RiskLevel(level), trend),
	}, nil
}

func (a *riskAssessor) ActionPlan(studentID string, limit int) ([]dto.RecommendedAction, error) {
	if limit <= 0 {
		limit = 3
	}

	students, err := a.store.Filter(tabular.TableStudents, func(row tabular.Row) bool {
		id, _ := tabular.String(row, "student_id")
		return id == studentID
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if len(students) == 0 {
		return []dto.RecommendedAction{}, nil
	}

	sessions, err := a.studentSessions(studentID, 0)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return []dto.RecommendedAction{}, nil
	}

	latest := sessions[len(sessions)-1]
	level, _ := tabular.String(latest, "risk_level")
	mood, _ := tabular.Float(latest, "mood_score")

	actions := make([]dto.RecommendedAction, 0, limit)
	switch models.RiskLevel(level) {
	case models.RiskL3:
		actions = append(actions,
			dto.RecommendedAction{Category: "wellness", ActionText: "Connect with counseling services immediately", DurationMinutes: 60, Priority: "high"},
			dto.RecommendedAction{Category: "break", ActionText: "Take a complete break from studies for today", DurationMinutes: 480, Priority: "high"},
		)
	case models.RiskL2:
		actions = append(actions,
			dto.RecommendedAction{Category: "wellness", ActionText: "Practice deep breathing exercises", DurationMinutes: 10, Priority: "medium"},
			dto.RecommendedAction{Category: "social", ActionText: "Connect with a friend or family member", DurationMinutes: 30, Priority: "medium"},
		)
	default:
		if interests, ok := tabular.Strings(students[0], "interests"); ok && len(interests) > 0 {
			actions = append(actions, dto.RecommendedAction{
				Category:        "interest",
				ActionText:      fmt.Sprintf("Spend time on %s activity", interests[0]),
				DurationMinutes: 45,
				Priority:        "low",
			})
		}
	}

	if mood >= 6 {
		actions = append(actions, dto.RecommendedAction{
			Category:        "study",
			ActionText:      "Continue with planned study schedule",
			DurationMinutes: 90,
			Priority:        "low",
		})
	}

	if len(actions) > limit {
		actions = actions[:limit]
	}
	return actions, nil
}

// studentSessions returns the subject's wellness sessions sorted
// chronologically, bounded by daysBack when it is positive.
func (a *riskAssessor) studentSessions(studentID string, daysBack int) ([]tabular.Row, error) {
	var cutoff time.Time
	if daysBack > 0 {
		cutoff = a.now().AddDate(0, 0, -daysBack)
	}

	sessions, err := a.store.Filter(tabular.TableWellnessSessions, func(row tabular.Row) bool {
		id, _ := tabular.String(row, "student_id")
		if id != studentID {
			return false
		}
		if cutoff.IsZero() {
			return true
		}
		at, ok := tabular.Time(row, "created_at")
		return ok && !at.Before(cutoff)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load wellness sessions: %w", err)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		a, _ := tabular.Time(sessions[i], "created_at")
		b, _ := tabular.Time(sessions[j], "created_at")
		return a.Before(b)
	})
	return sessions, nil
}

// anxietyTrend splits the history chronologically and compares mean anxiety
// across the halves. With an odd count the middle session belongs to neither
// half.
func anxietyTrend(sessions []tabular.Row) string {
	if len(sessions) < 2 {
		return TrendInsufficient
	}

	half := len(sessions) / 2
	first := meanColumn(sessions[:half], "anxiety_score")
	second := meanColumn(sessions[len(sessions)-half:], "anxiety_score")

	switch {
	case second > first+trendMargin:
		return TrendWorsening
	case second < first-trendMargin:
		return TrendImproving
	default:
		return TrendStable
	}
}

func assessmentRecommendations(level models.RiskLevel, trend string) []string {
	recommendations := append([]string(nil), studentRecommendations[level]...)
	if recommendations == nil {
		recommendations = []string{}
	}

	switch trend {
	case TrendWorsening:
		recommendations = append(recommendations, "Monitor symptoms closely and seek help if they worsen")
	case TrendImproving:
		recommendations = append(recommendations, "Keep up the good work with current coping strategies")
	}
	return recommendations
}
