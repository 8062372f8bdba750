package models

import (
	"fmt"
	"time"
)

// RiskLevel is an ordinal severity classification derived from screening scores.
type RiskLevel string

const (
	RiskL1 RiskLevel = "L1"
	RiskL2 RiskLevel = "L2"
	RiskL3 RiskLevel = "L3"
)

// Ordinal returns the severity rank of the level, L1 < L2 < L3.
func (r RiskLevel) Ordinal() int {
	switch r {
	case RiskL1:
		return 1
	case RiskL2:
		return 2
	case RiskL3:
		return 3
	default:
		return 0
	}
}

// Comprehension levels reported for learning sessions.
const (
	ComprehensionLow    = "low"
	ComprehensionMedium = "medium"
	ComprehensionHigh   = "high"
)

// Screener types supported by the wellness check-in flow. The short forms
// (GAD-2, PHQ-2) are two-question screeners scored 0-6; the full forms
// (GAD-7, PHQ-9) are scored 0-21 and 0-27 respectively.
const (
	ScreenerGAD2 = "GAD-2"
	ScreenerGAD7 = "GAD-7"
	ScreenerPHQ2 = "PHQ-2"
	ScreenerPHQ9 = "PHQ-9"
)

// ClassifyRisk maps a screener total score to a risk level. This is the single
// source of truth for risk classification: short screeners use the standard
// binary cutoff (>= 3 flags), full screeners use three-tier cutoffs.
func ClassifyRisk(screenerType string, totalScore int) RiskLevel {
	switch screenerType {
	case ScreenerGAD2, ScreenerPHQ2:
		if totalScore >= 3 {
			return RiskL3
		}
		return RiskL1
	default:
		switch {
		case totalScore <= 4:
			return RiskL1
		case totalScore <= 9:
			return RiskL2
		default:
			return RiskL3
		}
	}
}

// WellnessSession is a single wellness check-in. Notes are free text for the
// student's own view and must never appear in aggregate output.
type WellnessSession struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	StudentID       string    `gorm:"size:20;index;not null" json:"student_id"`
	MoodScore       int       `json:"mood_score"`
	AnxietyScore    int       `json:"anxiety_score"`
	ScreenerType    string    `gorm:"size:10" json:"screener_type"`
	TotalScore      int       `json:"total_score"`
	RiskLevel       RiskLevel `gorm:"size:4" json:"risk_level"`
	NeedsEscalation bool      `json:"needs_escalation"`
	Notes           string    `gorm:"type:text" json:"-"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}

// Validate checks that the scores lie within their domain bounds.
func (s WellnessSession) Validate() error {
	if s.MoodScore < 1 || s.MoodScore > 10 {
		return fmt.Errorf("mood score %d outside 1-10", s.MoodScore)
	}
	if s.AnxietyScore < 1 || s.AnxietyScore > 10 {
		return fmt.Errorf("anxiety score %d outside 1-10", s.AnxietyScore)
	}
	if s.RiskLevel.Ordinal() == 0 {
		return fmt.Errorf("unknown risk level %q", s.RiskLevel)
	}
	return nil
}

// Row converts the session into the column map consumed by the tabular store.
// Notes are deliberately omitted: free text never enters the aggregate path.
func (s WellnessSession) Row() map[string]any {
	return map[string]any{
		"session_id":       s.ID,
		"student_id":       s.StudentID,
		"mood_score":       float64(s.MoodScore),
		"anxiety_score":    float64(s.AnxietyScore),
		"screener_type":    s.ScreenerType,
		"total_score":      float64(s.TotalScore),
		"risk_level":       string(s.RiskLevel),
		"needs_escalation": s.NeedsEscalation,
		"created_at":       s.CreatedAt,
	}
}

// LearningSession records one study block against a course topic.
type LearningSession struct {
	ID                 string    `gorm:"primaryKey;size:36" json:"id"`
	StudentID          string    `gorm:"size:20;index;not null" json:"student_id"`
	CourseID           string    `gorm:"size:20;index" json:"course_id"`
	Topic              string    `gorm:"size:100" json:"topic"`
	DurationMinutes    int       `json:"duration_minutes"`
	QuizScore          float64   `json:"quiz_score"`
	ComprehensionLevel string    `gorm:"size:10" json:"comprehension_level"`
	FocusScore         int       `json:"focus_score"`
	CreatedAt          time.Time `gorm:"index" json:"created_at"`
}

// Validate checks that the scores lie within their domain bounds.
func (s LearningSession) Validate() error {
	if s.QuizScore < 0 || s.QuizScore > 100 {
		return fmt.Errorf("quiz score %.1f outside 0-100", s.QuizScore)
	}
	if s.FocusScore < 1 || s.FocusScore > 10 {
		return fmt.Errorf("focus score %d outside 1-10", s.FocusScore)
	}
	return nil
}

// Row converts the session into the column map consumed by the tabular store.
func (s LearningSession) Row() map[string]any {
	return map[string]any{
		"session_id":          s.ID,
		"student_id":          s.StudentID,
		"course_id":           s.CourseID,
		"topic":               s.Topic,
		"duration_minutes":    float64(s.DurationMinutes),
		"quiz_score":          s.QuizScore,
		"comprehension_level": s.ComprehensionLevel,
		"focus_score":         float64(s.FocusScore),
		"created_at":          s.CreatedAt,
	}
}
