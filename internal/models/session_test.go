package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClassifyRiskShortScreeners(t *testing.T) {
	require.Equal(t, RiskL1, ClassifyRisk(ScreenerGAD2, 2))
	require.Equal(t, RiskL3, ClassifyRisk(ScreenerGAD2, 3))
	require.Equal(t, RiskL1, ClassifyRisk(ScreenerPHQ2, 0))
	require.Equal(t, RiskL3, ClassifyRisk(ScreenerPHQ2, 6))
}

func TestClassifyRiskFullScreeners(t *testing.T) {
	require.Equal(t, RiskL1, ClassifyRisk(ScreenerGAD7, 4))
	require.Equal(t, RiskL2, ClassifyRisk(ScreenerGAD7, 5))
	require.Equal(t, RiskL2, ClassifyRisk(ScreenerPHQ9, 9))
	require.Equal(t, RiskL3, ClassifyRisk(ScreenerPHQ9, 10))
}

func TestRiskLevelOrdering(t *testing.T) {
	require.Less(t, RiskL1.Ordinal(), RiskL2.Ordinal())
	require.Less(t, RiskL2.Ordinal(), RiskL3.Ordinal())
	require.Zero(t, RiskLevel("L9").Ordinal())
}

func TestWellnessSessionValidateBounds(t *testing.T) {
	valid := WellnessSession{MoodScore: 5, AnxietyScore: 7, RiskLevel: RiskL2}
	require.NoError(t, valid.Validate())

	require.Error(t, WellnessSession{MoodScore: 0, AnxietyScore: 7, RiskLevel: RiskL2}.Validate())
	require.Error(t, WellnessSession{MoodScore: 5, AnxietyScore: 11, RiskLevel: RiskL2}.Validate())
	require.Error(t, WellnessSession{MoodScore: 5, AnxietyScore: 7, RiskLevel: "L9"}.Validate())
}

func TestLearningSessionValidateBounds(t *testing.T) {
	valid := LearningSession{QuizScore: 82.5, FocusScore: 6}
	require.NoError(t, valid.Validate())

	require.Error(t, LearningSession{QuizScore: 101, FocusScore: 6}.Validate())
	require.Error(t, LearningSession{QuizScore: 80, FocusScore: 0}.Validate())
}

func TestWellnessSessionRowOmitsNotes(t *testing.T) {
	session := WellnessSession{
		ID:           "WS001",
		StudentID:    "S001",
		MoodScore:    5,
		AnxietyScore: 7,
		RiskLevel:    RiskL2,
		Notes:        "private free text",
		CreatedAt:    time.Now(),
	}

	row := session.Row()
	require.NotContains(t, row, "notes")
	require.Equal(t, "S001", row["student_id"])
}
