package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sahay-platform/insights-engine/internal/tabular"
)

func newAssessorStore(t *testing.T, students, wellness []tabular.Row) *tabular.Store {
	t.Helper()
	store := tabular.NewStore()
	require.NoError(t, store.Load(tabular.TableStudents, students))
	require.NoError(t, store.Load(tabular.TableWellnessSessions, wellness))
	return store
}

func anxietyHistory(studentID string, scores ...float64) []tabular.Row {
	base := time.Now().Add(-time.Duration(len(scores)) * time.Hour)
	rows := make([]tabular.Row, 0, len(scores))
	for i, score := range scores {
		level := "L1"
		if score >= 7 {
			level = "L3"
		}
		rows = append(rows, wellnessRow(studentID, base.Add(time.Duration(i)*time.Hour), score, level))
	}
	return rows
}

func TestAssessTrendWorsening(t *testing.T) {
	store := newAssessorStore(t, nil, anxietyHistory("S001", 3, 9))
	assessor := NewRiskAssessor(store, testLogger())

	result, err := assessor.Assess("S001", 30)
	require.NoError(t, err)
	require.Equal(t, TrendWorsening, result.Trend)
	require.Equal(t, 2, result.SessionCount)
	require.Contains(t, result.Recommendations, "Monitor symptoms closely and seek help if they worsen")
}

func TestAssessTrendImproving(t *testing.T) {
	store := newAssessorStore(t, nil, anxietyHistory("S001", 9, 3))
	assessor := NewRiskAssessor(store, testLogger())

	result, err := assessor.Assess("S001", 30)
	require.NoError(t, err)
	require.Equal(t, TrendImproving, result.Trend)
	require.Contains(t, result.Recommendations, "Keep up the good work with current coping strategies")
}

func TestAssessTrendStableWithinMargin(t *testing.T) {
	store := newAssessorStore(t, nil, anxietyHistory("S001", 5, 5))
	assessor := NewRiskAssessor(store, testLogger())

	result, err := assessor.Assess("S001", 30)
	require.NoError(t, err)
	require.Equal(t, TrendStable, result.Trend)
}

func TestAssessOddHistoryExcludesMiddleSession(t *testing.T) {
	// Halves are [3, 3] and [9, 9]; the middle 6 belongs to neither.
	store := newAssessorStore(t, nil, anxietyHistory("S001", 3, 3, 6, 9, 9))
	assessor := NewRiskAssessor(store, testLogger())

	result, err := assessor.Assess("S001", 30)
	require.NoError(t, err)
	require.Equal(t, TrendWorsening, result.Trend)
}

func TestAssessNoData(t *testing.T) {
	store := newAssessorStore(t, nil, nil)
	assessor := NewRiskAssessor(store, testLogger())

	result, err := assessor.Assess("S001", 30)
	require.NoError(t, err)
	require.Equal(t, "Unknown", result.RiskLevel)
	require.Equal(t, TrendNoData, result.Trend)
	require.Nil(t, result.LastSession)
	require.Equal(t, []string{"Complete wellness screening"}, result.Recommendations)
}

func TestAssessSingleSessionInsufficient(t *testing.T) {
	store := newAssessorStore(t, nil, anxietyHistory("S001", 8))
	assessor := NewRiskAssessor(store, testLogger())

	result, err := assessor.Assess("S001", 30)
	require.NoError(t, err)
	require.Equal(t, TrendInsufficient, result.Trend)
	require.Equal(t, "L3", result.RiskLevel)
}

func TestAssessWindowExcludesOldSessions(t *testing.T) {
	old := wellnessRow("S001", time.Now().AddDate(0, 0, -60), 9, "L3")
	recent := wellnessRow("S001", time.Now().Add(-time.Hour), 2, "L1")
	store := newAssessorStore(t, nil, []tabular.Row{old, recent})
	assessor := NewRiskAssessor(store, testLogger())

	result, err := assessor.Assess("S001", 30)
	require.NoError(t, err)
	require.Equal(t, 1, result.SessionCount)
	require.Equal(t, "L1", result.RiskLevel)
}

func TestActionPlanHighRisk(t *testing.T) {
	student := tabular.Row{"student_id": "S001", "interests": []string{"music"}}
	store := newAssessorStore(t, []tabular.Row{student}, anxietyHistory("S001", 8, 9))
	assessor := NewRiskAssessor(store, testLogger())

	actions, err := assessor.ActionPlan("S001", 0)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	require.Equal(t, "wellness", actions[0].Category)
	require.Equal(t, "high", actions[0].Priority)
	require.Equal(t, "break", actions[1].Category)
}

func TestActionPlanLowRiskUsesInterests(t *testing.T) {
	student := tabular.Row{"student_id": "S001", "interests": []string{"music", "chess"}}
	store := newAssessorStore(t, []tabular.Row{student}, anxietyHistory("S001", 2, 2))
	assessor := NewRiskAssessor(store, testLogger())

	actions, err := assessor.ActionPlan("S001", 3)
	require.NoError(t, err)
	require.NotEmpty(t, actions)
	require.Equal(t, "interest", actions[0].Category)
	require.Contains(t, actions[0].ActionText, "music")
}

func TestActionPlanUnknownStudent(t *testing.T) {
	store := newAssessorStore(t, nil, nil)
	assessor := NewRiskAssessor(store, testLogger())

	actions, err := assessor.ActionPlan("ghost", 3)
	require.NoError(t, err)
	require.Empty(t, actions)
}

func TestActionPlanHonorsLimit(t *testing.T) {
	student := tabular.Row{"student_id": "S001", "interests": []string{"music"}}
	sessions := anxietyHistory("S001", 8, 8)
	// Raise the latest mood so the study action would also qualify.
	sessions[len(sessions)-1]["mood_score"] = 7.0
	store := newAssessorStore(t, []tabular.Row{student}, sessions)
	assessor := NewRiskAssessor(store, testLogger())

	actions, err := assessor.ActionPlan("S001", 1)
	require.NoError(t, err)
	require.Len(t, actions, 1)
}
