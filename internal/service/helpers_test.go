package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/sahay-platform/insights-engine/internal/models"
	"github.com/sahay-platform/insights-engine/internal/repository"
	"github.com/sahay-platform/insights-engine/internal/tabular"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type fakePatternRepo struct {
	created []models.Pattern
	err     error
}

func (f *fakePatternRepo) Create(ctx context.Context, pattern *models.Pattern) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, *pattern)
	return nil
}

func (f *fakePatternRepo) ListRecent(ctx context.Context, limit int) ([]models.Pattern, error) {
	return append([]models.Pattern(nil), f.created...), nil
}

func (f *fakePatternRepo) SummarizeByType(ctx context.Context) ([]repository.PatternTypeSummary, error) {
	return nil, nil
}

type fakeReportRepo struct {
	created []models.Report
	err     error
}

func (f *fakeReportRepo) Create(ctx context.Context, report *models.Report) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, *report)
	return nil
}

func (f *fakeReportRepo) GetLatest(ctx context.Context) (models.Report, error) {
	if len(f.created) == 0 {
		return models.Report{}, repository.ErrReportNotFound
	}
	return f.created[len(f.created)-1], nil
}

func wellnessRow(studentID string, at time.Time, anxiety float64, riskLevel string) tabular.Row {
	return tabular.Row{
		"session_id":    "WS-" + studentID + at.Format("150405"),
		"student_id":    studentID,
		"created_at":    at,
		"mood_score":    5.0,
		"anxiety_score": anxiety,
		"screener_type": "GAD-7",
		"total_score":   anxiety,
		"risk_level":    riskLevel,
	}
}

func learningRow(studentID, courseID, topic, comprehension string, at time.Time) tabular.Row {
	return tabular.Row{
		"session_id":          "LS-" + studentID + at.Format("150405"),
		"student_id":          studentID,
		"course_id":           courseID,
		"topic":               topic,
		"duration_minutes":    30.0,
		"quiz_score":          70.0,
		"comprehension_level": comprehension,
		"focus_score":         6.0,
		"created_at":          at,
	}
}
