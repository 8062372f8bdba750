package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sahay-platform/insights-engine/internal/models"
)

// ErrReportNotFound is returned when no report matches the query.
var ErrReportNotFound = errors.New("report not found")

// ReportRepository persists generated report documents. Reports are immutable
// once created and identified by their generation timestamp.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetLatest(ctx context.Context) (models.Report, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository constructs a report repository.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("failed to store report: %w", err)
	}
	return nil
}

func (r *reportRepository) GetLatest(ctx context.Context) (models.Report, error) {
	var report models.Report
	err := r.db.WithContext(ctx).Order("generated_at DESC").First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Report{}, ErrReportNotFound
		}
		return models.Report{}, fmt.Errorf("failed to load latest report: %w", err)
	}
	return report, nil
}
