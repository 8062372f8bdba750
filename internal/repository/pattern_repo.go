package repository

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/sahay-platform/insights-engine/internal/models"
)

// PatternTypeSummary aggregates stored patterns of one type.
type PatternTypeSummary struct {
	PatternType  string  `json:"pattern_type"`
	Count        int64   `json:"count"`
	HighSeverity int64   `json:"high_severity"`
	AvgKCount    float64 `json:"avg_k_count"`
}

// PatternRepository persists detected patterns. The table is append-only:
// there is no update or delete path, patterns form the audit trail.
type PatternRepository interface {
	Create(ctx context.Context, pattern *models.Pattern) error
	ListRecent(ctx context.Context, limit int) ([]models.Pattern, error)
	SummarizeByType(ctx context.Context) ([]PatternTypeSummary, error)
}

type patternRepository struct {
	db       *gorm.DB
	validate *validator.Validate
	minK     int
}

// NewPatternRepository constructs a pattern repository. minK is the anonymity
// threshold; the repository refuses to persist patterns that violate it.
func NewPatternRepository(db *gorm.DB, validate *validator.Validate, minK int) PatternRepository {
	return &patternRepository{db: db, validate: validate, minK: minK}
}

func (r *patternRepository) Create(ctx context.Context, pattern *models.Pattern) error {
	if err := r.validate.Struct(pattern); err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}
	if pattern.KCount < r.minK {
		return fmt.Errorf("pattern k_count %d below anonymity threshold %d", pattern.KCount, r.minK)
	}

	if err := r.db.WithContext(ctx).Create(pattern).Error; err != nil {
		return fmt.Errorf("failed to store pattern: %w", err)
	}
	return nil
}

func (r *patternRepository) ListRecent(ctx context.Context, limit int) ([]models.Pattern, error) {
	if limit <= 0 {
		limit = 20
	}

	var patterns []models.Pattern
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&patterns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list patterns: %w", err)
	}
	return patterns, nil
}

func (r *patternRepository) SummarizeByType(ctx context.Context) ([]PatternTypeSummary, error) {
	var summaries []PatternTypeSummary
	err := r.db.WithContext(ctx).
		Model(&models.Pattern{}).
		Select("pattern_type, COUNT(*) AS count, SUM(CASE WHEN severity = 'high' THEN 1 ELSE 0 END) AS high_severity, AVG(k_count) AS avg_k_count").
		Group("pattern_type").
		Order("pattern_type").
		Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to summarize patterns: %w", err)
	}
	return summaries, nil
}
