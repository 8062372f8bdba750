package models

import (
	"time"

	"gorm.io/datatypes"
)

// Pattern types recognised by the detector.
const (
	PatternTemporal      = "temporal"
	PatternRisk          = "risk"
	PatternAcademic      = "academic"
	PatternSocial        = "social"
	PatternEnvironmental = "environmental"
)

// Pattern severities.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Pattern is a disclosed, k-anonymous group-level finding. Patterns are
// append-only: once stored they are never mutated or deleted.
type Pattern struct {
	ID                 string                      `gorm:"primaryKey;size:36" json:"id"`
	PatternType        string                      `gorm:"size:20;index;not null" json:"pattern_type" validate:"required,oneof=temporal risk academic social environmental"`
	KCount             int                         `gorm:"not null" json:"k_count" validate:"required,gte=1"`
	PatternData        datatypes.JSONMap           `gorm:"type:json" json:"pattern_data"`
	Severity           string                      `gorm:"size:10;not null" json:"severity" validate:"required,oneof=low medium high"`
	RecommendedActions datatypes.JSONSlice[string] `json:"recommended_actions"`
	ClassID            string                      `gorm:"size:20" json:"class_id,omitempty"`
	TimeWindowDays     int                         `json:"time_window_days"`
	CreatedAt          time.Time                   `gorm:"index" json:"created_at"`
}

// Report is an immutable point-in-time aggregate document, stored as the JSON
// produced at generation time and identified by its generation timestamp.
type Report struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	ClassID     string         `gorm:"size:20" json:"class_id,omitempty"`
	WindowDays  int            `json:"window_days"`
	Document    datatypes.JSON `gorm:"type:json" json:"document"`
	GeneratedAt time.Time      `gorm:"index" json:"generated_at"`
}
