package models

import (
	"time"

	"gorm.io/datatypes"
)

// Age bands bucket student ages so that no exact age is ever stored.
const (
	AgeBand18To20 = "18-20"
	AgeBand20To22 = "20-22"
	AgeBand22To24 = "22-24"
	AgeBand24Plus = "24+"
)

// Student is a learner enrolled on the platform. The attribute columns feed the
// aggregation engine; the privacy settings gate what is allowed to leave it.
type Student struct {
	ID               string                      `gorm:"primaryKey;size:36" json:"id"`
	StudentID        string                      `gorm:"size:20;uniqueIndex;not null" json:"student_id"`
	AgeBand          string                      `gorm:"size:10" json:"age_band"`
	LanguagePref     string                      `gorm:"size:20;default:English" json:"language_pref"`
	Interests        datatypes.JSONSlice[string] `json:"interests"`
	EnrollmentDate   time.Time                   `json:"enrollment_date"`
	DataConsent      bool                        `json:"data_consent"`
	AnonymousSharing bool                        `gorm:"default:true" json:"anonymous_sharing"`
	RetentionPeriod  int                         `gorm:"default:90" json:"retention_period"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}

// Row converts the student into the column map consumed by the tabular store.
func (s Student) Row() map[string]any {
	return map[string]any{
		"student_id":        s.StudentID,
		"age_band":          s.AgeBand,
		"language_pref":     s.LanguagePref,
		"interests":         []string(s.Interests),
		"enrollment_date":   s.EnrollmentDate,
		"data_consent":      s.DataConsent,
		"anonymous_sharing": s.AnonymousSharing,
		"retention_period":  s.RetentionPeriod,
	}
}
