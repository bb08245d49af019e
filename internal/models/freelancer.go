package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

type VerificationLevel string

const (
	LevelBasic    VerificationLevel = "Basic"
	LevelVerified VerificationLevel = "Verified"
	LevelPremium  VerificationLevel = "Premium"
)

type FreelancerProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	Skills     datatypes.JSON `gorm:"type:jsonb" json:"skills"` // ["go", "react", ...]
	Bio        string         `gorm:"type:text" json:"bio"`
	HourlyRate int64          `gorm:"default:0" json:"hourly_rate"`

	VerificationStatus VerificationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"verification_status"`
	VerificationLevel  VerificationLevel  `gorm:"type:varchar(20);not null;default:'Basic'" json:"verification_level"`

	WorkExperience datatypes.JSON `gorm:"type:jsonb" json:"work_experience"` // [{company, role, years}, ...]

	CompletedProjects int     `gorm:"default:0" json:"completed_projects"`
	AverageRating     float64 `gorm:"default:0" json:"average_rating"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Documents []VerificationDocument `gorm:"foreignKey:ProfileID" json:"verification_documents,omitempty"`
}

// VerificationDocument is reviewed independently of the profile's overall status.
type VerificationDocument struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProfileID uuid.UUID `gorm:"type:uuid;index;not null" json:"profile_id"`

	DocumentType string             `gorm:"type:varchar(50);not null" json:"document_type"` // id_card, certificate, portfolio
	DocumentURL  string             `gorm:"type:text;not null" json:"document_url"`
	Status       VerificationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Notes        string             `gorm:"type:text" json:"notes"`

	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
