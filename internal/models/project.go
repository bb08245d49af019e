package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ProjectStatus string

const (
	ProjectOpen       ProjectStatus = "open"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectCancelled  ProjectStatus = "cancelled"
)

type Project struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ClientID uuid.UUID `gorm:"type:uuid;index;not null" json:"client_id"`

	Title       string         `gorm:"type:varchar(200);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Category    string         `gorm:"type:varchar(80);index" json:"category"`
	Skills      datatypes.JSON `gorm:"type:jsonb" json:"skills"`

	Budget   int64     `gorm:"not null" json:"budget"`
	Deadline time.Time `json:"deadline"`

	Status   ProjectStatus `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	Progress int           `gorm:"default:0" json:"progress"` // 0..100, set by assigned freelancer

	AssignedFreelancerID *uuid.UUID `gorm:"type:uuid;index" json:"assigned_freelancer_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Client             *User `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	AssignedFreelancer *User `gorm:"foreignKey:AssignedFreelancerID" json:"assigned_freelancer,omitempty"`
	Bids               []Bid `gorm:"foreignKey:ProjectID" json:"bids,omitempty"`
}
