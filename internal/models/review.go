package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is left by the client once the project is completed, one per project.
type Review struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID    uuid.UUID `gorm:"type:uuid;index;unique" json:"project_id"`
	ClientID     uuid.UUID `gorm:"type:uuid;index" json:"client_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;index" json:"freelancer_id"`

	Rating  int    `gorm:"not null" json:"rating"` // 1-5
	Comment string `gorm:"type:text" json:"comment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Project    *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Client     *User    `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Freelancer *User    `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
