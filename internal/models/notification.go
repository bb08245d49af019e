package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Notification struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`

	Type    string `gorm:"type:varchar(40);not null" json:"type"` // new_bid, bid_accepted, counter_offer, verification, new_message
	Title   string `gorm:"type:varchar(200);not null" json:"title"`
	Message string `gorm:"type:text" json:"message"`

	Data datatypes.JSON `gorm:"type:jsonb" json:"data"` // {"project_id": "...", "bid_id": "..."}

	IsRead bool       `gorm:"default:false" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`

	CreatedAt time.Time `json:"created_at"`
}
