package models

import (
	"time"

	"github.com/google/uuid"
)

type EarningType string

const (
	EarningCredit EarningType = "credit" // project payout
	EarningRefund EarningType = "refund"
)

// Earning is an append-only ledger entry credited to a freelancer when a
// project completes. Feeds the analytics endpoints.
type Earning struct {
	ID          uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID   `gorm:"type:uuid;index;not null" json:"user_id"`
	Amount      int64       `gorm:"not null" json:"amount"`
	Type        EarningType `gorm:"type:varchar(20);not null" json:"type"`
	Description string      `gorm:"type:text" json:"description"`
	ProjectID   *uuid.UUID  `gorm:"type:uuid;index" json:"project_id,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}
