package models

import (
	"time"

	"github.com/google/uuid"
)

type BidStatus string

const (
	BidPending   BidStatus = "pending"
	BidAccepted  BidStatus = "accepted"
	BidRejected  BidStatus = "rejected"
	BidWithdrawn BidStatus = "withdrawn"
)

type CounterOfferStatus string

const (
	CounterNone     CounterOfferStatus = "none"
	CounterPending  CounterOfferStatus = "pending"
	CounterAccepted CounterOfferStatus = "accepted"
	CounterRejected CounterOfferStatus = "rejected"
)

type Bid struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID    uuid.UUID `gorm:"type:uuid;index;not null" json:"project_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;index;not null" json:"freelancer_id"`

	Amount       int64  `gorm:"not null" json:"amount"`
	DeliveryTime int    `gorm:"not null" json:"delivery_time"` // days
	Proposal     string `gorm:"type:text" json:"proposal"`

	Status BidStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	// counter-offer from the client; freelancer accepts or rejects
	CounterAmount       int64              `gorm:"default:0" json:"counter_amount"`
	CounterDeliveryTime int                `gorm:"default:0" json:"counter_delivery_time"`
	CounterMessage      string             `gorm:"type:text" json:"counter_message"`
	CounterStatus       CounterOfferStatus `gorm:"type:varchar(20);not null;default:'none'" json:"counter_status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Project    *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Freelancer *User    `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
}
