package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Conversation is a two-party thread, optionally scoped to a project.
// One row per client/freelancer pair; the unique index is what stops two
// concurrent creates from producing duplicate threads.
type Conversation struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	ClientID     uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_conversation_pair" json:"client_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_conversation_pair" json:"freelancer_id"`

	ProjectID *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`

	LastMessageAt time.Time `json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Client     *User     `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Freelancer *User     `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
	Project    *Project  `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Messages   []Message `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
}

func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.ClientID == userID || c.FreelancerID == userID
}

type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;index" json:"conversation_id"`
	SenderID       uuid.UUID `gorm:"type:uuid;index" json:"sender_id"`

	Type string `gorm:"type:varchar(20);default:'text'" json:"type"` // text, system
	Text string `gorm:"type:text" json:"text"`

	Attachments datatypes.JSON `gorm:"type:jsonb" json:"attachments"` // [{name, url, size}]
	// provenance tag from the sending client (timestamp, user agent, sender id);
	// informational, not a security control
	Metadata datatypes.JSON `gorm:"type:jsonb" json:"metadata"`

	IsRead bool       `gorm:"default:false" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}
