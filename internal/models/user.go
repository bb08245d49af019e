package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
	RoleAdmin      Role = "admin"
)

type AccountStatus string

const (
	AccountActive    AccountStatus = "active"
	AccountSuspended AccountStatus = "suspended"
)

type User struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name  string    `gorm:"not null" json:"name"`
	Email string    `gorm:"uniqueIndex;not null" json:"email"`
	Phone string    `gorm:"type:varchar(30)" json:"phone"`

	Password string `gorm:"not null" json:"-"`
	Role     Role   `gorm:"type:varchar(20);not null;index" json:"role"`

	AccountStatus AccountStatus `gorm:"type:varchar(20);not null;default:'active'" json:"account_status"`
	IsVerified    bool          `gorm:"default:false" json:"is_verified"`
	Country       string        `gorm:"type:varchar(80)" json:"country"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// has-one profiles; which one is populated depends on Role
	FreelancerProfile *FreelancerProfile `gorm:"foreignKey:UserID;references:ID" json:"freelancer_profile,omitempty"`
	ClientProfile     *ClientProfile     `gorm:"foreignKey:UserID;references:ID" json:"client_profile,omitempty"`
}

func (u *User) Active() bool {
	return u.AccountStatus == AccountActive
}

type ClientProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	Company        string `gorm:"type:varchar(150)" json:"company"`
	Website        string `gorm:"type:varchar(200)" json:"website"`
	Bio            string `gorm:"type:text" json:"bio"`
	ProjectsPosted int    `gorm:"default:0" json:"projects_posted"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
