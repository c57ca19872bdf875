package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Status is the admin-controlled approval state of an account.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusRejected:
		return true
	}
	return false
}

// User represents an account of the studio.
type User struct {
	ID                     string
	Name                   string
	Email                  string
	PasswordHash           string
	Phone                  *string
	Role                   Role
	Status                 Status
	IsEmailVerified        bool
	EmailVerificationToken *string
	ResetPasswordToken     *string
	ResetPasswordExpires   *time.Time
	JoinDate               time.Time
}

// PublicUser is the projection of a User that is safe to return to clients.
type PublicUser struct {
	ID              string    `json:"_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           *string   `json:"phone,omitempty"`
	Role            Role      `json:"role"`
	Status          Status    `json:"status"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	JoinDate        time.Time `json:"joinDate"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Phone:           u.Phone,
		Role:            u.Role,
		Status:          u.Status,
		IsEmailVerified: u.IsEmailVerified,
		JoinDate:        u.JoinDate,
	}
}

// NormalizeEmail lowercases and trims an address before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
