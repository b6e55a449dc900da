package models

import (
	"strings"
	"time"
)

// User represents an API user
type User struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username       string    `gorm:"type:varchar(150);not null;uniqueIndex" json:"username"`
	Email          string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	FullName       string    `gorm:"type:varchar(255)" json:"fullName"`
	HashedPassword string    `gorm:"type:varchar(255);not null" json:"-"`
	Disabled       bool      `gorm:"not null;default:false" json:"disabled"`
	Roles          string    `gorm:"type:varchar(255);not null;default:'user'" json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// RoleList splits the comma-separated roles column
func (u *User) RoleList() []string {
	if u.Roles == "" {
		return nil
	}
	roles := strings.Split(u.Roles, ",")
	for i := range roles {
		roles[i] = strings.TrimSpace(roles[i])
	}
	return roles
}

// LoginRequest is the credentials payload for /auth/login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest is the payload for /auth/register
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"fullName"`
	Password string `json:"password" binding:"required,min=8"`
}

// TokenResponse carries an issued JWT
type TokenResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
	User        *User  `json:"user,omitempty"`
}
