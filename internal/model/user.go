package model

import (
	"github.com/google/uuid"
)

// Role is the closed set of account roles. All role branching lives in the
// access gate and the auth middleware; nothing else compares role strings.
type Role string

const (
	RolePatient   Role = "patient"
	RoleCaretaker Role = "caretaker"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleCaretaker, RoleAdmin:
		return true
	}
	return false
}

// Principal is the authenticated caller every operation executes as.
type Principal struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

// UserAccount is read-mostly reference data owned by the identity context.
type UserAccount struct {
	Base
	Email        string  `json:"email" db:"email"`
	FullName     string  `json:"full_name" db:"full_name"`
	Role         Role    `json:"role" db:"role"`
	Phone        *string `json:"phone,omitempty" db:"phone"`
	PasswordHash string  `json:"-" db:"password_hash"`
}

// LoginRequest represents login parameters
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued access token
type LoginResponse struct {
	Token string       `json:"token"`
	User  *UserAccount `json:"user"`
}

// RegisterRequest represents public patient self-registration parameters
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=8"`
}

// CreateUserRequest represents admin-side account creation parameters
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Role     Role   `json:"role" binding:"required,oneof=patient caretaker admin"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=8"`
}

// UpdateUserRequest represents account update parameters
type UpdateUserRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
}
