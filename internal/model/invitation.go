package model

import (
	"time"

	"github.com/google/uuid"
)

type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
)

// Invitation is a single-use token reserving an email for caretaker signup.
type Invitation struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	Token           string           `json:"token" db:"token"`
	Email           string           `json:"email" db:"email"`
	InvitedByUserID uuid.UUID        `json:"invited_by_user_id" db:"invited_by_user_id"`
	InvitedByRole   Role             `json:"invited_by_role" db:"invited_by_role"`
	Status          InvitationStatus `json:"status" db:"status"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	AcceptedAt      *time.Time       `json:"accepted_at,omitempty" db:"accepted_at"`
}

// CreateInvitationRequest represents invitation creation parameters
type CreateInvitationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// InvitationResult is returned to the inviter. When email delivery fails the
// invitation still succeeds; Warning is set and InviteLink lets the inviter
// share the link manually.
type InvitationResult struct {
	Invitation *Invitation `json:"invitation"`
	InviteLink string      `json:"invite_link"`
	Warning    string      `json:"warning,omitempty"`
}

// AcceptInvitationRequest completes caretaker signup against a reserved email.
type AcceptInvitationRequest struct {
	Token    string `json:"token" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=8"`
}
