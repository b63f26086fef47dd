package model

import (
	"time"

	"github.com/google/uuid"
)

type AssignmentStatus string

const (
	AssignmentStatusActive   AssignmentStatus = "active"
	AssignmentStatusInactive AssignmentStatus = "inactive"
)

// Capability flag columns. Only these may be toggled on an assignment, and
// only by the owning patient.
const (
	CapabilityViewData        = "can_view_data"
	CapabilityLogOnBehalf     = "can_log_on_behalf"
	CapabilityGenerateReports = "can_generate_reports"
)

// Assignment is a patient-caretaker relationship with per-relationship
// capability flags. At most one active row per (patient, caretaker) pair;
// the partial unique index on the assignments table is the authoritative
// guard.
type Assignment struct {
	ID                 uuid.UUID        `json:"id" db:"id"`
	PatientID          uuid.UUID        `json:"patient_id" db:"patient_id"`
	CaretakerID        uuid.UUID        `json:"caretaker_id" db:"caretaker_id"`
	AssignedByUserID   *uuid.UUID       `json:"assigned_by_user_id,omitempty" db:"assigned_by_user_id"`
	AssignedAt         time.Time        `json:"assigned_at" db:"assigned_at"`
	Status             AssignmentStatus `json:"status" db:"status"`
	Notes              *string          `json:"notes,omitempty" db:"notes"`
	CanViewData        bool             `json:"can_view_data" db:"can_view_data"`
	CanLogOnBehalf     bool             `json:"can_log_on_behalf" db:"can_log_on_behalf"`
	CanGenerateReports bool             `json:"can_generate_reports" db:"can_generate_reports"`
	CreatedAt          time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at" db:"updated_at"`
}

// AssignmentDetail joins account names for dashboard listings.
type AssignmentDetail struct {
	Assignment
	PatientName    string `json:"patient_name" db:"patient_name"`
	PatientEmail   string `json:"patient_email" db:"patient_email"`
	CaretakerName  string `json:"caretaker_name" db:"caretaker_name"`
	CaretakerEmail string `json:"caretaker_email" db:"caretaker_email"`
}

// CreateAssignmentRequest represents assignment creation parameters
type CreateAssignmentRequest struct {
	PatientID   string `json:"patient_id" binding:"required,uuid"`
	CaretakerID string `json:"caretaker_id" binding:"required,uuid"`
	Notes       string `json:"notes"`
}

// UpdateAssignmentStatusRequest toggles an assignment active/inactive
type UpdateAssignmentStatusRequest struct {
	Status AssignmentStatus `json:"status" binding:"required,oneof=active inactive"`
}

// UpdateCapabilityRequest is an atomic single-flag write
type UpdateCapabilityRequest struct {
	Capability string `json:"capability" binding:"required,oneof=can_view_data can_log_on_behalf can_generate_reports"`
	Enabled    bool   `json:"enabled"`
}
