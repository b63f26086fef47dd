package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type MedicationStatus string

const (
	MedicationTaken     MedicationStatus = "yes"
	MedicationPartially MedicationStatus = "partially"
	MedicationMissed    MedicationStatus = "missed"
)

func (m MedicationStatus) Valid() bool {
	switch m {
	case MedicationTaken, MedicationPartially, MedicationMissed:
		return true
	}
	return false
}

// CheckInDateLayout is the calendar-date wire format for check-ins.
const CheckInDateLayout = "2006-01-02"

// Score bounds for all five symptom dimensions.
const (
	ScoreMin = 0
	ScoreMax = 10
)

// CheckIn is one patient's daily self-reported symptom record. Exactly one
// row exists per (user_id, check_in_date); writes are last-write-wins
// upserts on that pair.
type CheckIn struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	UserID           uuid.UUID        `json:"user_id" db:"user_id"`
	CheckInDate      time.Time        `json:"check_in_date" db:"check_in_date"`
	TremorScore      int              `json:"tremor_score" db:"tremor_score"`
	StiffnessScore   int              `json:"stiffness_score" db:"stiffness_score"`
	BalanceScore     int              `json:"balance_score" db:"balance_score"`
	SleepScore       int              `json:"sleep_score" db:"sleep_score"`
	MoodScore        int              `json:"mood_score" db:"mood_score"`
	MedicationTaken  MedicationStatus `json:"medication_taken" db:"medication_taken"`
	SideEffects      pq.StringArray   `json:"side_effects" db:"side_effects"`
	SideEffectsOther *string          `json:"side_effects_other,omitempty" db:"side_effects_other"`
	Notes            *string          `json:"notes,omitempty" db:"notes"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}

// UpsertCheckInRequest represents check-in write parameters
type UpsertCheckInRequest struct {
	CheckInDate      string           `json:"check_in_date" binding:"required,checkindate"`
	TremorScore      int              `json:"tremor_score"`
	StiffnessScore   int              `json:"stiffness_score"`
	BalanceScore     int              `json:"balance_score"`
	SleepScore       int              `json:"sleep_score"`
	MoodScore        int              `json:"mood_score"`
	MedicationTaken  MedicationStatus `json:"medication_taken" binding:"required"`
	SideEffects      []string         `json:"side_effects"`
	SideEffectsOther string           `json:"side_effects_other"`
	Notes            string           `json:"notes"`
}

// DateRange is an inclusive calendar-date window
type DateRange struct {
	Start time.Time
	End   time.Time
}

// RangeForLabel resolves a time-range label to an inclusive calendar
// window ending today. "today" is a single-day window; "7days" covers the
// last seven calendar days including today.
func RangeForLabel(label string, now time.Time) (DateRange, bool) {
	// Midnight of now's calendar date in its own zone; Truncate would cut
	// on UTC epoch days and shift the window for non-UTC servers.
	y, m, d := now.Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	var days int
	switch label {
	case RangeLabelToday:
		days = 1
	case RangeLabel7Days:
		days = 7
	case RangeLabel30Days:
		days = 30
	case RangeLabel90Days:
		days = 90
	default:
		return DateRange{}, false
	}
	return DateRange{Start: end.AddDate(0, 0, -(days - 1)), End: end}, true
}
