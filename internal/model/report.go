package model

// SymptomAverages holds per-dimension means over a window, one decimal
// place. A nil *SymptomAverages means the window held no check-ins; an
// empty window never yields zeros.
type SymptomAverages struct {
	AvgTremor    float64 `json:"avg_tremor"`
	AvgStiffness float64 `json:"avg_stiffness"`
	AvgBalance   float64 `json:"avg_balance"`
	AvgSleep     float64 `json:"avg_sleep"`
	AvgMood      float64 `json:"avg_mood"`
}

// WindowStats is the rolling summary for a patient over a date window.
type WindowStats struct {
	TotalCheckIns       int              `json:"total_check_ins"`
	Averages            *SymptomAverages `json:"averages,omitempty"`
	MedicationAdherence *int             `json:"medication_adherence,omitempty"`
}

// SideEffectCount is one entry of the side-effect frequency ranking.
type SideEffectCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PatientDetailStats backs the admin patient detail view. MissedDays is an
// approximation: a user who registered mid-day is counted from day zero.
type PatientDetailStats struct {
	TotalCheckIns         int               `json:"total_check_ins"`
	MissedDays            int               `json:"missed_days"`
	DaysSinceRegistration int               `json:"days_since_registration"`
	Averages              *SymptomAverages  `json:"averages,omitempty"`
	MedicationAdherence   *int              `json:"medication_adherence,omitempty"`
	TopSideEffects        []SideEffectCount `json:"top_side_effects"`
}

// DashboardStats backs the admin dashboard header counts.
type DashboardStats struct {
	TotalPatients     int `json:"total_patients"`
	TotalCaretakers   int `json:"total_caretakers"`
	TotalAssignments  int `json:"total_assignments"`
	ActiveAssignments int `json:"active_assignments"`
	RecentCheckIns    int `json:"recent_check_ins"`
}

// CaretakerOverview summarizes check-in activity across a caretaker's
// assigned patients.
type CaretakerOverview struct {
	ActivePatients int `json:"active_patients"`
	TotalCheckIns  int `json:"total_check_ins"`
	WeekCheckIns   int `json:"week_check_ins"`
}
