package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type InsightType string

const (
	InsightTypeDaily     InsightType = "daily"
	InsightTypeWeekly    InsightType = "weekly"
	InsightTypeMonthly   InsightType = "monthly"
	InsightTypeQuarterly InsightType = "quarterly"
)

// Time-range labels accepted by the insight endpoints.
const (
	RangeLabelToday  = "today"
	RangeLabel7Days  = "7days"
	RangeLabel30Days = "30days"
	RangeLabel90Days = "90days"
)

// InsightTypeForRange maps a time-range label to the stored insight type.
func InsightTypeForRange(label string) (InsightType, bool) {
	switch label {
	case RangeLabelToday:
		return InsightTypeDaily, true
	case RangeLabel7Days:
		return InsightTypeWeekly, true
	case RangeLabel30Days:
		return InsightTypeMonthly, true
	case RangeLabel90Days:
		return InsightTypeQuarterly, true
	}
	return "", false
}

// KeyObservations buckets symptoms by direction of change over the window.
type KeyObservations struct {
	Increases []string `json:"increases"`
	Decreases []string `json:"decreases"`
	Stable    []string `json:"stable"`
}

func (k KeyObservations) Value() (driver.Value, error) {
	return json.Marshal(k)
}

func (k *KeyObservations) Scan(src interface{}) error {
	if src == nil {
		*k = KeyObservations{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported type for KeyObservations: %T", src)
	}
	return json.Unmarshal(b, k)
}

// InsightPayload is what the external generator returns: the record content
// fields minus storage metadata.
type InsightPayload struct {
	Summary            string          `json:"summary"`
	KeyObservations    KeyObservations `json:"keyObservations"`
	MedicationPatterns string          `json:"medicationPatterns"`
	SymptomTrends      string          `json:"symptomTrends"`
	WearingOffPatterns string          `json:"wearingOffPatterns"`
	Recommendations    []string        `json:"recommendations"`
}

// InsightRecord is an immutable cached insight snapshot. Rows are append
// only; "latest" is the row with max created_at for a user.
type InsightRecord struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	UserID             uuid.UUID       `json:"user_id" db:"user_id"`
	InsightType        InsightType     `json:"insight_type" db:"insight_type"`
	DateRangeStart     time.Time       `json:"date_range_start" db:"date_range_start"`
	DateRangeEnd       time.Time       `json:"date_range_end" db:"date_range_end"`
	Summary            string          `json:"summary" db:"summary"`
	KeyObservations    KeyObservations `json:"key_observations" db:"key_observations"`
	MedicationPatterns string          `json:"medication_patterns" db:"medication_patterns"`
	SymptomTrends      string          `json:"symptom_trends" db:"symptom_trends"`
	WearingOffPatterns string          `json:"wearing_off_patterns" db:"wearing_off_patterns"`
	Recommendations    StringList      `json:"recommendations" db:"recommendations"`
	DataPointsAnalyzed int             `json:"data_points_analyzed" db:"data_points_analyzed"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
}

// GenerateInsightRequest represents insight generation parameters
type GenerateInsightRequest struct {
	TimeRange string `json:"time_range" binding:"required,oneof=today 7days 30days 90days"`
}
