package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/internal/repository"
)

type insightRepository struct {
	db *sqlx.DB
}

func NewInsightRepository(db *sqlx.DB) repository.InsightRepository {
	return &insightRepository{db: db}
}

// Create appends one snapshot. Rows are never updated or deleted; a failed
// generation simply never reaches this point.
func (r *insightRepository) Create(ctx context.Context, rec *model.InsightRecord) error {
	query := `
		INSERT INTO insights (
			id, user_id, insight_type, date_range_start, date_range_end, summary,
			key_observations, medication_patterns, symptom_trends, wearing_off_patterns,
			recommendations, data_points_analyzed, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		rec.InsightType,
		rec.DateRangeStart,
		rec.DateRangeEnd,
		rec.Summary,
		rec.KeyObservations,
		rec.MedicationPatterns,
		rec.SymptomTrends,
		rec.WearingOffPatterns,
		rec.Recommendations,
		rec.DataPointsAnalyzed,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create insight record: %w", err)
	}
	return nil
}

func (r *insightRepository) GetLatest(ctx context.Context, userID uuid.UUID) (*model.InsightRecord, error) {
	query := `SELECT * FROM insights WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`
	var rec model.InsightRecord
	if err := r.db.GetContext(ctx, &rec, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest insight: %w", err)
	}
	return &rec, nil
}

func (r *insightRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.InsightRecord, error) {
	query := `SELECT * FROM insights WHERE user_id = $1 ORDER BY created_at DESC`
	var list []*model.InsightRecord
	if err := r.db.SelectContext(ctx, &list, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	return list, nil
}

func (r *insightRepository) ListByRange(ctx context.Context, userID uuid.UUID, dr model.DateRange) ([]*model.InsightRecord, error) {
	query := `
		SELECT * FROM insights
		WHERE user_id = $1 AND date_range_start >= $2 AND date_range_end <= $3
		ORDER BY created_at DESC
	`
	var list []*model.InsightRecord
	if err := r.db.SelectContext(ctx, &list, query, userID, dr.Start, dr.End); err != nil {
		return nil, fmt.Errorf("failed to list insights by range: %w", err)
	}
	return list, nil
}
