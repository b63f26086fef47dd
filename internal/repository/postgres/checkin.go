package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/internal/repository"
)

type checkinRepository struct {
	db *sqlx.DB
}

func NewCheckInRepository(db *sqlx.DB) repository.CheckInRepository {
	return &checkinRepository{db: db}
}

// Upsert writes the daily record, replacing every field of an existing row
// for the same (user_id, check_in_date). Last write wins; created_at is
// preserved across replacements.
func (r *checkinRepository) Upsert(ctx context.Context, c *model.CheckIn) (*model.CheckIn, error) {
	query := `
		INSERT INTO checkins (
			id, user_id, check_in_date, tremor_score, stiffness_score, balance_score,
			sleep_score, mood_score, medication_taken, side_effects, side_effects_other,
			notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (user_id, check_in_date) DO UPDATE SET
			tremor_score = EXCLUDED.tremor_score,
			stiffness_score = EXCLUDED.stiffness_score,
			balance_score = EXCLUDED.balance_score,
			sleep_score = EXCLUDED.sleep_score,
			mood_score = EXCLUDED.mood_score,
			medication_taken = EXCLUDED.medication_taken,
			side_effects = EXCLUDED.side_effects,
			side_effects_other = EXCLUDED.side_effects_other,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at
		RETURNING *
	`
	// On conflict the stored row keeps its original id and created_at.
	c.ID = uuid.New()
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.SideEffects == nil {
		c.SideEffects = pq.StringArray{}
	}

	var saved model.CheckIn
	err := r.db.GetContext(ctx, &saved, query,
		c.ID,
		c.UserID,
		c.CheckInDate,
		c.TremorScore,
		c.StiffnessScore,
		c.BalanceScore,
		c.SleepScore,
		c.MoodScore,
		c.MedicationTaken,
		c.SideEffects,
		c.SideEffectsOther,
		c.Notes,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert check-in: %w", err)
	}
	return &saved, nil
}

func (r *checkinRepository) GetByDate(ctx context.Context, userID uuid.UUID, date time.Time) (*model.CheckIn, error) {
	query := `SELECT * FROM checkins WHERE user_id = $1 AND check_in_date = $2`
	var c model.CheckIn
	if err := r.db.GetContext(ctx, &c, query, userID, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get check-in: %w", err)
	}
	return &c, nil
}

func (r *checkinRepository) Get(ctx context.Context, id uuid.UUID) (*model.CheckIn, error) {
	query := `SELECT * FROM checkins WHERE id = $1`
	var c model.CheckIn
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get check-in: %w", err)
	}
	return &c, nil
}

func (r *checkinRepository) ListRange(ctx context.Context, userID uuid.UUID, dr model.DateRange) ([]*model.CheckIn, error) {
	query := `
		SELECT * FROM checkins
		WHERE user_id = $1 AND check_in_date >= $2 AND check_in_date <= $3
		ORDER BY check_in_date ASC
	`
	var list []*model.CheckIn
	if err := r.db.SelectContext(ctx, &list, query, userID, dr.Start, dr.End); err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	return list, nil
}

func (r *checkinRepository) ListAllForUser(ctx context.Context, userID uuid.UUID) ([]*model.CheckIn, error) {
	query := `SELECT * FROM checkins WHERE user_id = $1 ORDER BY check_in_date DESC`
	var list []*model.CheckIn
	if err := r.db.SelectContext(ctx, &list, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	return list, nil
}

func (r *checkinRepository) Update(ctx context.Context, c *model.CheckIn) error {
	query := `
		UPDATE checkins SET
			tremor_score = $1, stiffness_score = $2, balance_score = $3,
			sleep_score = $4, mood_score = $5, medication_taken = $6,
			side_effects = $7, side_effects_other = $8, notes = $9, updated_at = $10
		WHERE id = $11
	`
	if c.SideEffects == nil {
		c.SideEffects = pq.StringArray{}
	}
	res, err := r.db.ExecContext(ctx, query,
		c.TremorScore,
		c.StiffnessScore,
		c.BalanceScore,
		c.SleepScore,
		c.MoodScore,
		c.MedicationTaken,
		c.SideEffects,
		c.SideEffectsOther,
		c.Notes,
		time.Now(),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update check-in: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *checkinRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM checkins WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete check-in: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *checkinRepository) CountForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM checkins WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count check-ins: %w", err)
	}
	return count, nil
}

func (r *checkinRepository) CountForUsersSince(ctx context.Context, userIDs []uuid.UUID, since time.Time) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	var count int
	query := `SELECT COUNT(*) FROM checkins WHERE user_id = ANY($1) AND check_in_date >= $2`
	if err := r.db.GetContext(ctx, &count, query, pq.Array(userIDs), since); err != nil {
		return 0, fmt.Errorf("failed to count check-ins: %w", err)
	}
	return count, nil
}

func (r *checkinRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM checkins WHERE created_at >= $1`
	if err := r.db.GetContext(ctx, &count, query, since); err != nil {
		return 0, fmt.Errorf("failed to count recent check-ins: %w", err)
	}
	return count, nil
}
