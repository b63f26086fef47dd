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

// ConstraintActivePair is the partial unique index on
// (patient_id, caretaker_id) WHERE status = 'active'. It, not any caller
// pre-check, decides the loser of a concurrent create.
const ConstraintActivePair = "assignments_active_pair_idx"

// capabilityColumns whitelists the flag columns a patient may toggle.
var capabilityColumns = map[string]bool{
	model.CapabilityViewData:        true,
	model.CapabilityLogOnBehalf:     true,
	model.CapabilityGenerateReports: true,
}

type assignmentRepository struct {
	db *sqlx.DB
}

func NewAssignmentRepository(db *sqlx.DB) repository.AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	query := `
		INSERT INTO assignments (
			id, patient_id, caretaker_id, assigned_by_user_id, assigned_at, status, notes,
			can_view_data, can_log_on_behalf, can_generate_reports, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	a.ID = uuid.New()
	a.AssignedAt = time.Now()
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.PatientID,
		a.CaretakerID,
		a.AssignedByUserID,
		a.AssignedAt,
		a.Status,
		a.Notes,
		a.CanViewData,
		a.CanLogOnBehalf,
		a.CanGenerateReports,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

func (r *assignmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	query := `SELECT * FROM assignments WHERE id = $1`
	var a model.Assignment
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return &a, nil
}

func (r *assignmentRepository) GetByPair(ctx context.Context, patientID, caretakerID uuid.UUID) (*model.Assignment, error) {
	query := `SELECT * FROM assignments WHERE patient_id = $1 AND caretaker_id = $2 LIMIT 1`
	var a model.Assignment
	if err := r.db.GetContext(ctx, &a, query, patientID, caretakerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get assignment by pair: %w", err)
	}
	return &a, nil
}

func (r *assignmentRepository) GetActiveByPair(ctx context.Context, patientID, caretakerID uuid.UUID) (*model.Assignment, error) {
	query := `SELECT * FROM assignments WHERE patient_id = $1 AND caretaker_id = $2 AND status = $3`
	var a model.Assignment
	if err := r.db.GetContext(ctx, &a, query, patientID, caretakerID, model.AssignmentStatusActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active assignment: %w", err)
	}
	return &a, nil
}

func (r *assignmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AssignmentStatus) (*model.Assignment, error) {
	query := `
		UPDATE assignments SET status = $1, updated_at = $2
		WHERE id = $3
		RETURNING *
	`
	var a model.Assignment
	if err := r.db.GetContext(ctx, &a, query, status, time.Now(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update assignment status: %w", err)
	}
	return &a, nil
}

// UpdateCapability is an atomic single-column flag write.
func (r *assignmentRepository) UpdateCapability(ctx context.Context, id uuid.UUID, capability string, enabled bool) (*model.Assignment, error) {
	if !capabilityColumns[capability] {
		return nil, fmt.Errorf("unknown capability column: %s", capability)
	}
	query := fmt.Sprintf(`
		UPDATE assignments SET %s = $1, updated_at = $2
		WHERE id = $3
		RETURNING *
	`, capability)
	var a model.Assignment
	if err := r.db.GetContext(ctx, &a, query, enabled, time.Now(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update capability: %w", err)
	}
	return &a, nil
}

func (r *assignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM assignments WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
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

const assignmentDetailSelect = `
	SELECT a.*,
		p.full_name AS patient_name, p.email AS patient_email,
		c.full_name AS caretaker_name, c.email AS caretaker_email
	FROM assignments a
	JOIN accounts p ON p.id = a.patient_id
	JOIN accounts c ON c.id = a.caretaker_id
`

func (r *assignmentRepository) ListAll(ctx context.Context) ([]*model.AssignmentDetail, error) {
	query := assignmentDetailSelect + ` ORDER BY a.created_at DESC`
	var list []*model.AssignmentDetail
	if err := r.db.SelectContext(ctx, &list, query); err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return list, nil
}

func (r *assignmentRepository) ListActiveForCaretaker(ctx context.Context, caretakerID uuid.UUID) ([]*model.AssignmentDetail, error) {
	query := assignmentDetailSelect + ` WHERE a.caretaker_id = $1 AND a.status = $2 ORDER BY a.created_at DESC`
	var list []*model.AssignmentDetail
	if err := r.db.SelectContext(ctx, &list, query, caretakerID, model.AssignmentStatusActive); err != nil {
		return nil, fmt.Errorf("failed to list caretaker assignments: %w", err)
	}
	return list, nil
}

func (r *assignmentRepository) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.AssignmentDetail, error) {
	query := assignmentDetailSelect + ` WHERE a.patient_id = $1 ORDER BY a.created_at DESC`
	var list []*model.AssignmentDetail
	if err := r.db.SelectContext(ctx, &list, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list patient assignments: %w", err)
	}
	return list, nil
}

func (r *assignmentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM assignments`); err != nil {
		return 0, fmt.Errorf("failed to count assignments: %w", err)
	}
	return count, nil
}

func (r *assignmentRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM assignments WHERE status = $1`
	if err := r.db.GetContext(ctx, &count, query, model.AssignmentStatusActive); err != nil {
		return 0, fmt.Errorf("failed to count active assignments: %w", err)
	}
	return count, nil
}
