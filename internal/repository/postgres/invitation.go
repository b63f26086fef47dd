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

// Constraint names enforced by the invitations schema.
const (
	ConstraintInvitationToken        = "invitations_token_key"
	ConstraintInvitationPendingEmail = "invitations_pending_email_idx"
)

type invitationRepository struct {
	BaseRepository
}

func NewInvitationRepository(base BaseRepository) repository.InvitationRepository {
	return &invitationRepository{base}
}

func (r *invitationRepository) Create(ctx context.Context, inv *model.Invitation) error {
	query := `
		INSERT INTO invitations (id, token, email, invited_by_user_id, invited_by_role, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	inv.ID = uuid.New()
	inv.CreatedAt = time.Now()

	_, err := r.GetDB().ExecContext(ctx, query,
		inv.ID,
		inv.Token,
		inv.Email,
		inv.InvitedByUserID,
		inv.InvitedByRole,
		inv.Status,
		inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

func (r *invitationRepository) GetByToken(ctx context.Context, token string) (*model.Invitation, error) {
	query := `SELECT * FROM invitations WHERE token = $1`
	var inv model.Invitation
	if err := r.GetDB().GetContext(ctx, &inv, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return &inv, nil
}

func (r *invitationRepository) GetPendingByEmail(ctx context.Context, email string) (*model.Invitation, error) {
	query := `SELECT * FROM invitations WHERE email = $1 AND status = $2`
	var inv model.Invitation
	if err := r.GetDB().GetContext(ctx, &inv, query, email, model.InvitationStatusPending); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pending invitation: %w", err)
	}
	return &inv, nil
}

// Accept consumes the token and creates the caretaker account in one
// transaction. The conditional UPDATE is what makes the token single use:
// a second acceptance matches zero rows and the whole transaction aborts.
func (r *invitationRepository) Accept(ctx context.Context, token string, user *model.UserAccount) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE invitations
			SET status = $1, accepted_at = NOW()
			WHERE token = $2 AND status = $3
		`, model.InvitationStatusAccepted, token, model.InvitationStatusPending)
		if err != nil {
			return fmt.Errorf("failed to accept invitation: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return sql.ErrNoRows
		}

		user.ID = uuid.New()
		user.CreatedAt = time.Now()
		user.UpdatedAt = time.Now()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO accounts (id, email, full_name, role, phone, password_hash, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, user.ID, user.Email, user.FullName, user.Role, user.Phone, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create caretaker account: %w", err)
		}
		return nil
	})
}
