package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/internal/repository"
)

type auditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, actor_id, actor_role, action, entity_type, entity_id, changes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	log.ID = uuid.New()
	log.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.ActorID,
		log.ActorRole,
		log.Action,
		log.EntityType,
		log.EntityID,
		log.Changes,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (r *auditRepository) ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error) {
	query := `
		SELECT * FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
	`
	var logs []*model.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, entityType, entityID); err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}
