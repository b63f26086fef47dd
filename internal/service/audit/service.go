package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/internal/repository"
	"github.com/parkcare/care-api/pkg/errors"
)

// Service exposes the access trail to admins.
type Service interface {
	ListForEntity(ctx context.Context, actor model.Principal, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error)
}

type service struct {
	audit repository.AuditRepository
}

func NewService(audit repository.AuditRepository) Service {
	return &service{audit: audit}
}

func (s *service) ListForEntity(ctx context.Context, actor model.Principal, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error) {
	if actor.Role != model.RoleAdmin {
		return nil, errors.NotAuthorized("only admins may read audit logs")
	}
	list, err := s.audit.ListForEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return list, nil
}
