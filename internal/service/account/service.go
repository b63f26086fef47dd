package account

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/internal/repository"
	"github.com/parkcare/care-api/internal/repository/postgres"
	"github.com/parkcare/care-api/pkg/errors"
	"github.com/parkcare/care-api/pkg/security"
)

// Service manages account reference data. Role changes are not supported;
// an account keeps the role it was created with.
type Service interface {
	Create(ctx context.Context, actor model.Principal, req *model.CreateUserRequest) (*model.UserAccount, error)
	Get(ctx context.Context, actor model.Principal, id uuid.UUID) (*model.UserAccount, error)
	ListByRole(ctx context.Context, actor model.Principal, role model.Role) ([]*model.UserAccount, error)
	Update(ctx context.Context, actor model.Principal, id uuid.UUID, req *model.UpdateUserRequest) (*model.UserAccount, error)
	Delete(ctx context.Context, actor model.Principal, id uuid.UUID) error
}

type service struct {
	users  repository.UserRepository
	hasher security.PasswordHasher
	audit  repository.AuditRepository
}

func NewService(users repository.UserRepository, hasher security.PasswordHasher, audit repository.AuditRepository) Service {
	return &service{users: users, hasher: hasher, audit: audit}
}

func (s *service) Create(ctx context.Context, actor model.Principal, req *model.CreateUserRequest) (*model.UserAccount, error) {
	if actor.Role != model.RoleAdmin {
		return nil, errors.NotAuthorized("only admins may create accounts")
	}
	if !req.Role.Valid() {
		return nil, errors.Validation("role must be patient, caretaker or admin", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.Validation("invalid password", err)
	}

	user := &model.UserAccount{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:     req.FullName,
		Role:         req.Role,
		PasswordHash: hash,
	}
	if req.Phone != "" {
		user.Phone = &req.Phone
	}

	if err := s.users.Create(ctx, user); err != nil {
		if postgres.IsUniqueViolation(err, postgres.ConstraintAccountEmail) {
			return nil, errors.Conflict("an account with this email already exists")
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.recordAudit(ctx, actor, "account.create", user.ID)
	return user, nil
}

func (s *service) Get(ctx context.Context, actor model.Principal, id uuid.UUID) (*model.UserAccount, error) {
	if actor.Role != model.RoleAdmin && actor.ID != id {
		return nil, errors.NotAuthorized("")
	}
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if user == nil {
		return nil, errors.NotFound("account", nil)
	}
	return user, nil
}

func (s *service) ListByRole(ctx context.Context, actor model.Principal, role model.Role) ([]*model.UserAccount, error) {
	if actor.Role != model.RoleAdmin {
		return nil, errors.NotAuthorized("only admins may list accounts")
	}
	if !role.Valid() {
		return nil, errors.Validation("role must be patient, caretaker or admin", nil)
	}
	list, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return list, nil
}

func (s *service) Update(ctx context.Context, actor model.Principal, id uuid.UUID, req *model.UpdateUserRequest) (*model.UserAccount, error) {
	if actor.Role != model.RoleAdmin && actor.ID != id {
		return nil, errors.NotAuthorized("")
	}

	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if user == nil {
		return nil, errors.NotFound("account", nil)
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	s.recordAudit(ctx, actor, "account.update", user.ID)
	return user, nil
}

func (s *service) Delete(ctx context.Context, actor model.Principal, id uuid.UUID) error {
	if actor.Role != model.RoleAdmin {
		return errors.NotAuthorized("only admins may delete accounts")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NotFound("account", nil)
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}
	s.recordAudit(ctx, actor, "account.delete", id)
	return nil
}

func (s *service) recordAudit(ctx context.Context, actor model.Principal, action string, entityID uuid.UUID) {
	entry := &model.AuditLog{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "account",
		EntityID:   entityID,
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		log.Error().Err(err).Str("action", action).Msg("failed to write audit entry")
	}
}
