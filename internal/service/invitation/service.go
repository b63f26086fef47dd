package invitation

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/parkcare/care-api/internal/email"
	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/internal/repository"
	"github.com/parkcare/care-api/internal/repository/postgres"
	"github.com/parkcare/care-api/pkg/errors"
	"github.com/parkcare/care-api/pkg/security"
)

// Service runs the caretaker invitation workflow: issue a single-use
// token, deliver the link, and turn an accepted token into an account.
type Service interface {
	Create(ctx context.Context, actor model.Principal, req *model.CreateInvitationRequest) (*model.InvitationResult, error)
	GetByToken(ctx context.Context, token string) (*model.Invitation, error)
	Accept(ctx context.Context, req *model.AcceptInvitationRequest) (*model.UserAccount, error)
}

type service struct {
	invitations repository.InvitationRepository
	users       repository.UserRepository
	notifier    email.Notifier
	hasher      security.PasswordHasher
	baseURL     string
}

func NewService(
	invitations repository.InvitationRepository,
	users repository.UserRepository,
	notifier email.Notifier,
	hasher security.PasswordHasher,
	baseURL string,
) Service {
	return &service{
		invitations: invitations,
		users:       users,
		notifier:    notifier,
		hasher:      hasher,
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

// Create issues an invitation for an email that has neither an account nor
// a pending invitation. Email delivery failure does not fail the call; the
// result carries a warning and the raw link for manual sharing.
func (s *service) Create(ctx context.Context, actor model.Principal, req *model.CreateInvitationRequest) (*model.InvitationResult, error) {
	if actor.Role != model.RoleAdmin && actor.Role != model.RolePatient {
		return nil, errors.NotAuthorized("only patients and admins may send invitations")
	}

	addr := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.users.GetByEmail(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if existing != nil {
		return nil, errors.Conflict("an account with this email already exists")
	}

	// Fast-path pending check; the partial unique index on pending emails
	// still guards the race.
	pending, err := s.invitations.GetPendingByEmail(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to look up invitation: %w", err)
	}
	if pending != nil {
		return nil, errors.Conflict("a pending invitation already exists for this email")
	}

	token, err := security.NewInviteToken()
	if err != nil {
		return nil, errors.Internal(err)
	}

	inv := &model.Invitation{
		Token:           token,
		Email:           addr,
		InvitedByUserID: actor.ID,
		InvitedByRole:   actor.Role,
		Status:          model.InvitationStatusPending,
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		if postgres.IsUniqueViolation(err, postgres.ConstraintInvitationPendingEmail) {
			return nil, errors.Conflict("a pending invitation already exists for this email")
		}
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	result := &model.InvitationResult{
		Invitation: inv,
		InviteLink: s.inviteLink(token),
	}
	if err := s.notifier.SendInvite(ctx, addr, result.InviteLink); err != nil {
		log.Warn().Err(err).Str("email", addr).Msg("invitation email delivery failed")
		result.Warning = "invitation created but the email could not be sent; share the link manually"
	}
	return result, nil
}

// GetByToken validates a token for the signup form. Used tokens report a
// conflict rather than not-found so the UI can explain what happened.
func (s *service) GetByToken(ctx context.Context, token string) (*model.Invitation, error) {
	inv, err := s.invitations.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	if inv == nil {
		return nil, errors.NotFound("invitation", nil)
	}
	if inv.Status != model.InvitationStatusPending {
		return nil, errors.Conflict("invitation has already been used")
	}
	return inv, nil
}

// Accept consumes a pending token and creates the caretaker account in one
// transaction. A token that was consumed concurrently loses the race and
// reports conflict; it can never mint a second account.
func (s *service) Accept(ctx context.Context, req *model.AcceptInvitationRequest) (*model.UserAccount, error) {
	inv, err := s.GetByToken(ctx, req.Token)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.Validation("invalid password", err)
	}

	user := &model.UserAccount{
		Email:        inv.Email,
		FullName:     req.FullName,
		Role:         model.RoleCaretaker,
		PasswordHash: hash,
	}
	if req.Phone != "" {
		user.Phone = &req.Phone
	}

	if err := s.invitations.Accept(ctx, req.Token, user); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.Conflict("invitation has already been used")
		}
		if postgres.IsUniqueViolation(err, "") {
			return nil, errors.Conflict("an account with this email already exists")
		}
		return nil, fmt.Errorf("failed to accept invitation: %w", err)
	}
	return user, nil
}

func (s *service) inviteLink(token string) string {
	return fmt.Sprintf("%s/accept-invite?token=%s", s.baseURL, token)
}
