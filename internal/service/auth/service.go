package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/internal/repository"
	"github.com/parkcare/care-api/internal/repository/postgres"
	"github.com/parkcare/care-api/pkg/auth"
	"github.com/parkcare/care-api/pkg/errors"
	"github.com/parkcare/care-api/pkg/security"
)

// Service handles login and public patient self-registration. Caretakers
// join through the invitation workflow, not here.
type Service interface {
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	RegisterPatient(ctx context.Context, req *model.RegisterRequest) (*model.LoginResponse, error)
}

type service struct {
	users  repository.UserRepository
	hasher security.PasswordHasher
	jwt    auth.JWTService
}

func NewService(users repository.UserRepository, hasher security.PasswordHasher, jwt auth.JWTService) Service {
	return &service{users: users, hasher: hasher, jwt: jwt}
}

// Login verifies credentials and issues an access token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	addr := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.GetByEmail(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if user == nil {
		return nil, errors.NotAuthenticated(nil)
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, errors.NotAuthenticated(err)
	}

	token, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return &model.LoginResponse{Token: token, User: user}, nil
}

// RegisterPatient creates a patient account and logs it in. The public
// signup path can only mint patients.
func (s *service) RegisterPatient(ctx context.Context, req *model.RegisterRequest) (*model.LoginResponse, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.Validation("invalid password", err)
	}

	user := &model.UserAccount{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:     req.FullName,
		Role:         model.RolePatient,
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

	token, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return &model.LoginResponse{Token: token, User: user}, nil
}
