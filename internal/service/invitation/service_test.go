package invitation

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/internal/repository"
	"github.com/parkcare/care-api/internal/repository/postgres"
	"github.com/parkcare/care-api/pkg/errors"
	"github.com/parkcare/care-api/pkg/security"
)

type fakeInvitations struct {
	repository.InvitationRepository
	byToken          map[string]*model.Invitation
	duplicatePending bool
	raceOnAccept     bool
	accepted         []*model.UserAccount
}

func newFakeInvitations() *fakeInvitations {
	return &fakeInvitations{byToken: make(map[string]*model.Invitation)}
}

func (f *fakeInvitations) Create(_ context.Context, inv *model.Invitation) error {
	if f.duplicatePending {
		return &pq.Error{Code: "23505", Constraint: postgres.ConstraintInvitationPendingEmail}
	}
	inv.ID = uuid.New()
	f.byToken[inv.Token] = inv
	return nil
}

func (f *fakeInvitations) GetByToken(_ context.Context, token string) (*model.Invitation, error) {
	return f.byToken[token], nil
}

func (f *fakeInvitations) GetPendingByEmail(_ context.Context, email string) (*model.Invitation, error) {
	for _, inv := range f.byToken {
		if inv.Email == email && inv.Status == model.InvitationStatusPending {
			return inv, nil
		}
	}
	return nil, nil
}

func (f *fakeInvitations) Accept(_ context.Context, token string, user *model.UserAccount) error {
	inv, ok := f.byToken[token]
	if !ok || inv.Status != model.InvitationStatusPending || f.raceOnAccept {
		return sql.ErrNoRows
	}
	inv.Status = model.InvitationStatusAccepted
	user.ID = uuid.New()
	f.accepted = append(f.accepted, user)
	return nil
}

type fakeUsers struct {
	repository.UserRepository
	byEmail map[string]*model.UserAccount
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.UserAccount, error) {
	return f.byEmail[email], nil
}

type fakeNotifier struct {
	fail bool
	sent []string
}

func (f *fakeNotifier) SendInvite(_ context.Context, to, link string) error {
	if f.fail {
		return assert.AnError
	}
	f.sent = append(f.sent, to)
	return nil
}

func newService(invitations *fakeInvitations, users *fakeUsers, notifier *fakeNotifier) Service {
	return NewService(invitations, users, notifier, security.NewBcryptHasher(4), "https://app.parkcare.local/")
}

func patientPrincipal() model.Principal {
	return model.Principal{ID: uuid.New(), Role: model.RolePatient}
}

func TestCreateIssuesTokenAndSendsEmail(t *testing.T) {
	invitations := newFakeInvitations()
	notifier := &fakeNotifier{}
	svc := newService(invitations, &fakeUsers{byEmail: map[string]*model.UserAccount{}}, notifier)

	result, err := svc.Create(context.Background(), patientPrincipal(), &model.CreateInvitationRequest{Email: "Carer@Example.com"})
	require.NoError(t, err)

	assert.Equal(t, "carer@example.com", result.Invitation.Email)
	assert.NotEmpty(t, result.Invitation.Token)
	assert.Contains(t, result.InviteLink, "https://app.parkcare.local/accept-invite?token=")
	assert.Contains(t, result.InviteLink, result.Invitation.Token)
	assert.Empty(t, result.Warning)
	assert.Equal(t, []string{"carer@example.com"}, notifier.sent)
}

func TestCreateRejectsCaretakers(t *testing.T) {
	svc := newService(newFakeInvitations(), &fakeUsers{byEmail: map[string]*model.UserAccount{}}, &fakeNotifier{})
	caretaker := model.Principal{ID: uuid.New(), Role: model.RoleCaretaker}

	_, err := svc.Create(context.Background(), caretaker, &model.CreateInvitationRequest{Email: "x@example.com"})
	assert.True(t, errors.Is(err, errors.ErrNotAuthorized))
}

func TestCreateConflictsOnExistingAccount(t *testing.T) {
	users := &fakeUsers{byEmail: map[string]*model.UserAccount{
		"carer@example.com": {},
	}}
	svc := newService(newFakeInvitations(), users, &fakeNotifier{})

	_, err := svc.Create(context.Background(), patientPrincipal(), &model.CreateInvitationRequest{Email: "carer@example.com"})
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestCreateConflictsOnPendingDuplicate(t *testing.T) {
	invitations := newFakeInvitations()
	svc := newService(invitations, &fakeUsers{byEmail: map[string]*model.UserAccount{}}, &fakeNotifier{})

	_, err := svc.Create(context.Background(), patientPrincipal(), &model.CreateInvitationRequest{Email: "carer@example.com"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), patientPrincipal(), &model.CreateInvitationRequest{Email: "carer@example.com"})
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestCreateConflictsOnPendingRace(t *testing.T) {
	invitations := newFakeInvitations()
	invitations.duplicatePending = true
	svc := newService(invitations, &fakeUsers{byEmail: map[string]*model.UserAccount{}}, &fakeNotifier{})

	_, err := svc.Create(context.Background(), patientPrincipal(), &model.CreateInvitationRequest{Email: "carer@example.com"})
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestCreateSurvivesEmailFailure(t *testing.T) {
	invitations := newFakeInvitations()
	svc := newService(invitations, &fakeUsers{byEmail: map[string]*model.UserAccount{}}, &fakeNotifier{fail: true})

	result, err := svc.Create(context.Background(), patientPrincipal(), &model.CreateInvitationRequest{Email: "carer@example.com"})
	require.NoError(t, err, "delivery failure must not fail the invitation")

	assert.NotEmpty(t, result.Warning)
	assert.Contains(t, result.InviteLink, result.Invitation.Token)
}

func TestGetByTokenStates(t *testing.T) {
	invitations := newFakeInvitations()
	svc := newService(invitations, &fakeUsers{byEmail: map[string]*model.UserAccount{}}, &fakeNotifier{})

	_, err := svc.GetByToken(context.Background(), "missing")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	invitations.byToken["used"] = &model.Invitation{Token: "used", Status: model.InvitationStatusAccepted}
	_, err = svc.GetByToken(context.Background(), "used")
	assert.True(t, errors.Is(err, errors.ErrConflict))

	invitations.byToken["open"] = &model.Invitation{Token: "open", Status: model.InvitationStatusPending}
	inv, err := svc.GetByToken(context.Background(), "open")
	require.NoError(t, err)
	assert.Equal(t, "open", inv.Token)
}

func TestAcceptCreatesCaretakerAccount(t *testing.T) {
	invitations := newFakeInvitations()
	invitations.byToken["tok"] = &model.Invitation{
		Token:  "tok",
		Email:  "carer@example.com",
		Status: model.InvitationStatusPending,
	}
	svc := newService(invitations, &fakeUsers{byEmail: map[string]*model.UserAccount{}}, &fakeNotifier{})

	user, err := svc.Accept(context.Background(), &model.AcceptInvitationRequest{
		Token:    "tok",
		FullName: "Casey Carer",
		Password: "supersecret",
	})
	require.NoError(t, err)

	assert.Equal(t, model.RoleCaretaker, user.Role)
	assert.Equal(t, "carer@example.com", user.Email)
	assert.NotEqual(t, "supersecret", user.PasswordHash)
	require.Len(t, invitations.accepted, 1)
}

func TestAcceptIsSingleUse(t *testing.T) {
	invitations := newFakeInvitations()
	invitations.byToken["tok"] = &model.Invitation{
		Token:  "tok",
		Email:  "carer@example.com",
		Status: model.InvitationStatusPending,
	}
	svc := newService(invitations, &fakeUsers{byEmail: map[string]*model.UserAccount{}}, &fakeNotifier{})

	req := &model.AcceptInvitationRequest{Token: "tok", FullName: "Casey", Password: "supersecret"}
	_, err := svc.Accept(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), req)
	assert.True(t, errors.Is(err, errors.ErrConflict))
	assert.Len(t, invitations.accepted, 1)
}

func TestAcceptLosingTheRaceConflicts(t *testing.T) {
	invitations := newFakeInvitations()
	invitations.byToken["tok"] = &model.Invitation{
		Token:  "tok",
		Email:  "carer@example.com",
		Status: model.InvitationStatusPending,
	}
	invitations.raceOnAccept = true
	svc := newService(invitations, &fakeUsers{byEmail: map[string]*model.UserAccount{}}, &fakeNotifier{})

	_, err := svc.Accept(context.Background(), &model.AcceptInvitationRequest{
		Token:    "tok",
		FullName: "Casey",
		Password: "supersecret",
	})
	assert.True(t, errors.Is(err, errors.ErrConflict))
}
