package checkin

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/internal/repository"
	"github.com/parkcare/care-api/internal/service/access"
	"github.com/parkcare/care-api/pkg/errors"
)

type fakeCheckIns struct {
	repository.CheckInRepository
	byKey map[string]*model.CheckIn
	byID  map[uuid.UUID]*model.CheckIn
}

func newFakeCheckIns() *fakeCheckIns {
	return &fakeCheckIns{
		byKey: make(map[string]*model.CheckIn),
		byID:  make(map[uuid.UUID]*model.CheckIn),
	}
}

func key(userID uuid.UUID, date time.Time) string {
	return userID.String() + ":" + date.Format(model.CheckInDateLayout)
}

func (f *fakeCheckIns) Upsert(_ context.Context, c *model.CheckIn) (*model.CheckIn, error) {
	k := key(c.UserID, c.CheckInDate)
	if existing, ok := f.byKey[k]; ok {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
	} else {
		c.ID = uuid.New()
		c.CreatedAt = time.Now()
	}
	c.UpdatedAt = time.Now()
	f.byKey[k] = c
	f.byID[c.ID] = c
	return c, nil
}

func (f *fakeCheckIns) Get(_ context.Context, id uuid.UUID) (*model.CheckIn, error) {
	return f.byID[id], nil
}

func (f *fakeCheckIns) GetByDate(_ context.Context, userID uuid.UUID, date time.Time) (*model.CheckIn, error) {
	return f.byKey[key(userID, date)], nil
}

func (f *fakeCheckIns) Update(_ context.Context, c *model.CheckIn) error {
	f.byID[c.ID] = c
	f.byKey[key(c.UserID, c.CheckInDate)] = c
	return nil
}

func (f *fakeCheckIns) Delete(_ context.Context, id uuid.UUID) error {
	c := f.byID[id]
	delete(f.byKey, key(c.UserID, c.CheckInDate))
	delete(f.byID, id)
	return nil
}

type allowAllGate struct {
	calls []access.Capability
	deny  error
}

func (g *allowAllGate) Authorize(_ context.Context, _ model.Principal, _ uuid.UUID, cap access.Capability) error {
	g.calls = append(g.calls, cap)
	return g.deny
}

type fakeOutbox struct {
	repository.OutboxRepository
	events []*model.OutboxEvent
}

func (f *fakeOutbox) Create(_ context.Context, event *model.OutboxEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeAudit struct {
	repository.AuditRepository
	entries []*model.AuditLog
}

func (f *fakeAudit) Create(_ context.Context, entry *model.AuditLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

func validRequest() *model.UpsertCheckInRequest {
	return &model.UpsertCheckInRequest{
		CheckInDate:     "2026-08-27",
		TremorScore:     3,
		StiffnessScore:  2,
		BalanceScore:    4,
		SleepScore:      7,
		MoodScore:       6,
		MedicationTaken: model.MedicationTaken,
		SideEffects:     []string{"Dizziness"},
	}
}

func newService() (Service, *fakeCheckIns, *allowAllGate, *fakeOutbox, *fakeAudit) {
	repo := newFakeCheckIns()
	gate := &allowAllGate{}
	outbox := &fakeOutbox{}
	audit := &fakeAudit{}
	return NewService(repo, gate, outbox, audit), repo, gate, outbox, audit
}

func TestUpsertWritesRecordAndPublishes(t *testing.T) {
	svc, repo, _, outbox, audit := newService()
	patient := model.Principal{ID: uuid.New(), Role: model.RolePatient}

	saved, err := svc.Upsert(context.Background(), patient, patient.ID, validRequest())
	require.NoError(t, err)

	assert.Equal(t, patient.ID, saved.UserID)
	assert.Len(t, repo.byKey, 1)
	require.Len(t, outbox.events, 1)
	assert.Equal(t, model.EventCheckInRecorded, outbox.events[0].EventType)
	assert.Empty(t, audit.entries, "self logging leaves no audit trail")
}

func TestUpsertReplacesSameDay(t *testing.T) {
	svc, repo, _, _, _ := newService()
	patient := model.Principal{ID: uuid.New(), Role: model.RolePatient}

	first, err := svc.Upsert(context.Background(), patient, patient.ID, validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.TremorScore = 9
	second, err := svc.Upsert(context.Background(), patient, patient.ID, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 9, second.TremorScore)
	assert.Len(t, repo.byKey, 1)
}

func TestUpsertValidatesScoreBounds(t *testing.T) {
	svc, _, _, _, _ := newService()
	patient := model.Principal{ID: uuid.New(), Role: model.RolePatient}

	req := validRequest()
	req.MoodScore = 11
	_, err := svc.Upsert(context.Background(), patient, patient.ID, req)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	req = validRequest()
	req.TremorScore = -1
	_, err = svc.Upsert(context.Background(), patient, patient.ID, req)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestUpsertValidatesMedicationStatus(t *testing.T) {
	svc, _, _, _, _ := newService()
	patient := model.Principal{ID: uuid.New(), Role: model.RolePatient}

	req := validRequest()
	req.MedicationTaken = "sometimes"
	_, err := svc.Upsert(context.Background(), patient, patient.ID, req)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestUpsertValidatesDateFormat(t *testing.T) {
	svc, _, _, _, _ := newService()
	patient := model.Principal{ID: uuid.New(), Role: model.RolePatient}

	req := validRequest()
	req.CheckInDate = "27/08/2026"
	_, err := svc.Upsert(context.Background(), patient, patient.ID, req)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestUpsertOnBehalfRequiresCapability(t *testing.T) {
	svc, _, gate, _, audit := newService()
	caretaker := model.Principal{ID: uuid.New(), Role: model.RoleCaretaker}
	patientID := uuid.New()

	gate.deny = errors.NotAuthorized("caretaker is not permitted to perform this action")
	_, err := svc.Upsert(context.Background(), caretaker, patientID, validRequest())
	assert.True(t, errors.Is(err, errors.ErrNotAuthorized))

	gate.deny = nil
	_, err = svc.Upsert(context.Background(), caretaker, patientID, validRequest())
	require.NoError(t, err)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "checkin.log_on_behalf", audit.entries[0].Action)
	assert.Equal(t, caretaker.ID, audit.entries[0].ActorID)
	assert.Contains(t, gate.calls, access.CapabilityLogOnBehalf)
}

func TestUpdateAdminOnly(t *testing.T) {
	svc, _, _, _, _ := newService()
	patient := model.Principal{ID: uuid.New(), Role: model.RolePatient}

	saved, err := svc.Upsert(context.Background(), patient, patient.ID, validRequest())
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), patient, saved.ID, validRequest())
	assert.True(t, errors.Is(err, errors.ErrNotAuthorized))
}

func TestUpdateKeepsOwnerAndDate(t *testing.T) {
	svc, _, _, _, audit := newService()
	patient := model.Principal{ID: uuid.New(), Role: model.RolePatient}
	admin := model.Principal{ID: uuid.New(), Role: model.RoleAdmin}

	saved, err := svc.Upsert(context.Background(), patient, patient.ID, validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.TremorScore = 8
	req.Notes = "clinic correction"
	updated, err := svc.Update(context.Background(), admin, saved.ID, req)
	require.NoError(t, err)

	assert.Equal(t, saved.ID, updated.ID)
	assert.Equal(t, patient.ID, updated.UserID)
	assert.Equal(t, saved.CheckInDate, updated.CheckInDate)
	assert.Equal(t, 8, updated.TremorScore)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "clinic correction", *updated.Notes)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "checkin.update", audit.entries[0].Action)
}

func TestUpdateMissingRecord(t *testing.T) {
	svc, _, _, _, _ := newService()
	admin := model.Principal{ID: uuid.New(), Role: model.RoleAdmin}

	_, err := svc.Update(context.Background(), admin, uuid.New(), validRequest())
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestDeleteOwnerOnly(t *testing.T) {
	svc, _, _, _, _ := newService()
	patient := model.Principal{ID: uuid.New(), Role: model.RolePatient}

	saved, err := svc.Upsert(context.Background(), patient, patient.ID, validRequest())
	require.NoError(t, err)

	caretaker := model.Principal{ID: uuid.New(), Role: model.RoleCaretaker}
	err = svc.Delete(context.Background(), caretaker, saved.ID)
	assert.True(t, errors.Is(err, errors.ErrNotAuthorized))

	assert.NoError(t, svc.Delete(context.Background(), patient, saved.ID))
	err = svc.Delete(context.Background(), patient, saved.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
