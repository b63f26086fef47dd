package report

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
	forUser    []*model.CheckIn
	sinceCount map[bool]int // keyed by since.IsZero()
	countSince int
}

func (f *fakeCheckIns) ListRange(_ context.Context, _ uuid.UUID, _ model.DateRange) ([]*model.CheckIn, error) {
	return f.forUser, nil
}

func (f *fakeCheckIns) ListAllForUser(_ context.Context, _ uuid.UUID) ([]*model.CheckIn, error) {
	return f.forUser, nil
}

func (f *fakeCheckIns) CountForUsersSince(_ context.Context, _ []uuid.UUID, since time.Time) (int, error) {
	return f.sinceCount[since.IsZero()], nil
}

func (f *fakeCheckIns) CountSince(_ context.Context, _ time.Time) (int, error) {
	return f.countSince, nil
}

type fakeUsers struct {
	repository.UserRepository
	byID   map[uuid.UUID]*model.UserAccount
	counts map[model.Role]int
}

func (f *fakeUsers) Get(_ context.Context, id uuid.UUID) (*model.UserAccount, error) {
	return f.byID[id], nil
}

func (f *fakeUsers) CountByRole(_ context.Context, role model.Role) (int, error) {
	return f.counts[role], nil
}

type fakeAssignments struct {
	repository.AssignmentRepository
	forCaretaker []*model.AssignmentDetail
	activeByPair *model.Assignment
	total        int
	active       int
}

func (f *fakeAssignments) ListActiveForCaretaker(_ context.Context, _ uuid.UUID) ([]*model.AssignmentDetail, error) {
	return f.forCaretaker, nil
}

func (f *fakeAssignments) GetActiveByPair(_ context.Context, _, _ uuid.UUID) (*model.Assignment, error) {
	return f.activeByPair, nil
}

func (f *fakeAssignments) Count(_ context.Context) (int, error) {
	return f.total, nil
}

func (f *fakeAssignments) CountActive(_ context.Context) (int, error) {
	return f.active, nil
}

type openGate struct{}

func (openGate) Authorize(context.Context, model.Principal, uuid.UUID, access.Capability) error {
	return nil
}

type recordingGate struct {
	caps []access.Capability
}

func (g *recordingGate) Authorize(_ context.Context, _ model.Principal, _ uuid.UUID, cap access.Capability) error {
	g.caps = append(g.caps, cap)
	return nil
}

func takenCheckIns(n int) []*model.CheckIn {
	out := make([]*model.CheckIn, n)
	for i := range out {
		out[i] = &model.CheckIn{MedicationTaken: model.MedicationTaken, TremorScore: 4}
	}
	return out
}

func TestPatientWindowRejectsUnknownRange(t *testing.T) {
	svc := NewService(&fakeCheckIns{}, &fakeUsers{}, &fakeAssignments{}, openGate{})
	patient := model.Principal{ID: uuid.New(), Role: model.RolePatient}

	_, err := svc.PatientWindow(context.Background(), patient, patient.ID, "fortnight")
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestPatientWindowSummarizes(t *testing.T) {
	svc := NewService(&fakeCheckIns{forUser: takenCheckIns(3)}, &fakeUsers{}, &fakeAssignments{}, openGate{})
	patient := model.Principal{ID: uuid.New(), Role: model.RolePatient}

	stats, err := svc.PatientWindow(context.Background(), patient, patient.ID, model.RangeLabel7Days)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalCheckIns)
	require.NotNil(t, stats.Averages)
	assert.Equal(t, 4.0, stats.Averages.AvgTremor)
	require.NotNil(t, stats.MedicationAdherence)
	assert.Equal(t, 100, *stats.MedicationAdherence)
}

func TestDerivedMetricsGateOnViewData(t *testing.T) {
	patientID := uuid.New()
	user := &model.UserAccount{Role: model.RolePatient}
	user.ID = patientID
	user.CreatedAt = time.Now().AddDate(0, 0, -3)

	gate := &recordingGate{}
	users := &fakeUsers{byID: map[uuid.UUID]*model.UserAccount{patientID: user}}
	svc := NewService(&fakeCheckIns{forUser: takenCheckIns(2)}, users, &fakeAssignments{}, gate)
	caretaker := model.Principal{ID: uuid.New(), Role: model.RoleCaretaker}

	_, err := svc.PatientWindow(context.Background(), caretaker, patientID, model.RangeLabel7Days)
	require.NoError(t, err)
	_, err = svc.PatientDetail(context.Background(), caretaker, patientID)
	require.NoError(t, err)

	assert.Equal(t, []access.Capability{access.CapabilityViewData, access.CapabilityViewData}, gate.caps)
}

func TestCaretakerWithViewDataReadsWindowStats(t *testing.T) {
	patientID := uuid.New()
	caretaker := model.Principal{ID: uuid.New(), Role: model.RoleCaretaker}
	assignments := &fakeAssignments{activeByPair: &model.Assignment{
		PatientID:   patientID,
		CaretakerID: caretaker.ID,
		Status:      model.AssignmentStatusActive,
		CanViewData: true,
	}}
	gate := access.NewService(assignments, nil)
	svc := NewService(&fakeCheckIns{forUser: takenCheckIns(3)}, &fakeUsers{}, assignments, gate)

	stats, err := svc.PatientWindow(context.Background(), caretaker, patientID, model.RangeLabel7Days)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalCheckIns)
}

func TestPatientDetailMissedDaysNeverNegative(t *testing.T) {
	patientID := uuid.New()
	registeredToday := &model.UserAccount{Role: model.RolePatient}
	registeredToday.ID = patientID
	registeredToday.CreatedAt = time.Now().Add(-2 * time.Hour)

	users := &fakeUsers{byID: map[uuid.UUID]*model.UserAccount{patientID: registeredToday}}
	svc := NewService(&fakeCheckIns{forUser: takenCheckIns(5)}, users, &fakeAssignments{}, openGate{})
	admin := model.Principal{ID: uuid.New(), Role: model.RoleAdmin}

	detail, err := svc.PatientDetail(context.Background(), admin, patientID)
	require.NoError(t, err)

	assert.Equal(t, 5, detail.TotalCheckIns)
	assert.Equal(t, 0, detail.DaysSinceRegistration)
	assert.Equal(t, 0, detail.MissedDays, "more check-ins than expected days must clamp to zero")
}

func TestPatientDetailCountsMissedDays(t *testing.T) {
	patientID := uuid.New()
	user := &model.UserAccount{Role: model.RolePatient}
	user.ID = patientID
	user.CreatedAt = time.Now().AddDate(0, 0, -9)

	users := &fakeUsers{byID: map[uuid.UUID]*model.UserAccount{patientID: user}}
	svc := NewService(&fakeCheckIns{forUser: takenCheckIns(4)}, users, &fakeAssignments{}, openGate{})
	admin := model.Principal{ID: uuid.New(), Role: model.RoleAdmin}

	detail, err := svc.PatientDetail(context.Background(), admin, patientID)
	require.NoError(t, err)

	assert.Equal(t, 9, detail.DaysSinceRegistration)
	assert.Equal(t, 5, detail.MissedDays, "missed days is days since registration minus total check-ins")
	assert.Equal(t, detail.DaysSinceRegistration-detail.TotalCheckIns, detail.MissedDays)
}

func TestPatientDetailUnknownPatient(t *testing.T) {
	svc := NewService(&fakeCheckIns{}, &fakeUsers{byID: map[uuid.UUID]*model.UserAccount{}}, &fakeAssignments{}, openGate{})
	admin := model.Principal{ID: uuid.New(), Role: model.RoleAdmin}

	_, err := svc.PatientDetail(context.Background(), admin, uuid.New())
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestDashboardAdminOnly(t *testing.T) {
	checkIns := &fakeCheckIns{countSince: 12}
	users := &fakeUsers{counts: map[model.Role]int{model.RolePatient: 10, model.RoleCaretaker: 4}}
	assignments := &fakeAssignments{total: 7, active: 5}
	svc := NewService(checkIns, users, assignments, openGate{})

	patient := model.Principal{ID: uuid.New(), Role: model.RolePatient}
	_, err := svc.Dashboard(context.Background(), patient)
	assert.True(t, errors.Is(err, errors.ErrNotAuthorized))

	admin := model.Principal{ID: uuid.New(), Role: model.RoleAdmin}
	stats, err := svc.Dashboard(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, &model.DashboardStats{
		TotalPatients:     10,
		TotalCaretakers:   4,
		TotalAssignments:  7,
		ActiveAssignments: 5,
		RecentCheckIns:    12,
	}, stats)
}

func TestCaretakerOverview(t *testing.T) {
	caretaker := model.Principal{ID: uuid.New(), Role: model.RoleCaretaker}
	assignments := &fakeAssignments{forCaretaker: []*model.AssignmentDetail{
		{Assignment: model.Assignment{PatientID: uuid.New(), CaretakerID: caretaker.ID}},
		{Assignment: model.Assignment{PatientID: uuid.New(), CaretakerID: caretaker.ID}},
	}}
	checkIns := &fakeCheckIns{sinceCount: map[bool]int{true: 40, false: 9}}
	svc := NewService(checkIns, &fakeUsers{}, assignments, openGate{})

	overview, err := svc.CaretakerOverview(context.Background(), caretaker, caretaker.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, overview.ActivePatients)
	assert.Equal(t, 40, overview.TotalCheckIns)
	assert.Equal(t, 9, overview.WeekCheckIns)

	other := model.Principal{ID: uuid.New(), Role: model.RoleCaretaker}
	_, err = svc.CaretakerOverview(context.Background(), other, caretaker.ID)
	assert.True(t, errors.Is(err, errors.ErrNotAuthorized))
}

func TestCaretakerOverviewNoAssignments(t *testing.T) {
	caretaker := model.Principal{ID: uuid.New(), Role: model.RoleCaretaker}
	svc := NewService(&fakeCheckIns{}, &fakeUsers{}, &fakeAssignments{}, openGate{})

	overview, err := svc.CaretakerOverview(context.Background(), caretaker, caretaker.ID)
	require.NoError(t, err)
	assert.Equal(t, &model.CaretakerOverview{}, overview)
}
