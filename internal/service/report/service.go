package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/internal/repository"
	"github.com/parkcare/care-api/internal/service/access"
	"github.com/parkcare/care-api/pkg/errors"
)

// topSideEffectLimit caps the side-effect ranking in detail views.
const topSideEffectLimit = 5

// Gate is the capability check report reads run behind.
type Gate interface {
	Authorize(ctx context.Context, actor model.Principal, patientID uuid.UUID, cap access.Capability) error
}

// Service computes aggregate views over the check-in store. All numbers
// are derived on read; nothing here writes.
type Service interface {
	PatientWindow(ctx context.Context, actor model.Principal, userID uuid.UUID, rangeLabel string) (*model.WindowStats, error)
	PatientDetail(ctx context.Context, actor model.Principal, patientID uuid.UUID) (*model.PatientDetailStats, error)
	Dashboard(ctx context.Context, actor model.Principal) (*model.DashboardStats, error)
	CaretakerOverview(ctx context.Context, actor model.Principal, caretakerID uuid.UUID) (*model.CaretakerOverview, error)
}

type service struct {
	checkIns    repository.CheckInRepository
	users       repository.UserRepository
	assignments repository.AssignmentRepository
	gate        Gate
	now         func() time.Time
}

func NewService(
	checkIns repository.CheckInRepository,
	users repository.UserRepository,
	assignments repository.AssignmentRepository,
	gate Gate,
) Service {
	return &service{
		checkIns:    checkIns,
		users:       users,
		assignments: assignments,
		gate:        gate,
		now:         time.Now,
	}
}

// PatientWindow returns the rolling summary for a window ending today.
// Derived metrics are reads of the patient's data, so caretakers need the
// view-data capability, not generate-reports.
func (s *service) PatientWindow(ctx context.Context, actor model.Principal, userID uuid.UUID, rangeLabel string) (*model.WindowStats, error) {
	if err := s.gate.Authorize(ctx, actor, userID, access.CapabilityViewData); err != nil {
		return nil, err
	}

	window, ok := model.RangeForLabel(rangeLabel, s.now())
	if !ok {
		return nil, errors.Validation("time range must be today, 7days, 30days or 90days", nil)
	}

	checkIns, err := s.checkIns.ListRange(ctx, userID, window)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	return WindowStatsFor(checkIns), nil
}

// PatientDetail is the all-time summary behind the patient detail view.
// Missed days are approximate: days since registration minus total
// check-ins, clamped at zero.
func (s *service) PatientDetail(ctx context.Context, actor model.Principal, patientID uuid.UUID) (*model.PatientDetailStats, error) {
	if err := s.gate.Authorize(ctx, actor, patientID, access.CapabilityViewData); err != nil {
		return nil, err
	}

	user, err := s.users.Get(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	if user == nil {
		return nil, errors.NotFound("patient", nil)
	}

	checkIns, err := s.checkIns.ListAllForUser(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}

	daysSince := int(s.now().Sub(user.CreatedAt).Hours() / 24)
	if daysSince < 0 {
		daysSince = 0
	}
	missed := daysSince - len(checkIns)
	if missed < 0 {
		missed = 0
	}

	return &model.PatientDetailStats{
		TotalCheckIns:         len(checkIns),
		MissedDays:            missed,
		DaysSinceRegistration: daysSince,
		Averages:              Averages(checkIns),
		MedicationAdherence:   Adherence(checkIns),
		TopSideEffects:        TopSideEffects(checkIns, topSideEffectLimit),
	}, nil
}

// Dashboard backs the admin landing page counters.
func (s *service) Dashboard(ctx context.Context, actor model.Principal) (*model.DashboardStats, error) {
	if actor.Role != model.RoleAdmin {
		return nil, errors.NotAuthorized("only admins may view the dashboard")
	}

	patients, err := s.users.CountByRole(ctx, model.RolePatient)
	if err != nil {
		return nil, fmt.Errorf("failed to count patients: %w", err)
	}
	caretakers, err := s.users.CountByRole(ctx, model.RoleCaretaker)
	if err != nil {
		return nil, fmt.Errorf("failed to count caretakers: %w", err)
	}
	total, err := s.assignments.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count assignments: %w", err)
	}
	active, err := s.assignments.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active assignments: %w", err)
	}
	recent, err := s.checkIns.CountSince(ctx, s.now().AddDate(0, 0, -7))
	if err != nil {
		return nil, fmt.Errorf("failed to count recent check-ins: %w", err)
	}

	return &model.DashboardStats{
		TotalPatients:     patients,
		TotalCaretakers:   caretakers,
		TotalAssignments:  total,
		ActiveAssignments: active,
		RecentCheckIns:    recent,
	}, nil
}

// CaretakerOverview summarizes activity across a caretaker's active
// assignments. Only the caretaker themselves or an admin may read it.
func (s *service) CaretakerOverview(ctx context.Context, actor model.Principal, caretakerID uuid.UUID) (*model.CaretakerOverview, error) {
	if actor.Role != model.RoleAdmin && actor.ID != caretakerID {
		return nil, errors.NotAuthorized("")
	}

	assignments, err := s.assignments.ListActiveForCaretaker(ctx, caretakerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	overview := &model.CaretakerOverview{ActivePatients: len(assignments)}
	if len(assignments) == 0 {
		return overview, nil
	}

	patientIDs := make([]uuid.UUID, 0, len(assignments))
	for _, a := range assignments {
		patientIDs = append(patientIDs, a.PatientID)
	}

	overview.TotalCheckIns, err = s.checkIns.CountForUsersSince(ctx, patientIDs, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to count check-ins: %w", err)
	}
	overview.WeekCheckIns, err = s.checkIns.CountForUsersSince(ctx, patientIDs, s.now().AddDate(0, 0, -7))
	if err != nil {
		return nil, fmt.Errorf("failed to count weekly check-ins: %w", err)
	}
	return overview, nil
}
