package access

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/internal/repository"
	"github.com/parkcare/care-api/pkg/errors"
	"github.com/parkcare/care-api/pkg/metrics"
)

// Capability is one of the three independent caretaker permissions,
// evaluated per assignment, never per caretaker globally.
type Capability string

const (
	CapabilityViewData        Capability = model.CapabilityViewData
	CapabilityLogOnBehalf     Capability = model.CapabilityLogOnBehalf
	CapabilityGenerateReports Capability = model.CapabilityGenerateReports
)

// cacheTTL bounds staleness for reads that race an out-of-band DB change.
// Every mutation that goes through the assignment service invalidates the
// pair eagerly, so deletes take effect immediately.
const cacheTTL = 30 * time.Second

// negative cache entry: caretaker has no active assignment for the patient.
type noAssignment struct{}

// Service is the permission gate. All capability checks on caretaker
// access to patient data go through here; nothing else branches on roles.
type Service struct {
	assignments repository.AssignmentRepository
	cache       *gocache.Cache
	metrics     *metrics.Metrics
}

// NewService builds the gate. metrics may be nil.
func NewService(assignments repository.AssignmentRepository, m *metrics.Metrics) *Service {
	return &Service{
		assignments: assignments,
		cache:       gocache.New(cacheTTL, 2*cacheTTL),
		metrics:     m,
	}
}

// Authorize checks whether actor may exercise cap against patientID's data.
// A denied ViewData check returns Restricted so callers can distinguish
// "not authorized" from "no data yet"; the write-side capabilities return
// NotAuthorized.
func (s *Service) Authorize(ctx context.Context, actor model.Principal, patientID uuid.UUID, cap Capability) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RolePatient:
		if actor.ID == patientID {
			return nil
		}
		return errors.NotAuthorized("patients may only access their own data")
	case model.RoleCaretaker:
		return s.authorizeCaretaker(ctx, actor.ID, patientID, cap)
	}
	return errors.NotAuthorized(fmt.Sprintf("unknown role %q", actor.Role))
}

func (s *Service) authorizeCaretaker(ctx context.Context, caretakerID, patientID uuid.UUID, cap Capability) error {
	assignment, err := s.activeAssignment(ctx, patientID, caretakerID)
	if err != nil {
		return err
	}

	if assignment != nil {
		var allowed bool
		switch cap {
		case CapabilityViewData:
			allowed = assignment.CanViewData
		case CapabilityLogOnBehalf:
			allowed = assignment.CanLogOnBehalf
		case CapabilityGenerateReports:
			allowed = assignment.CanGenerateReports
		}
		if allowed {
			return nil
		}
	}

	s.countDenied(cap)
	if cap == CapabilityViewData {
		return errors.Restricted("caretaker is not permitted to view this patient's data")
	}
	return errors.NotAuthorized("caretaker is not permitted to perform this action")
}

func (s *Service) activeAssignment(ctx context.Context, patientID, caretakerID uuid.UUID) (*model.Assignment, error) {
	key := pairKey(patientID, caretakerID)
	if cached, ok := s.cache.Get(key); ok {
		if _, none := cached.(noAssignment); none {
			return nil, nil
		}
		return cached.(*model.Assignment), nil
	}

	assignment, err := s.assignments.GetActiveByPair(ctx, patientID, caretakerID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assignment: %w", err)
	}

	if assignment == nil {
		s.cache.Set(key, noAssignment{}, cacheTTL)
	} else {
		s.cache.Set(key, assignment, cacheTTL)
	}
	return assignment, nil
}

// Invalidate drops the cached pair. The assignment registry calls this on
// every create, status toggle, flag write, and delete, so a removed
// assignment leaves no "still active" window.
func (s *Service) Invalidate(patientID, caretakerID uuid.UUID) {
	s.cache.Delete(pairKey(patientID, caretakerID))
}

func (s *Service) countDenied(cap Capability) {
	if s.metrics != nil {
		s.metrics.AccessDenied.WithLabelValues(string(cap)).Inc()
	}
}

func pairKey(patientID, caretakerID uuid.UUID) string {
	return patientID.String() + ":" + caretakerID.String()
}
