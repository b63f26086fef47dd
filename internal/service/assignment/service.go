package assignment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/internal/repository"
	"github.com/parkcare/care-api/internal/repository/postgres"
	"github.com/parkcare/care-api/pkg/errors"
)

// AccessInvalidator drops a cached (patient, caretaker) pair from the
// permission gate. Every mutation here must call it so revoked access
// takes effect immediately.
type AccessInvalidator interface {
	Invalidate(patientID, caretakerID uuid.UUID)
}

// Service manages the patient-caretaker assignment registry.
type Service interface {
	Create(ctx context.Context, actor model.Principal, req *model.CreateAssignmentRequest) (*model.Assignment, error)
	Get(ctx context.Context, actor model.Principal, id uuid.UUID) (*model.Assignment, error)
	ListAll(ctx context.Context, actor model.Principal) ([]*model.AssignmentDetail, error)
	ListForPatient(ctx context.Context, actor model.Principal, patientID uuid.UUID) ([]*model.AssignmentDetail, error)
	ListForCaretaker(ctx context.Context, actor model.Principal, caretakerID uuid.UUID) ([]*model.AssignmentDetail, error)
	UpdateStatus(ctx context.Context, actor model.Principal, id uuid.UUID, status model.AssignmentStatus) (*model.Assignment, error)
	UpdateCapability(ctx context.Context, actor model.Principal, id uuid.UUID, req *model.UpdateCapabilityRequest) (*model.Assignment, error)
	Delete(ctx context.Context, actor model.Principal, id uuid.UUID) error
}

type service struct {
	assignments repository.AssignmentRepository
	users       repository.UserRepository
	outbox      repository.OutboxRepository
	audit       repository.AuditRepository
	gate        AccessInvalidator
}

func NewService(
	assignments repository.AssignmentRepository,
	users repository.UserRepository,
	outbox repository.OutboxRepository,
	audit repository.AuditRepository,
	gate AccessInvalidator,
) Service {
	return &service{
		assignments: assignments,
		users:       users,
		outbox:      outbox,
		audit:       audit,
		gate:        gate,
	}
}

// Create registers a new active assignment. All capability flags start
// disabled; the patient grants them explicitly afterwards. The partial
// unique index on active pairs is the duplicate guard, not a pre-check.
func (s *service) Create(ctx context.Context, actor model.Principal, req *model.CreateAssignmentRequest) (*model.Assignment, error) {
	if actor.Role != model.RoleAdmin {
		return nil, errors.NotAuthorized("only admins may create assignments")
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, errors.Validation("invalid patient id", err)
	}
	caretakerID, err := uuid.Parse(req.CaretakerID)
	if err != nil {
		return nil, errors.Validation("invalid caretaker id", err)
	}
	if patientID == caretakerID {
		return nil, errors.Validation("patient and caretaker must be different accounts", nil)
	}

	if err := s.requireRole(ctx, patientID, model.RolePatient); err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, caretakerID, model.RoleCaretaker); err != nil {
		return nil, err
	}

	// Fast-path duplicate check across any status; the partial unique
	// index on active pairs still guards the race.
	existing, err := s.assignments.GetByPair(ctx, patientID, caretakerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing assignment: %w", err)
	}
	if existing != nil {
		return nil, errors.Conflict("an assignment already exists for this pair")
	}

	assignment := &model.Assignment{
		PatientID:        patientID,
		CaretakerID:      caretakerID,
		AssignedByUserID: &actor.ID,
		Status:           model.AssignmentStatusActive,
	}
	if req.Notes != "" {
		assignment.Notes = &req.Notes
	}

	if err := s.assignments.Create(ctx, assignment); err != nil {
		if postgres.IsUniqueViolation(err, postgres.ConstraintActivePair) {
			return nil, errors.Conflict("caretaker is already assigned to this patient")
		}
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	s.gate.Invalidate(patientID, caretakerID)
	s.publish(ctx, model.EventAssignmentCreated, assignment)
	s.recordAudit(ctx, actor, "assignment.create", assignment.ID, assignment)
	return assignment, nil
}

func (s *service) Get(ctx context.Context, actor model.Principal, id uuid.UUID) (*model.Assignment, error) {
	assignment, err := s.assignments.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return nil, errors.NotFound("assignment", nil)
	}
	if !s.canSee(actor, assignment) {
		return nil, errors.NotAuthorized("")
	}
	return assignment, nil
}

func (s *service) ListAll(ctx context.Context, actor model.Principal) ([]*model.AssignmentDetail, error) {
	if actor.Role != model.RoleAdmin {
		return nil, errors.NotAuthorized("only admins may list all assignments")
	}
	list, err := s.assignments.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return list, nil
}

func (s *service) ListForPatient(ctx context.Context, actor model.Principal, patientID uuid.UUID) ([]*model.AssignmentDetail, error) {
	if actor.Role != model.RoleAdmin && actor.ID != patientID {
		return nil, errors.NotAuthorized("")
	}
	list, err := s.assignments.ListForPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patient assignments: %w", err)
	}
	return list, nil
}

func (s *service) ListForCaretaker(ctx context.Context, actor model.Principal, caretakerID uuid.UUID) ([]*model.AssignmentDetail, error) {
	if actor.Role != model.RoleAdmin && actor.ID != caretakerID {
		return nil, errors.NotAuthorized("")
	}
	list, err := s.assignments.ListActiveForCaretaker(ctx, caretakerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list caretaker assignments: %w", err)
	}
	return list, nil
}

// UpdateStatus toggles an assignment between active and inactive. An
// inactive assignment keeps its flag values but grants nothing.
func (s *service) UpdateStatus(ctx context.Context, actor model.Principal, id uuid.UUID, status model.AssignmentStatus) (*model.Assignment, error) {
	if actor.Role != model.RoleAdmin {
		return nil, errors.NotAuthorized("only admins may change assignment status")
	}

	updated, err := s.assignments.UpdateStatus(ctx, id, status)
	if err != nil {
		if postgres.IsUniqueViolation(err, postgres.ConstraintActivePair) {
			return nil, errors.Conflict("an active assignment already exists for this pair")
		}
		return nil, fmt.Errorf("failed to update assignment status: %w", err)
	}
	if updated == nil {
		return nil, errors.NotFound("assignment", nil)
	}

	s.gate.Invalidate(updated.PatientID, updated.CaretakerID)
	s.recordAudit(ctx, actor, "assignment.status", updated.ID, map[string]any{"status": status})
	return updated, nil
}

// UpdateCapability writes exactly one flag. Only the patient who owns the
// assignment, or an admin, may grant or revoke capabilities.
func (s *service) UpdateCapability(ctx context.Context, actor model.Principal, id uuid.UUID, req *model.UpdateCapabilityRequest) (*model.Assignment, error) {
	assignment, err := s.assignments.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return nil, errors.NotFound("assignment", nil)
	}
	if actor.Role != model.RoleAdmin && actor.ID != assignment.PatientID {
		return nil, errors.NotAuthorized("only the patient may change caretaker permissions")
	}

	updated, err := s.assignments.UpdateCapability(ctx, id, req.Capability, req.Enabled)
	if err != nil {
		return nil, fmt.Errorf("failed to update capability: %w", err)
	}
	if updated == nil {
		return nil, errors.NotFound("assignment", nil)
	}

	s.gate.Invalidate(updated.PatientID, updated.CaretakerID)
	s.recordAudit(ctx, actor, "assignment.capability", updated.ID, map[string]any{
		"capability": req.Capability,
		"enabled":    req.Enabled,
	})
	return updated, nil
}

func (s *service) Delete(ctx context.Context, actor model.Principal, id uuid.UUID) error {
	assignment, err := s.assignments.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return errors.NotFound("assignment", nil)
	}
	if actor.Role != model.RoleAdmin && actor.ID != assignment.PatientID {
		return errors.NotAuthorized("")
	}

	if err := s.assignments.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}

	s.gate.Invalidate(assignment.PatientID, assignment.CaretakerID)
	s.publish(ctx, model.EventAssignmentDeleted, assignment)
	s.recordAudit(ctx, actor, "assignment.delete", assignment.ID, nil)
	return nil
}

func (s *service) requireRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return errors.NotFound(string(role), nil)
	}
	if user.Role != role {
		return errors.Validation(fmt.Sprintf("account %s is not a %s", id, role), nil)
	}
	return nil
}

func (s *service) canSee(actor model.Principal, a *model.Assignment) bool {
	return actor.Role == model.RoleAdmin || actor.ID == a.PatientID || actor.ID == a.CaretakerID
}

func (s *service) publish(ctx context.Context, eventType string, a *model.Assignment) {
	payload, err := json.Marshal(a)
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("failed to marshal outbox payload")
		return
	}
	event := &model.OutboxEvent{EventType: eventType, Payload: payload}
	if err := s.outbox.Create(ctx, event); err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("failed to enqueue outbox event")
	}
}

func (s *service) recordAudit(ctx context.Context, actor model.Principal, action string, entityID uuid.UUID, changes any) {
	var raw json.RawMessage
	if changes != nil {
		b, err := json.Marshal(changes)
		if err == nil {
			raw = b
		}
	}
	entry := &model.AuditLog{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "assignment",
		EntityID:   entityID,
		Changes:    raw,
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		log.Error().Err(err).Str("action", action).Msg("failed to write audit entry")
	}
}
