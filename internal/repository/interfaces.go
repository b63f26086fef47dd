package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/parkcare/care-api/internal/model"
)

// All repository interfaces in one file
type (
	// UserRepository handles account reference data
	UserRepository interface {
		Create(ctx context.Context, user *model.UserAccount) error
		Get(ctx context.Context, id uuid.UUID) (*model.UserAccount, error)
		GetByEmail(ctx context.Context, email string) (*model.UserAccount, error)
		Update(ctx context.Context, user *model.UserAccount) error
		Delete(ctx context.Context, id uuid.UUID) error
		ListByRole(ctx context.Context, role model.Role) ([]*model.UserAccount, error)
		CountByRole(ctx context.Context, role model.Role) (int, error)
	}

	// InvitationRepository handles single-use caretaker invitations
	InvitationRepository interface {
		Create(ctx context.Context, inv *model.Invitation) error
		GetByToken(ctx context.Context, token string) (*model.Invitation, error)
		GetPendingByEmail(ctx context.Context, email string) (*model.Invitation, error)
		// Accept atomically flips pending->accepted and creates the caretaker
		// account in the same transaction, so a token can be consumed once.
		Accept(ctx context.Context, token string, user *model.UserAccount) error
	}

	// AssignmentRepository owns the patient-caretaker relationship rows
	AssignmentRepository interface {
		Create(ctx context.Context, a *model.Assignment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Assignment, error)
		GetByPair(ctx context.Context, patientID, caretakerID uuid.UUID) (*model.Assignment, error)
		GetActiveByPair(ctx context.Context, patientID, caretakerID uuid.UUID) (*model.Assignment, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AssignmentStatus) (*model.Assignment, error)
		UpdateCapability(ctx context.Context, id uuid.UUID, capability string, enabled bool) (*model.Assignment, error)
		Delete(ctx context.Context, id uuid.UUID) error
		ListAll(ctx context.Context) ([]*model.AssignmentDetail, error)
		ListActiveForCaretaker(ctx context.Context, caretakerID uuid.UUID) ([]*model.AssignmentDetail, error)
		ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.AssignmentDetail, error)
		Count(ctx context.Context) (int, error)
		CountActive(ctx context.Context) (int, error)
	}

	// CheckInRepository is the per-(user, date) daily record store
	CheckInRepository interface {
		Upsert(ctx context.Context, c *model.CheckIn) (*model.CheckIn, error)
		GetByDate(ctx context.Context, userID uuid.UUID, date time.Time) (*model.CheckIn, error)
		Get(ctx context.Context, id uuid.UUID) (*model.CheckIn, error)
		ListRange(ctx context.Context, userID uuid.UUID, r model.DateRange) ([]*model.CheckIn, error)
		ListAllForUser(ctx context.Context, userID uuid.UUID) ([]*model.CheckIn, error)
		Update(ctx context.Context, c *model.CheckIn) error
		Delete(ctx context.Context, id uuid.UUID) error
		CountForUser(ctx context.Context, userID uuid.UUID) (int, error)
		CountForUsersSince(ctx context.Context, userIDs []uuid.UUID, since time.Time) (int, error)
		CountSince(ctx context.Context, since time.Time) (int, error)
	}

	// InsightRepository is the append-only insight snapshot store
	InsightRepository interface {
		Create(ctx context.Context, rec *model.InsightRecord) error
		GetLatest(ctx context.Context, userID uuid.UUID) (*model.InsightRecord, error)
		ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.InsightRecord, error)
		ListByRange(ctx context.Context, userID uuid.UUID, r model.DateRange) ([]*model.InsightRecord, error)
	}

	// OutboxRepository queues domain events for the broker
	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	// AuditRepository persists access-trail entries
	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error)
	}
)
