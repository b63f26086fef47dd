package checkin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/internal/repository"
	"github.com/parkcare/care-api/internal/service/access"
	"github.com/parkcare/care-api/pkg/errors"
)

// Gate is the capability check the check-in operations run behind.
type Gate interface {
	Authorize(ctx context.Context, actor model.Principal, patientID uuid.UUID, cap access.Capability) error
}

// Service is the daily check-in store. One record per (patient, date);
// repeat submissions replace the day's record.
type Service interface {
	Upsert(ctx context.Context, actor model.Principal, userID uuid.UUID, req *model.UpsertCheckInRequest) (*model.CheckIn, error)
	GetByDate(ctx context.Context, actor model.Principal, userID uuid.UUID, date string) (*model.CheckIn, error)
	ListRange(ctx context.Context, actor model.Principal, userID uuid.UUID, rangeLabel string) ([]*model.CheckIn, error)
	ListAll(ctx context.Context, actor model.Principal, userID uuid.UUID) ([]*model.CheckIn, error)
	Update(ctx context.Context, actor model.Principal, id uuid.UUID, req *model.UpsertCheckInRequest) (*model.CheckIn, error)
	Delete(ctx context.Context, actor model.Principal, id uuid.UUID) error
}

type service struct {
	checkIns repository.CheckInRepository
	gate     Gate
	outbox   repository.OutboxRepository
	audit    repository.AuditRepository
	now      func() time.Time
}

func NewService(
	checkIns repository.CheckInRepository,
	gate Gate,
	outbox repository.OutboxRepository,
	audit repository.AuditRepository,
) Service {
	return &service{
		checkIns: checkIns,
		gate:     gate,
		outbox:   outbox,
		audit:    audit,
		now:      time.Now,
	}
}

// Upsert records userID's check-in for the given date, replacing any
// existing record for that day. Writing on another patient's behalf
// requires the log-on-behalf capability and leaves an audit entry.
func (s *service) Upsert(ctx context.Context, actor model.Principal, userID uuid.UUID, req *model.UpsertCheckInRequest) (*model.CheckIn, error) {
	if err := s.gate.Authorize(ctx, actor, userID, access.CapabilityLogOnBehalf); err != nil {
		return nil, err
	}

	date, err := time.Parse(model.CheckInDateLayout, req.CheckInDate)
	if err != nil {
		return nil, errors.Validation("check_in_date must be formatted YYYY-MM-DD", err)
	}
	if err := validateScores(req); err != nil {
		return nil, err
	}
	if !req.MedicationTaken.Valid() {
		return nil, errors.Validation("medication_taken must be yes, partially or missed", nil)
	}

	record := &model.CheckIn{
		UserID:          userID,
		CheckInDate:     date,
		TremorScore:     req.TremorScore,
		StiffnessScore:  req.StiffnessScore,
		BalanceScore:    req.BalanceScore,
		SleepScore:      req.SleepScore,
		MoodScore:       req.MoodScore,
		MedicationTaken: req.MedicationTaken,
		SideEffects:     pq.StringArray(req.SideEffects),
	}
	if record.SideEffects == nil {
		record.SideEffects = pq.StringArray{}
	}
	if req.SideEffectsOther != "" {
		record.SideEffectsOther = &req.SideEffectsOther
	}
	if req.Notes != "" {
		record.Notes = &req.Notes
	}

	saved, err := s.checkIns.Upsert(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to save check-in: %w", err)
	}

	s.publishRecorded(ctx, saved)
	if actor.ID != userID {
		s.recordAudit(ctx, actor, "checkin.log_on_behalf", saved)
	}
	return saved, nil
}

func (s *service) GetByDate(ctx context.Context, actor model.Principal, userID uuid.UUID, date string) (*model.CheckIn, error) {
	if err := s.gate.Authorize(ctx, actor, userID, access.CapabilityViewData); err != nil {
		return nil, err
	}

	day, err := time.Parse(model.CheckInDateLayout, date)
	if err != nil {
		return nil, errors.Validation("date must be formatted YYYY-MM-DD", err)
	}

	record, err := s.checkIns.GetByDate(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to get check-in: %w", err)
	}
	if record == nil {
		return nil, errors.NotFound("check-in", nil)
	}
	return record, nil
}

func (s *service) ListRange(ctx context.Context, actor model.Principal, userID uuid.UUID, rangeLabel string) ([]*model.CheckIn, error) {
	if err := s.gate.Authorize(ctx, actor, userID, access.CapabilityViewData); err != nil {
		return nil, err
	}

	window, ok := model.RangeForLabel(rangeLabel, s.now())
	if !ok {
		return nil, errors.Validation("time range must be today, 7days, 30days or 90days", nil)
	}

	list, err := s.checkIns.ListRange(ctx, userID, window)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	return list, nil
}

func (s *service) ListAll(ctx context.Context, actor model.Principal, userID uuid.UUID) ([]*model.CheckIn, error) {
	if err := s.gate.Authorize(ctx, actor, userID, access.CapabilityViewData); err != nil {
		return nil, err
	}

	list, err := s.checkIns.ListAllForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	return list, nil
}

// Update edits an existing record in place, keeping its owner and date.
// Admin only; patients correct their own data by re-submitting the day.
func (s *service) Update(ctx context.Context, actor model.Principal, id uuid.UUID, req *model.UpsertCheckInRequest) (*model.CheckIn, error) {
	if actor.Role != model.RoleAdmin {
		return nil, errors.NotAuthorized("only admins may edit check-ins directly")
	}

	record, err := s.checkIns.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get check-in: %w", err)
	}
	if record == nil {
		return nil, errors.NotFound("check-in", nil)
	}

	if err := validateScores(req); err != nil {
		return nil, err
	}
	if !req.MedicationTaken.Valid() {
		return nil, errors.Validation("medication_taken must be yes, partially or missed", nil)
	}

	record.TremorScore = req.TremorScore
	record.StiffnessScore = req.StiffnessScore
	record.BalanceScore = req.BalanceScore
	record.SleepScore = req.SleepScore
	record.MoodScore = req.MoodScore
	record.MedicationTaken = req.MedicationTaken
	record.SideEffects = pq.StringArray(req.SideEffects)
	if record.SideEffects == nil {
		record.SideEffects = pq.StringArray{}
	}
	record.SideEffectsOther = nil
	if req.SideEffectsOther != "" {
		record.SideEffectsOther = &req.SideEffectsOther
	}
	record.Notes = nil
	if req.Notes != "" {
		record.Notes = &req.Notes
	}

	if err := s.checkIns.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to update check-in: %w", err)
	}
	s.recordAudit(ctx, actor, "checkin.update", record)
	return record, nil
}

// Delete removes a single check-in. Only the patient who owns the record,
// or an admin, may delete; caretakers cannot.
func (s *service) Delete(ctx context.Context, actor model.Principal, id uuid.UUID) error {
	record, err := s.checkIns.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get check-in: %w", err)
	}
	if record == nil {
		return errors.NotFound("check-in", nil)
	}
	if actor.Role != model.RoleAdmin && actor.ID != record.UserID {
		return errors.NotAuthorized("")
	}

	if err := s.checkIns.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete check-in: %w", err)
	}
	s.recordAudit(ctx, actor, "checkin.delete", record)
	return nil
}

func validateScores(req *model.UpsertCheckInRequest) error {
	scores := map[string]int{
		"tremor_score":    req.TremorScore,
		"stiffness_score": req.StiffnessScore,
		"balance_score":   req.BalanceScore,
		"sleep_score":     req.SleepScore,
		"mood_score":      req.MoodScore,
	}
	for name, value := range scores {
		if value < model.ScoreMin || value > model.ScoreMax {
			return errors.Validation(fmt.Sprintf("%s must be between %d and %d", name, model.ScoreMin, model.ScoreMax), nil)
		}
	}
	return nil
}

func (s *service) publishRecorded(ctx context.Context, record *model.CheckIn) {
	payload, err := json.Marshal(map[string]any{
		"check_in_id":   record.ID,
		"user_id":       record.UserID,
		"check_in_date": record.CheckInDate.Format(model.CheckInDateLayout),
	})
	if err != nil {
		return
	}
	event := &model.OutboxEvent{EventType: model.EventCheckInRecorded, Payload: payload}
	if err := s.outbox.Create(ctx, event); err != nil {
		log.Error().Err(err).Msg("failed to enqueue check-in event")
	}
}

func (s *service) recordAudit(ctx context.Context, actor model.Principal, action string, record *model.CheckIn) {
	changes, _ := json.Marshal(map[string]any{"user_id": record.UserID, "date": record.CheckInDate.Format(model.CheckInDateLayout)})
	entry := &model.AuditLog{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "checkin",
		EntityID:   record.ID,
		Changes:    changes,
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		log.Error().Err(err).Str("action", action).Msg("failed to write audit entry")
	}
}
