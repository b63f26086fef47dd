package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/parkcare/care-api/internal/insight"
	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/internal/repository"
	"github.com/parkcare/care-api/internal/service/access"
	"github.com/parkcare/care-api/pkg/errors"
)

// Gate is the capability check insight operations run behind. Insights are
// derived health data, so they sit behind the generate-reports capability.
type Gate interface {
	Authorize(ctx context.Context, actor model.Principal, patientID uuid.UUID, cap access.Capability) error
}

// Service generates and serves cached insight snapshots. Snapshots are
// append only; a failed generation never touches the stored history.
type Service interface {
	Generate(ctx context.Context, actor model.Principal, userID uuid.UUID, req *model.GenerateInsightRequest) (*model.InsightRecord, error)
	Latest(ctx context.Context, actor model.Principal, userID uuid.UUID) (*model.InsightRecord, error)
	History(ctx context.Context, actor model.Principal, userID uuid.UUID, window *model.DateRange) ([]*model.InsightRecord, error)
}

type service struct {
	insights  repository.InsightRepository
	checkIns  repository.CheckInRepository
	generator insight.Generator
	gate      Gate
	outbox    repository.OutboxRepository
	now       func() time.Time
}

func NewService(
	insights repository.InsightRepository,
	checkIns repository.CheckInRepository,
	generator insight.Generator,
	gate Gate,
	outbox repository.OutboxRepository,
) Service {
	return &service{
		insights:  insights,
		checkIns:  checkIns,
		generator: generator,
		gate:      gate,
		outbox:    outbox,
		now:       time.Now,
	}
}

// Generate runs the external generator over the window's check-ins and
// persists the result as a new snapshot. Generator failure surfaces as an
// external-service error and leaves the previous snapshot untouched.
func (s *service) Generate(ctx context.Context, actor model.Principal, userID uuid.UUID, req *model.GenerateInsightRequest) (*model.InsightRecord, error) {
	if err := s.gate.Authorize(ctx, actor, userID, access.CapabilityGenerateReports); err != nil {
		return nil, err
	}

	insightType, ok := model.InsightTypeForRange(req.TimeRange)
	if !ok {
		return nil, errors.Validation("time range must be today, 7days, 30days or 90days", nil)
	}
	window, _ := model.RangeForLabel(req.TimeRange, s.now())

	checkIns, err := s.checkIns.ListRange(ctx, userID, window)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	if len(checkIns) == 0 {
		return nil, errors.Validation("no check-in data in the selected time range", nil)
	}

	payload, err := s.generator.Generate(ctx, checkIns, req.TimeRange)
	if err != nil {
		return nil, errors.ExternalService("insight generation failed", err)
	}

	// Stamp the range actually covered by data, not the requested window;
	// ListRange returns check-ins in ascending date order.
	record := &model.InsightRecord{
		UserID:             userID,
		InsightType:        insightType,
		DateRangeStart:     checkIns[0].CheckInDate,
		DateRangeEnd:       checkIns[len(checkIns)-1].CheckInDate,
		Summary:            payload.Summary,
		KeyObservations:    payload.KeyObservations,
		MedicationPatterns: payload.MedicationPatterns,
		SymptomTrends:      payload.SymptomTrends,
		WearingOffPatterns: payload.WearingOffPatterns,
		Recommendations:    model.StringList(payload.Recommendations),
		DataPointsAnalyzed: len(checkIns),
	}
	if err := s.insights.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store insight: %w", err)
	}

	s.publishGenerated(ctx, record)
	return record, nil
}

// Latest returns the most recent snapshot for userID, regardless of type.
func (s *service) Latest(ctx context.Context, actor model.Principal, userID uuid.UUID) (*model.InsightRecord, error) {
	if err := s.gate.Authorize(ctx, actor, userID, access.CapabilityGenerateReports); err != nil {
		return nil, err
	}

	record, err := s.insights.GetLatest(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest insight: %w", err)
	}
	if record == nil {
		return nil, errors.NotFound("insight", nil)
	}
	return record, nil
}

// History returns snapshots for userID, newest first. A non-nil window
// restricts the result to snapshots whose data range falls inside it.
func (s *service) History(ctx context.Context, actor model.Principal, userID uuid.UUID, window *model.DateRange) ([]*model.InsightRecord, error) {
	if err := s.gate.Authorize(ctx, actor, userID, access.CapabilityGenerateReports); err != nil {
		return nil, err
	}

	var (
		list []*model.InsightRecord
		err  error
	)
	if window != nil {
		list, err = s.insights.ListByRange(ctx, userID, *window)
	} else {
		list, err = s.insights.ListForUser(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	return list, nil
}

func (s *service) publishGenerated(ctx context.Context, record *model.InsightRecord) {
	payload, err := json.Marshal(map[string]any{
		"insight_id":   record.ID,
		"user_id":      record.UserID,
		"insight_type": record.InsightType,
	})
	if err != nil {
		return
	}
	event := &model.OutboxEvent{EventType: model.EventInsightGenerated, Payload: payload}
	if err := s.outbox.Create(ctx, event); err != nil {
		log.Error().Err(err).Msg("failed to enqueue insight event")
	}
}
