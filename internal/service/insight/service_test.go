package insight

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

type fakeInsights struct {
	repository.InsightRepository
	records []*model.InsightRecord
}

func (f *fakeInsights) Create(_ context.Context, rec *model.InsightRecord) error {
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeInsights) GetLatest(_ context.Context, userID uuid.UUID) (*model.InsightRecord, error) {
	var latest *model.InsightRecord
	for _, rec := range f.records {
		if rec.UserID == userID {
			latest = rec
		}
	}
	return latest, nil
}

func (f *fakeInsights) ListForUser(_ context.Context, userID uuid.UUID) ([]*model.InsightRecord, error) {
	var out []*model.InsightRecord
	for _, rec := range f.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeInsights) ListByRange(_ context.Context, userID uuid.UUID, dr model.DateRange) ([]*model.InsightRecord, error) {
	var out []*model.InsightRecord
	for _, rec := range f.records {
		if rec.UserID != userID {
			continue
		}
		if rec.DateRangeStart.Before(dr.Start) || rec.DateRangeEnd.After(dr.End) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

type fakeCheckIns struct {
	repository.CheckInRepository
	list []*model.CheckIn
}

func (f *fakeCheckIns) ListRange(_ context.Context, _ uuid.UUID, _ model.DateRange) ([]*model.CheckIn, error) {
	return f.list, nil
}

type fakeGenerator struct {
	payload *model.InsightPayload
	err     error
	calls   int
}

func (f *fakeGenerator) Generate(_ context.Context, _ []*model.CheckIn, _ string) (*model.InsightPayload, error) {
	f.calls++
	return f.payload, f.err
}

type openGate struct{}

func (openGate) Authorize(context.Context, model.Principal, uuid.UUID, access.Capability) error {
	return nil
}

type fakeOutbox struct {
	repository.OutboxRepository
	events []*model.OutboxEvent
}

func (f *fakeOutbox) Create(_ context.Context, event *model.OutboxEvent) error {
	f.events = append(f.events, event)
	return nil
}

func somePayload() *model.InsightPayload {
	return &model.InsightPayload{
		Summary: "Tremor trending down over the week.",
		KeyObservations: model.KeyObservations{
			Decreases: []string{"tremor"},
			Stable:    []string{"mood"},
		},
		MedicationPatterns: "Consistent morning doses.",
		SymptomTrends:      "Gradual improvement.",
		WearingOffPatterns: "None observed.",
		Recommendations:    []string{"Keep the current schedule."},
	}
}

func someCheckIns(n int) []*model.CheckIn {
	base := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	out := make([]*model.CheckIn, n)
	for i := range out {
		out[i] = &model.CheckIn{
			CheckInDate:     base.AddDate(0, 0, i),
			MedicationTaken: model.MedicationTaken,
		}
	}
	return out
}

func TestGenerateStoresSnapshot(t *testing.T) {
	insights := &fakeInsights{}
	generator := &fakeGenerator{payload: somePayload()}
	outbox := &fakeOutbox{}
	svc := NewService(insights, &fakeCheckIns{list: someCheckIns(5)}, generator, openGate{}, outbox)
	patient := model.Principal{ID: uuid.New(), Role: model.RolePatient}

	record, err := svc.Generate(context.Background(), patient, patient.ID, &model.GenerateInsightRequest{TimeRange: model.RangeLabel7Days})
	require.NoError(t, err)

	assert.Equal(t, model.InsightTypeWeekly, record.InsightType)
	assert.Equal(t, 5, record.DataPointsAnalyzed)
	assert.Equal(t, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), record.DateRangeStart)
	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), record.DateRangeEnd)
	assert.Equal(t, "Tremor trending down over the week.", record.Summary)
	assert.Equal(t, model.StringList{"Keep the current schedule."}, record.Recommendations)
	require.Len(t, outbox.events, 1)
	assert.Equal(t, model.EventInsightGenerated, outbox.events[0].EventType)
}

func TestGenerateRangeToTypeMapping(t *testing.T) {
	cases := map[string]model.InsightType{
		model.RangeLabelToday:  model.InsightTypeDaily,
		model.RangeLabel7Days:  model.InsightTypeWeekly,
		model.RangeLabel30Days: model.InsightTypeMonthly,
		model.RangeLabel90Days: model.InsightTypeQuarterly,
	}
	patient := model.Principal{ID: uuid.New(), Role: model.RolePatient}

	for label, want := range cases {
		svc := NewService(&fakeInsights{}, &fakeCheckIns{list: someCheckIns(1)}, &fakeGenerator{payload: somePayload()}, openGate{}, &fakeOutbox{})
		record, err := svc.Generate(context.Background(), patient, patient.ID, &model.GenerateInsightRequest{TimeRange: label})
		require.NoError(t, err, label)
		assert.Equal(t, want, record.InsightType, label)
	}
}

func TestGenerateRejectsUnknownRange(t *testing.T) {
	svc := NewService(&fakeInsights{}, &fakeCheckIns{}, &fakeGenerator{}, openGate{}, &fakeOutbox{})
	patient := model.Principal{ID: uuid.New(), Role: model.RolePatient}

	_, err := svc.Generate(context.Background(), patient, patient.ID, &model.GenerateInsightRequest{TimeRange: "fortnight"})
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestGenerateRequiresData(t *testing.T) {
	generator := &fakeGenerator{payload: somePayload()}
	svc := NewService(&fakeInsights{}, &fakeCheckIns{}, generator, openGate{}, &fakeOutbox{})
	patient := model.Principal{ID: uuid.New(), Role: model.RolePatient}

	_, err := svc.Generate(context.Background(), patient, patient.ID, &model.GenerateInsightRequest{TimeRange: model.RangeLabel7Days})
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Zero(t, generator.calls, "generator must not run on an empty window")
}

func TestGenerateFailurePreservesHistory(t *testing.T) {
	insights := &fakeInsights{}
	patient := model.Principal{ID: uuid.New(), Role: model.RolePatient}
	previous := &model.InsightRecord{UserID: patient.ID, Summary: "old"}
	insights.records = append(insights.records, previous)

	svc := NewService(insights, &fakeCheckIns{list: someCheckIns(3)}, &fakeGenerator{err: assert.AnError}, openGate{}, &fakeOutbox{})

	_, err := svc.Generate(context.Background(), patient, patient.ID, &model.GenerateInsightRequest{TimeRange: model.RangeLabel30Days})
	assert.True(t, errors.Is(err, errors.ErrExternalService))
	assert.Len(t, insights.records, 1, "failed generation must not persist anything")

	latest, err := svc.Latest(context.Background(), patient, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, "old", latest.Summary)
}

func TestLatestNotFound(t *testing.T) {
	svc := NewService(&fakeInsights{}, &fakeCheckIns{}, &fakeGenerator{}, openGate{}, &fakeOutbox{})
	patient := model.Principal{ID: uuid.New(), Role: model.RolePatient}

	_, err := svc.Latest(context.Background(), patient, patient.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestHistoryReturnsAllSnapshots(t *testing.T) {
	insights := &fakeInsights{}
	patient := model.Principal{ID: uuid.New(), Role: model.RolePatient}
	svc := NewService(insights, &fakeCheckIns{list: someCheckIns(2)}, &fakeGenerator{payload: somePayload()}, openGate{}, &fakeOutbox{})

	for i := 0; i < 3; i++ {
		_, err := svc.Generate(context.Background(), patient, patient.ID, &model.GenerateInsightRequest{TimeRange: model.RangeLabelToday})
		require.NoError(t, err)
	}

	history, err := svc.History(context.Background(), patient, patient.ID, nil)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestHistoryWindowFiltersByDataRange(t *testing.T) {
	insights := &fakeInsights{}
	patient := model.Principal{ID: uuid.New(), Role: model.RolePatient}
	insights.records = append(insights.records,
		&model.InsightRecord{
			UserID:         patient.ID,
			DateRangeStart: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			DateRangeEnd:   time.Date(2026, 8, 7, 0, 0, 0, 0, time.UTC),
		},
		&model.InsightRecord{
			UserID:         patient.ID,
			DateRangeStart: time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
			DateRangeEnd:   time.Date(2026, 8, 16, 0, 0, 0, 0, time.UTC),
		},
	)
	svc := NewService(insights, &fakeCheckIns{}, &fakeGenerator{}, openGate{}, &fakeOutbox{})

	window := &model.DateRange{
		Start: time.Date(2026, 8, 9, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
	}
	history, err := svc.History(context.Background(), patient, patient.ID, window)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), history[0].DateRangeStart)
}
