package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/internal/repository"
	"github.com/parkcare/care-api/pkg/logger"
	"github.com/parkcare/care-api/pkg/messaging"
	"github.com/parkcare/care-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	MaxRetries   int
	Retention    time.Duration
}

// OutboxProcessor drains pending domain events to the message broker.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.Retention <= 0 {
		config.Retention = 7 * 24 * time.Hour
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	cleanup := time.NewTicker(time.Hour)
	defer cleanup.Stop()

	p.logger.Info("starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("shutting down outbox processor")
			return
		case <-ticker.C:
			if err := p.processEvents(ctx); err != nil {
				p.logger.Error(err, "failed to process outbox events")
			}
		case <-cleanup.C:
			if err := p.cleanupProcessed(ctx); err != nil {
				p.logger.Error(err, "failed to clean up processed events")
			}
		}
	}
}

// cleanupProcessed trims processed events older than the retention window.
func (p *OutboxProcessor) cleanupProcessed(ctx context.Context) error {
	deleted, err := p.repo.DeleteProcessedBefore(ctx, time.Now().Add(-p.config.Retention))
	if err != nil {
		return fmt.Errorf("failed to delete processed events: %w", err)
	}
	if deleted > 0 {
		p.logger.WithFields(map[string]interface{}{"deleted": deleted}).Info("trimmed outbox")
	}
	return nil
}

func (p *OutboxProcessor) processEvents(ctx context.Context) error {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := p.repo.GetPendingEvents(ctx, p.config.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending events: %w", err)
	}

	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			p.metrics.OutboxEventsFailed.Inc()
			msg := err.Error()
			status := model.OutboxStatusPending
			if event.RetryCount+1 >= p.config.MaxRetries {
				status = model.OutboxStatusFailed
			}
			if uerr := p.repo.UpdateStatus(ctx, event.ID, status, &msg); uerr != nil {
				p.logger.Error(uerr, "failed to record outbox failure")
			}
			continue
		}

		p.metrics.OutboxEventsProcessed.Inc()
		if err := p.repo.UpdateStatus(ctx, event.ID, model.OutboxStatusProcessed, nil); err != nil {
			p.logger.Error(err, "failed to mark outbox event processed")
		}
	}
	return nil
}

func (p *OutboxProcessor) publish(ctx context.Context, event *model.OutboxEvent) error {
	msg := messaging.Message{
		Type:    event.EventType,
		Payload: json.RawMessage(event.Payload),
	}
	return p.broker.Publish(ctx, event.EventType, msg)
}
