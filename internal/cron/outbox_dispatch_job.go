package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/db/models"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/logger"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/outbox"
)

const defaultDispatchBatch = 100

type outboxDispatchRepo interface {
	FetchUnpublished(limit int) ([]models.OutboxEvent, error)
	MarkPublished(id uuid.UUID) error
	MarkFailed(id uuid.UUID, err error) error
}

// OutboxDispatchJobParams configure the outbox relay.
type OutboxDispatchJobParams struct {
	Logger     *logger.Logger
	Repository outboxDispatchRepo
	Sink       outbox.Sink
	BatchSize  int
}

// NewOutboxDispatchJob builds the job that drains unpublished outbox rows
// into the configured sink.
func NewOutboxDispatchJob(params OutboxDispatchJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if params.Sink == nil {
		return nil, fmt.Errorf("event sink required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultDispatchBatch
	}
	return &outboxDispatchJob{
		logg:  params.Logger,
		repo:  params.Repository,
		sink:  params.Sink,
		batch: batch,
	}, nil
}

type outboxDispatchJob struct {
	logg  *logger.Logger
	repo  outboxDispatchRepo
	sink  outbox.Sink
	batch int
}

func (j *outboxDispatchJob) Name() string { return "outbox-dispatch" }

func (j *outboxDispatchJob) Run(ctx context.Context) error {
	events, err := j.repo.FetchUnpublished(j.batch)
	if err != nil {
		return fmt.Errorf("fetch unpublished events: %w", err)
	}

	published := 0
	failed := 0
	var errs []error
	for _, event := range events {
		if deliverErr := j.sink.Deliver(ctx, event); deliverErr != nil {
			failed++
			if markErr := j.repo.MarkFailed(event.ID, deliverErr); markErr != nil {
				errs = append(errs, fmt.Errorf("mark event %s failed: %w", event.ID, markErr))
			}
			continue
		}
		if markErr := j.repo.MarkPublished(event.ID); markErr != nil {
			errs = append(errs, fmt.Errorf("mark event %s published: %w", event.ID, markErr))
			continue
		}
		published++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"fetched":   len(events),
		"published": published,
		"failed":    failed,
	})
	j.logg.Info(logCtx, "outbox dispatch complete")
	return multierr.Combine(errs...)
}
