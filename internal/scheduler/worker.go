package scheduler

import (
	"context"
	"fmt"
	"time"

	"salescrm_backend/platform/apperr"
	"salescrm_backend/platform/config"
	"salescrm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// PoolReleaser is the lifecycle operation the worker runs.
type PoolReleaser interface {
	ReleaseIfStale(ctx context.Context, id, tenantID uuid.UUID, cutoff time.Time, expectedOwner uuid.UUID) error
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	releaser PoolReleaser
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, releaser PoolReleaser, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		releaser: releaser,
		log:      log,
	}

	mux.HandleFunc(TaskPoolRelease, w.handlePoolRelease)

	return w, nil
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return nil
	}

	if err := w.server.Start(w.mux); err != nil {
		w.log.Error("scheduler worker failed to start", "error", err)
		return err
	}
	<-ctx.Done()
	w.server.Shutdown()
	return nil
}

// handlePoolRelease releases the lead as the system actor if it is still
// stale and still owned by the user the sweeper saw. A lead that was touched,
// reassigned, closed or removed since it was enqueued is acknowledged.
func (w *Worker) handlePoolRelease(ctx context.Context, task *asynq.Task) error {
	payload, err := ParsePoolReleasePayload(task)
	if err != nil {
		return fmt.Errorf("parse pool release payload: %v: %w", err, asynq.SkipRetry)
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return fmt.Errorf("invalid lead id: %v: %w", err, asynq.SkipRetry)
	}
	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return fmt.Errorf("invalid tenant id: %v: %w", err, asynq.SkipRetry)
	}
	ownerID, err := uuid.Parse(payload.OwnerID)
	if err != nil {
		return fmt.Errorf("invalid owner id: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Cutoff.IsZero() {
		return fmt.Errorf("missing stale cutoff: %w", asynq.SkipRetry)
	}

	err = w.releaser.ReleaseIfStale(ctx, leadID, tenantID, payload.Cutoff, ownerID)
	switch {
	case err == nil:
		w.log.Info("stale lead released to pool", "lead_id", payload.LeadID, "tenant_id", payload.TenantID, "days", payload.Days)
		return nil
	case apperr.Is(err, apperr.KindStateConflict), apperr.Is(err, apperr.KindNotFound):
		w.log.Info("pool release skipped", "lead_id", payload.LeadID, "tenant_id", payload.TenantID, "reason", err.Error())
		return nil
	default:
		return err
	}
}
