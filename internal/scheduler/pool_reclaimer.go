package scheduler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"salescrm_backend/internal/adapters"
	"salescrm_backend/internal/leads/domain"
	"salescrm_backend/internal/leads/repository"
	"salescrm_backend/platform/logger"
)

const (
	defaultReclaimInterval = 15 * time.Minute
	defaultReclaimBatch    = 200
)

// TenantSettingsLister lists a setting across all tenants.
type TenantSettingsLister interface {
	ListTenantSettings(ctx context.Context, key string) ([]adapters.TenantSetting, error)
}

// ReclaimObserver counts enqueued releases.
type ReclaimObserver interface {
	ObservePoolReleaseQueued()
}

// PoolReclaimer finds owned leads without recent activity in tenants that set
// LEAD_RECLAIM_DAYS and enqueues their release to the pool.
type PoolReclaimer struct {
	settings TenantSettingsLister
	leads    repository.StaleLeadLister
	enqueuer ReleaseEnqueuer
	observer ReclaimObserver
	interval time.Duration
	batch    int
	now      func() time.Time
	log      *logger.Logger
}

type PoolReclaimerOptions struct {
	Interval time.Duration
	Batch    int
	Observer ReclaimObserver
}

func NewPoolReclaimer(settings TenantSettingsLister, leads repository.StaleLeadLister, enqueuer ReleaseEnqueuer, opts PoolReclaimerOptions, log *logger.Logger) *PoolReclaimer {
	if opts.Interval <= 0 {
		opts.Interval = defaultReclaimInterval
	}
	if opts.Batch <= 0 {
		opts.Batch = defaultReclaimBatch
	}
	return &PoolReclaimer{
		settings: settings,
		leads:    leads,
		enqueuer: enqueuer,
		observer: opts.Observer,
		interval: opts.Interval,
		batch:    opts.Batch,
		now:      time.Now,
		log:      log,
	}
}

// Run sweeps every interval until ctx is cancelled.
func (r *PoolReclaimer) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		queued, err := r.Sweep(ctx)
		if err != nil {
			r.log.Warn("pool reclaim sweep failed", "error", err)
			continue
		}
		if queued > 0 {
			r.log.Info("pool reclaim sweep enqueued releases", "count", queued)
		}
	}
}

// Sweep runs one pass and returns how many release tasks were enqueued.
func (r *PoolReclaimer) Sweep(ctx context.Context) (int, error) {
	settings, err := r.settings.ListTenantSettings(ctx, domain.SettingReclaimDays)
	if err != nil {
		return 0, err
	}

	now := r.now()
	queued := 0
	for _, s := range settings {
		days, err := strconv.Atoi(strings.TrimSpace(s.Value))
		if err != nil {
			r.log.PolicyFallback(s.TenantID.String(), domain.SettingReclaimDays, s.Value, "disabled")
			continue
		}
		if days <= 0 {
			continue
		}

		cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
		stale, err := r.leads.ListStaleAssigned(ctx, s.TenantID, cutoff, r.batch)
		if err != nil {
			r.log.Warn("list stale leads failed", "tenant_id", s.TenantID.String(), "error", err)
			continue
		}

		for _, lead := range stale {
			if lead.AssignedSalesID == nil {
				continue
			}
			payload := PoolReleasePayload{
				LeadID:   lead.ID.String(),
				TenantID: s.TenantID.String(),
				OwnerID:  lead.AssignedSalesID.String(),
				Cutoff:   cutoff,
				Days:     days,
			}
			ok, err := r.enqueuer.EnqueuePoolRelease(ctx, payload, PoolReleaseTaskID(payload.LeadID, now))
			if err != nil {
				r.log.Warn("enqueue pool release failed", "lead_id", payload.LeadID, "tenant_id", payload.TenantID, "error", err)
				continue
			}
			if ok {
				queued++
				if r.observer != nil {
					r.observer.ObservePoolReleaseQueued()
				}
			}
		}
	}
	return queued, nil
}
