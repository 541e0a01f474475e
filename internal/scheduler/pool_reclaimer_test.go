package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"salescrm_backend/internal/adapters"
	"salescrm_backend/internal/leads/domain"
	"salescrm_backend/internal/leads/repository"
	"salescrm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSettings []adapters.TenantSetting

func (s staticSettings) ListTenantSettings(ctx context.Context, key string) ([]adapters.TenantSetting, error) {
	if key != domain.SettingReclaimDays {
		return nil, nil
	}
	return s, nil
}

type fakeEnqueuer struct {
	payloads []PoolReleasePayload
	ids      map[string]bool
	err      error
}

func (f *fakeEnqueuer) EnqueuePoolRelease(ctx context.Context, payload PoolReleasePayload, taskID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.ids == nil {
		f.ids = map[string]bool{}
	}
	if f.ids[taskID] {
		return false, nil
	}
	f.ids[taskID] = true
	f.payloads = append(f.payloads, payload)
	return true, nil
}

type countingObserver struct{ n int }

func (c *countingObserver) ObservePoolReleaseQueued() { c.n++ }

var sweepNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func ownedLead(tenantID uuid.UUID, status domain.Status, touched time.Time) domain.Lead {
	owner := uuid.New()
	lead := domain.Lead{
		ID:              uuid.New(),
		TenantID:        tenantID,
		CustomerName:    "n",
		CustomerPhone:   "13800000000",
		Status:          status,
		AssignedSalesID: &owner,
		CreatedAt:       touched,
		UpdatedAt:       touched,
	}
	return lead
}

func newReclaimer(settings staticSettings, store *repository.MemoryStore, enq *fakeEnqueuer, obs *countingObserver) *PoolReclaimer {
	r := NewPoolReclaimer(settings, store, enq, PoolReclaimerOptions{Observer: obs}, logger.Discard())
	r.now = func() time.Time { return sweepNow }
	return r
}

func TestSweepEnqueuesStaleOwnedLeads(t *testing.T) {
	store := repository.NewMemoryStore()
	tenant := uuid.New()
	stale := ownedLead(tenant, domain.StatusFollowingUp, sweepNow.Add(-10*24*time.Hour))
	fresh := ownedLead(tenant, domain.StatusPendingFollowup, sweepNow.Add(-2*24*time.Hour))
	won := ownedLead(tenant, domain.StatusWon, sweepNow.Add(-30*24*time.Hour))
	recentActivity := ownedLead(tenant, domain.StatusFollowingUp, sweepNow.Add(-30*24*time.Hour))
	touched := sweepNow.Add(-time.Hour)
	recentActivity.LastActivityAt = &touched
	for _, l := range []domain.Lead{stale, fresh, won, recentActivity} {
		store.Put(l)
	}

	enq := &fakeEnqueuer{}
	obs := &countingObserver{}
	queued, err := newReclaimer(staticSettings{{TenantID: tenant, Value: "7"}}, store, enq, obs).Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, queued)
	assert.Equal(t, 1, obs.n)
	require.Len(t, enq.payloads, 1)
	assert.Equal(t, stale.ID.String(), enq.payloads[0].LeadID)
	assert.Equal(t, stale.AssignedSalesID.String(), enq.payloads[0].OwnerID)
	assert.Equal(t, sweepNow.Add(-7*24*time.Hour), enq.payloads[0].Cutoff)
	assert.Equal(t, 7, enq.payloads[0].Days)
}

func TestSweepIsIdempotentWithinADay(t *testing.T) {
	store := repository.NewMemoryStore()
	tenant := uuid.New()
	store.Put(ownedLead(tenant, domain.StatusFollowingUp, sweepNow.Add(-10*24*time.Hour)))

	enq := &fakeEnqueuer{}
	r := newReclaimer(staticSettings{{TenantID: tenant, Value: "3"}}, store, enq, &countingObserver{})

	first, err := r.Sweep(context.Background())
	require.NoError(t, err)
	second, err := r.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, first)
	assert.Equal(t, 0, second)
}

func TestSweepSkipsDisabledAndInvalidSettings(t *testing.T) {
	store := repository.NewMemoryStore()
	zero, invalid := uuid.New(), uuid.New()
	store.Put(ownedLead(zero, domain.StatusFollowingUp, sweepNow.Add(-90*24*time.Hour)))
	store.Put(ownedLead(invalid, domain.StatusFollowingUp, sweepNow.Add(-90*24*time.Hour)))

	enq := &fakeEnqueuer{}
	queued, err := newReclaimer(staticSettings{
		{TenantID: zero, Value: "0"},
		{TenantID: invalid, Value: "a week"},
	}, store, enq, &countingObserver{}).Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, queued)
	assert.Empty(t, enq.payloads)
}

func TestSweepContinuesAfterEnqueueFailure(t *testing.T) {
	store := repository.NewMemoryStore()
	tenant := uuid.New()
	store.Put(ownedLead(tenant, domain.StatusFollowingUp, sweepNow.Add(-10*24*time.Hour)))

	enq := &fakeEnqueuer{err: errors.New("redis down")}
	queued, err := newReclaimer(staticSettings{{TenantID: tenant, Value: "1"}}, store, enq, &countingObserver{}).Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, queued)
}
