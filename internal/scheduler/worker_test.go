package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"salescrm_backend/internal/leads/domain"
	"salescrm_backend/internal/leads/lifecycle"
	"salescrm_backend/internal/leads/ports"
	"salescrm_backend/internal/leads/repository"
	"salescrm_backend/platform/apperr"
	"salescrm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type releaseCall struct {
	id, tenantID uuid.UUID
	cutoff       time.Time
	owner        uuid.UUID
}

type fakeReleaser struct {
	calls []releaseCall
	err   error
}

func (f *fakeReleaser) ReleaseIfStale(ctx context.Context, id, tenantID uuid.UUID, cutoff time.Time, expectedOwner uuid.UUID) error {
	f.calls = append(f.calls, releaseCall{id, tenantID, cutoff, expectedOwner})
	return f.err
}

var releaseCutoff = sweepNow.Add(-7 * 24 * time.Hour)

func releaseTask(t *testing.T, leadID, tenantID string) *asynq.Task {
	t.Helper()
	return taskFor(t, PoolReleasePayload{LeadID: leadID, TenantID: tenantID, OwnerID: uuid.NewString(), Cutoff: releaseCutoff, Days: 7})
}

func taskFor(t *testing.T, payload PoolReleasePayload) *asynq.Task {
	t.Helper()
	task, err := NewPoolReleaseTask(payload)
	require.NoError(t, err)
	return task
}

func TestHandlePoolReleasePassesObservedOwnerAndCutoff(t *testing.T) {
	releaser := &fakeReleaser{}
	w := &Worker{releaser: releaser, log: logger.Discard()}
	leadID, tenantID, owner := uuid.New(), uuid.New(), uuid.New()

	task := taskFor(t, PoolReleasePayload{LeadID: leadID.String(), TenantID: tenantID.String(), OwnerID: owner.String(), Cutoff: releaseCutoff, Days: 7})
	require.NoError(t, w.handlePoolRelease(context.Background(), task))

	require.Len(t, releaser.calls, 1)
	call := releaser.calls[0]
	assert.Equal(t, leadID, call.id)
	assert.Equal(t, tenantID, call.tenantID)
	assert.Equal(t, owner, call.owner)
	assert.True(t, releaseCutoff.Equal(call.cutoff))
}

func TestHandlePoolReleaseAcknowledgesSettledLeads(t *testing.T) {
	for _, err := range []error{apperr.StateConflict("lead is not assigned"), apperr.NotFound("lead not found")} {
		w := &Worker{releaser: &fakeReleaser{err: err}, log: logger.Discard()}
		assert.NoError(t, w.handlePoolRelease(context.Background(), releaseTask(t, uuid.NewString(), uuid.NewString())))
	}
}

func TestHandlePoolReleaseRetriesInfrastructureErrors(t *testing.T) {
	cause := apperr.Infrastructure("commit lead transaction", errors.New("connection reset"))
	w := &Worker{releaser: &fakeReleaser{err: cause}, log: logger.Discard()}

	err := w.handlePoolRelease(context.Background(), releaseTask(t, uuid.NewString(), uuid.NewString()))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandlePoolReleaseSkipsBadPayloads(t *testing.T) {
	releaser := &fakeReleaser{}
	w := &Worker{releaser: releaser, log: logger.Discard()}

	err := w.handlePoolRelease(context.Background(), releaseTask(t, "nope", uuid.NewString()))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = w.handlePoolRelease(context.Background(), asynq.NewTask(TaskPoolRelease, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	noOwner := taskFor(t, PoolReleasePayload{LeadID: uuid.NewString(), TenantID: uuid.NewString(), Cutoff: releaseCutoff, Days: 7})
	assert.ErrorIs(t, w.handlePoolRelease(context.Background(), noOwner), asynq.SkipRetry)

	noCutoff := taskFor(t, PoolReleasePayload{LeadID: uuid.NewString(), TenantID: uuid.NewString(), OwnerID: uuid.NewString(), Days: 7})
	assert.ErrorIs(t, w.handlePoolRelease(context.Background(), noCutoff), asynq.SkipRetry)
	assert.Empty(t, releaser.calls)
}

func TestPoolReleaseTaskIDIsPerLeadPerDay(t *testing.T) {
	morning := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)

	assert.Equal(t, "pool-release:lead-1:20260310", PoolReleaseTaskID("lead-1", morning))
	assert.Equal(t, PoolReleaseTaskID("lead-1", morning), PoolReleaseTaskID("lead-1", evening))
	assert.NotEqual(t, PoolReleaseTaskID("lead-1", morning), PoolReleaseTaskID("lead-1", morning.Add(24*time.Hour)))
	assert.NotEqual(t, PoolReleaseTaskID("lead-1", morning), PoolReleaseTaskID("lead-2", morning))
}

type noopAudit struct{}

func (noopAudit) Record(ctx context.Context, tx repository.Tx, entry ports.AuditEntry) error {
	return nil
}

// sweepAndRelease queues stale leads at sweepNow, lets mutate run between the
// sweep and the worker, then runs every queued task against a real service.
func sweepAndRelease(t *testing.T, store *repository.MemoryStore, tenant uuid.UUID, mutate func(svc *lifecycle.Service)) {
	t.Helper()
	enq := &fakeEnqueuer{}
	queued, err := newReclaimer(staticSettings{{TenantID: tenant, Value: "7"}}, store, enq, &countingObserver{}).Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, queued)

	svc := lifecycle.New(lifecycle.Deps{
		Store: store,
		Audit: noopAudit{},
		Log:   logger.Discard(),
		Clock: func() time.Time { return sweepNow },
	})
	mutate(svc)

	w := &Worker{releaser: svc, log: logger.Discard()}
	for _, payload := range enq.payloads {
		require.NoError(t, w.handlePoolRelease(context.Background(), taskFor(t, payload)))
	}
}

func TestWorkerReleasesLeadStillStale(t *testing.T) {
	store := repository.NewMemoryStore()
	tenant := uuid.New()
	lead := ownedLead(tenant, domain.StatusFollowingUp, sweepNow.Add(-10*24*time.Hour))
	store.Put(lead)

	sweepAndRelease(t, store, tenant, func(*lifecycle.Service) {})

	got, err := store.GetByID(context.Background(), lead.ID, tenant)
	require.NoError(t, err)
	assert.True(t, got.IsPooled())
}

func TestWorkerKeepsLeadTouchedAfterSweep(t *testing.T) {
	store := repository.NewMemoryStore()
	tenant := uuid.New()
	lead := ownedLead(tenant, domain.StatusFollowingUp, sweepNow.Add(-10*24*time.Hour))
	owner := *lead.AssignedSalesID
	store.Put(lead)

	sweepAndRelease(t, store, tenant, func(svc *lifecycle.Service) {
		_, err := svc.AddActivity(context.Background(), lead.ID, lifecycle.ActivityInput{Type: "call", Content: "still interested"}, tenant, owner)
		require.NoError(t, err)
	})

	got, err := store.GetByID(context.Background(), lead.ID, tenant)
	require.NoError(t, err)
	assert.True(t, got.IsOwnedBy(owner))
	assert.Equal(t, domain.StatusFollowingUp, got.Status)
}

func TestWorkerKeepsLeadReassignedAfterSweep(t *testing.T) {
	store := repository.NewMemoryStore()
	tenant := uuid.New()
	lead := ownedLead(tenant, domain.StatusFollowingUp, sweepNow.Add(-10*24*time.Hour))
	store.Put(lead)
	next := uuid.New()

	sweepAndRelease(t, store, tenant, func(svc *lifecycle.Service) {
		_, err := svc.AssignLead(context.Background(), lead.ID, next, tenant, uuid.New(), nil)
		require.NoError(t, err)
	})

	got, err := store.GetByID(context.Background(), lead.ID, tenant)
	require.NoError(t, err)
	assert.True(t, got.IsOwnedBy(next))
}
