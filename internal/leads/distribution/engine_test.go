package distribution

import (
	"context"
	"errors"
	"sync"
	"testing"

	"salescrm_backend/internal/leads/domain"
	"salescrm_backend/internal/leads/repository"
	"salescrm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	mu        sync.Mutex
	byTenant  map[uuid.UUID][]domain.SalesUser
	byChannel map[uuid.UUID][]domain.SalesUser
	err       error
}

func (f *fakeDirectory) ListActiveSalesUsers(ctx context.Context, tenantID uuid.UUID, channelID *uuid.UUID) ([]domain.SalesUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if channelID != nil {
		return f.byChannel[*channelID], nil
	}
	return f.byTenant[tenantID], nil
}

type countingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *countingObserver) ObserveDistribution(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counts == nil {
		o.counts = map[string]int{}
	}
	o.counts[outcome]++
}

// sortedUsers returns n users whose ids are in ascending order.
func sortedUsers(n int) []domain.SalesUser {
	users := make([]domain.SalesUser, n)
	for i := range users {
		id := uuid.UUID{}
		id[15] = byte(i + 1)
		users[i] = domain.SalesUser{ID: id, Name: string(rune('A' + i))}
	}
	return users
}

func TestRoundRobinCyclesAndWraps(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()
	users := sortedUsers(3)
	dir := &fakeDirectory{byTenant: map[uuid.UUID][]domain.SalesUser{
		tenant: {users[2], users[0], users[1]},
	}}
	engine := New(repository.NewMemoryStore(), dir, nil, logger.Discard())

	var picked []uuid.UUID
	for i := 0; i < 4; i++ {
		a, err := engine.DistributeToNextSales(ctx, tenant, nil)
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, TenantScope, a.ScopeKey)
		picked = append(picked, a.SalesID)
	}

	assert.Equal(t, []uuid.UUID{users[0].ID, users[1].ID, users[2].ID, users[0].ID}, picked)
}

func TestRoundRobinSkipsDisabledCursorHolder(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()
	users := sortedUsers(3)
	dir := &fakeDirectory{byTenant: map[uuid.UUID][]domain.SalesUser{tenant: users}}
	store := repository.NewMemoryStore()
	engine := New(store, dir, nil, logger.Discard())

	first, err := engine.DistributeToNextSales(ctx, tenant, nil)
	require.NoError(t, err)
	second, err := engine.DistributeToNextSales(ctx, tenant, nil)
	require.NoError(t, err)
	require.Equal(t, users[1].ID, second.SalesID)
	require.Equal(t, users[0].ID, first.SalesID)

	dir.mu.Lock()
	dir.byTenant[tenant] = []domain.SalesUser{users[0], users[2]}
	dir.mu.Unlock()

	next, err := engine.DistributeToNextSales(ctx, tenant, nil)
	require.NoError(t, err)
	assert.Equal(t, users[2].ID, next.SalesID)
}

func TestNoCandidatesReturnsNil(t *testing.T) {
	obs := &countingObserver{}
	engine := New(repository.NewMemoryStore(), &fakeDirectory{}, obs, logger.Discard())

	a, err := engine.DistributeToNextSales(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Nil(t, a)
	assert.Equal(t, 1, obs.counts[OutcomeNoCandidate])
}

func TestChannelScopeHasOwnCursorAndFallsBack(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()
	channel := uuid.New()
	empty := uuid.New()
	users := sortedUsers(3)
	dir := &fakeDirectory{
		byTenant:  map[uuid.UUID][]domain.SalesUser{tenant: users},
		byChannel: map[uuid.UUID][]domain.SalesUser{channel: {users[1], users[2]}},
	}
	store := repository.NewMemoryStore()
	engine := New(store, dir, nil, logger.Discard())

	a, err := engine.DistributeToNextSales(ctx, tenant, &channel)
	require.NoError(t, err)
	assert.Equal(t, users[1].ID, a.SalesID)
	assert.Equal(t, "channel:"+channel.String(), a.ScopeKey)

	b, err := engine.DistributeToNextSales(ctx, tenant, &empty)
	require.NoError(t, err)
	assert.Equal(t, users[0].ID, b.SalesID)
	assert.Equal(t, TenantScope, b.ScopeKey)

	c, err := engine.DistributeToNextSales(ctx, tenant, &channel)
	require.NoError(t, err)
	assert.Equal(t, users[2].ID, c.SalesID)
}

func TestConcurrentDistributionNeverRepeatsWithinARound(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()
	users := sortedUsers(8)
	dir := &fakeDirectory{byTenant: map[uuid.UUID][]domain.SalesUser{tenant: users}}
	engine := New(repository.NewMemoryStore(), dir, nil, logger.Discard())

	results := make(chan uuid.UUID, len(users))
	var wg sync.WaitGroup
	for range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := engine.DistributeToNextSales(ctx, tenant, nil)
			if err == nil && a != nil {
				results <- a.SalesID
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := map[uuid.UUID]int{}
	for id := range results {
		seen[id]++
	}
	assert.Len(t, seen, len(users))
	for id, n := range seen {
		assert.Equal(t, 1, n, "sales user %s selected twice", id)
	}
}

func TestDirectoryErrorPropagates(t *testing.T) {
	boom := errors.New("directory down")
	engine := New(repository.NewMemoryStore(), &fakeDirectory{err: boom}, nil, logger.Discard())

	_, err := engine.DistributeToNextSales(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, boom)
}
