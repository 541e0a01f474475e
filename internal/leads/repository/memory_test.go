package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"salescrm_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLead(s *MemoryStore, tenantID uuid.UUID, phone string) domain.Lead {
	lead := domain.Lead{
		ID:            uuid.New(),
		TenantID:      tenantID,
		CustomerName:  "张三",
		CustomerPhone: phone,
		Status:        domain.StatusPendingAssignment,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	s.Put(lead)
	return lead
}

func TestMemoryStoreRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tenant := uuid.New()
	lead := seedLead(s, tenant, "13800000000")
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx Tx) error {
		locked, err := tx.LockLead(ctx, lead.ID, tenant)
		require.NoError(t, err)
		locked.Status = domain.StatusVoid
		require.NoError(t, tx.UpdateLead(ctx, locked))
		require.NoError(t, tx.InsertLead(ctx, &domain.Lead{TenantID: tenant, CustomerName: "x", CustomerPhone: "1"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.GetByID(ctx, lead.ID, tenant)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingAssignment, got.Status)
	assert.Equal(t, 1, s.Count(tenant))
}

func TestMemoryStoreTenantScopedReads(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	lead := seedLead(s, uuid.New(), "13800000000")
	other := uuid.New()

	_, err := s.GetByID(ctx, lead.ID, other)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.ListActivities(ctx, lead.ID, other)
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.WithTx(ctx, func(tx Tx) error {
		_, err := tx.LockLead(ctx, lead.ID, other)
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)

	pool, err := s.ListPool(ctx, other, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, pool)
}

func TestMemoryStoreLockLeadBlocksSecondTransaction(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tenant := uuid.New()
	lead := seedLead(s, tenant, "13800000000")

	locked := make(chan struct{})
	releaseFirst := make(chan struct{})
	var secondSawOwner atomic.Bool

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = s.WithTx(ctx, func(tx Tx) error {
			l, err := tx.LockLead(ctx, lead.ID, tenant)
			if err != nil {
				return err
			}
			close(locked)
			<-releaseFirst
			owner := uuid.New()
			l.AssignedSalesID = &owner
			l.Status = domain.StatusPendingFollowup
			return tx.UpdateLead(ctx, l)
		})
	}()
	go func() {
		defer wg.Done()
		<-locked
		_ = s.WithTx(ctx, func(tx Tx) error {
			l, err := tx.LockLead(ctx, lead.ID, tenant)
			if err != nil {
				return err
			}
			secondSawOwner.Store(l.AssignedSalesID != nil)
			return nil
		})
	}()

	<-locked
	time.Sleep(20 * time.Millisecond)
	close(releaseFirst)
	wg.Wait()

	assert.True(t, secondSawOwner.Load(), "second transaction must read the committed owner")
}

func TestMemoryStoreLockRespectsContext(t *testing.T) {
	s := NewMemoryStore()
	tenant := uuid.New()
	lead := seedLead(s, tenant, "13800000000")
	hold := make(chan struct{})
	held := make(chan struct{})

	go func() {
		_ = s.WithTx(context.Background(), func(tx Tx) error {
			_, err := tx.LockLead(context.Background(), lead.ID, tenant)
			close(held)
			<-hold
			return err
		})
	}()
	<-held
	defer close(hold)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.WithTx(ctx, func(tx Tx) error {
		_, err := tx.LockLead(ctx, lead.ID, tenant)
		return err
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryStoreFindActiveByPhoneSkipsTerminal(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tenant := uuid.New()
	voided := seedLead(s, tenant, "13800000000")
	voided.Status = domain.StatusVoid
	reason := "spam"
	voided.VoidReason = &reason
	s.Put(voided)

	err := s.WithTx(ctx, func(tx Tx) error {
		_, err := tx.FindActiveByPhone(ctx, tenant, "13800000000")
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)

	active := seedLead(s, tenant, "13800000000")
	var found domain.Lead
	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		var err error
		found, err = tx.FindActiveByPhone(ctx, tenant, "13800000000")
		return err
	}))
	assert.Equal(t, active.ID, found.ID)
}

func TestMemoryStoreCursorCommitsWithTransaction(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tenant := uuid.New()
	sales := uuid.New()

	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		last, err := tx.LockCursor(ctx, tenant, "tenant")
		require.NoError(t, err)
		assert.Nil(t, last)
		return tx.SaveCursor(ctx, tenant, "tenant", sales)
	}))

	got, ok := s.Cursor(tenant, "tenant")
	require.True(t, ok)
	assert.Equal(t, sales, got)
}
