package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"salescrm_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store. Lead, phone and cursor locks are
// exclusive and held until the transaction ends, matching the Postgres row
// and advisory locks; writes become visible only on commit.
type MemoryStore struct {
	mu         sync.Mutex
	leads      map[uuid.UUID]domain.Lead
	activities map[uuid.UUID][]domain.Activity
	cursors    map[cursorKey]uuid.UUID
	locks      map[string]chan struct{}
	now        func() time.Time
}

type cursorKey struct {
	tenantID uuid.UUID
	scope    string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		leads:      make(map[uuid.UUID]domain.Lead),
		activities: make(map[uuid.UUID][]domain.Activity),
		cursors:    make(map[cursorKey]uuid.UUID),
		locks:      make(map[string]chan struct{}),
		now:        time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

// Put stores lead as committed state, bypassing transactions.
func (s *MemoryStore) Put(lead domain.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[lead.ID] = lead.Clone()
}

// Count returns the number of stored leads in tenantID.
func (s *MemoryStore) Count(tenantID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.leads {
		if l.TenantID == tenantID {
			n++
		}
	}
	return n
}

// Cursor returns the committed cursor for a scope.
func (s *MemoryStore) Cursor(tenantID uuid.UUID, scopeKey string) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.cursors[cursorKey{tenantID, scopeKey}]
	return id, ok
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx := &memoryTx{
		store:  s,
		leads:  make(map[uuid.UUID]domain.Lead),
		cursor: make(map[cursorKey]uuid.UUID),
	}
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id, tenantID uuid.UUID) (domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[id]
	if !ok || lead.TenantID != tenantID {
		return domain.Lead{}, ErrNotFound
	}
	return lead.Clone(), nil
}

func (s *MemoryStore) ListPool(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]domain.Lead, error) {
	items := s.filter(func(l domain.Lead) bool {
		return l.TenantID == tenantID && l.IsPooled()
	})
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return page(items, limit, offset), nil
}

func (s *MemoryStore) ListActivities(ctx context.Context, leadID, tenantID uuid.UUID) ([]domain.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[leadID]
	if !ok || lead.TenantID != tenantID {
		return nil, ErrNotFound
	}
	out := make([]domain.Activity, len(s.activities[leadID]))
	copy(out, s.activities[leadID])
	return out, nil
}

func (s *MemoryStore) ListStaleAssigned(ctx context.Context, tenantID uuid.UUID, cutoff time.Time, limit int) ([]domain.Lead, error) {
	items := s.filter(func(l domain.Lead) bool {
		return l.TenantID == tenantID &&
			l.AssignedSalesID != nil &&
			!l.Status.IsTerminal() &&
			l.LastTouched().Before(cutoff)
	})
	sort.Slice(items, func(i, j int) bool { return items[i].LastTouched().Before(items[j].LastTouched()) })
	return page(items, limit, 0), nil
}

func (s *MemoryStore) filter(keep func(domain.Lead) bool) []domain.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]domain.Lead, 0)
	for _, l := range s.leads {
		if keep(l) {
			items = append(items, l.Clone())
		}
	}
	return items
}

func page(items []domain.Lead, limit, offset int) []domain.Lead {
	if offset >= len(items) {
		return []domain.Lead{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// lock blocks until key is free or ctx is done.
func (s *MemoryStore) lock(ctx context.Context, key string) error {
	s.mu.Lock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	s.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *MemoryStore) unlock(key string) {
	s.mu.Lock()
	ch := s.locks[key]
	s.mu.Unlock()
	<-ch
}

type memoryTx struct {
	store      *MemoryStore
	held       []string
	leads      map[uuid.UUID]domain.Lead
	activities []domain.Activity
	cursor     map[cursorKey]uuid.UUID
}

var _ Tx = (*memoryTx)(nil)

func (t *memoryTx) DB() DBTX { return nil }

func (t *memoryTx) acquire(ctx context.Context, key string) error {
	for _, h := range t.held {
		if h == key {
			return nil
		}
	}
	if err := t.store.lock(ctx, key); err != nil {
		return err
	}
	t.held = append(t.held, key)
	return nil
}

func (t *memoryTx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.store.unlock(t.held[i])
	}
	t.held = nil
}

func (t *memoryTx) commit() {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, l := range t.leads {
		s.leads[id] = l
	}
	for _, a := range t.activities {
		s.activities[a.LeadID] = append(s.activities[a.LeadID], a)
	}
	for k, v := range t.cursor {
		s.cursors[k] = v
	}
}

// visible returns the lead as this transaction sees it.
func (t *memoryTx) visible(id uuid.UUID) (domain.Lead, bool) {
	if l, ok := t.leads[id]; ok {
		return l, true
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	l, ok := t.store.leads[id]
	return l, ok
}

func (t *memoryTx) LockLead(ctx context.Context, id, tenantID uuid.UUID) (domain.Lead, error) {
	if err := t.acquire(ctx, "lead:"+id.String()); err != nil {
		return domain.Lead{}, err
	}
	lead, ok := t.visible(id)
	if !ok || lead.TenantID != tenantID {
		return domain.Lead{}, ErrNotFound
	}
	return lead.Clone(), nil
}

func (t *memoryTx) LockPhone(ctx context.Context, tenantID uuid.UUID, phone string) error {
	return t.acquire(ctx, "phone:"+tenantID.String()+":"+phone)
}

func (t *memoryTx) FindActiveByPhone(ctx context.Context, tenantID uuid.UUID, phone string) (domain.Lead, error) {
	candidates := t.store.filter(func(l domain.Lead) bool {
		return l.TenantID == tenantID && l.CustomerPhone == phone
	})
	for _, l := range t.leads {
		if l.TenantID == tenantID && l.CustomerPhone == phone {
			candidates = append(candidates, l.Clone())
		}
	}

	var (
		best  domain.Lead
		found bool
	)
	for _, c := range candidates {
		current, _ := t.visible(c.ID)
		if current.Status.IsTerminal() {
			continue
		}
		if !found || current.CreatedAt.Before(best.CreatedAt) {
			best, found = current, true
		}
	}
	if !found {
		return domain.Lead{}, ErrNotFound
	}
	return best.Clone(), nil
}

func (t *memoryTx) InsertLead(ctx context.Context, lead *domain.Lead) error {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	now := t.store.now()
	lead.CreatedAt = now
	lead.UpdatedAt = now
	t.leads[lead.ID] = lead.Clone()
	return nil
}

func (t *memoryTx) UpdateLead(ctx context.Context, lead domain.Lead) error {
	current, ok := t.visible(lead.ID)
	if !ok || current.TenantID != lead.TenantID {
		return ErrNotFound
	}
	t.leads[lead.ID] = lead.Clone()
	return nil
}

func (t *memoryTx) InsertActivity(ctx context.Context, activity *domain.Activity) error {
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	activity.CreatedAt = t.store.now()
	t.activities = append(t.activities, *activity)
	return nil
}

func (t *memoryTx) LockCursor(ctx context.Context, tenantID uuid.UUID, scopeKey string) (*uuid.UUID, error) {
	key := cursorKey{tenantID, scopeKey}
	if err := t.acquire(ctx, "cursor:"+tenantID.String()+":"+scopeKey); err != nil {
		return nil, err
	}
	if id, ok := t.cursor[key]; ok {
		return &id, nil
	}
	if id, ok := t.store.Cursor(tenantID, scopeKey); ok {
		return &id, nil
	}
	return nil, nil
}

func (t *memoryTx) SaveCursor(ctx context.Context, tenantID uuid.UUID, scopeKey string, salesID uuid.UUID) error {
	t.cursor[cursorKey{tenantID, scopeKey}] = salesID
	return nil
}
