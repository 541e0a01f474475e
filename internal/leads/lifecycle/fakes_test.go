package lifecycle

import (
	"context"
	"errors"
	"sync"

	"salescrm_backend/internal/leads/distribution"
	"salescrm_backend/internal/leads/domain"
	"salescrm_backend/internal/leads/policy"
	"salescrm_backend/internal/leads/ports"
	"salescrm_backend/internal/leads/repository"
	"salescrm_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeSettings struct {
	mu     sync.Mutex
	values map[uuid.UUID]map[string]string
}

func (f *fakeSettings) set(tenantID uuid.UUID, key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.values == nil {
		f.values = map[uuid.UUID]map[string]string{}
	}
	if f.values[tenantID] == nil {
		f.values[tenantID] = map[string]string{}
	}
	f.values[tenantID][key] = value
}

func (f *fakeSettings) GetSetting(ctx context.Context, tenantID uuid.UUID, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[tenantID][key]
	return v, ok, nil
}

type fakeDirectory struct {
	mu    sync.Mutex
	users map[uuid.UUID][]domain.SalesUser
}

func (f *fakeDirectory) add(tenantID uuid.UUID, name string) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.users == nil {
		f.users = map[uuid.UUID][]domain.SalesUser{}
	}
	id := uuid.New()
	f.users[tenantID] = append(f.users[tenantID], domain.SalesUser{ID: id, Name: name})
	return id
}

func (f *fakeDirectory) ListActiveSalesUsers(ctx context.Context, tenantID uuid.UUID, channelID *uuid.UUID) ([]domain.SalesUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.SalesUser(nil), f.users[tenantID]...), nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []ports.AuditEntry
	failOn  string
}

func (f *fakeAudit) Record(ctx context.Context, tx repository.Tx, entry ports.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != "" && entry.Action == f.failOn {
		return errors.New("audit store unavailable")
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAudit) count(action string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.entries {
		if e.Action == action {
			n++
		}
	}
	return n
}

func (f *fakeAudit) last(action string) (ports.AuditEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].Action == action {
			return f.entries[i], true
		}
	}
	return ports.AuditEntry{}, false
}

type fakeCustomers struct {
	mu      sync.Mutex
	created []ports.CustomerAttributes
	err     error
}

func (f *fakeCustomers) CreateCustomer(ctx context.Context, tx repository.Tx, tenantID uuid.UUID, attrs ports.CustomerAttributes) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return uuid.Nil, f.err
	}
	f.created = append(f.created, attrs)
	return uuid.New(), nil
}

type fakeRecorder struct {
	mu             sync.Mutex
	operations     map[string]int
	claimConflicts int
}

func (f *fakeRecorder) ObserveOperation(operation, outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.operations == nil {
		f.operations = map[string]int{}
	}
	f.operations[operation+"/"+outcome]++
}

func (f *fakeRecorder) ObserveClaimConflict() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claimConflicts++
}

type harness struct {
	svc       *Service
	store     *repository.MemoryStore
	settings  *fakeSettings
	directory *fakeDirectory
	audit     *fakeAudit
	customers *fakeCustomers
	metrics   *fakeRecorder
}

func newHarness() *harness {
	h := &harness{
		store:     repository.NewMemoryStore(),
		settings:  &fakeSettings{},
		directory: &fakeDirectory{},
		audit:     &fakeAudit{},
		customers: &fakeCustomers{},
		metrics:   &fakeRecorder{},
	}
	log := logger.Discard()
	h.svc = New(Deps{
		Store:       h.store,
		Policy:      policy.New(h.settings, log),
		Distributor: distribution.New(h.store, h.directory, nil, log),
		Directory:   h.directory,
		Customers:   h.customers,
		Audit:       h.audit,
		Metrics:     h.metrics,
		Log:         log,
	})
	return h
}
