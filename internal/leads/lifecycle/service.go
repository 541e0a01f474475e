// Package lifecycle implements the lead lifecycle operations. Every mutating
// operation runs in one transaction: lock the lead row, validate preconditions
// against the locked state, mutate, write the audit entry, commit.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"salescrm_backend/internal/events"
	"salescrm_backend/internal/leads/distribution"
	"salescrm_backend/internal/leads/domain"
	"salescrm_backend/internal/leads/ports"
	"salescrm_backend/internal/leads/repository"
	"salescrm_backend/platform/apperr"
	"salescrm_backend/platform/logger"
	"salescrm_backend/platform/phone"

	"github.com/google/uuid"
)

const (
	msgLeadNotFound = "lead not found"
	msgNotOwner     = "only the assigned sales user may do this without force"

	auditTable = "leads"
)

// Audit actions.
const (
	ActionCreate      = "CREATE"
	ActionAutoAssign  = "AUTO_ASSIGN"
	ActionClaim       = "CLAIM"
	ActionAssign      = "ASSIGN"
	ActionAddActivity = "ADD_ACTIVITY"
	ActionVoid        = "VOID"
	ActionRelease     = "RELEASE"
	ActionConvert     = "CONVERT"
	ActionDedupLink   = "DEDUP_LINK"
)

// PolicyResolver resolves a tenant's distribution policy.
type PolicyResolver interface {
	Resolve(ctx context.Context, tenantID uuid.UUID) (domain.Policy, error)
}

// Distributor picks the next owner inside an open transaction.
type Distributor interface {
	NextInTx(ctx context.Context, tx repository.CursorStore, tenantID uuid.UUID, channelID *uuid.UUID) (*distribution.Assignment, error)
}

// Recorder receives operation outcomes for metrics.
type Recorder interface {
	ObserveOperation(operation, outcome string)
	ObserveClaimConflict()
}

// Deps are the collaborators of Service. EventBus, Metrics and Clock are optional.
type Deps struct {
	Store       repository.Store
	Policy      PolicyResolver
	Distributor Distributor
	Directory   ports.SalesDirectory
	Customers   ports.CustomerCreator
	Audit       ports.AuditSink
	Phones      *phone.Normalizer
	EventBus    events.Publisher
	Metrics     Recorder
	Log         *logger.Logger
	Clock       func() time.Time
}

// Service owns the lead state machine.
type Service struct {
	store       repository.Store
	policy      PolicyResolver
	distributor Distributor
	directory   ports.SalesDirectory
	customers   ports.CustomerCreator
	audit       ports.AuditSink
	phones      *phone.Normalizer
	bus         events.Publisher
	metrics     Recorder
	log         *logger.Logger
	now         func() time.Time
}

// New creates the lifecycle service.
func New(deps Deps) *Service {
	s := &Service{
		store:       deps.Store,
		policy:      deps.Policy,
		distributor: deps.Distributor,
		directory:   deps.Directory,
		customers:   deps.Customers,
		audit:       deps.Audit,
		phones:      deps.Phones,
		bus:         deps.EventBus,
		metrics:     deps.Metrics,
		log:         deps.Log,
		now:         deps.Clock,
	}
	if s.phones == nil {
		s.phones = phone.NewNormalizer(phone.DefaultRegion)
	}
	if s.log == nil {
		s.log = logger.Discard()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// withLockedLead runs fn on the lead row locked FOR UPDATE inside one
// transaction. fn validates against the locked state and performs every
// write; returning an error rolls everything back.
func (s *Service) withLockedLead(ctx context.Context, id, tenantID uuid.UUID, fn func(tx repository.Tx, lead *domain.Lead) error) error {
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		lead, err := tx.LockLead(ctx, id, tenantID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound(msgLeadNotFound)
		}
		if err != nil {
			return apperr.Infrastructure("lock lead", err)
		}
		return fn(tx, &lead)
	})
	return infra(err, "commit lead transaction")
}

// record writes one audit entry for the lead inside tx.
func (s *Service) record(ctx context.Context, tx repository.Tx, lead domain.Lead, actorID uuid.UUID, action string, oldValues, newValues map[string]any) error {
	err := s.audit.Record(ctx, tx, ports.AuditEntry{
		TenantID:  lead.TenantID,
		ActorID:   actorID,
		TableName: auditTable,
		RecordID:  lead.ID,
		Action:    action,
		OldValues: oldValues,
		NewValues: newValues,
	})
	return infra(err, "record audit entry")
}

// requireOwner rejects actors other than the current owner unless force is set.
func requireOwner(lead *domain.Lead, actorID uuid.UUID, force bool) error {
	if force || lead.AssignedSalesID == nil || lead.IsOwnedBy(actorID) {
		return nil
	}
	return apperr.Forbidden(msgNotOwner)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, event)
	}
}

// observe records the outcome of operation; call it deferred with the
// operation's named error.
func (s *Service) observe(operation string, err *error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveOperation(operation, outcome(*err))
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return apperr.GetKind(err).String()
}

// infra wraps untyped storage errors; typed errors pass through.
func infra(err error, message string) error {
	if err == nil {
		return nil
	}
	if apperr.GetKind(err) != apperr.KindUnknown {
		return err
	}
	return apperr.Infrastructure(message, err)
}

// snapshot is the audited view of the mutable lead fields.
func snapshot(l domain.Lead) map[string]any {
	return map[string]any{
		"status":                string(l.Status),
		"assigned_sales_id":     l.AssignedSalesID,
		"void_reason":           l.VoidReason,
		"next_followup_at":      l.NextFollowupAt,
		"last_activity_at":      l.LastActivityAt,
		"converted_customer_id": l.ConvertedCustomerID,
	}
}
