package events

import (
	"context"

	"salescrm_backend/platform/logger"
)

// Journal writes one structured log line per lead event.
type Journal struct {
	log *logger.Logger
}

func NewJournal(log *logger.Logger) *Journal {
	return &Journal{log: log}
}

// Register subscribes the journal to every lead event on bus.
func (j *Journal) Register(bus Bus) {
	for _, name := range []string{
		LeadCreated{}.EventName(),
		LeadAssigned{}.EventName(),
		LeadReleased{}.EventName(),
		LeadVoided{}.EventName(),
		LeadConverted{}.EventName(),
	} {
		bus.Subscribe(name, j)
	}
}

func (j *Journal) Handle(ctx context.Context, event Event) error {
	attrs := []any{"event", event.EventName(), "occurredAt", event.OccurredAt()}
	switch e := event.(type) {
	case LeadCreated:
		attrs = append(attrs, "leadId", e.LeadID, "tenantId", e.TenantID, "actorId", e.ActorID, "score", e.Score)
	case LeadAssigned:
		attrs = append(attrs, "leadId", e.LeadID, "tenantId", e.TenantID, "salesId", e.SalesID, "source", e.Source)
	case LeadReleased:
		attrs = append(attrs, "leadId", e.LeadID, "tenantId", e.TenantID, "previousSalesId", e.PreviousSalesID, "forced", e.Forced)
	case LeadVoided:
		attrs = append(attrs, "leadId", e.LeadID, "tenantId", e.TenantID, "reason", e.Reason)
	case LeadConverted:
		attrs = append(attrs, "leadId", e.LeadID, "tenantId", e.TenantID, "customerId", e.CustomerID)
	}
	j.log.WithContext(ctx).Info("lead event", attrs...)
	return nil
}
