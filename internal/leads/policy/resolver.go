// Package policy resolves a tenant's distribution settings into a domain.Policy.
package policy

import (
	"context"

	"salescrm_backend/internal/leads/domain"
	"salescrm_backend/internal/leads/ports"
	"salescrm_backend/platform/logger"

	"github.com/google/uuid"
)

// Resolver reads the dedup strategy and auto-assign rule for a tenant.
// It holds no cache; every call reflects the current settings.
type Resolver struct {
	settings ports.SettingsReader
	log      *logger.Logger
}

// New creates a Resolver.
func New(settings ports.SettingsReader, log *logger.Logger) *Resolver {
	return &Resolver{settings: settings, log: log}
}

// Resolve returns the tenant's policy. Missing settings resolve to NONE;
// unrecognised values also resolve to NONE and are logged.
func (r *Resolver) Resolve(ctx context.Context, tenantID uuid.UUID) (domain.Policy, error) {
	var p domain.Policy

	raw, _, err := r.settings.GetSetting(ctx, tenantID, domain.SettingDuplicateStrategy)
	if err != nil {
		return domain.Policy{}, err
	}
	dedup, ok := domain.ParseDedupStrategy(raw)
	if !ok {
		r.log.PolicyFallback(tenantID.String(), domain.SettingDuplicateStrategy, raw, dedup.String())
	}
	p.Dedup = dedup

	raw, _, err = r.settings.GetSetting(ctx, tenantID, domain.SettingAutoAssignRule)
	if err != nil {
		return domain.Policy{}, err
	}
	rule, ok := domain.ParseAssignRule(raw)
	if !ok {
		r.log.PolicyFallback(tenantID.String(), domain.SettingAutoAssignRule, raw, rule.String())
	}
	p.Assign = rule

	return p, nil
}
