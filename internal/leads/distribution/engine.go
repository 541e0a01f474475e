// Package distribution selects the next owner for a lead.
//
// Round-robin keeps one persisted cursor per (tenant, scope). The scope is the
// channel when a channel-scoped candidate list exists, otherwise the whole
// tenant. Candidates are ordered by id and the next pick is the first id after
// the cursor, wrapping around; a cursor pointing at a user who has since been
// disabled therefore simply continues with the next eligible id. The cursor
// row is read FOR UPDATE and written in the same transaction, so concurrent
// calls on one scope serialise and never select past the same user twice.
package distribution

import (
	"bytes"
	"context"
	"slices"

	"salescrm_backend/internal/leads/domain"
	"salescrm_backend/internal/leads/ports"
	"salescrm_backend/internal/leads/repository"
	"salescrm_backend/platform/logger"

	"github.com/google/uuid"
)

// TenantScope is the cursor scope used when no channel-scoped list applies.
const TenantScope = "tenant"

// Outcome labels for Observer.
const (
	OutcomeAssigned    = "assigned"
	OutcomeNoCandidate = "no_candidate"
)

// Assignment is the selected owner.
type Assignment struct {
	SalesID   uuid.UUID
	SalesName string
	ScopeKey  string
}

// Observer is notified of every distribution decision.
type Observer interface {
	ObserveDistribution(outcome string)
}

// Engine implements round-robin distribution over the sales directory.
type Engine struct {
	store     repository.Store
	directory ports.SalesDirectory
	observer  Observer
	log       *logger.Logger
}

// New creates an Engine. observer may be nil.
func New(store repository.Store, directory ports.SalesDirectory, observer Observer, log *logger.Logger) *Engine {
	return &Engine{store: store, directory: directory, observer: observer, log: log}
}

// DistributeToNextSales advances the rotation in its own transaction.
// It returns nil without error when no eligible sales user exists.
func (e *Engine) DistributeToNextSales(ctx context.Context, tenantID uuid.UUID, channelID *uuid.UUID) (*Assignment, error) {
	var out *Assignment
	err := e.store.WithTx(ctx, func(tx repository.Tx) error {
		a, err := e.NextInTx(ctx, tx, tenantID, channelID)
		out = a
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// NextInTx advances the rotation inside the caller's transaction.
func (e *Engine) NextInTx(ctx context.Context, tx repository.CursorStore, tenantID uuid.UUID, channelID *uuid.UUID) (*Assignment, error) {
	candidates, scope, err := e.candidates(ctx, tenantID, channelID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		e.observe(OutcomeNoCandidate)
		e.log.Warn("no eligible sales user for distribution", "tenant_id", tenantID.String(), "scope", scope)
		return nil, nil
	}

	last, err := tx.LockCursor(ctx, tenantID, scope)
	if err != nil {
		return nil, err
	}

	pick := nextAfter(candidates, last)
	if err := tx.SaveCursor(ctx, tenantID, scope, pick.ID); err != nil {
		return nil, err
	}

	e.observe(OutcomeAssigned)
	return &Assignment{SalesID: pick.ID, SalesName: pick.Name, ScopeKey: scope}, nil
}

// candidates returns the sorted eligible users and the cursor scope they
// rotate under. An empty channel list falls back to the tenant-wide list.
func (e *Engine) candidates(ctx context.Context, tenantID uuid.UUID, channelID *uuid.UUID) ([]domain.SalesUser, string, error) {
	if channelID != nil {
		users, err := e.directory.ListActiveSalesUsers(ctx, tenantID, channelID)
		if err != nil {
			return nil, "", err
		}
		if len(users) > 0 {
			return sortUnique(users), "channel:" + channelID.String(), nil
		}
	}

	users, err := e.directory.ListActiveSalesUsers(ctx, tenantID, nil)
	if err != nil {
		return nil, "", err
	}
	return sortUnique(users), TenantScope, nil
}

func (e *Engine) observe(outcome string) {
	if e.observer != nil {
		e.observer.ObserveDistribution(outcome)
	}
}

func sortUnique(users []domain.SalesUser) []domain.SalesUser {
	out := slices.Clone(users)
	slices.SortFunc(out, func(a, b domain.SalesUser) int {
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return slices.CompactFunc(out, func(a, b domain.SalesUser) bool { return a.ID == b.ID })
}

// nextAfter returns the first candidate whose id sorts after last, wrapping
// to the first candidate. candidates must be sorted and non-empty.
func nextAfter(candidates []domain.SalesUser, last *uuid.UUID) domain.SalesUser {
	if last == nil {
		return candidates[0]
	}
	for _, c := range candidates {
		if bytes.Compare(c.ID[:], last[:]) > 0 {
			return c
		}
	}
	return candidates[0]
}
