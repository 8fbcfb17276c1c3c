package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/erpledger/internal/actor"
	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/infrastructure/metrics"
)

// PeriodUseCase owns the fiscal period gate: per-tenant period aggregates
// with Open/Closed/Locked transitions, consulted by the posting path.
type PeriodUseCase struct {
	system     *actor.System
	store      StateStore
	txManager  TransactionManager
	outboxRepo OutboxRepository
	auditRepo  AuditRepository
	idGen      IDGenerator
	metrics    *metrics.Metrics
}

// NewPeriodUseCase creates a new PeriodUseCase.
func NewPeriodUseCase(
	system *actor.System,
	store StateStore,
	txManager TransactionManager,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	m *metrics.Metrics,
) *PeriodUseCase {
	return &PeriodUseCase{
		system:     system,
		store:      store,
		txManager:  txManager,
		outboxRepo: outboxRepo,
		auditRepo:  auditRepo,
		idGen:      idGen,
		metrics:    m,
	}
}

func periodActorKey(tenantID string, year int, month time.Month) actor.Key {
	return actor.Key{
		TenantID: tenantID,
		Kind:     actor.KindPeriod,
		ID:       fmt.Sprintf("%04d-%02d", year, month),
	}
}

// OpenPeriodInput represents input for opening a fiscal period.
type OpenPeriodInput struct {
	TenantID string
	Year     int
	Month    time.Month
	OpenedBy string
}

// OpenPeriod creates the period aggregate in Open status. Periods are opened
// explicitly; posting into a period that was never opened fails.
func (uc *PeriodUseCase) OpenPeriod(ctx context.Context, input OpenPeriodInput) (*domain.FiscalPeriod, error) {
	if err := domain.ValidateTenantID(input.TenantID); err != nil {
		return nil, err
	}
	if input.Month < time.January || input.Month > time.December {
		return nil, fmt.Errorf("%w: month %d", domain.ErrPeriodNotFound, input.Month)
	}

	var period *domain.FiscalPeriod

	err := uc.system.Do(ctx, periodActorKey(input.TenantID, input.Year, input.Month), func(h *actor.Handle) error {
		existing, err := loadState[domain.FiscalPeriod](ctx, uc.store, h)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %s", domain.ErrPeriodExists, existing.Key())
		}

		now := time.Now().UTC()
		period = domain.NewFiscalPeriod(input.TenantID, input.Year, input.Month, input.OpenedBy, now)

		return uc.persist(ctx, h, period, nil)
	})
	if err != nil {
		return nil, err
	}

	uc.observeTransition("open")
	uc.audit(ctx, input.TenantID, input.OpenedBy, domain.AuditActionPeriodOpen, period.Key(), nil, period)

	p := *period

	return &p, nil
}

// ClosePeriod moves an Open period to Closed.
func (uc *PeriodUseCase) ClosePeriod(ctx context.Context, tenantID string, year int, month time.Month, closedBy string) error {
	return uc.transition(ctx, tenantID, year, month, closedBy,
		domain.AuditActionPeriodClose, "close", domain.EventTypePeriodClosed,
		func(p *domain.FiscalPeriod, at time.Time) error { return p.Close(closedBy, at) })
}

// ReopenPeriod moves a Closed period back to Open. Blocked once Locked.
func (uc *PeriodUseCase) ReopenPeriod(ctx context.Context, tenantID string, year int, month time.Month, reopenedBy string) error {
	return uc.transition(ctx, tenantID, year, month, reopenedBy,
		domain.AuditActionPeriodReopen, "reopen", domain.EventTypePeriodReopened,
		func(p *domain.FiscalPeriod, at time.Time) error { return p.Reopen(reopenedBy, at) })
}

// LockPeriod moves a Closed period to Locked. Locking is final.
func (uc *PeriodUseCase) LockPeriod(ctx context.Context, tenantID string, year int, month time.Month, lockedBy string) error {
	return uc.transition(ctx, tenantID, year, month, lockedBy,
		domain.AuditActionPeriodLock, "lock", domain.EventTypePeriodLocked,
		func(p *domain.FiscalPeriod, at time.Time) error { return p.Lock(lockedBy, at) })
}

// GetPeriod returns a copy of the period's current state.
func (uc *PeriodUseCase) GetPeriod(ctx context.Context, tenantID string, year int, month time.Month) (*domain.FiscalPeriod, error) {
	var period *domain.FiscalPeriod

	err := uc.system.Do(ctx, periodActorKey(tenantID, year, month), func(h *actor.Handle) error {
		state, err := loadState[domain.FiscalPeriod](ctx, uc.store, h)
		if err != nil {
			return err
		}
		if state == nil {
			return fmt.Errorf("%w: %04d-%02d", domain.ErrPeriodNotFound, year, month)
		}

		p := *state
		period = &p

		return nil
	})
	if err != nil {
		return nil, err
	}

	return period, nil
}

// CanPostTransactions resolves the period containing date and returns nil
// only when it is Open.
func (uc *PeriodUseCase) CanPostTransactions(ctx context.Context, tenantID string, date time.Time) error {
	d := date.UTC()

	period, err := uc.GetPeriod(ctx, tenantID, d.Year(), d.Month())
	if err != nil {
		uc.observeRejection()
		return err
	}

	if !period.CanPostTransactions() {
		uc.observeRejection()
		return fmt.Errorf("%w: %s is %s", domain.ErrPeriodNotOpen, period.Key(), period.Status)
	}

	return nil
}

func (uc *PeriodUseCase) transition(
	ctx context.Context,
	tenantID string,
	year int,
	month time.Month,
	actorName string,
	action domain.AuditAction,
	transitionName, eventType string,
	apply func(p *domain.FiscalPeriod, at time.Time) error,
) error {
	return uc.system.Do(ctx, periodActorKey(tenantID, year, month), func(h *actor.Handle) error {
		state, err := loadState[domain.FiscalPeriod](ctx, uc.store, h)
		if err != nil {
			return err
		}
		if state == nil {
			return fmt.Errorf("%w: %04d-%02d", domain.ErrPeriodNotFound, year, month)
		}

		now := time.Now().UTC()
		next := *state
		if err := apply(&next, now); err != nil {
			return err
		}

		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			TenantID:      tenantID,
			AggregateID:   next.Key(),
			AggregateType: domain.AggregateTypePeriod,
			EventType:     eventType,
			Payload: map[string]any{
				"tenant_id": tenantID,
				"period":    next.Key(),
				"status":    string(next.Status),
				"actor":     actorName,
			},
			CreatedAt: now,
		}

		if err := uc.persist(ctx, h, &next, event); err != nil {
			return err
		}

		uc.observeTransition(transitionName)
		uc.audit(ctx, tenantID, actorName, action, next.Key(), state, &next)

		return nil
	})
}

func (uc *PeriodUseCase) persist(ctx context.Context, h *actor.Handle, period *domain.FiscalPeriod, event *domain.OutboxEvent) error {
	data, err := marshalState(period)
	if err != nil {
		return err
	}

	newVersion := h.Version() + 1

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if event != nil && uc.outboxRepo != nil {
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}
	}

	if err := uc.store.Save(ctx, tx, h.Key(), data, newVersion); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	h.SetState(period, newVersion)

	return nil
}

func (uc *PeriodUseCase) observeTransition(name string) {
	if uc.metrics != nil {
		uc.metrics.PeriodTransitions.WithLabelValues(name).Inc()
	}
}

func (uc *PeriodUseCase) observeRejection() {
	if uc.metrics != nil {
		uc.metrics.PeriodRejections.Inc()
	}
}

func (uc *PeriodUseCase) audit(
	ctx context.Context,
	tenantID, actorName string,
	action domain.AuditAction,
	resourceID string,
	before, after any,
) {
	if uc.auditRepo == nil {
		return
	}

	_ = uc.auditRepo.Create(ctx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		TenantID:     tenantID,
		Actor:        actorName,
		Action:       string(action),
		ResourceType: domain.AggregateTypePeriod,
		ResourceID:   resourceID,
		BeforeState:  domain.MarshalState(before),
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	})
}
