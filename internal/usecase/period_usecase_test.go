package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iho/erpledger/internal/actor"
	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
	"github.com/iho/erpledger/internal/usecase/mocks"
)

type periodFixture struct {
	uc     *usecase.PeriodUseCase
	outbox *mocks.MockOutboxRepository
	audit  *mocks.MockAuditRepository
}

func newPeriodFixture() *periodFixture {
	f := &periodFixture{
		outbox: mocks.NewMockOutboxRepository(),
		audit:  mocks.NewMockAuditRepository(),
	}
	f.uc = usecase.NewPeriodUseCase(
		actor.NewSystem(),
		mocks.NewMockStateStore(),
		mocks.NewMockTransactionManager(),
		f.outbox,
		f.audit,
		mocks.NewMockIDGenerator(),
		nil,
	)

	return f
}

func (f *periodFixture) openMarch(t *testing.T) *domain.FiscalPeriod {
	t.Helper()

	period, err := f.uc.OpenPeriod(context.Background(), usecase.OpenPeriodInput{
		TenantID: "acme",
		Year:     2026,
		Month:    time.March,
		OpenedBy: "controller",
	})
	if err != nil {
		t.Fatalf("open period: %v", err)
	}

	return period
}

func TestOpenPeriod(t *testing.T) {
	f := newPeriodFixture()

	period := f.openMarch(t)

	if period.Status != domain.PeriodStatusOpen {
		t.Errorf("expected OPEN, got %s", period.Status)
	}
	if period.Key() != "2026-03" {
		t.Errorf("expected key 2026-03, got %s", period.Key())
	}

	_, err := f.uc.OpenPeriod(context.Background(), usecase.OpenPeriodInput{
		TenantID: "acme", Year: 2026, Month: time.March, OpenedBy: "controller",
	})
	if !errors.Is(err, domain.ErrPeriodExists) {
		t.Fatalf("expected ErrPeriodExists, got %v", err)
	}
}

func TestPeriodLifecycle(t *testing.T) {
	f := newPeriodFixture()
	f.openMarch(t)

	ctx := context.Background()

	if err := f.uc.ClosePeriod(ctx, "acme", 2026, time.March, "controller"); err != nil {
		t.Fatalf("close: %v", err)
	}
	period, err := f.uc.GetPeriod(ctx, "acme", 2026, time.March)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if period.Status != domain.PeriodStatusClosed {
		t.Fatalf("expected CLOSED, got %s", period.Status)
	}

	if err := f.uc.ReopenPeriod(ctx, "acme", 2026, time.March, "cfo"); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	period, _ = f.uc.GetPeriod(ctx, "acme", 2026, time.March)
	if period.Status != domain.PeriodStatusOpen {
		t.Fatalf("expected OPEN after reopen, got %s", period.Status)
	}

	if err := f.uc.ClosePeriod(ctx, "acme", 2026, time.March, "controller"); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := f.uc.LockPeriod(ctx, "acme", 2026, time.March, "cfo"); err != nil {
		t.Fatalf("lock: %v", err)
	}

	if err := f.uc.ReopenPeriod(ctx, "acme", 2026, time.March, "cfo"); !errors.Is(err, domain.ErrPeriodLocked) {
		t.Errorf("expected ErrPeriodLocked, got %v", err)
	}

	// Close, reopen and lock each record an outbox event.
	if got := len(f.outbox.Events()); got != 4 {
		t.Errorf("expected 4 outbox events, got %d", got)
	}
}

func TestPeriodTransitions_UnknownPeriod(t *testing.T) {
	f := newPeriodFixture()

	if err := f.uc.ClosePeriod(context.Background(), "acme", 2026, time.June, "controller"); !errors.Is(err, domain.ErrPeriodNotFound) {
		t.Errorf("expected ErrPeriodNotFound, got %v", err)
	}
	if _, err := f.uc.GetPeriod(context.Background(), "acme", 2026, time.June); !errors.Is(err, domain.ErrPeriodNotFound) {
		t.Errorf("expected ErrPeriodNotFound, got %v", err)
	}
}

func TestCanPostTransactions(t *testing.T) {
	f := newPeriodFixture()
	f.openMarch(t)

	ctx := context.Background()
	inMarch := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	if err := f.uc.CanPostTransactions(ctx, "acme", inMarch); err != nil {
		t.Errorf("expected open period to accept postings, got %v", err)
	}

	// A date in a period that was never opened is rejected.
	inJune := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	if err := f.uc.CanPostTransactions(ctx, "acme", inJune); !errors.Is(err, domain.ErrPeriodNotFound) {
		t.Errorf("expected ErrPeriodNotFound, got %v", err)
	}

	if err := f.uc.ClosePeriod(ctx, "acme", 2026, time.March, "controller"); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := f.uc.CanPostTransactions(ctx, "acme", inMarch); !errors.Is(err, domain.ErrPeriodNotOpen) {
		t.Errorf("expected ErrPeriodNotOpen after close, got %v", err)
	}
}
