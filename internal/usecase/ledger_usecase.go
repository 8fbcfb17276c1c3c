package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/domain"
)

// ErrInconsistentLedger is returned when a tenant's ledger does not balance.
var ErrInconsistentLedger = errors.New("ledger is inconsistent: debits do not equal credits")

// AccountReader reads account state for reconciliation.
type AccountReader interface {
	GetAccount(ctx context.Context, tenantID, code string) (*domain.Account, error)
}

// LedgerUseCase handles tenant-wide ledger checks: the global
// debits-equal-credits invariant and per-account balance reconciliation
// against the movement history.
type LedgerUseCase struct {
	ledgerRepo   LedgerRepository
	movementRepo MovementRepository
	accounts     AccountReader
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository, movementRepo MovementRepository, accounts AccountReader) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo:   ledgerRepo,
		movementRepo: movementRepo,
		accounts:     accounts,
	}
}

// CheckConsistency verifies that the sum of all debit movements equals the
// sum of all credit movements for the tenant. Every posted entry was
// balanced, so any difference means a fan-out wrote only part of its
// postings.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context, tenantID string) (bool, error) {
	totalDebits, totalCredits, err := uc.ledgerRepo.TotalsByTenant(ctx, tenantID)
	if err != nil {
		return false, err
	}

	if !totalDebits.Equal(totalCredits) {
		return false, fmt.Errorf("%w: debits=%s credits=%s difference=%s",
			ErrInconsistentLedger,
			totalDebits.String(),
			totalCredits.String(),
			totalDebits.Sub(totalCredits).String())
	}

	return true, nil
}

// ReconciliationResult represents the outcome of reconciling one account.
type ReconciliationResult struct {
	TenantID          string
	AccountCode       string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	CheckedAt         time.Time
}

// ReconcileAccount recomputes an account's balance from its movement
// history and compares it with the balance recorded in the account state.
func (uc *LedgerUseCase) ReconcileAccount(ctx context.Context, tenantID, code string) (*ReconciliationResult, error) {
	account, err := uc.accounts.GetAccount(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}

	calculated, err := uc.movementRepo.BalanceAsOf(ctx, tenantID, code, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	diff := account.Balance.Sub(calculated)

	return &ReconciliationResult{
		TenantID:          tenantID,
		AccountCode:       code,
		RecordedBalance:   account.Balance,
		CalculatedBalance: calculated,
		Difference:        diff,
		IsReconciled:      diff.IsZero(),
		CheckedAt:         time.Now().UTC(),
	}, nil
}

// ReconciliationReport aggregates reconciliation over a set of accounts.
type ReconciliationReport struct {
	TenantID           string
	TotalAccounts      int
	ReconciledAccounts int
	Discrepancies      []*ReconciliationResult
	LedgerConsistent   bool
	CheckedAt          time.Time
}

// GenerateReport reconciles every given account and runs the tenant-wide
// consistency check.
func (uc *LedgerUseCase) GenerateReport(ctx context.Context, tenantID string, accountCodes []string) (*ReconciliationReport, error) {
	report := &ReconciliationReport{
		TenantID:      tenantID,
		Discrepancies: make([]*ReconciliationResult, 0),
		CheckedAt:     time.Now().UTC(),
	}

	for _, code := range accountCodes {
		result, err := uc.ReconcileAccount(ctx, tenantID, code)
		if err != nil {
			return nil, fmt.Errorf("reconcile account %s: %w", code, err)
		}

		report.TotalAccounts++
		if result.IsReconciled {
			report.ReconciledAccounts++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	consistent, err := uc.CheckConsistency(ctx, tenantID)
	if err != nil && !errors.Is(err, ErrInconsistentLedger) {
		return nil, err
	}
	report.LedgerConsistent = consistent

	return report, nil
}
