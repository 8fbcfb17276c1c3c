package domain

import (
	"fmt"
	"time"
)

// PeriodStatus is the posting gate state of a fiscal period.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusClosed PeriodStatus = "CLOSED"
	PeriodStatusLocked PeriodStatus = "LOCKED"
)

// FiscalPeriod is the durable state of one tenant-scoped fiscal month.
// Status only moves Open -> Closed -> Locked forward, except Reopen
// (Closed -> Open), which is blocked once Locked.
type FiscalPeriod struct {
	TenantID  string       `json:"tenantId"`
	Year      int          `json:"year"`
	Month     time.Month   `json:"month"`
	StartDate time.Time    `json:"startDate"`
	EndDate   time.Time    `json:"endDate"`
	Status    PeriodStatus `json:"status"`

	OpenedBy   string     `json:"openedBy,omitempty"`
	OpenedAt   *time.Time `json:"openedAt,omitempty"`
	ClosedBy   string     `json:"closedBy,omitempty"`
	ClosedAt   *time.Time `json:"closedAt,omitempty"`
	ReopenedBy string     `json:"reopenedBy,omitempty"`
	ReopenedAt *time.Time `json:"reopenedAt,omitempty"`
	LockedBy   string     `json:"lockedBy,omitempty"`
	LockedAt   *time.Time `json:"lockedAt,omitempty"`
}

// PeriodKey returns the canonical aggregate id for the period containing the
// given date, formatted yyyy-MM.
func PeriodKey(date time.Time) string {
	return date.UTC().Format("2006-01")
}

// NewFiscalPeriod creates an Open period covering the month of date.
func NewFiscalPeriod(tenantID string, year int, month time.Month, openedBy string, at time.Time) *FiscalPeriod {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	return &FiscalPeriod{
		TenantID:  tenantID,
		Year:      year,
		Month:     month,
		StartDate: start,
		EndDate:   start.AddDate(0, 1, 0).Add(-time.Nanosecond),
		Status:    PeriodStatusOpen,
		OpenedBy:  openedBy,
		OpenedAt:  &at,
	}
}

// Key returns the period's aggregate id, formatted yyyy-MM.
func (p *FiscalPeriod) Key() string {
	return PeriodKey(p.StartDate)
}

// CanPostTransactions reports whether postings dated in this period are
// accepted.
func (p *FiscalPeriod) CanPostTransactions() bool {
	return p.Status == PeriodStatusOpen
}

// Close moves an Open period to Closed.
func (p *FiscalPeriod) Close(closedBy string, at time.Time) error {
	switch p.Status {
	case PeriodStatusLocked:
		return fmt.Errorf("%w: %s", ErrPeriodLocked, p.Key())
	case PeriodStatusClosed:
		return fmt.Errorf("%w: %s", ErrPeriodClosed, p.Key())
	}

	p.Status = PeriodStatusClosed
	p.ClosedBy = closedBy
	p.ClosedAt = &at

	return nil
}

// Reopen moves a Closed period back to Open. Blocked once Locked.
func (p *FiscalPeriod) Reopen(reopenedBy string, at time.Time) error {
	switch p.Status {
	case PeriodStatusLocked:
		return fmt.Errorf("%w: %s", ErrPeriodLocked, p.Key())
	case PeriodStatusOpen:
		return fmt.Errorf("%w: %s", ErrPeriodOpen, p.Key())
	}

	p.Status = PeriodStatusOpen
	p.ReopenedBy = reopenedBy
	p.ReopenedAt = &at

	return nil
}

// Lock moves a Closed period to Locked. Locking is final.
func (p *FiscalPeriod) Lock(lockedBy string, at time.Time) error {
	switch p.Status {
	case PeriodStatusLocked:
		return fmt.Errorf("%w: %s", ErrPeriodLocked, p.Key())
	case PeriodStatusOpen:
		return fmt.Errorf("%w: period must be closed before locking: %s", ErrInvalidTransition, p.Key())
	}

	p.Status = PeriodStatusLocked
	p.LockedBy = lockedBy
	p.LockedAt = &at

	return nil
}
