package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already initialized")
	ErrAccountInactive    = errors.New("account is not active")
	ErrSystemAccount      = errors.New("system account cannot be deactivated")
	ErrInvalidAccountType = errors.New("invalid account type")

	// Journal entry errors
	ErrEntryNotFound      = errors.New("journal entry not found")
	ErrEntryExists        = errors.New("journal entry already exists")
	ErrEntryNotBalanced   = errors.New("journal entry debits do not equal credits")
	ErrEntryEmpty         = errors.New("journal entry has no lines")
	ErrEntryReversed      = errors.New("journal entry is already reversed")
	ErrLineNotFound       = errors.New("journal entry line not found")
	ErrLineAmountConflict = errors.New("line must carry exactly one of debit or credit")
	ErrInvalidTransition  = errors.New("status transition not allowed")

	// Movement errors
	ErrMovementNotFound = errors.New("movement not found")

	// Amount errors
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// Fiscal period errors
	ErrPeriodNotFound = errors.New("fiscal period not found")
	ErrPeriodNotOpen  = errors.New("fiscal period is not open for posting")
	ErrPeriodClosed   = errors.New("fiscal period is already closed")
	ErrPeriodOpen     = errors.New("fiscal period is already open")
	ErrPeriodLocked   = errors.New("fiscal period is locked")
	ErrPeriodExists   = errors.New("fiscal period already exists")
)
