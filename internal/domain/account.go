package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account within the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"

	AccountTypeContraAsset     AccountType = "CONTRA_ASSET"
	AccountTypeContraLiability AccountType = "CONTRA_LIABILITY"
	AccountTypeContraEquity    AccountType = "CONTRA_EQUITY"
	AccountTypeContraRevenue   AccountType = "CONTRA_REVENUE"
	AccountTypeContraExpense   AccountType = "CONTRA_EXPENSE"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity,
		AccountTypeRevenue, AccountTypeExpense,
		AccountTypeContraAsset, AccountTypeContraLiability, AccountTypeContraEquity,
		AccountTypeContraRevenue, AccountTypeContraExpense:
		return true
	}

	return false
}

// NormalBalance returns the direction that increases an account of type t.
// Debit grows Asset and Expense accounts plus the contra variants of
// credit-normal types; credit grows the rest.
func (t AccountType) NormalBalance() Direction {
	switch t {
	case AccountTypeAsset, AccountTypeExpense,
		AccountTypeContraLiability, AccountTypeContraEquity, AccountTypeContraRevenue:
		return DirectionDebit
	default:
		return DirectionCredit
	}
}

// Direction is the side of a posting.
type Direction string

const (
	DirectionDebit  Direction = "DEBIT"
	DirectionCredit Direction = "CREDIT"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionDebit || d == DirectionCredit
}

// Account is the durable state of one financial account. Exactly one
// aggregate instance owns it, keyed by tenant id plus account code.
type Account struct {
	TenantID    string          `json:"tenantId"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Type        AccountType     `json:"type"`
	ParentCode  string          `json:"parentCode,omitempty"`
	Level       int             `json:"level"`
	Currency    string          `json:"currency"`
	Description string          `json:"description,omitempty"`
	Active      bool            `json:"active"`
	System      bool            `json:"system"`
	Balance     decimal.Decimal `json:"balance"`
	Metadata    map[string]any  `json:"metadata,omitempty"`

	// Applied records every transaction id whose posting has been
	// accepted, so a re-delivered posting is never applied twice.
	Applied map[string]bool `json:"appliedTransactions,omitempty"`

	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SignedDelta converts a posting into the balance delta for this account's
// type. A posting on the account's normal-balance side increases the
// balance; the opposite side decreases it. The sign convention is a function
// of the account type, never of the caller.
func (a *Account) SignedDelta(direction Direction, amount decimal.Decimal) decimal.Decimal {
	if direction == a.Type.NormalBalance() {
		return amount
	}

	return amount.Neg()
}

// MoneyBalance returns the balance tagged with the account currency.
func (a *Account) MoneyBalance() Money {
	return NewMoney(a.Balance, a.Currency)
}

// ApplyPosting returns the balance after applying the posting. The posting
// currency must match the account currency.
func (a *Account) ApplyPosting(direction Direction, amount Money) (Money, error) {
	delta := NewMoney(a.SignedDelta(direction, amount.Amount), amount.Currency)

	return a.MoneyBalance().Add(delta)
}

// HasApplied reports whether the transaction id was already posted.
func (a *Account) HasApplied(transactionID string) bool {
	return a.Applied[transactionID]
}

// MarkApplied records a posted transaction id for deduplication.
func (a *Account) MarkApplied(transactionID string) {
	if a.Applied == nil {
		a.Applied = make(map[string]bool)
	}

	a.Applied[transactionID] = true
}

// Movement is one accepted posting against an account, with balance
// snapshots taken under the account's single-writer execution.
type Movement struct {
	ID              string          `json:"id"`
	TenantID        string          `json:"tenantId"`
	AccountCode     string          `json:"accountCode"`
	TransactionID   string          `json:"transactionId"`
	Direction       Direction       `json:"direction"`
	Amount          decimal.Decimal `json:"amount"`
	SignedAmount    decimal.Decimal `json:"signedAmount"`
	PreviousBalance decimal.Decimal `json:"previousBalance"`
	CurrentBalance  decimal.Decimal `json:"currentBalance"`
	Date            time.Time       `json:"date"`
	Description     string          `json:"description,omitempty"`
	Reference       string          `json:"reference,omitempty"`
	PostedBy        string          `json:"postedBy"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// MovementStatement is a date-ranged movement listing with the balances at
// the range boundaries.
type MovementStatement struct {
	AccountCode    string          `json:"accountCode"`
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
	Movements      []*Movement     `json:"movements"`
}
