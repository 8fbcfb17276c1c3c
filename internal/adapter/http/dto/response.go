package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/domain"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	TenantID    string          `json:"tenant_id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	ParentCode  string          `json:"parent_code,omitempty"`
	Level       int             `json:"level"`
	Currency    string          `json:"currency"`
	Description string          `json:"description,omitempty"`
	Active      bool            `json:"active"`
	System      bool            `json:"system"`
	Balance     decimal.Decimal `json:"balance"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		TenantID:    a.TenantID,
		Code:        a.Code,
		Name:        a.Name,
		Type:        string(a.Type),
		ParentCode:  a.ParentCode,
		Level:       a.Level,
		Currency:    a.Currency,
		Description: a.Description,
		Active:      a.Active,
		System:      a.System,
		Balance:     a.Balance,
		Metadata:    a.Metadata,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// BalanceResponse represents an account balance in API responses.
type BalanceResponse struct {
	AccountCode string          `json:"account_code"`
	Balance     decimal.Decimal `json:"balance"`
	AsOf        *time.Time      `json:"as_of,omitempty"`
}

// MovementResponse represents a movement in API responses.
type MovementResponse struct {
	ID              string          `json:"id"`
	AccountCode     string          `json:"account_code"`
	TransactionID   string          `json:"transaction_id"`
	Direction       string          `json:"direction"`
	Amount          decimal.Decimal `json:"amount"`
	SignedAmount    decimal.Decimal `json:"signed_amount"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	CurrentBalance  decimal.Decimal `json:"current_balance"`
	Date            time.Time       `json:"date"`
	Description     string          `json:"description,omitempty"`
	Reference       string          `json:"reference,omitempty"`
	PostedBy        string          `json:"posted_by"`
	CreatedAt       time.Time       `json:"created_at"`
}

// MovementFromDomain converts a domain movement to a response.
func MovementFromDomain(m *domain.Movement) *MovementResponse {
	return &MovementResponse{
		ID:              m.ID,
		AccountCode:     m.AccountCode,
		TransactionID:   m.TransactionID,
		Direction:       string(m.Direction),
		Amount:          m.Amount,
		SignedAmount:    m.SignedAmount,
		PreviousBalance: m.PreviousBalance,
		CurrentBalance:  m.CurrentBalance,
		Date:            m.Date,
		Description:     m.Description,
		Reference:       m.Reference,
		PostedBy:        m.PostedBy,
		CreatedAt:       m.CreatedAt,
	}
}

// StatementResponse represents a movement statement in API responses.
type StatementResponse struct {
	AccountCode    string              `json:"account_code"`
	From           time.Time           `json:"from"`
	To             time.Time           `json:"to"`
	OpeningBalance decimal.Decimal     `json:"opening_balance"`
	ClosingBalance decimal.Decimal     `json:"closing_balance"`
	Movements      []*MovementResponse `json:"movements"`
}

// StatementFromDomain converts a domain statement to a response.
func StatementFromDomain(s *domain.MovementStatement) *StatementResponse {
	movements := make([]*MovementResponse, len(s.Movements))
	for i, m := range s.Movements {
		movements[i] = MovementFromDomain(m)
	}

	return &StatementResponse{
		AccountCode:    s.AccountCode,
		From:           s.From,
		To:             s.To,
		OpeningBalance: s.OpeningBalance,
		ClosingBalance: s.ClosingBalance,
		Movements:      movements,
	}
}

// JournalLineResponse represents a journal entry line in API responses.
type JournalLineResponse struct {
	LineNumber  int               `json:"line_number"`
	AccountCode string            `json:"account_code"`
	Description string            `json:"description,omitempty"`
	Debit       decimal.Decimal   `json:"debit"`
	Credit      decimal.Decimal   `json:"credit"`
	CostCenter  string            `json:"cost_center,omitempty"`
	Dimensions  map[string]string `json:"dimensions,omitempty"`
}

// EntryResponse represents a journal entry in API responses.
type EntryResponse struct {
	ID              string                `json:"id"`
	TenantID        string                `json:"tenant_id"`
	Number          string                `json:"number"`
	Date            time.Time             `json:"date"`
	Description     string                `json:"description,omitempty"`
	Reference       string                `json:"reference,omitempty"`
	Status          string                `json:"status"`
	Lines           []JournalLineResponse `json:"lines"`
	TotalDebits     decimal.Decimal       `json:"total_debits"`
	TotalCredits    decimal.Decimal       `json:"total_credits"`
	Metadata        map[string]any        `json:"metadata,omitempty"`
	CreatedBy       string                `json:"created_by"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
	ApprovedBy      string                `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time            `json:"approved_at,omitempty"`
	PostedBy        string                `json:"posted_by,omitempty"`
	PostedAt        *time.Time            `json:"posted_at,omitempty"`
	IsReversed      bool                  `json:"is_reversed"`
	ReversalEntryID string                `json:"reversal_entry_id,omitempty"`
	ReversalReason  string                `json:"reversal_reason,omitempty"`
}

// EntryFromDomain converts a domain journal entry to a response.
func EntryFromDomain(e *domain.JournalEntry) *EntryResponse {
	lines := make([]JournalLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = JournalLineResponse{
			LineNumber:  l.LineNumber,
			AccountCode: l.AccountCode,
			Description: l.Description,
			Debit:       l.Debit,
			Credit:      l.Credit,
			CostCenter:  l.CostCenter,
			Dimensions:  l.Dimensions,
		}
	}

	return &EntryResponse{
		ID:              e.ID,
		TenantID:        e.TenantID,
		Number:          e.Number,
		Date:            e.Date,
		Description:     e.Description,
		Reference:       e.Reference,
		Status:          string(e.Status),
		Lines:           lines,
		TotalDebits:     e.TotalDebits(),
		TotalCredits:    e.TotalCredits(),
		Metadata:        e.Metadata,
		CreatedBy:       e.CreatedBy,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
		ApprovedBy:      e.ApprovedBy,
		ApprovedAt:      e.ApprovedAt,
		PostedBy:        e.PostedBy,
		PostedAt:        e.PostedAt,
		IsReversed:      e.IsReversed,
		ReversalEntryID: e.ReversalEntryID,
		ReversalReason:  e.ReversalReason,
	}
}

// PeriodResponse represents a fiscal period in API responses.
type PeriodResponse struct {
	TenantID string     `json:"tenant_id"`
	Period   string     `json:"period"`
	Year     int        `json:"year"`
	Month    int        `json:"month"`
	Status   string     `json:"status"`
	OpenedBy string     `json:"opened_by,omitempty"`
	OpenedAt *time.Time `json:"opened_at,omitempty"`
	ClosedBy string     `json:"closed_by,omitempty"`
	ClosedAt *time.Time `json:"closed_at,omitempty"`
	LockedBy string     `json:"locked_by,omitempty"`
	LockedAt *time.Time `json:"locked_at,omitempty"`
}

// PeriodFromDomain converts a domain fiscal period to a response.
func PeriodFromDomain(p *domain.FiscalPeriod) *PeriodResponse {
	return &PeriodResponse{
		TenantID: p.TenantID,
		Period:   p.Key(),
		Year:     p.Year,
		Month:    int(p.Month),
		Status:   string(p.Status),
		OpenedBy: p.OpenedBy,
		OpenedAt: p.OpenedAt,
		ClosedBy: p.ClosedBy,
		ClosedAt: p.ClosedAt,
		LockedBy: p.LockedBy,
		LockedAt: p.LockedAt,
	}
}

// ConsistencyResponse represents the ledger-wide consistency check result.
type ConsistencyResponse struct {
	TenantID   string `json:"tenant_id"`
	Consistent bool   `json:"consistent"`
	Detail     string `json:"detail,omitempty"`
}

// ReconciliationResponse represents one account's reconciliation result.
type ReconciliationResponse struct {
	AccountCode       string          `json:"account_code"`
	RecordedBalance   decimal.Decimal `json:"recorded_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	Difference        decimal.Decimal `json:"difference"`
	IsReconciled      bool            `json:"is_reconciled"`
	CheckedAt         time.Time       `json:"checked_at"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
