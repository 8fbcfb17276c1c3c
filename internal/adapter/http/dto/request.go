package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

// InitializeAccountRequest represents a request to initialize an account.
type InitializeAccountRequest struct {
	Code            string         `json:"code,omitempty"`
	Name            string         `json:"name"`
	Type            string         `json:"type"`
	ParentCode      string         `json:"parent_code,omitempty"`
	Currency        string         `json:"currency"`
	Description     string         `json:"description,omitempty"`
	IsSystemAccount bool           `json:"is_system_account,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedBy       string         `json:"created_by"`
}

// ToUseCaseInput converts to use case input.
func (r *InitializeAccountRequest) ToUseCaseInput(tenantID string) usecase.InitializeAccountInput {
	return usecase.InitializeAccountInput{
		TenantID:        tenantID,
		Code:            r.Code,
		Name:            r.Name,
		Type:            domain.AccountType(r.Type),
		ParentCode:      r.ParentCode,
		Currency:        r.Currency,
		Description:     r.Description,
		IsSystemAccount: r.IsSystemAccount,
		Metadata:        r.Metadata,
		CreatedBy:       r.CreatedBy,
	}
}

// PostTransactionRequest represents a direct posting against one account.
type PostTransactionRequest struct {
	TransactionID string          `json:"transaction_id,omitempty"`
	Direction     string          `json:"direction"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency,omitempty"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	PostedBy      string          `json:"posted_by"`
}

// ToUseCaseInput converts to use case input.
func (r *PostTransactionRequest) ToUseCaseInput(tenantID, accountCode string) usecase.PostTransactionInput {
	return usecase.PostTransactionInput{
		TenantID:      tenantID,
		AccountCode:   accountCode,
		TransactionID: r.TransactionID,
		Amount:        r.Amount,
		Currency:      r.Currency,
		Direction:     domain.Direction(r.Direction),
		Date:          r.Date,
		Description:   r.Description,
		Reference:     r.Reference,
		PostedBy:      r.PostedBy,
	}
}

// SetAccountStatusRequest activates or deactivates an account.
type SetAccountStatusRequest struct {
	Active    bool   `json:"active"`
	UpdatedBy string `json:"updated_by"`
}

// JournalLineRequest represents one line of a journal entry.
type JournalLineRequest struct {
	AccountCode string            `json:"account_code"`
	Description string            `json:"description,omitempty"`
	Debit       decimal.Decimal   `json:"debit"`
	Credit      decimal.Decimal   `json:"credit"`
	CostCenter  string            `json:"cost_center,omitempty"`
	Dimensions  map[string]string `json:"dimensions,omitempty"`
}

func (r *JournalLineRequest) toLineInput() usecase.LineInput {
	return usecase.LineInput{
		AccountCode: r.AccountCode,
		Description: r.Description,
		Debit:       r.Debit,
		Credit:      r.Credit,
		CostCenter:  r.CostCenter,
		Dimensions:  r.Dimensions,
	}
}

// CreateEntryRequest represents a request to create a journal entry.
type CreateEntryRequest struct {
	Date        time.Time            `json:"date"`
	Description string               `json:"description,omitempty"`
	Reference   string               `json:"reference,omitempty"`
	Lines       []JournalLineRequest `json:"lines"`
	Metadata    map[string]any       `json:"metadata,omitempty"`
	CreatedBy   string               `json:"created_by"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateEntryRequest) ToUseCaseInput(tenantID string) usecase.CreateEntryInput {
	lines := make([]usecase.LineInput, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = l.toLineInput()
	}

	return usecase.CreateEntryInput{
		TenantID:    tenantID,
		Date:        r.Date,
		Description: r.Description,
		Reference:   r.Reference,
		Lines:       lines,
		Metadata:    r.Metadata,
		CreatedBy:   r.CreatedBy,
	}
}

// EntryActionRequest carries the actor and optional reason of a workflow
// transition.
type EntryActionRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason,omitempty"`
}

// OpenPeriodRequest represents a request to open a fiscal period.
type OpenPeriodRequest struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	OpenedBy string `json:"opened_by"`
}

// PeriodActionRequest carries the actor of a period transition.
type PeriodActionRequest struct {
	Actor string `json:"actor"`
}
