package domain

import "time"

// Event types
const (
	EventTypeAccountInitialized = "account.initialized"
	EventTypeAccountPosted      = "account.posted"
	EventTypeEntryCreated       = "journal_entry.created"
	EventTypeEntryPosted        = "journal_entry.posted"
	EventTypeEntryReversed      = "journal_entry.reversed"
	EventTypePeriodClosed       = "fiscal_period.closed"
	EventTypePeriodReopened     = "fiscal_period.reopened"
	EventTypePeriodLocked       = "fiscal_period.locked"
)

// Aggregate types
const (
	AggregateTypeAccount      = "account"
	AggregateTypeJournalEntry = "journal_entry"
	AggregateTypePeriod       = "fiscal_period"
)

// OutboxEvent represents an event recorded alongside a state change and
// published asynchronously.
type OutboxEvent struct {
	ID            string
	TenantID      string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// AccountInitializedEvent payload
type AccountInitializedEvent struct {
	TenantID string `json:"tenant_id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Currency string `json:"currency"`
}

// AccountPostedEvent payload
type AccountPostedEvent struct {
	TenantID      string `json:"tenant_id"`
	Code          string `json:"code"`
	TransactionID string `json:"transaction_id"`
	Direction     string `json:"direction"`
	Amount        string `json:"amount"`
	Balance       string `json:"balance"`
}

// EntryPostedEvent payload
type EntryPostedEvent struct {
	TenantID    string `json:"tenant_id"`
	EntryID     string `json:"entry_id"`
	EntryNumber string `json:"entry_number"`
	TotalDebits string `json:"total_debits"`
	PostedBy    string `json:"posted_by"`
}

// EntryReversedEvent payload
type EntryReversedEvent struct {
	TenantID        string `json:"tenant_id"`
	OriginalEntryID string `json:"original_entry_id"`
	ReversalEntryID string `json:"reversal_entry_id"`
	Reason          string `json:"reason"`
}

// PeriodStatusEvent payload, shared by close/reopen/lock.
type PeriodStatusEvent struct {
	TenantID string `json:"tenant_id"`
	Period   string `json:"period"`
	Status   string `json:"status"`
	Actor    string `json:"actor"`
}
