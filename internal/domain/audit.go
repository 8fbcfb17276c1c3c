package domain

import (
	"encoding/json"
	"time"
)

// AuditLog represents an audit trail record for compliance and debugging
type AuditLog struct {
	ID           string
	TenantID     string
	Actor        string // Who performed the action (from the command)
	Action       string // What action (journal_entry.post, account.initialize, etc.)
	ResourceType string // Type of resource (journal_entry, account, fiscal_period)
	ResourceID   string // ID of the resource
	BeforeState  JSON   // State before the action
	AfterState   JSON   // State after the action
	Status       string // success, failure
	ErrorMessage string // If status=failure, the error message
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	// Account actions
	AuditActionAccountInitialize AuditAction = "account.initialize"
	AuditActionAccountPost       AuditAction = "account.post"
	AuditActionAccountSetActive  AuditAction = "account.set_active"

	// Journal entry actions
	AuditActionEntryCreate  AuditAction = "journal_entry.create"
	AuditActionEntrySubmit  AuditAction = "journal_entry.submit"
	AuditActionEntryApprove AuditAction = "journal_entry.approve"
	AuditActionEntryReject  AuditAction = "journal_entry.reject"
	AuditActionEntryPost    AuditAction = "journal_entry.post"
	AuditActionEntryReverse AuditAction = "journal_entry.reverse"
	AuditActionEntryCancel  AuditAction = "journal_entry.cancel"

	// Fiscal period actions
	AuditActionPeriodOpen   AuditAction = "fiscal_period.open"
	AuditActionPeriodClose  AuditAction = "fiscal_period.close"
	AuditActionPeriodReopen AuditAction = "fiscal_period.reopen"
	AuditActionPeriodLock   AuditAction = "fiscal_period.lock"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter defines filters for querying audit logs
type AuditFilter struct {
	TenantID     string
	Actor        string
	Action       string
	ResourceType string
	ResourceID   string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
	Offset       int
}
