package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus is the workflow state of a journal entry.
type EntryStatus string

const (
	EntryStatusDraft           EntryStatus = "DRAFT"
	EntryStatusPendingApproval EntryStatus = "PENDING_APPROVAL"
	EntryStatusApproved        EntryStatus = "APPROVED"
	EntryStatusPosted          EntryStatus = "POSTED"
	EntryStatusReversed        EntryStatus = "REVERSED"
	EntryStatusCancelled       EntryStatus = "CANCELLED"
)

// EntryAction names a workflow transition on a journal entry.
type EntryAction string

const (
	EntryActionSubmit  EntryAction = "submit"
	EntryActionApprove EntryAction = "approve"
	EntryActionReject  EntryAction = "reject"
	EntryActionPost    EntryAction = "post"
	EntryActionReverse EntryAction = "reverse"
	EntryActionCancel  EntryAction = "cancel"
)

// entryTransitions is the single source of transition legality. Every entry
// point consults it through NextStatus instead of duplicating guards.
// Reject returns the entry to Draft so the caller can fix and re-submit.
var entryTransitions = map[EntryStatus]map[EntryAction]EntryStatus{
	EntryStatusDraft: {
		EntryActionSubmit: EntryStatusPendingApproval,
		EntryActionCancel: EntryStatusCancelled,
	},
	EntryStatusPendingApproval: {
		EntryActionApprove: EntryStatusApproved,
		EntryActionReject:  EntryStatusDraft,
		EntryActionCancel:  EntryStatusCancelled,
	},
	EntryStatusApproved: {
		EntryActionPost:   EntryStatusPosted,
		EntryActionCancel: EntryStatusCancelled,
	},
	EntryStatusPosted: {
		EntryActionReverse: EntryStatusReversed,
	},
}

// NextStatus resolves the target status for an action from the current
// status, or ErrInvalidTransition when the workflow does not permit it.
func NextStatus(from EntryStatus, action EntryAction) (EntryStatus, error) {
	to, ok := entryTransitions[from][action]
	if !ok {
		return "", fmt.Errorf("%w: cannot %s a %s entry", ErrInvalidTransition, action, from)
	}

	return to, nil
}

// JournalLine is one debit or credit within a journal entry. Exactly one of
// Debit and Credit is positive; the other is zero.
type JournalLine struct {
	LineNumber  int               `json:"lineNumber"`
	AccountCode string            `json:"accountCode"`
	Description string            `json:"description,omitempty"`
	Debit       decimal.Decimal   `json:"debit"`
	Credit      decimal.Decimal   `json:"credit"`
	CostCenter  string            `json:"costCenter,omitempty"`
	Dimensions  map[string]string `json:"dimensions,omitempty"`
}

// Validate checks the debit-xor-credit rule and that the carried amount is
// positive.
func (l *JournalLine) Validate() error {
	if l.AccountCode == "" {
		return fmt.Errorf("%w: line %d has no account code", ErrLineAmountConflict, l.LineNumber)
	}

	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return fmt.Errorf("%w: line %d", ErrInvalidAmount, l.LineNumber)
	}

	debitSet := l.Debit.IsPositive()
	creditSet := l.Credit.IsPositive()

	if debitSet == creditSet {
		return fmt.Errorf("%w: line %d", ErrLineAmountConflict, l.LineNumber)
	}

	return nil
}

// JournalEntry is the durable state of one journal entry aggregate.
type JournalEntry struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenantId"`
	Number      string         `json:"number"`
	Date        time.Time      `json:"date"`
	Description string         `json:"description,omitempty"`
	Reference   string         `json:"reference,omitempty"`
	Status      EntryStatus    `json:"status"`
	Lines       []JournalLine  `json:"lines"`
	Metadata    map[string]any `json:"metadata,omitempty"`

	CreatedBy  string     `json:"createdBy"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	ApprovedBy string     `json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`
	PostedBy   string     `json:"postedBy,omitempty"`
	PostedAt   *time.Time `json:"postedAt,omitempty"`

	IsReversed      bool   `json:"isReversed"`
	ReversalEntryID string `json:"reversalEntryId,omitempty"`
	ReversalReason  string `json:"reversalReason,omitempty"`
}

// TotalDebits sums the debit side over all lines.
func (e *JournalEntry) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}

	return total
}

// TotalCredits sums the credit side over all lines.
func (e *JournalEntry) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}

	return total
}

// IsBalanced reports exact decimal equality of total debits and credits.
func (e *JournalEntry) IsBalanced() bool {
	return e.TotalDebits().Equal(e.TotalCredits())
}

// Validate is the pure structural check an entry must pass before it may
// leave Draft: at least one valid line and a balanced total. It never
// mutates state and may be called any number of times.
func (e *JournalEntry) Validate() error {
	if len(e.Lines) == 0 {
		return ErrEntryEmpty
	}

	for i := range e.Lines {
		if err := e.Lines[i].Validate(); err != nil {
			return err
		}
	}

	if !e.IsBalanced() {
		return fmt.Errorf("%w: debits %s, credits %s",
			ErrEntryNotBalanced, e.TotalDebits(), e.TotalCredits())
	}

	return nil
}

// AddLine appends a line while the entry is in Draft and assigns the next
// dense line number.
func (e *JournalEntry) AddLine(line JournalLine) error {
	if e.Status != EntryStatusDraft {
		return fmt.Errorf("%w: cannot add line to a %s entry", ErrInvalidTransition, e.Status)
	}

	line.LineNumber = len(e.Lines) + 1
	if err := line.Validate(); err != nil {
		return err
	}

	e.Lines = append(e.Lines, line)

	return nil
}

// RemoveLine removes the numbered line while in Draft and renumbers the
// remaining lines to keep a dense 1..N sequence.
func (e *JournalEntry) RemoveLine(lineNumber int) error {
	if e.Status != EntryStatusDraft {
		return fmt.Errorf("%w: cannot remove line from a %s entry", ErrInvalidTransition, e.Status)
	}

	idx := -1
	for i := range e.Lines {
		if e.Lines[i].LineNumber == lineNumber {
			idx = i
			break
		}
	}

	if idx < 0 {
		return fmt.Errorf("%w: line %d", ErrLineNotFound, lineNumber)
	}

	e.Lines = append(e.Lines[:idx], e.Lines[idx+1:]...)
	for i := range e.Lines {
		e.Lines[i].LineNumber = i + 1
	}

	return nil
}

// Submit moves Draft to PendingApproval after validation passes.
func (e *JournalEntry) Submit() error {
	next, err := NextStatus(e.Status, EntryActionSubmit)
	if err != nil {
		return err
	}

	if err := e.Validate(); err != nil {
		return err
	}

	e.Status = next

	return nil
}

// Approve moves PendingApproval to Approved.
func (e *JournalEntry) Approve(approvedBy string, at time.Time) error {
	if e.IsReversed {
		return ErrEntryReversed
	}

	next, err := NextStatus(e.Status, EntryActionApprove)
	if err != nil {
		return err
	}

	e.Status = next
	e.ApprovedBy = approvedBy
	e.ApprovedAt = &at

	return nil
}

// Reject returns a PendingApproval entry to Draft, recording the reason.
func (e *JournalEntry) Reject(rejectedBy, reason string) error {
	next, err := NextStatus(e.Status, EntryActionReject)
	if err != nil {
		return err
	}

	e.Status = next
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	e.Metadata["rejectedBy"] = rejectedBy
	e.Metadata["rejectionReason"] = reason

	return nil
}

// MarkPosted moves Approved to Posted. The caller performs the account
// fan-out first; this only records the outcome.
func (e *JournalEntry) MarkPosted(postedBy string, at time.Time) error {
	if e.IsReversed {
		return ErrEntryReversed
	}

	next, err := NextStatus(e.Status, EntryActionPost)
	if err != nil {
		return err
	}

	e.Status = next
	e.PostedBy = postedBy
	e.PostedAt = &at

	return nil
}

// MarkReversed records the back-reference to the mirror entry and moves
// Posted to Reversed. Called only after the reversal entry posted in full.
func (e *JournalEntry) MarkReversed(reversalEntryID, reason string) error {
	if e.IsReversed {
		return ErrEntryReversed
	}

	next, err := NextStatus(e.Status, EntryActionReverse)
	if err != nil {
		return err
	}

	e.Status = next
	e.IsReversed = true
	e.ReversalEntryID = reversalEntryID
	e.ReversalReason = reason

	return nil
}

// Cancel abandons an entry that has not been posted.
func (e *JournalEntry) Cancel(cancelledBy, reason string) error {
	next, err := NextStatus(e.Status, EntryActionCancel)
	if err != nil {
		return err
	}

	e.Status = next
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	e.Metadata["cancelledBy"] = cancelledBy
	e.Metadata["cancellationReason"] = reason

	return nil
}

// ReversalLines returns the entry's lines with debit and credit swapped,
// renumbered from 1.
func (e *JournalEntry) ReversalLines() []JournalLine {
	lines := make([]JournalLine, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = JournalLine{
			LineNumber:  i + 1,
			AccountCode: l.AccountCode,
			Description: l.Description,
			Debit:       l.Credit,
			Credit:      l.Debit,
			CostCenter:  l.CostCenter,
			Dimensions:  l.Dimensions,
		}
	}

	return lines
}

// LineFailure is one failed account posting within a fan-out.
type LineFailure struct {
	LineNumber  int
	AccountCode string
	Direction   Direction
	Err         error
}

// PostingError aggregates every failed account call from one fan-out so the
// caller sees the full blast radius, not just the first failure.
type PostingError struct {
	EntryID  string
	Failures []LineFailure
}

// Error joins all line failures into one message.
func (e *PostingError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("line %d (%s %s): %v",
			f.LineNumber, f.AccountCode, f.Direction, f.Err))
	}

	return fmt.Sprintf("posting entry %s failed: %s", e.EntryID, strings.Join(parts, "; "))
}

// Unwrap exposes the underlying line errors for errors.Is matching.
func (e *PostingError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}

	return errs
}
