package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/actor"
	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
	"github.com/iho/erpledger/internal/usecase/mocks"
)

type journalFixture struct {
	uc      *usecase.JournalUseCase
	store   *mocks.MockStateStore
	outbox  *mocks.MockOutboxRepository
	audit   *mocks.MockAuditRepository
	poster  *mocks.MockAccountPoster
	periods *mocks.MockPeriodGate
}

func newJournalFixture() *journalFixture {
	f := &journalFixture{
		store:   mocks.NewMockStateStore(),
		outbox:  mocks.NewMockOutboxRepository(),
		audit:   mocks.NewMockAuditRepository(),
		poster:  mocks.NewMockAccountPoster(),
		periods: mocks.NewMockPeriodGate(),
	}
	f.uc = usecase.NewJournalUseCase(
		actor.NewSystem(),
		f.store,
		mocks.NewMockTransactionManager(),
		f.outbox,
		f.audit,
		mocks.NewMockIDGenerator(),
		mocks.NewMockDocumentNumberService(),
		f.poster,
		f.periods,
		nil,
	)

	return f
}

func balancedLines() []usecase.LineInput {
	return []usecase.LineInput{
		{AccountCode: "1000", Description: "cash", Debit: decimal.NewFromInt(100)},
		{AccountCode: "4000", Description: "revenue", Credit: decimal.NewFromInt(100)},
	}
}

func (f *journalFixture) createEntry(t *testing.T) *domain.JournalEntry {
	t.Helper()

	entry, err := f.uc.CreateEntry(context.Background(), usecase.CreateEntryInput{
		TenantID:    "acme",
		Date:        time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		Description: "March sales",
		Lines:       balancedLines(),
		CreatedBy:   "clerk",
	})
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}

	return entry
}

func (f *journalFixture) approvedEntry(t *testing.T) *domain.JournalEntry {
	t.Helper()

	entry := f.createEntry(t)
	if _, err := f.uc.Submit(context.Background(), "acme", entry.ID, "clerk"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	approved, err := f.uc.Approve(context.Background(), "acme", entry.ID, "cfo")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	return approved
}

func TestCreateEntry(t *testing.T) {
	f := newJournalFixture()

	entry := f.createEntry(t)

	if entry.Status != domain.EntryStatusDraft {
		t.Errorf("expected DRAFT, got %s", entry.Status)
	}
	if !strings.HasPrefix(entry.Number, "JE-202603-") {
		t.Errorf("unexpected entry number %q", entry.Number)
	}
	for i, l := range entry.Lines {
		if l.LineNumber != i+1 {
			t.Errorf("expected line %d to carry number %d, got %d", i, i+1, l.LineNumber)
		}
	}

	events := f.outbox.Events()
	if len(events) != 1 || events[0].EventType != domain.EventTypeEntryCreated {
		t.Fatalf("expected one journal_entry.created event, got %+v", events)
	}
}

func TestCreateEntry_Rejections(t *testing.T) {
	f := newJournalFixture()

	tests := []struct {
		name      string
		lines     []usecase.LineInput
		expectErr error
	}{
		{
			name:      "no lines",
			lines:     nil,
			expectErr: domain.ErrEntryEmpty,
		},
		{
			name: "unbalanced",
			lines: []usecase.LineInput{
				{AccountCode: "1000", Debit: decimal.NewFromInt(100)},
				{AccountCode: "4000", Credit: decimal.NewFromInt(90)},
			},
			expectErr: domain.ErrEntryNotBalanced,
		},
		{
			name: "line with both sides",
			lines: []usecase.LineInput{
				{AccountCode: "1000", Debit: decimal.NewFromInt(100), Credit: decimal.NewFromInt(100)},
			},
			expectErr: domain.ErrLineAmountConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.CreateEntry(context.Background(), usecase.CreateEntryInput{
				TenantID:  "acme",
				Date:      time.Now().UTC(),
				Lines:     tt.lines,
				CreatedBy: "clerk",
			})
			if !errors.Is(err, tt.expectErr) {
				t.Errorf("expected %v, got %v", tt.expectErr, err)
			}
		})
	}
}

func TestCreateEntry_DuplicateID(t *testing.T) {
	f := newJournalFixture()

	input := usecase.CreateEntryInput{
		TenantID:  "acme",
		EntryID:   "je-fixed",
		Date:      time.Now().UTC(),
		Lines:     balancedLines(),
		CreatedBy: "clerk",
	}

	if _, err := f.uc.CreateEntry(context.Background(), input); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := f.uc.CreateEntry(context.Background(), input); !errors.Is(err, domain.ErrEntryExists) {
		t.Fatalf("expected ErrEntryExists, got %v", err)
	}
}

func TestPost_FansOutOnePostingPerSide(t *testing.T) {
	f := newJournalFixture()
	entry := f.approvedEntry(t)

	posted, err := f.uc.Post(context.Background(), "acme", entry.ID, "system")
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	if posted.Status != domain.EntryStatusPosted {
		t.Errorf("expected POSTED, got %s", posted.Status)
	}
	if posted.PostedBy != "system" || posted.PostedAt == nil {
		t.Error("expected poster and timestamp to be recorded")
	}

	calls := f.poster.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 posting calls, got %d", len(calls))
	}

	seenTx := make(map[string]bool)
	byAccount := make(map[string]usecase.PostTransactionInput)
	for _, c := range calls {
		if c.TransactionID == "" || seenTx[c.TransactionID] {
			t.Errorf("expected a fresh unique transaction id, got %q", c.TransactionID)
		}
		seenTx[c.TransactionID] = true

		if c.Reference != entry.Number {
			t.Errorf("expected reference %q, got %q", entry.Number, c.Reference)
		}
		byAccount[c.AccountCode] = c
	}

	debit := byAccount["1000"]
	if debit.Direction != domain.DirectionDebit || !debit.Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("unexpected debit call %+v", debit)
	}
	credit := byAccount["4000"]
	if credit.Direction != domain.DirectionCredit || !credit.Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("unexpected credit call %+v", credit)
	}
}

func TestPost_MultiLineFanout(t *testing.T) {
	f := newJournalFixture()

	entry, err := f.uc.CreateEntry(context.Background(), usecase.CreateEntryInput{
		TenantID: "acme",
		Date:     time.Now().UTC(),
		Lines: []usecase.LineInput{
			{AccountCode: "1000", Debit: decimal.NewFromInt(70)},
			{AccountCode: "1100", Debit: decimal.NewFromInt(30)},
			{AccountCode: "4000", Credit: decimal.NewFromInt(100)},
		},
		CreatedBy: "clerk",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.uc.Submit(context.Background(), "acme", entry.ID, "clerk"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.uc.Approve(context.Background(), "acme", entry.ID, "cfo"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := f.uc.Post(context.Background(), "acme", entry.ID, "system"); err != nil {
		t.Fatalf("post: %v", err)
	}

	if got := len(f.poster.Calls()); got != 3 {
		t.Errorf("expected 3 posting calls, got %d", got)
	}
}

func TestPost_PartialFailureLeavesEntryApproved(t *testing.T) {
	f := newJournalFixture()
	entry := f.approvedEntry(t)

	frozen := errors.New("account frozen")
	f.poster.PostTransactionFunc = func(ctx context.Context, input usecase.PostTransactionInput) (*domain.Movement, error) {
		if input.AccountCode == "4000" {
			return nil, frozen
		}
		return &domain.Movement{TransactionID: input.TransactionID}, nil
	}

	_, err := f.uc.Post(context.Background(), "acme", entry.ID, "system")
	if err == nil {
		t.Fatal("expected posting error")
	}

	var postErr *domain.PostingError
	if !errors.As(err, &postErr) {
		t.Fatalf("expected PostingError, got %T: %v", err, err)
	}
	if len(postErr.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(postErr.Failures))
	}
	if postErr.Failures[0].AccountCode != "4000" || !errors.Is(postErr.Failures[0].Err, frozen) {
		t.Errorf("unexpected failure %+v", postErr.Failures[0])
	}

	current, err := f.uc.GetEntry(context.Background(), "acme", entry.ID)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if current.Status != domain.EntryStatusApproved {
		t.Errorf("expected entry to stay APPROVED after a failed fan-out, got %s", current.Status)
	}
}

func TestPost_RetryAfterFailureReusesWorkflow(t *testing.T) {
	f := newJournalFixture()
	entry := f.approvedEntry(t)

	failing := true
	f.poster.PostTransactionFunc = func(ctx context.Context, input usecase.PostTransactionInput) (*domain.Movement, error) {
		if failing && input.AccountCode == "4000" {
			return nil, errors.New("transient")
		}
		return &domain.Movement{TransactionID: input.TransactionID}, nil
	}

	if _, err := f.uc.Post(context.Background(), "acme", entry.ID, "system"); err == nil {
		t.Fatal("expected first post to fail")
	}

	failing = false
	posted, err := f.uc.Post(context.Background(), "acme", entry.ID, "system")
	if err != nil {
		t.Fatalf("second post: %v", err)
	}
	if posted.Status != domain.EntryStatusPosted {
		t.Errorf("expected POSTED after retry, got %s", posted.Status)
	}
}

func TestPost_PeriodGateRejects(t *testing.T) {
	f := newJournalFixture()
	entry := f.approvedEntry(t)

	f.periods.CanPostTransactionsFunc = func(ctx context.Context, tenantID string, date time.Time) error {
		return domain.ErrPeriodNotOpen
	}

	_, err := f.uc.Post(context.Background(), "acme", entry.ID, "system")
	if !errors.Is(err, domain.ErrPeriodNotOpen) {
		t.Fatalf("expected ErrPeriodNotOpen, got %v", err)
	}
	if len(f.poster.Calls()) != 0 {
		t.Errorf("expected no account calls when the period gate rejects, got %d", len(f.poster.Calls()))
	}
}

func TestPost_InvalidTransition(t *testing.T) {
	f := newJournalFixture()
	entry := f.createEntry(t)

	_, err := f.uc.Post(context.Background(), "acme", entry.ID, "system")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for a draft entry, got %v", err)
	}
}

func TestReverse(t *testing.T) {
	f := newJournalFixture()
	entry := f.approvedEntry(t)

	if _, err := f.uc.Post(context.Background(), "acme", entry.ID, "system"); err != nil {
		t.Fatalf("post: %v", err)
	}

	mirror, err := f.uc.Reverse(context.Background(), usecase.ReverseEntryInput{
		TenantID:   "acme",
		EntryID:    entry.ID,
		ReversedBy: "cfo",
		Reason:     "booked twice",
	})
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}

	if mirror.Status != domain.EntryStatusPosted {
		t.Errorf("expected mirror entry POSTED, got %s", mirror.Status)
	}
	if len(mirror.Lines) != 2 {
		t.Fatalf("expected 2 mirror lines, got %d", len(mirror.Lines))
	}
	if !mirror.Lines[0].Credit.Equal(decimal.NewFromInt(100)) || !mirror.Lines[0].Debit.IsZero() {
		t.Errorf("expected first mirror line to swap sides, got %+v", mirror.Lines[0])
	}
	if !mirror.Lines[1].Debit.Equal(decimal.NewFromInt(100)) || !mirror.Lines[1].Credit.IsZero() {
		t.Errorf("expected second mirror line to swap sides, got %+v", mirror.Lines[1])
	}

	original, err := f.uc.GetEntry(context.Background(), "acme", entry.ID)
	if err != nil {
		t.Fatalf("get original: %v", err)
	}
	if original.Status != domain.EntryStatusReversed || !original.IsReversed {
		t.Errorf("expected original REVERSED, got %s", original.Status)
	}
	if original.ReversalEntryID != mirror.ID {
		t.Errorf("expected back-reference %s, got %s", mirror.ID, original.ReversalEntryID)
	}

	// Two calls for the original post plus two for the mirror.
	if got := len(f.poster.Calls()); got != 4 {
		t.Errorf("expected 4 posting calls in total, got %d", got)
	}
}

func TestReverse_Rejections(t *testing.T) {
	f := newJournalFixture()
	entry := f.approvedEntry(t)

	t.Run("not posted", func(t *testing.T) {
		_, err := f.uc.Reverse(context.Background(), usecase.ReverseEntryInput{
			TenantID: "acme", EntryID: entry.ID, ReversedBy: "cfo", Reason: "nope",
		})
		if !errors.Is(err, domain.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("already reversed", func(t *testing.T) {
		if _, err := f.uc.Post(context.Background(), "acme", entry.ID, "system"); err != nil {
			t.Fatalf("post: %v", err)
		}
		if _, err := f.uc.Reverse(context.Background(), usecase.ReverseEntryInput{
			TenantID: "acme", EntryID: entry.ID, ReversedBy: "cfo", Reason: "first",
		}); err != nil {
			t.Fatalf("first reverse: %v", err)
		}

		_, err := f.uc.Reverse(context.Background(), usecase.ReverseEntryInput{
			TenantID: "acme", EntryID: entry.ID, ReversedBy: "cfo", Reason: "second",
		})
		if !errors.Is(err, domain.ErrEntryReversed) {
			t.Errorf("expected ErrEntryReversed, got %v", err)
		}
	})

	t.Run("mirror failure leaves original posted", func(t *testing.T) {
		f := newJournalFixture()
		entry := f.approvedEntry(t)
		if _, err := f.uc.Post(context.Background(), "acme", entry.ID, "system"); err != nil {
			t.Fatalf("post: %v", err)
		}

		f.poster.PostTransactionFunc = func(ctx context.Context, input usecase.PostTransactionInput) (*domain.Movement, error) {
			return nil, errors.New("store down")
		}

		_, err := f.uc.Reverse(context.Background(), usecase.ReverseEntryInput{
			TenantID: "acme", EntryID: entry.ID, ReversedBy: "cfo", Reason: "oops",
		})
		if err == nil {
			t.Fatal("expected reverse to fail")
		}

		original, err := f.uc.GetEntry(context.Background(), "acme", entry.ID)
		if err != nil {
			t.Fatalf("get original: %v", err)
		}
		if original.Status != domain.EntryStatusPosted || original.IsReversed {
			t.Errorf("expected original to stay POSTED, got %s", original.Status)
		}
	})
}

func TestEntryLineManagement(t *testing.T) {
	f := newJournalFixture()
	entry := f.createEntry(t)

	updated, err := f.uc.AddLine(context.Background(), "acme", entry.ID, usecase.LineInput{
		AccountCode: "2000",
		Debit:       decimal.NewFromInt(10),
	}, "clerk")
	if err != nil {
		t.Fatalf("add line: %v", err)
	}
	if len(updated.Lines) != 3 || updated.Lines[2].LineNumber != 3 {
		t.Fatalf("expected a third line numbered 3, got %+v", updated.Lines)
	}

	updated, err = f.uc.RemoveLine(context.Background(), "acme", entry.ID, 3, "clerk")
	if err != nil {
		t.Fatalf("remove line: %v", err)
	}
	if len(updated.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(updated.Lines))
	}

	if err := f.uc.ValidateEntry(context.Background(), "acme", entry.ID); err != nil {
		t.Errorf("expected entry to validate, got %v", err)
	}
}

func TestRejectReturnsEntryToDraft(t *testing.T) {
	f := newJournalFixture()
	entry := f.createEntry(t)

	if _, err := f.uc.Submit(context.Background(), "acme", entry.ID, "clerk"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	rejected, err := f.uc.Reject(context.Background(), "acme", entry.ID, "cfo", "wrong account")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != domain.EntryStatusDraft {
		t.Errorf("expected DRAFT, got %s", rejected.Status)
	}

	// A rejected entry can be fixed and resubmitted.
	if _, err := f.uc.Submit(context.Background(), "acme", entry.ID, "clerk"); err != nil {
		t.Errorf("resubmit failed: %v", err)
	}
}

func TestCancel(t *testing.T) {
	f := newJournalFixture()
	entry := f.approvedEntry(t)

	cancelled, err := f.uc.Cancel(context.Background(), "acme", entry.ID, "clerk", "duplicate")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != domain.EntryStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", cancelled.Status)
	}

	if _, err := f.uc.Post(context.Background(), "acme", entry.ID, "system"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition on a cancelled entry, got %v", err)
	}
}
