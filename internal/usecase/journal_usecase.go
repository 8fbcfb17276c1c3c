package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/actor"
	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/infrastructure/metrics"
)

// JournalUseCase owns the journal entry lifecycle: creation, line
// management, the approval workflow, the account fan-out on post, and
// reversal through a mirror entry.
type JournalUseCase struct {
	system     *actor.System
	store      StateStore
	txManager  TransactionManager
	outboxRepo OutboxRepository
	auditRepo  AuditRepository
	idGen      IDGenerator
	numbers    DocumentNumberService
	accounts   AccountPoster
	periods    PeriodGate
	metrics    *metrics.Metrics

	postingTimeout time.Duration
}

// NewJournalUseCase creates a new JournalUseCase.
func NewJournalUseCase(
	system *actor.System,
	store StateStore,
	txManager TransactionManager,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	numbers DocumentNumberService,
	accounts AccountPoster,
	periods PeriodGate,
	m *metrics.Metrics,
) *JournalUseCase {
	return &JournalUseCase{
		system:         system,
		store:          store,
		txManager:      txManager,
		outboxRepo:     outboxRepo,
		auditRepo:      auditRepo,
		idGen:          idGen,
		numbers:        numbers,
		accounts:       accounts,
		periods:        periods,
		metrics:        m,
		postingTimeout: DefaultPostingTimeout,
	}
}

// WithPostingTimeout overrides the fan-out timeout.
func (uc *JournalUseCase) WithPostingTimeout(timeout time.Duration) *JournalUseCase {
	uc.postingTimeout = timeout
	return uc
}

func entryKey(tenantID, entryID string) actor.Key {
	return actor.Key{TenantID: tenantID, Kind: actor.KindJournalEntry, ID: entryID}
}

// LineInput represents one line of a journal entry command.
type LineInput struct {
	AccountCode string
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	CostCenter  string
	Dimensions  map[string]string
}

// CreateEntryInput represents input for creating a journal entry.
type CreateEntryInput struct {
	TenantID    string
	EntryID     string // generated when empty
	Date        time.Time
	Description string
	Reference   string
	Lines       []LineInput
	Metadata    map[string]any
	CreatedBy   string
}

// CreateEntry creates the journal entry aggregate in Draft. Creation is
// all-or-nothing: the command's lines must already form a non-empty,
// balanced entry. A second Create on the same id fails and leaves the first
// state untouched.
func (uc *JournalUseCase) CreateEntry(ctx context.Context, input CreateEntryInput) (*domain.JournalEntry, error) {
	if err := domain.ValidateTenantID(input.TenantID); err != nil {
		return nil, err
	}
	if err := domain.ValidateMetadata(input.Metadata); err != nil {
		return nil, err
	}
	if len(input.Lines) > domain.MaxEntryLines {
		return nil, fmt.Errorf("%w: %d > %d", domain.ErrTooManyLines, len(input.Lines), domain.MaxEntryLines)
	}

	lines := make([]domain.JournalLine, len(input.Lines))
	for i, l := range input.Lines {
		lines[i] = domain.JournalLine{
			LineNumber:  i + 1,
			AccountCode: l.AccountCode,
			Description: l.Description,
			Debit:       l.Debit,
			Credit:      l.Credit,
			CostCenter:  l.CostCenter,
			Dimensions:  l.Dimensions,
		}
	}

	// Validate over the command's lines before touching any state.
	scratch := domain.JournalEntry{Lines: lines}
	if err := scratch.Validate(); err != nil {
		return nil, err
	}

	entryID := input.EntryID
	if entryID == "" {
		entryID = uc.idGen.Generate()
	}

	// Number generation is not transactionally linked to creation: a number
	// issued for a create that later fails is simply never used.
	number, err := uc.numbers.GenerateJournalEntryNumber(ctx, input.TenantID, input.Date)
	if err != nil {
		return nil, fmt.Errorf("generate entry number: %w", err)
	}

	var entry *domain.JournalEntry

	err = uc.system.Do(ctx, entryKey(input.TenantID, entryID), func(h *actor.Handle) error {
		existing, err := loadState[domain.JournalEntry](ctx, uc.store, h)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %s", domain.ErrEntryExists, entryID)
		}

		now := time.Now().UTC()
		entry = &domain.JournalEntry{
			ID:          entryID,
			TenantID:    input.TenantID,
			Number:      number,
			Date:        input.Date,
			Description: input.Description,
			Reference:   input.Reference,
			Status:      domain.EntryStatusDraft,
			Lines:       lines,
			Metadata:    input.Metadata,
			CreatedBy:   input.CreatedBy,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		return uc.persist(ctx, h, entry, &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			TenantID:      input.TenantID,
			AggregateID:   entryID,
			AggregateType: domain.AggregateTypeJournalEntry,
			EventType:     domain.EventTypeEntryCreated,
			Payload: map[string]any{
				"tenant_id":    input.TenantID,
				"entry_id":     entryID,
				"entry_number": number,
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EntriesCreated.Inc()
	}

	uc.audit(ctx, input.TenantID, input.CreatedBy, domain.AuditActionEntryCreate, entryID, nil, entry)

	return cloneEntry(entry), nil
}

// GetEntry returns a copy of the entry's current state.
func (uc *JournalUseCase) GetEntry(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error) {
	var entry *domain.JournalEntry

	err := uc.system.Do(ctx, entryKey(tenantID, entryID), func(h *actor.Handle) error {
		state, err := loadState[domain.JournalEntry](ctx, uc.store, h)
		if err != nil {
			return err
		}
		if state == nil {
			return fmt.Errorf("%w: %s", domain.ErrEntryNotFound, entryID)
		}

		entry = cloneEntry(state)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// AddLine appends a line to a Draft entry.
func (uc *JournalUseCase) AddLine(ctx context.Context, tenantID, entryID string, line LineInput, updatedBy string) (*domain.JournalEntry, error) {
	return uc.mutate(ctx, tenantID, entryID, updatedBy, "", nil, func(e *domain.JournalEntry) error {
		return e.AddLine(domain.JournalLine{
			AccountCode: line.AccountCode,
			Description: line.Description,
			Debit:       line.Debit,
			Credit:      line.Credit,
			CostCenter:  line.CostCenter,
			Dimensions:  line.Dimensions,
		})
	})
}

// RemoveLine removes a line from a Draft entry and renumbers the rest.
func (uc *JournalUseCase) RemoveLine(ctx context.Context, tenantID, entryID string, lineNumber int, updatedBy string) (*domain.JournalEntry, error) {
	return uc.mutate(ctx, tenantID, entryID, updatedBy, "", nil, func(e *domain.JournalEntry) error {
		return e.RemoveLine(lineNumber)
	})
}

// ValidateEntry runs the pure structural check without mutating state.
func (uc *JournalUseCase) ValidateEntry(ctx context.Context, tenantID, entryID string) error {
	entry, err := uc.GetEntry(ctx, tenantID, entryID)
	if err != nil {
		return err
	}

	return entry.Validate()
}

// Submit moves a Draft entry to PendingApproval when validation passes.
func (uc *JournalUseCase) Submit(ctx context.Context, tenantID, entryID, submittedBy string) (*domain.JournalEntry, error) {
	entry, err := uc.mutate(ctx, tenantID, entryID, submittedBy, domain.AuditActionEntrySubmit, uc.metricFor(domain.EntryActionSubmit),
		func(e *domain.JournalEntry) error { return e.Submit() })
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// Approve moves a PendingApproval entry to Approved.
func (uc *JournalUseCase) Approve(ctx context.Context, tenantID, entryID, approvedBy string) (*domain.JournalEntry, error) {
	return uc.mutate(ctx, tenantID, entryID, approvedBy, domain.AuditActionEntryApprove, uc.metricFor(domain.EntryActionApprove),
		func(e *domain.JournalEntry) error { return e.Approve(approvedBy, time.Now().UTC()) })
}

// Reject returns a PendingApproval entry to Draft with the reason recorded.
func (uc *JournalUseCase) Reject(ctx context.Context, tenantID, entryID, rejectedBy, reason string) (*domain.JournalEntry, error) {
	return uc.mutate(ctx, tenantID, entryID, rejectedBy, domain.AuditActionEntryReject, uc.metricFor(domain.EntryActionReject),
		func(e *domain.JournalEntry) error { return e.Reject(rejectedBy, reason) })
}

// Cancel abandons an entry that has not been posted.
func (uc *JournalUseCase) Cancel(ctx context.Context, tenantID, entryID, cancelledBy, reason string) (*domain.JournalEntry, error) {
	return uc.mutate(ctx, tenantID, entryID, cancelledBy, domain.AuditActionEntryCancel, uc.metricFor(domain.EntryActionCancel),
		func(e *domain.JournalEntry) error { return e.Cancel(cancelledBy, reason) })
}

// posting is one account call computed from a line during fan-out.
type posting struct {
	lineNumber    int
	accountCode   string
	direction     domain.Direction
	amount        decimal.Decimal
	description   string
	transactionID string
}

// Post moves an Approved entry to Posted. It consults the fiscal period
// gate, then issues one posting call per non-zero line amount to the owning
// account aggregates, all concurrently, and joins on every outcome. If any
// call fails the entry stays Approved and a PostingError aggregating every
// failure is returned; postings that already succeeded are not compensated,
// and an explicit re-Post is safe because accounts deduplicate by
// transaction id.
func (uc *JournalUseCase) Post(ctx context.Context, tenantID, entryID, postedBy string) (*domain.JournalEntry, error) {
	start := time.Now()

	var entry *domain.JournalEntry

	err := uc.system.Do(ctx, entryKey(tenantID, entryID), func(h *actor.Handle) error {
		state, err := loadState[domain.JournalEntry](ctx, uc.store, h)
		if err != nil {
			return err
		}
		if state == nil {
			return fmt.Errorf("%w: %s", domain.ErrEntryNotFound, entryID)
		}
		if state.IsReversed {
			return fmt.Errorf("%w: %s", domain.ErrEntryReversed, entryID)
		}

		// Check transition legality before any side effect.
		if _, err := domain.NextStatus(state.Status, domain.EntryActionPost); err != nil {
			return err
		}

		// Period gate: the entry date must fall in an Open period.
		if err := uc.periods.CanPostTransactions(ctx, tenantID, state.Date); err != nil {
			return err
		}

		postings := uc.buildPostings(state)

		if err := uc.fanOut(ctx, state, postings, postedBy); err != nil {
			return err
		}

		now := time.Now().UTC()
		next := cloneEntry(state)
		if err := next.MarkPosted(postedBy, now); err != nil {
			return err
		}
		next.UpdatedAt = now

		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			TenantID:      tenantID,
			AggregateID:   entryID,
			AggregateType: domain.AggregateTypeJournalEntry,
			EventType:     domain.EventTypeEntryPosted,
			Payload: map[string]any{
				"tenant_id":    tenantID,
				"entry_id":     entryID,
				"entry_number": next.Number,
				"total_debits": next.TotalDebits().String(),
				"posted_by":    postedBy,
			},
			CreatedAt: now,
		}

		if err := uc.persist(ctx, h, next, event); err != nil {
			return err
		}

		if uc.metrics != nil {
			uc.metrics.EntriesPosted.Inc()
			uc.metrics.PostingFanout.Observe(float64(len(postings)))
			uc.metrics.PostingDuration.Observe(time.Since(start).Seconds())
		}

		uc.audit(ctx, tenantID, postedBy, domain.AuditActionEntryPost, entryID, state, next)

		entry = cloneEntry(next)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// buildPostings computes one posting per non-zero line amount, each with a
// freshly generated transaction id and the entry number as reference.
func (uc *JournalUseCase) buildPostings(entry *domain.JournalEntry) []posting {
	var postings []posting

	for _, line := range entry.Lines {
		if line.Debit.IsPositive() {
			postings = append(postings, posting{
				lineNumber:    line.LineNumber,
				accountCode:   line.AccountCode,
				direction:     domain.DirectionDebit,
				amount:        line.Debit,
				description:   line.Description,
				transactionID: uc.idGen.Generate(),
			})
		}

		if line.Credit.IsPositive() {
			postings = append(postings, posting{
				lineNumber:    line.LineNumber,
				accountCode:   line.AccountCode,
				direction:     domain.DirectionCredit,
				amount:        line.Credit,
				description:   line.Description,
				transactionID: uc.idGen.Generate(),
			})
		}
	}

	return postings
}

// fanOut issues every posting concurrently and waits for all outcomes (join
// semantics, no short-circuit) so failures can be aggregated. A failed or
// timed-out call does not cancel siblings already in flight.
func (uc *JournalUseCase) fanOut(ctx context.Context, entry *domain.JournalEntry, postings []posting, postedBy string) error {
	postCtx, cancel := context.WithTimeout(ctx, uc.postingTimeout)
	defer cancel()

	results := make([]error, len(postings))

	var wg sync.WaitGroup
	for i := range postings {
		wg.Add(1)

		go func(i int, p posting) {
			defer wg.Done()

			_, err := uc.accounts.PostTransaction(postCtx, PostTransactionInput{
				TenantID:      entry.TenantID,
				AccountCode:   p.accountCode,
				TransactionID: p.transactionID,
				Amount:        p.amount,
				Direction:     p.direction,
				Date:          entry.Date,
				Description:   p.description,
				Reference:     entry.Number,
				PostedBy:      postedBy,
			})
			results[i] = err
		}(i, postings[i])
	}
	wg.Wait()

	var failures []domain.LineFailure
	for i, err := range results {
		if err != nil {
			failures = append(failures, domain.LineFailure{
				LineNumber:  postings[i].lineNumber,
				AccountCode: postings[i].accountCode,
				Direction:   postings[i].direction,
				Err:         err,
			})
		}
	}

	if len(failures) > 0 {
		if uc.metrics != nil {
			uc.metrics.PostingFailures.WithLabelValues("account_call").Add(float64(len(failures)))
		}

		return &domain.PostingError{EntryID: entry.ID, Failures: failures}
	}

	return nil
}

// ReverseEntryInput represents input for reversing a posted entry.
type ReverseEntryInput struct {
	TenantID   string
	EntryID    string
	ReversedBy string
	Reason     string
}

// Reverse constructs a brand-new entry with every line's debit and credit
// swapped, drives it through Create, Submit, Approve and Post, and only
// after the mirror entry posted in full marks the original as Reversed with
// the back-reference. Any inner failure leaves the original untouched; the
// abandoned mirror entry, if one was created, never reaches Posted.
func (uc *JournalUseCase) Reverse(ctx context.Context, input ReverseEntryInput) (*domain.JournalEntry, error) {
	var reversal *domain.JournalEntry

	err := uc.system.Do(ctx, entryKey(input.TenantID, input.EntryID), func(h *actor.Handle) error {
		original, err := loadState[domain.JournalEntry](ctx, uc.store, h)
		if err != nil {
			return err
		}
		if original == nil {
			return fmt.Errorf("%w: %s", domain.ErrEntryNotFound, input.EntryID)
		}
		if original.IsReversed {
			return fmt.Errorf("%w: %s already reversed by %s", domain.ErrEntryReversed, input.EntryID, original.ReversalEntryID)
		}
		if _, err := domain.NextStatus(original.Status, domain.EntryActionReverse); err != nil {
			return err
		}

		reversalID := uc.idGen.Generate()

		mirror, err := uc.runReversalPipeline(ctx, original, reversalID, input.ReversedBy, input.Reason)
		if err != nil {
			return fmt.Errorf("reversal of %s: %w", input.EntryID, err)
		}

		now := time.Now().UTC()
		next := cloneEntry(original)
		if err := next.MarkReversed(reversalID, input.Reason); err != nil {
			return err
		}
		next.UpdatedAt = now

		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			TenantID:      input.TenantID,
			AggregateID:   input.EntryID,
			AggregateType: domain.AggregateTypeJournalEntry,
			EventType:     domain.EventTypeEntryReversed,
			Payload: map[string]any{
				"tenant_id":         input.TenantID,
				"original_entry_id": input.EntryID,
				"reversal_entry_id": reversalID,
				"reason":            input.Reason,
			},
			CreatedAt: now,
		}

		if err := uc.persist(ctx, h, next, event); err != nil {
			return err
		}

		if uc.metrics != nil {
			uc.metrics.EntriesReversed.Inc()
		}

		uc.audit(ctx, input.TenantID, input.ReversedBy, domain.AuditActionEntryReverse, input.EntryID, original, next)

		reversal = mirror

		return nil
	})
	if err != nil {
		return nil, err
	}

	return reversal, nil
}

// runReversalPipeline drives the mirror entry through the same workflow any
// entry takes. The mirror carries the original's entry date, so reversing
// into an already-closed period fails at the gate like any other posting.
func (uc *JournalUseCase) runReversalPipeline(
	ctx context.Context,
	original *domain.JournalEntry,
	reversalID, reversedBy, reason string,
) (*domain.JournalEntry, error) {
	lines := original.ReversalLines()
	lineInputs := make([]LineInput, len(lines))
	for i, l := range lines {
		lineInputs[i] = LineInput{
			AccountCode: l.AccountCode,
			Description: l.Description,
			Debit:       l.Debit,
			Credit:      l.Credit,
			CostCenter:  l.CostCenter,
			Dimensions:  l.Dimensions,
		}
	}

	if _, err := uc.CreateEntry(ctx, CreateEntryInput{
		TenantID:    original.TenantID,
		EntryID:     reversalID,
		Date:        original.Date,
		Description: fmt.Sprintf("Reversal of %s: %s", original.Number, reason),
		Reference:   original.Number,
		Lines:       lineInputs,
		Metadata: map[string]any{
			"reversalOf":     original.ID,
			"reversalReason": reason,
		},
		CreatedBy: reversedBy,
	}); err != nil {
		return nil, fmt.Errorf("create mirror entry: %w", err)
	}

	if _, err := uc.Submit(ctx, original.TenantID, reversalID, reversedBy); err != nil {
		return nil, fmt.Errorf("submit mirror entry: %w", err)
	}

	if _, err := uc.Approve(ctx, original.TenantID, reversalID, reversedBy); err != nil {
		return nil, fmt.Errorf("approve mirror entry: %w", err)
	}

	posted, err := uc.Post(ctx, original.TenantID, reversalID, reversedBy)
	if err != nil {
		return nil, fmt.Errorf("post mirror entry: %w", err)
	}

	return posted, nil
}

// mutate loads the entry, applies fn to a copy and persists the result.
func (uc *JournalUseCase) mutate(
	ctx context.Context,
	tenantID, entryID, actorName string,
	action domain.AuditAction,
	counter func(),
	fn func(e *domain.JournalEntry) error,
) (*domain.JournalEntry, error) {
	var entry *domain.JournalEntry

	err := uc.system.Do(ctx, entryKey(tenantID, entryID), func(h *actor.Handle) error {
		state, err := loadState[domain.JournalEntry](ctx, uc.store, h)
		if err != nil {
			return err
		}
		if state == nil {
			return fmt.Errorf("%w: %s", domain.ErrEntryNotFound, entryID)
		}

		next := cloneEntry(state)
		if err := fn(next); err != nil {
			return err
		}
		next.UpdatedAt = time.Now().UTC()

		if err := uc.persist(ctx, h, next, nil); err != nil {
			return err
		}

		if counter != nil {
			counter()
		}

		if action != "" {
			uc.audit(ctx, tenantID, actorName, action, entryID, state, next)
		}

		entry = cloneEntry(next)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (uc *JournalUseCase) metricFor(action domain.EntryAction) func() {
	if uc.metrics == nil {
		return nil
	}

	switch action {
	case domain.EntryActionSubmit:
		return uc.metrics.EntriesSubmitted.Inc
	case domain.EntryActionApprove:
		return uc.metrics.EntriesApproved.Inc
	case domain.EntryActionReject:
		return uc.metrics.EntriesRejected.Inc
	case domain.EntryActionCancel:
		return uc.metrics.EntriesCancelled.Inc
	default:
		return nil
	}
}

func (uc *JournalUseCase) persist(ctx context.Context, h *actor.Handle, entry *domain.JournalEntry, event *domain.OutboxEvent) error {
	data, err := marshalState(entry)
	if err != nil {
		return err
	}

	newVersion := h.Version() + 1

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if event != nil && uc.outboxRepo != nil {
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}
	}

	if err := uc.store.Save(ctx, tx, h.Key(), data, newVersion); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	h.SetState(entry, newVersion)

	return nil
}

func (uc *JournalUseCase) audit(
	ctx context.Context,
	tenantID, actorName string,
	action domain.AuditAction,
	resourceID string,
	before, after any,
) {
	if uc.auditRepo == nil {
		return
	}

	_ = uc.auditRepo.Create(ctx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		TenantID:     tenantID,
		Actor:        actorName,
		Action:       string(action),
		ResourceType: domain.AggregateTypeJournalEntry,
		ResourceID:   resourceID,
		BeforeState:  domain.MarshalState(before),
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	})
}

func cloneEntry(e *domain.JournalEntry) *domain.JournalEntry {
	next := *e

	next.Lines = make([]domain.JournalLine, len(e.Lines))
	copy(next.Lines, e.Lines)

	if e.Metadata != nil {
		next.Metadata = make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			next.Metadata[k] = v
		}
	}

	return &next
}
