package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/actor"
	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/infrastructure/metrics"
)

// AccountUseCase owns the per-account aggregate protocol: at-most-once
// initialization, idempotent balance posting, movement statements and the
// active flag. Every mutating operation runs under the account's exclusive
// key and persists its snapshot before acknowledging success.
type AccountUseCase struct {
	system       *actor.System
	store        StateStore
	txManager    TransactionManager
	movementRepo MovementRepository
	outboxRepo   OutboxRepository
	auditRepo    AuditRepository
	idGen        IDGenerator
	numbers      DocumentNumberService
	metrics      *metrics.Metrics
	cache        Cache
	retrier      Retrier
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	system *actor.System,
	store StateStore,
	txManager TransactionManager,
	movementRepo MovementRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	numbers DocumentNumberService,
	m *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		system:       system,
		store:        store,
		txManager:    txManager,
		movementRepo: movementRepo,
		outboxRepo:   outboxRepo,
		auditRepo:    auditRepo,
		idGen:        idGen,
		numbers:      numbers,
		metrics:      m,
	}
}

// WithCache attaches a balance cache.
func (uc *AccountUseCase) WithCache(cache Cache) *AccountUseCase {
	uc.cache = cache
	return uc
}

// WithRetrier attaches a retrier for transient store failures.
func (uc *AccountUseCase) WithRetrier(retrier Retrier) *AccountUseCase {
	uc.retrier = retrier
	return uc
}

func accountKey(tenantID, code string) actor.Key {
	return actor.Key{TenantID: tenantID, Kind: actor.KindAccount, ID: code}
}

// InitializeAccountInput represents input for initializing an account.
type InitializeAccountInput struct {
	TenantID        string
	Code            string // generated when empty
	Name            string
	Type            domain.AccountType
	ParentCode      string
	Currency        string
	Description     string
	IsSystemAccount bool
	Metadata        map[string]any
	CreatedBy       string
}

// InitializeAccount creates the account aggregate. It fails with
// ErrAccountExists when the key has already been initialized; the first
// successful creation is never overwritten.
func (uc *AccountUseCase) InitializeAccount(ctx context.Context, input InitializeAccountInput) (*domain.Account, error) {
	if err := domain.ValidateTenantID(input.TenantID); err != nil {
		return nil, err
	}
	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}
	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}
	if !input.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAccountType, input.Type)
	}
	if err := domain.ValidateMetadata(input.Metadata); err != nil {
		return nil, err
	}

	code := input.Code
	if code == "" {
		generated, err := uc.numbers.GenerateAccountCode(ctx, input.TenantID, input.Type)
		if err != nil {
			return nil, fmt.Errorf("generate account code: %w", err)
		}
		code = generated
	} else if err := domain.ValidateAccountCode(code); err != nil {
		return nil, err
	}

	level := 1
	if input.ParentCode != "" {
		parent, err := uc.GetAccount(ctx, input.TenantID, input.ParentCode)
		if err != nil {
			return nil, fmt.Errorf("parent account %s: %w", input.ParentCode, err)
		}
		level = parent.Level + 1
	}

	var account *domain.Account

	err := uc.system.Do(ctx, accountKey(input.TenantID, code), func(h *actor.Handle) error {
		existing, err := loadState[domain.Account](ctx, uc.store, h)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %s", domain.ErrAccountExists, code)
		}

		now := time.Now().UTC()
		account = &domain.Account{
			TenantID:    input.TenantID,
			Code:        code,
			Name:        input.Name,
			Type:        input.Type,
			ParentCode:  input.ParentCode,
			Level:       level,
			Currency:    input.Currency,
			Description: input.Description,
			Active:      true,
			System:      input.IsSystemAccount,
			Balance:     decimal.Zero,
			Metadata:    input.Metadata,
			CreatedBy:   input.CreatedBy,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		return uc.persist(ctx, h, account, 1, nil, &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			TenantID:      input.TenantID,
			AggregateID:   code,
			AggregateType: domain.AggregateTypeAccount,
			EventType:     domain.EventTypeAccountInitialized,
			Payload: map[string]any{
				"tenant_id": input.TenantID,
				"code":      code,
				"name":      input.Name,
				"type":      string(input.Type),
				"currency":  input.Currency,
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsInitialized.Inc()
	}

	uc.audit(ctx, input.TenantID, input.CreatedBy, domain.AuditActionAccountInitialize, code, nil, account, nil)

	return cloneAccount(account), nil
}

// PostTransactionInput represents one posting directed at an account.
// Currency is optional; when set it must match the account currency.
type PostTransactionInput struct {
	TenantID      string
	AccountCode   string
	TransactionID string
	Amount        decimal.Decimal
	Currency      string
	Direction     domain.Direction
	Date          time.Time
	Description   string
	Reference     string
	PostedBy      string
}

// PostTransaction applies one debit or credit to the account. The balance
// delta follows the account type's sign convention. Re-delivery of an
// already-applied transaction id returns the recorded movement without
// posting again.
func (uc *AccountUseCase) PostTransaction(ctx context.Context, input PostTransactionInput) (*domain.Movement, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if !input.Direction.Valid() {
		return nil, fmt.Errorf("%w: direction %q", domain.ErrInvalidAmount, input.Direction)
	}
	if input.TransactionID == "" {
		input.TransactionID = uc.idGen.Generate()
	}

	var movement *domain.Movement

	err := uc.system.Do(ctx, accountKey(input.TenantID, input.AccountCode), func(h *actor.Handle) error {
		account, err := loadState[domain.Account](ctx, uc.store, h)
		if err != nil {
			return err
		}
		if account == nil {
			return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, input.AccountCode)
		}
		if !account.Active {
			return fmt.Errorf("%w: %s", domain.ErrAccountInactive, input.AccountCode)
		}

		if account.HasApplied(input.TransactionID) {
			if uc.metrics != nil {
				uc.metrics.DuplicatePostings.Inc()
			}

			recorded, err := uc.movementRepo.GetByTransactionID(ctx, input.TenantID, input.AccountCode, input.TransactionID)
			if err != nil {
				return fmt.Errorf("lookup deduplicated posting %s: %w", input.TransactionID, err)
			}
			movement = recorded

			return nil
		}

		currency := input.Currency
		if currency == "" {
			currency = account.Currency
		}

		now := time.Now().UTC()
		next := cloneAccount(account)

		posted, err := next.ApplyPosting(input.Direction, domain.NewMoney(input.Amount, currency))
		if err != nil {
			return fmt.Errorf("post %s to %s: %w", input.TransactionID, input.AccountCode, err)
		}
		newBalance := posted.Amount

		movement = &domain.Movement{
			ID:              uc.idGen.Generate(),
			TenantID:        input.TenantID,
			AccountCode:     input.AccountCode,
			TransactionID:   input.TransactionID,
			Direction:       input.Direction,
			Amount:          input.Amount,
			SignedAmount:    next.SignedDelta(input.Direction, input.Amount),
			PreviousBalance: next.Balance,
			CurrentBalance:  newBalance,
			Date:            input.Date,
			Description:     input.Description,
			Reference:       input.Reference,
			PostedBy:        input.PostedBy,
			CreatedAt:       now,
		}

		next.Balance = newBalance
		next.MarkApplied(input.TransactionID)
		next.UpdatedAt = now

		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			TenantID:      input.TenantID,
			AggregateID:   input.AccountCode,
			AggregateType: domain.AggregateTypeAccount,
			EventType:     domain.EventTypeAccountPosted,
			Payload: map[string]any{
				"tenant_id":      input.TenantID,
				"code":           input.AccountCode,
				"transaction_id": input.TransactionID,
				"direction":      string(input.Direction),
				"amount":         input.Amount.String(),
				"balance":        newBalance.String(),
			},
			CreatedAt: now,
		}

		if err := uc.persist(ctx, h, next, h.Version()+1, movement, event); err != nil {
			return err
		}

		if uc.metrics != nil {
			uc.metrics.AccountPostings.WithLabelValues(string(input.Direction)).Inc()
			bal, _ := newBalance.Float64()
			uc.metrics.AccountBalance.
				WithLabelValues(input.TenantID, input.AccountCode, next.Currency).
				Set(bal)
		}

		if uc.cache != nil {
			_ = uc.cache.Delete(ctx, balanceCacheKey(input.TenantID, input.AccountCode))
		}

		uc.audit(ctx, input.TenantID, input.PostedBy, domain.AuditActionAccountPost, input.AccountCode, account, next, nil)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return movement, nil
}

// GetAccount returns a copy of the account's current state.
func (uc *AccountUseCase) GetAccount(ctx context.Context, tenantID, code string) (*domain.Account, error) {
	var account *domain.Account

	err := uc.system.Do(ctx, accountKey(tenantID, code), func(h *actor.Handle) error {
		state, err := loadState[domain.Account](ctx, uc.store, h)
		if err != nil {
			return err
		}
		if state == nil {
			return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, code)
		}

		account = cloneAccount(state)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// GetBalance returns the current balance, or the balance as of a point in
// time when asOf is set. Current balances are served from cache when one is
// attached.
func (uc *AccountUseCase) GetBalance(ctx context.Context, tenantID, code string, asOf *time.Time) (decimal.Decimal, error) {
	if asOf != nil {
		return uc.movementRepo.BalanceAsOf(ctx, tenantID, code, *asOf)
	}

	cacheKey := balanceCacheKey(tenantID, code)
	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, cacheKey); err == nil && cached != nil {
			if balance, err := decimal.NewFromString(string(cached)); err == nil {
				return balance, nil
			}
		}
	}

	account, err := uc.GetAccount(ctx, tenantID, code)
	if err != nil {
		return decimal.Zero, err
	}

	if uc.cache != nil {
		_ = uc.cache.Set(ctx, cacheKey, []byte(account.Balance.String()), balanceCacheTTL)
	}

	return account.Balance, nil
}

// GetMovementsInput represents input for a movement statement.
type GetMovementsInput struct {
	TenantID    string
	AccountCode string
	From        time.Time
	To          time.Time
}

// GetMovements returns the movements in [From, To] plus the opening and
// closing balances at the range boundaries.
func (uc *AccountUseCase) GetMovements(ctx context.Context, input GetMovementsInput) (*domain.MovementStatement, error) {
	if _, err := uc.GetAccount(ctx, input.TenantID, input.AccountCode); err != nil {
		return nil, err
	}

	movements, err := uc.movementRepo.ListByAccount(ctx, input.TenantID, input.AccountCode, input.From, input.To)
	if err != nil {
		return nil, err
	}

	// Strictly before From: a movement dated exactly at From is listed in
	// the range and must not be folded into the opening balance too.
	opening, err := uc.movementRepo.BalanceBefore(ctx, input.TenantID, input.AccountCode, input.From)
	if err != nil {
		return nil, err
	}

	closing := opening
	for _, m := range movements {
		closing = closing.Add(m.SignedAmount)
	}

	return &domain.MovementStatement{
		AccountCode:    input.AccountCode,
		From:           input.From,
		To:             input.To,
		OpeningBalance: opening,
		ClosingBalance: closing,
		Movements:      movements,
	}, nil
}

// SetActiveStatus activates or deactivates the account. System accounts
// cannot be deactivated.
func (uc *AccountUseCase) SetActiveStatus(ctx context.Context, tenantID, code string, active bool, updatedBy string) error {
	return uc.system.Do(ctx, accountKey(tenantID, code), func(h *actor.Handle) error {
		account, err := loadState[domain.Account](ctx, uc.store, h)
		if err != nil {
			return err
		}
		if account == nil {
			return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, code)
		}
		if account.System && !active {
			return fmt.Errorf("%w: %s", domain.ErrSystemAccount, code)
		}
		if account.Active == active {
			return nil
		}

		next := cloneAccount(account)
		next.Active = active
		next.UpdatedAt = time.Now().UTC()

		if err := uc.persist(ctx, h, next, h.Version()+1, nil, nil); err != nil {
			return err
		}

		uc.audit(ctx, tenantID, updatedBy, domain.AuditActionAccountSetActive, code, account, next, nil)

		return nil
	})
}

// persist writes the snapshot, the optional movement and the optional
// outbox event in one transaction, then refreshes the handle cache. The
// handle cache is only updated after the commit so a failed write never
// leaks a half-applied state.
func (uc *AccountUseCase) persist(
	ctx context.Context,
	h *actor.Handle,
	account *domain.Account,
	newVersion int64,
	movement *domain.Movement,
	event *domain.OutboxEvent,
) error {
	data, err := marshalState(account)
	if err != nil {
		return err
	}

	write := func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if movement != nil {
			if err := uc.movementRepo.Create(ctx, tx, movement); err != nil {
				return err
			}
		}

		if event != nil && uc.outboxRepo != nil {
			if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
				return err
			}
		}

		if err := uc.store.Save(ctx, tx, h.Key(), data, newVersion); err != nil {
			return err
		}

		return tx.Commit(ctx)
	}

	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, write)
	} else {
		err = write()
	}
	if err != nil {
		return err
	}

	h.SetState(account, newVersion)

	return nil
}

func (uc *AccountUseCase) audit(
	ctx context.Context,
	tenantID, actorName string,
	action domain.AuditAction,
	resourceID string,
	before, after any,
	opErr error,
) {
	if uc.auditRepo == nil {
		return
	}

	log := &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		TenantID:     tenantID,
		Actor:        actorName,
		Action:       string(action),
		ResourceType: domain.AggregateTypeAccount,
		ResourceID:   resourceID,
		BeforeState:  domain.MarshalState(before),
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	}
	if opErr != nil {
		log.Status = string(domain.AuditStatusFailure)
		log.ErrorMessage = opErr.Error()
	}

	_ = uc.auditRepo.Create(ctx, log)
}

func balanceCacheKey(tenantID, code string) string {
	return "balance:" + tenantID + ":" + code
}

func cloneAccount(a *domain.Account) *domain.Account {
	next := *a

	if a.Applied != nil {
		next.Applied = make(map[string]bool, len(a.Applied))
		for k, v := range a.Applied {
			next.Applied[k] = v
		}
	}

	if a.Metadata != nil {
		next.Metadata = make(map[string]any, len(a.Metadata))
		for k, v := range a.Metadata {
			next.Metadata[k] = v
		}
	}

	return &next
}
