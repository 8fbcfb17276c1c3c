package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/actor"
	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
	"github.com/iho/erpledger/internal/usecase/mocks"
)

type accountFixture struct {
	uc        *usecase.AccountUseCase
	store     *mocks.MockStateStore
	movements *mocks.MockMovementRepository
	outbox    *mocks.MockOutboxRepository
	audit     *mocks.MockAuditRepository
	cache     *mocks.MockCache
}

func newAccountFixture() *accountFixture {
	f := &accountFixture{
		store:     mocks.NewMockStateStore(),
		movements: mocks.NewMockMovementRepository(),
		outbox:    mocks.NewMockOutboxRepository(),
		audit:     mocks.NewMockAuditRepository(),
		cache:     mocks.NewMockCache(),
	}
	f.uc = usecase.NewAccountUseCase(
		actor.NewSystem(),
		f.store,
		mocks.NewMockTransactionManager(),
		f.movements,
		f.outbox,
		f.audit,
		mocks.NewMockIDGenerator(),
		mocks.NewMockDocumentNumberService(),
		nil,
	).WithCache(f.cache)

	return f
}

func (f *accountFixture) initAccount(t *testing.T, code string, accountType domain.AccountType) *domain.Account {
	t.Helper()

	account, err := f.uc.InitializeAccount(context.Background(), usecase.InitializeAccountInput{
		TenantID:  "acme",
		Code:      code,
		Name:      "Account " + code,
		Type:      accountType,
		Currency:  "USD",
		CreatedBy: "setup",
	})
	if err != nil {
		t.Fatalf("initialize account %s: %v", code, err)
	}

	return account
}

func TestInitializeAccount(t *testing.T) {
	f := newAccountFixture()

	account := f.initAccount(t, "1000", domain.AccountTypeAsset)

	if !account.Active {
		t.Error("expected new account to be active")
	}
	if !account.Balance.IsZero() {
		t.Errorf("expected zero opening balance, got %s", account.Balance)
	}
	if account.Level != 1 {
		t.Errorf("expected level 1, got %d", account.Level)
	}

	events := f.outbox.Events()
	if len(events) != 1 || events[0].EventType != domain.EventTypeAccountInitialized {
		t.Fatalf("expected one account.initialized event, got %+v", events)
	}
	if len(f.audit.Logs()) != 1 {
		t.Errorf("expected one audit log, got %d", len(f.audit.Logs()))
	}
}

func TestInitializeAccount_Duplicate(t *testing.T) {
	f := newAccountFixture()
	f.initAccount(t, "1000", domain.AccountTypeAsset)

	_, err := f.uc.InitializeAccount(context.Background(), usecase.InitializeAccountInput{
		TenantID:  "acme",
		Code:      "1000",
		Name:      "Cash again",
		Type:      domain.AccountTypeAsset,
		Currency:  "USD",
		CreatedBy: "setup",
	})
	if !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
	if f.store.Count() != 1 {
		t.Errorf("expected the first creation to survive, found %d states", f.store.Count())
	}
}

func TestInitializeAccount_GeneratesCode(t *testing.T) {
	f := newAccountFixture()

	account, err := f.uc.InitializeAccount(context.Background(), usecase.InitializeAccountInput{
		TenantID:  "acme",
		Name:      "Auto coded",
		Type:      domain.AccountTypeAsset,
		Currency:  "USD",
		CreatedBy: "setup",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Code == "" {
		t.Fatal("expected a generated account code")
	}
	if err := domain.ValidateAccountCode(account.Code); err != nil {
		t.Errorf("generated code %q is not valid: %v", account.Code, err)
	}
}

func TestInitializeAccount_ValidationFailures(t *testing.T) {
	f := newAccountFixture()

	tests := []struct {
		name      string
		input     usecase.InitializeAccountInput
		expectErr error
	}{
		{
			name: "bad currency",
			input: usecase.InitializeAccountInput{
				TenantID: "acme", Code: "1000", Name: "Cash", Type: domain.AccountTypeAsset, Currency: "XYZ",
			},
			expectErr: domain.ErrInvalidCurrency,
		},
		{
			name: "bad code",
			input: usecase.InitializeAccountInput{
				TenantID: "acme", Code: "1", Name: "Cash", Type: domain.AccountTypeAsset, Currency: "USD",
			},
			expectErr: domain.ErrInvalidAccountCode,
		},
		{
			name: "bad type",
			input: usecase.InitializeAccountInput{
				TenantID: "acme", Code: "1000", Name: "Cash", Type: "WEIRD", Currency: "USD",
			},
			expectErr: domain.ErrInvalidAccountType,
		},
		{
			name: "bad tenant",
			input: usecase.InitializeAccountInput{
				TenantID: "acme corp", Code: "1000", Name: "Cash", Type: domain.AccountTypeAsset, Currency: "USD",
			},
			expectErr: domain.ErrInvalidTenantID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.InitializeAccount(context.Background(), tt.input)
			if !errors.Is(err, tt.expectErr) {
				t.Errorf("expected %v, got %v", tt.expectErr, err)
			}
		})
	}
}

func TestInitializeAccount_ChildLevel(t *testing.T) {
	f := newAccountFixture()
	f.initAccount(t, "1000", domain.AccountTypeAsset)

	child, err := f.uc.InitializeAccount(context.Background(), usecase.InitializeAccountInput{
		TenantID:   "acme",
		Code:       "1001",
		Name:       "Petty cash",
		Type:       domain.AccountTypeAsset,
		ParentCode: "1000",
		Currency:   "USD",
		CreatedBy:  "setup",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if child.Level != 2 {
		t.Errorf("expected child level 2, got %d", child.Level)
	}
}

func TestPostTransaction_SignConventions(t *testing.T) {
	amount := decimal.NewFromInt(100)

	tests := []struct {
		name        string
		accountType domain.AccountType
		direction   domain.Direction
		expected    decimal.Decimal
	}{
		{"debit grows asset", domain.AccountTypeAsset, domain.DirectionDebit, amount},
		{"credit shrinks asset", domain.AccountTypeAsset, domain.DirectionCredit, amount.Neg()},
		{"credit grows liability", domain.AccountTypeLiability, domain.DirectionCredit, amount},
		{"credit grows revenue", domain.AccountTypeRevenue, domain.DirectionCredit, amount},
		{"debit grows contra-revenue", domain.AccountTypeContraRevenue, domain.DirectionDebit, amount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAccountFixture()
			f.initAccount(t, "1000", tt.accountType)

			movement, err := f.uc.PostTransaction(context.Background(), usecase.PostTransactionInput{
				TenantID:      "acme",
				AccountCode:   "1000",
				TransactionID: "tx-1",
				Amount:        amount,
				Direction:     tt.direction,
				Date:          time.Now().UTC(),
				PostedBy:      "tester",
			})
			if err != nil {
				t.Fatalf("post failed: %v", err)
			}

			if !movement.SignedAmount.Equal(tt.expected) {
				t.Errorf("expected signed amount %s, got %s", tt.expected, movement.SignedAmount)
			}
			if !movement.CurrentBalance.Equal(tt.expected) {
				t.Errorf("expected balance %s, got %s", tt.expected, movement.CurrentBalance)
			}

			account, err := f.uc.GetAccount(context.Background(), "acme", "1000")
			if err != nil {
				t.Fatalf("get account: %v", err)
			}
			if !account.Balance.Equal(tt.expected) {
				t.Errorf("expected stored balance %s, got %s", tt.expected, account.Balance)
			}
		})
	}
}

func TestPostTransaction_DuplicateTransactionID(t *testing.T) {
	f := newAccountFixture()
	f.initAccount(t, "1000", domain.AccountTypeAsset)

	input := usecase.PostTransactionInput{
		TenantID:      "acme",
		AccountCode:   "1000",
		TransactionID: "tx-1",
		Amount:        decimal.NewFromInt(100),
		Direction:     domain.DirectionDebit,
		Date:          time.Now().UTC(),
		PostedBy:      "tester",
	}

	first, err := f.uc.PostTransaction(context.Background(), input)
	if err != nil {
		t.Fatalf("first post failed: %v", err)
	}

	second, err := f.uc.PostTransaction(context.Background(), input)
	if err != nil {
		t.Fatalf("duplicate post failed: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("expected the recorded movement back, got %s vs %s", second.ID, first.ID)
	}

	account, err := f.uc.GetAccount(context.Background(), "acme", "1000")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !account.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected balance 100 after duplicate delivery, got %s", account.Balance)
	}
	if len(f.movements.All()) != 1 {
		t.Errorf("expected one movement, got %d", len(f.movements.All()))
	}
}

func TestPostTransaction_Failures(t *testing.T) {
	f := newAccountFixture()
	f.initAccount(t, "1000", domain.AccountTypeAsset)

	t.Run("unknown account", func(t *testing.T) {
		_, err := f.uc.PostTransaction(context.Background(), usecase.PostTransactionInput{
			TenantID:    "acme",
			AccountCode: "9999",
			Amount:      decimal.NewFromInt(10),
			Direction:   domain.DirectionDebit,
			Date:        time.Now().UTC(),
		})
		if !errors.Is(err, domain.ErrAccountNotFound) {
			t.Errorf("expected ErrAccountNotFound, got %v", err)
		}
	})

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := f.uc.PostTransaction(context.Background(), usecase.PostTransactionInput{
			TenantID:    "acme",
			AccountCode: "1000",
			Amount:      decimal.Zero,
			Direction:   domain.DirectionDebit,
			Date:        time.Now().UTC(),
		})
		if !errors.Is(err, domain.ErrInvalidAmount) {
			t.Errorf("expected ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("currency mismatch", func(t *testing.T) {
		_, err := f.uc.PostTransaction(context.Background(), usecase.PostTransactionInput{
			TenantID:    "acme",
			AccountCode: "1000",
			Amount:      decimal.NewFromInt(10),
			Currency:    "EUR",
			Direction:   domain.DirectionDebit,
			Date:        time.Now().UTC(),
		})
		if !errors.Is(err, domain.ErrCurrencyMismatch) {
			t.Errorf("expected ErrCurrencyMismatch, got %v", err)
		}
		if got := len(f.movements.All()); got != 0 {
			t.Errorf("expected no movement recorded, got %d", got)
		}
	})

	t.Run("matching currency accepted", func(t *testing.T) {
		movement, err := f.uc.PostTransaction(context.Background(), usecase.PostTransactionInput{
			TenantID:    "acme",
			AccountCode: "1000",
			Amount:      decimal.NewFromInt(10),
			Currency:    "USD",
			Direction:   domain.DirectionDebit,
			Date:        time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		if !movement.CurrentBalance.Equal(decimal.NewFromInt(10)) {
			t.Errorf("expected balance 10, got %s", movement.CurrentBalance)
		}
	})

	t.Run("inactive account", func(t *testing.T) {
		if err := f.uc.SetActiveStatus(context.Background(), "acme", "1000", false, "admin"); err != nil {
			t.Fatalf("deactivate: %v", err)
		}
		_, err := f.uc.PostTransaction(context.Background(), usecase.PostTransactionInput{
			TenantID:    "acme",
			AccountCode: "1000",
			Amount:      decimal.NewFromInt(10),
			Direction:   domain.DirectionDebit,
			Date:        time.Now().UTC(),
		})
		if !errors.Is(err, domain.ErrAccountInactive) {
			t.Errorf("expected ErrAccountInactive, got %v", err)
		}
	})
}

func TestSetActiveStatus_SystemAccount(t *testing.T) {
	f := newAccountFixture()

	_, err := f.uc.InitializeAccount(context.Background(), usecase.InitializeAccountInput{
		TenantID:        "acme",
		Code:            "9000",
		Name:            "Retained earnings",
		Type:            domain.AccountTypeEquity,
		Currency:        "USD",
		IsSystemAccount: true,
		CreatedBy:       "setup",
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	err = f.uc.SetActiveStatus(context.Background(), "acme", "9000", false, "admin")
	if !errors.Is(err, domain.ErrSystemAccount) {
		t.Fatalf("expected ErrSystemAccount, got %v", err)
	}
}

func TestGetBalance(t *testing.T) {
	f := newAccountFixture()
	f.initAccount(t, "1000", domain.AccountTypeAsset)

	_, err := f.uc.PostTransaction(context.Background(), usecase.PostTransactionInput{
		TenantID:    "acme",
		AccountCode: "1000",
		Amount:      decimal.NewFromInt(250),
		Direction:   domain.DirectionDebit,
		Date:        time.Now().UTC(),
		PostedBy:    "tester",
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	balance, err := f.uc.GetBalance(context.Background(), "acme", "1000", nil)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(250)) {
		t.Errorf("expected 250, got %s", balance)
	}

	// The second read must come from the cache populated by the first.
	f.store.LoadFunc = func(ctx context.Context, key actor.Key) ([]byte, int64, error) {
		t.Error("expected cached balance, store was hit")
		return nil, 0, usecase.ErrStateNotFound
	}
	cached, err := f.uc.GetBalance(context.Background(), "acme", "1000", nil)
	if err != nil {
		t.Fatalf("cached get balance: %v", err)
	}
	if !cached.Equal(balance) {
		t.Errorf("expected cached balance %s, got %s", balance, cached)
	}
}

func TestGetBalance_AsOf(t *testing.T) {
	f := newAccountFixture()
	f.initAccount(t, "1000", domain.AccountTypeAsset)

	cutoff := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

	post := func(txID string, date time.Time, amount int64) {
		t.Helper()
		_, err := f.uc.PostTransaction(context.Background(), usecase.PostTransactionInput{
			TenantID:      "acme",
			AccountCode:   "1000",
			TransactionID: txID,
			Amount:        decimal.NewFromInt(amount),
			Direction:     domain.DirectionDebit,
			Date:          date,
			PostedBy:      "tester",
		})
		if err != nil {
			t.Fatalf("post %s: %v", txID, err)
		}
	}

	post("tx-1", cutoff.AddDate(0, 0, -5), 100)
	post("tx-2", cutoff.AddDate(0, 0, 5), 40)

	balance, err := f.uc.GetBalance(context.Background(), "acme", "1000", &cutoff)
	if err != nil {
		t.Fatalf("get balance as of: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected 100 as of the cutoff, got %s", balance)
	}
}

func TestGetMovements(t *testing.T) {
	f := newAccountFixture()
	f.initAccount(t, "1000", domain.AccountTypeAsset)

	base := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	for i, amount := range []int64{100, 50, 25} {
		_, err := f.uc.PostTransaction(context.Background(), usecase.PostTransactionInput{
			TenantID:    "acme",
			AccountCode: "1000",
			Amount:      decimal.NewFromInt(amount),
			Direction:   domain.DirectionDebit,
			Date:        base.AddDate(0, 0, i*10),
			PostedBy:    "tester",
		})
		if err != nil {
			t.Fatalf("post %d: %v", i, err)
		}
	}

	statement, err := f.uc.GetMovements(context.Background(), usecase.GetMovementsInput{
		TenantID:    "acme",
		AccountCode: "1000",
		From:        base.AddDate(0, 0, 5),
		To:          base.AddDate(0, 0, 25),
	})
	if err != nil {
		t.Fatalf("get movements: %v", err)
	}

	if len(statement.Movements) != 2 {
		t.Fatalf("expected 2 movements in range, got %d", len(statement.Movements))
	}
	if !statement.OpeningBalance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected opening 100, got %s", statement.OpeningBalance)
	}
	if !statement.ClosingBalance.Equal(decimal.NewFromInt(175)) {
		t.Errorf("expected closing 175, got %s", statement.ClosingBalance)
	}
}

func TestGetMovements_BoundaryDatedMovement(t *testing.T) {
	f := newAccountFixture()
	f.initAccount(t, "1000", domain.AccountTypeAsset)

	from := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	// One movement before the range, one dated exactly at From, one inside.
	for i, posting := range []struct {
		amount int64
		date   time.Time
	}{
		{100, from.AddDate(0, 0, -5)},
		{40, from},
		{10, from.AddDate(0, 0, 3)},
	} {
		_, err := f.uc.PostTransaction(context.Background(), usecase.PostTransactionInput{
			TenantID:    "acme",
			AccountCode: "1000",
			Amount:      decimal.NewFromInt(posting.amount),
			Direction:   domain.DirectionDebit,
			Date:        posting.date,
			PostedBy:    "tester",
		})
		if err != nil {
			t.Fatalf("post %d: %v", i, err)
		}
	}

	statement, err := f.uc.GetMovements(context.Background(), usecase.GetMovementsInput{
		TenantID:    "acme",
		AccountCode: "1000",
		From:        from,
		To:          from.AddDate(0, 0, 10),
	})
	if err != nil {
		t.Fatalf("get movements: %v", err)
	}

	// The boundary movement belongs to the listed range, not the opening
	// balance; counting it in both would overstate the closing balance.
	if len(statement.Movements) != 2 {
		t.Fatalf("expected 2 movements in range, got %d", len(statement.Movements))
	}
	if !statement.OpeningBalance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected opening 100, got %s", statement.OpeningBalance)
	}
	if !statement.ClosingBalance.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected closing 150, got %s", statement.ClosingBalance)
	}
}

func TestPostTransaction_StateConflictSurfaces(t *testing.T) {
	f := newAccountFixture()
	f.initAccount(t, "1000", domain.AccountTypeAsset)

	f.store.SaveFunc = func(ctx context.Context, tx usecase.Transaction, key actor.Key, data []byte, newVersion int64) error {
		return usecase.ErrStateConflict
	}

	_, err := f.uc.PostTransaction(context.Background(), usecase.PostTransactionInput{
		TenantID:    "acme",
		AccountCode: "1000",
		Amount:      decimal.NewFromInt(10),
		Direction:   domain.DirectionDebit,
		Date:        time.Now().UTC(),
	})
	if !errors.Is(err, usecase.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict, got %v", err)
	}
}
