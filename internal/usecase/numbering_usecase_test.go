package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/iho/erpledger/internal/actor"
	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
	"github.com/iho/erpledger/internal/usecase/mocks"
)

func newNumberingUseCase() *usecase.NumberingUseCase {
	return usecase.NewNumberingUseCase(actor.NewSystem(), mocks.NewMockStateStore(), nil)
}

func TestGenerateJournalEntryNumber(t *testing.T) {
	uc := newNumberingUseCase()
	march := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	first, err := uc.GenerateJournalEntryNumber(context.Background(), "acme", march)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != "JE-202603-000001" {
		t.Errorf("expected JE-202603-000001, got %s", first)
	}

	second, err := uc.GenerateJournalEntryNumber(context.Background(), "acme", march)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != "JE-202603-000002" {
		t.Errorf("expected JE-202603-000002, got %s", second)
	}

	// A different month starts its own sequence.
	april, err := uc.GenerateJournalEntryNumber(context.Background(), "acme", march.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if april != "JE-202604-000001" {
		t.Errorf("expected JE-202604-000001, got %s", april)
	}
}

func TestGenerateJournalEntryNumber_PerTenantSequences(t *testing.T) {
	uc := newNumberingUseCase()
	date := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	if _, err := uc.GenerateJournalEntryNumber(context.Background(), "acme", date); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	number, err := uc.GenerateJournalEntryNumber(context.Background(), "globex", date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if number != "JE-202603-000001" {
		t.Errorf("expected globex to start at 000001, got %s", number)
	}
}

func TestGenerateJournalEntryNumber_UniqueUnderConcurrency(t *testing.T) {
	uc := newNumberingUseCase()
	date := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	const callers = 30

	var mu sync.Mutex
	numbers := make(map[string]bool)

	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			number, err := uc.GenerateJournalEntryNumber(context.Background(), "acme", date)
			if err != nil {
				t.Errorf("generate: %v", err)
				return
			}
			mu.Lock()
			numbers[number] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(numbers) != callers {
		t.Errorf("expected %d distinct numbers, got %d", callers, len(numbers))
	}
}

func TestGenerateAccountCode(t *testing.T) {
	uc := newNumberingUseCase()

	tests := []struct {
		accountType domain.AccountType
		expected    string
	}{
		{domain.AccountTypeAsset, "10001"},
		{domain.AccountTypeContraAsset, "10002"}, // contra shares the base class
		{domain.AccountTypeLiability, "20001"},
		{domain.AccountTypeEquity, "30001"},
		{domain.AccountTypeRevenue, "40001"},
		{domain.AccountTypeExpense, "50001"},
	}

	for _, tt := range tests {
		t.Run(string(tt.accountType), func(t *testing.T) {
			code, err := uc.GenerateAccountCode(context.Background(), "acme", tt.accountType)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if code != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, code)
			}
			if err := domain.ValidateAccountCode(code); err != nil {
				t.Errorf("generated code %q is not valid: %v", code, err)
			}
		})
	}
}

func TestGenerateAccountCode_InvalidType(t *testing.T) {
	uc := newNumberingUseCase()

	_, err := uc.GenerateAccountCode(context.Background(), "acme", "WEIRD")
	if !errors.Is(err, domain.ErrInvalidAccountType) {
		t.Fatalf("expected ErrInvalidAccountType, got %v", err)
	}
}

func TestNumbering_SequenceSurvivesEviction(t *testing.T) {
	system := actor.NewSystem()
	store := mocks.NewMockStateStore()
	uc := usecase.NewNumberingUseCase(system, store, nil)

	date := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		number, err := uc.GenerateJournalEntryNumber(context.Background(), "acme", date)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if want := fmt.Sprintf("JE-202603-%06d", i); number != want {
			t.Errorf("expected %s, got %s", want, number)
		}
	}

	// Drop the cached handle; the next number must continue from the
	// persisted counter, not restart.
	system.Evict(actor.Key{TenantID: "acme", Kind: actor.KindManager, ID: "singleton"})

	number, err := uc.GenerateJournalEntryNumber(context.Background(), "acme", date)
	if err != nil {
		t.Fatalf("generate after eviction: %v", err)
	}
	if number != "JE-202603-000004" {
		t.Errorf("expected JE-202603-000004, got %s", number)
	}
}
