package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/erpledger/internal/actor"
	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/infrastructure/metrics"
)

// managerID is the fixed aggregate id of the per-tenant numbering singleton.
const managerID = "singleton"

// managerState is the durable state of one tenant's numbering service:
// monotonic counters, persisted before any number is handed out. A counter
// value that is persisted but never used leaves a gap; a duplicate number is
// impossible.
type managerState struct {
	TenantID         string           `json:"tenantId"`
	EntrySequences   map[string]int64 `json:"entrySequences"`   // by yyyyMM
	AccountSequences map[string]int64 `json:"accountSequences"` // by type prefix
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// NumberingUseCase is the per-tenant accounting manager: a serialized
// counter service issuing unique journal entry numbers and account codes.
type NumberingUseCase struct {
	system  *actor.System
	store   StateStore
	metrics *metrics.Metrics
}

// NewNumberingUseCase creates a new NumberingUseCase.
func NewNumberingUseCase(system *actor.System, store StateStore, m *metrics.Metrics) *NumberingUseCase {
	return &NumberingUseCase{system: system, store: store, metrics: m}
}

func managerKey(tenantID string) actor.Key {
	return actor.Key{TenantID: tenantID, Kind: actor.KindManager, ID: managerID}
}

// GenerateJournalEntryNumber issues the next entry number for the month of
// date, formatted JE-yyyyMM-seq.
func (uc *NumberingUseCase) GenerateJournalEntryNumber(ctx context.Context, tenantID string, date time.Time) (string, error) {
	if err := domain.ValidateTenantID(tenantID); err != nil {
		return "", err
	}

	month := date.UTC().Format("200601")

	var number string

	err := uc.system.Do(ctx, managerKey(tenantID), func(h *actor.Handle) error {
		state, err := uc.nextState(ctx, h, tenantID)
		if err != nil {
			return err
		}

		seq := state.EntrySequences[month] + 1
		state.EntrySequences[month] = seq
		number = fmt.Sprintf("JE-%s-%06d", month, seq)

		return uc.save(ctx, h, state)
	})
	if err != nil {
		return "", err
	}

	if uc.metrics != nil {
		uc.metrics.NumbersIssued.WithLabelValues("journal_entry").Inc()
	}

	return number, nil
}

// GenerateAccountCode issues the next account code for the account type's
// code class (1xxx assets, 2xxx liabilities, and so on; contra types share
// their base class).
func (uc *NumberingUseCase) GenerateAccountCode(ctx context.Context, tenantID string, accountType domain.AccountType) (string, error) {
	if err := domain.ValidateTenantID(tenantID); err != nil {
		return "", err
	}

	prefix, err := accountCodePrefix(accountType)
	if err != nil {
		return "", err
	}

	var code string

	err = uc.system.Do(ctx, managerKey(tenantID), func(h *actor.Handle) error {
		state, err := uc.nextState(ctx, h, tenantID)
		if err != nil {
			return err
		}

		seq := state.AccountSequences[prefix] + 1
		state.AccountSequences[prefix] = seq
		code = fmt.Sprintf("%s%04d", prefix, seq)

		return uc.save(ctx, h, state)
	})
	if err != nil {
		return "", err
	}

	if uc.metrics != nil {
		uc.metrics.NumbersIssued.WithLabelValues("account_code").Inc()
	}

	return code, nil
}

// nextState returns a mutable copy of the manager state, creating a fresh
// one on first use.
func (uc *NumberingUseCase) nextState(ctx context.Context, h *actor.Handle, tenantID string) (*managerState, error) {
	current, err := loadState[managerState](ctx, uc.store, h)
	if err != nil {
		return nil, err
	}

	next := &managerState{
		TenantID:         tenantID,
		EntrySequences:   make(map[string]int64),
		AccountSequences: make(map[string]int64),
	}
	if current != nil {
		for k, v := range current.EntrySequences {
			next.EntrySequences[k] = v
		}
		for k, v := range current.AccountSequences {
			next.AccountSequences[k] = v
		}
	}

	return next, nil
}

func (uc *NumberingUseCase) save(ctx context.Context, h *actor.Handle, state *managerState) error {
	state.UpdatedAt = time.Now().UTC()

	data, err := marshalState(state)
	if err != nil {
		return err
	}

	newVersion := h.Version() + 1
	if err := uc.store.Save(ctx, nil, h.Key(), data, newVersion); err != nil {
		return err
	}

	h.SetState(state, newVersion)

	return nil
}

func accountCodePrefix(t domain.AccountType) (string, error) {
	switch t {
	case domain.AccountTypeAsset, domain.AccountTypeContraAsset:
		return "1", nil
	case domain.AccountTypeLiability, domain.AccountTypeContraLiability:
		return "2", nil
	case domain.AccountTypeEquity, domain.AccountTypeContraEquity:
		return "3", nil
	case domain.AccountTypeRevenue, domain.AccountTypeContraRevenue:
		return "4", nil
	case domain.AccountTypeExpense, domain.AccountTypeContraExpense:
		return "5", nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidAccountType, t)
	}
}
