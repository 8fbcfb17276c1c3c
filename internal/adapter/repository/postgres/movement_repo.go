package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

// MovementRepository implements usecase.MovementRepository. Movements are
// append-only; corrections happen through reversal entries, never updates.
type MovementRepository struct {
	pool *pgxpool.Pool
}

// NewMovementRepository creates a new MovementRepository.
func NewMovementRepository(pool *pgxpool.Pool) *MovementRepository {
	return &MovementRepository{pool: pool}
}

// Create inserts a movement, joining tx when one is given.
func (r *MovementRepository) Create(ctx context.Context, tx usecase.Transaction, m *domain.Movement) error {
	q := querierFor(r.pool, tx)

	query := `
		INSERT INTO movements (
			id, tenant_id, account_code, transaction_id, direction,
			amount, signed_amount, previous_balance, current_balance,
			date, description, reference, posted_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := q.Exec(ctx, query,
		m.ID,
		m.TenantID,
		m.AccountCode,
		m.TransactionID,
		string(m.Direction),
		decimalToNumeric(m.Amount),
		decimalToNumeric(m.SignedAmount),
		decimalToNumeric(m.PreviousBalance),
		decimalToNumeric(m.CurrentBalance),
		timeToPgTimestamptz(m.Date),
		m.Description,
		m.Reference,
		m.PostedBy,
		timeToPgTimestamptz(m.CreatedAt),
	)

	return err
}

// GetByTransactionID retrieves the movement recorded for a transaction id
// on one account.
func (r *MovementRepository) GetByTransactionID(ctx context.Context, tenantID, accountCode, transactionID string) (*domain.Movement, error) {
	query := movementSelect + `
		WHERE tenant_id = $1 AND account_code = $2 AND transaction_id = $3
	`

	row := r.pool.QueryRow(ctx, query, tenantID, accountCode, transactionID)

	m, err := scanMovement(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: transaction %s", domain.ErrMovementNotFound, transactionID)
	}
	if err != nil {
		return nil, err
	}

	return m, nil
}

// ListByAccount retrieves an account's movements within a date range,
// oldest first.
func (r *MovementRepository) ListByAccount(ctx context.Context, tenantID, accountCode string, from, to time.Time) ([]*domain.Movement, error) {
	query := movementSelect + `
		WHERE tenant_id = $1 AND account_code = $2 AND date >= $3 AND date <= $4
		ORDER BY date, created_at
	`

	rows, err := r.pool.Query(ctx, query, tenantID, accountCode,
		timeToPgTimestamptz(from), timeToPgTimestamptz(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []*domain.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}

	return movements, rows.Err()
}

// BalanceAsOf sums the signed amounts of every movement up to and including
// the given instant.
func (r *MovementRepository) BalanceAsOf(ctx context.Context, tenantID, accountCode string, at time.Time) (decimal.Decimal, error) {
	return r.sumSigned(ctx, tenantID, accountCode, at, "date <= $3")
}

// BalanceBefore sums the signed amounts of every movement strictly before
// the given instant. A movement dated exactly at the instant is excluded, so
// a statement opening at that instant lists it instead of absorbing it.
func (r *MovementRepository) BalanceBefore(ctx context.Context, tenantID, accountCode string, at time.Time) (decimal.Decimal, error) {
	return r.sumSigned(ctx, tenantID, accountCode, at, "date < $3")
}

func (r *MovementRepository) sumSigned(ctx context.Context, tenantID, accountCode string, at time.Time, dateCond string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(signed_amount), 0)
		FROM movements
		WHERE tenant_id = $1 AND account_code = $2 AND ` + dateCond

	var total pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query, tenantID, accountCode, timeToPgTimestamptz(at)).Scan(&total); err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(total), nil
}

const movementSelect = `
	SELECT id, tenant_id, account_code, transaction_id, direction,
	       amount, signed_amount, previous_balance, current_balance,
	       date, description, reference, posted_by, created_at
	FROM movements
`

func scanMovement(row pgx.Row) (*domain.Movement, error) {
	var (
		m         domain.Movement
		direction string

		amount, signedAmount, previous, current pgtype.Numeric
		date, createdAt                         pgtype.Timestamptz
	)

	err := row.Scan(
		&m.ID,
		&m.TenantID,
		&m.AccountCode,
		&m.TransactionID,
		&direction,
		&amount,
		&signedAmount,
		&previous,
		&current,
		&date,
		&m.Description,
		&m.Reference,
		&m.PostedBy,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	m.Direction = domain.Direction(direction)
	m.Amount = numericToDecimal(amount)
	m.SignedAmount = numericToDecimal(signedAmount)
	m.PreviousBalance = numericToDecimal(previous)
	m.CurrentBalance = numericToDecimal(current)
	m.Date = date.Time
	m.CreatedAt = createdAt.Time

	return &m, nil
}
