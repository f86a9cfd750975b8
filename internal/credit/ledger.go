package credit

import (
	"context"
	"fmt"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// Ledger is the only component allowed to mutate credit balances. Every
// mutation runs as one atomic statement that locks the balance row, applies
// the signed delta, and appends exactly one transaction entry.
type Ledger struct {
	sql infra.SQLExecutor
}

func NewLedger(sql infra.SQLExecutor) *Ledger {
	return &Ledger{sql: sql}
}

// Apply debits or credits a user's balance by the given magnitude and records
// a ledger entry of the given type. It returns the new balance. A delta that
// would drive the balance negative returns domain.ErrInsufficientCredits and
// leaves state untouched.
func (l *Ledger) Apply(ctx context.Context, userID string, amount int, txType domain.CreditTransactionType) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}
	if !txType.Valid() {
		return 0, fmt.Errorf("%w: unknown transaction type %q", domain.ErrInvalidInput, txType)
	}
	delta := txType.SignedDelta(amount)
	if delta > 0 {
		// First credit for a user creates the balance row.
		if _, err := l.sql.Exec(ctx, sqlinline.QEnsureCreditBalance, userID); err != nil {
			return 0, fmt.Errorf("ensure balance row: %w", err)
		}
	}
	row := l.sql.QueryRow(ctx, sqlinline.QApplyCreditDelta, userID, delta, amount, string(txType))
	var balance int
	if err := row.Scan(&balance); err != nil {
		if infra.IsNoRows(err) {
			return 0, domain.ErrInsufficientCredits
		}
		return 0, fmt.Errorf("apply credit delta: %w", err)
	}
	return balance, nil
}

// Balance returns the user's current balance; users without a balance row
// simply have zero credits.
func (l *Ledger) Balance(ctx context.Context, userID string) (int, error) {
	row := l.sql.QueryRow(ctx, sqlinline.QSelectCreditBalance, userID)
	var balance int
	if err := row.Scan(&balance); err != nil {
		if infra.IsNoRows(err) {
			return 0, nil
		}
		return 0, err
	}
	return balance, nil
}

// RecentTransactions lists the newest ledger entries for a user.
func (l *Ledger) RecentTransactions(ctx context.Context, userID string, limit int) ([]domain.CreditTransaction, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.sql.Query(ctx, sqlinline.QListCreditTransactions, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.CreditTransaction
	for rows.Next() {
		tx := domain.CreditTransaction{UserID: userID}
		var txType string
		if err := rows.Scan(&tx.ID, &tx.Amount, &txType, &tx.CreatedAt); err != nil {
			return nil, err
		}
		tx.Type = domain.CreditTransactionType(txType)
		items = append(items, tx)
	}
	return items, rows.Err()
}
