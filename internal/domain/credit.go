package domain

import "time"

// CreditTransactionType enumerates ledger entry kinds.
type CreditTransactionType string

const (
	TransactionPurchase CreditTransactionType = "PURCHASE"
	TransactionUsage    CreditTransactionType = "USAGE"
	TransactionRefund   CreditTransactionType = "REFUND"
)

// Valid reports whether the type is a known ledger entry kind.
func (t CreditTransactionType) Valid() bool {
	switch t {
	case TransactionPurchase, TransactionUsage, TransactionRefund:
		return true
	}
	return false
}

// SignedDelta is the single place the stored magnitude becomes a signed
// balance change: PURCHASE and REFUND credit, USAGE debits. Every read and
// write site goes through this instead of re-deriving the sign.
func (t CreditTransactionType) SignedDelta(amount int) int {
	if t == TransactionUsage {
		return -amount
	}
	return amount
}

// CreditBalance is one user's spendable balance. Invariant: never negative;
// the only legal mutator is the ledger's atomic delta statement.
type CreditBalance struct {
	UserID    string
	Credits   int
	UpdatedAt time.Time
}

// CreditTransaction is one append-only ledger entry. Amount stores the
// magnitude only; the sign is implied by Type via SignedDelta.
type CreditTransaction struct {
	ID        string
	UserID    string
	Amount    int
	Type      CreditTransactionType
	CreatedAt time.Time
}
