package credit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"server/internal/domain"
	"server/internal/sqlinline"
)

func TestApplyPurchaseThenUsage(t *testing.T) {
	ctx := context.Background()
	store := newLedgerStore()
	ledger := NewLedger(store)

	balance, err := ledger.Apply(ctx, "user-1", 100, domain.TransactionPurchase)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if balance != 100 {
		t.Fatalf("balance after purchase = %d, want 100", balance)
	}

	balance, err = ledger.Apply(ctx, "user-1", 2, domain.TransactionUsage)
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if balance != 98 {
		t.Fatalf("balance after usage = %d, want 98", balance)
	}

	txs := store.transactions["user-1"]
	if len(txs) != 2 {
		t.Fatalf("transaction count = %d, want 2", len(txs))
	}
	if txs[0].amount != 100 || txs[0].txType != "PURCHASE" {
		t.Fatalf("first transaction = %+v", txs[0])
	}
	if txs[1].amount != 2 || txs[1].txType != "USAGE" {
		t.Fatalf("second transaction = %+v", txs[1])
	}
}

func TestApplyOverdrawLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	store := newLedgerStore()
	ledger := NewLedger(store)

	if _, err := ledger.Apply(ctx, "user-1", 1, domain.TransactionPurchase); err != nil {
		t.Fatalf("seed purchase: %v", err)
	}

	_, err := ledger.Apply(ctx, "user-1", 2, domain.TransactionUsage)
	if !errors.Is(err, domain.ErrInsufficientCredits) {
		t.Fatalf("err = %v, want ErrInsufficientCredits", err)
	}

	balance, err := ledger.Balance(ctx, "user-1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 1 {
		t.Fatalf("balance = %d, want 1", balance)
	}
	if got := len(store.transactions["user-1"]); got != 1 {
		t.Fatalf("transaction count = %d, want 1 (no USAGE entry recorded)", got)
	}
}

func TestApplyUsageForUnknownUserFails(t *testing.T) {
	ledger := NewLedger(newLedgerStore())
	_, err := ledger.Apply(context.Background(), "ghost", 1, domain.TransactionUsage)
	if !errors.Is(err, domain.ErrInsufficientCredits) {
		t.Fatalf("err = %v, want ErrInsufficientCredits", err)
	}
}

func TestApplyRejectsInvalidArguments(t *testing.T) {
	ledger := NewLedger(newLedgerStore())
	if _, err := ledger.Apply(context.Background(), "user-1", 0, domain.TransactionUsage); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("zero amount err = %v, want ErrInvalidInput", err)
	}
	if _, err := ledger.Apply(context.Background(), "user-1", 5, domain.CreditTransactionType("BONUS")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("unknown type err = %v, want ErrInvalidInput", err)
	}
}

// With balance B and N concurrent debits of cost C, exactly min(N, B/C)
// succeed and the balance never goes negative.
func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	store := newLedgerStore()
	ledger := NewLedger(store)

	const initial, cost, attempts = 10, 3, 8
	if _, err := ledger.Apply(ctx, "user-1", initial, domain.TransactionPurchase); err != nil {
		t.Fatalf("seed purchase: %v", err)
	}

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Apply(ctx, "user-1", cost, domain.TransactionUsage)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientCredits):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if want := initial / cost; succeeded != want {
		t.Fatalf("successful debits = %d, want %d", succeeded, want)
	}

	balance, err := ledger.Balance(ctx, "user-1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if want := initial % cost; balance != want {
		t.Fatalf("final balance = %d, want %d", balance, want)
	}
	if balance < 0 {
		t.Fatalf("balance went negative: %d", balance)
	}
}

func TestRecentTransactionsOrdering(t *testing.T) {
	ctx := context.Background()
	store := newLedgerStore()
	ledger := NewLedger(store)

	if _, err := ledger.Apply(ctx, "user-1", 50, domain.TransactionPurchase); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := ledger.Apply(ctx, "user-1", 4, domain.TransactionUsage); err != nil {
		t.Fatalf("usage: %v", err)
	}

	txs, err := ledger.RecentTransactions(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("recent transactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("transaction count = %d, want 2", len(txs))
	}
	if txs[0].Type != domain.TransactionUsage || txs[0].Amount != 4 {
		t.Fatalf("newest transaction = %+v", txs[0])
	}
	if txs[1].Type != domain.TransactionPurchase || txs[1].Amount != 50 {
		t.Fatalf("oldest transaction = %+v", txs[1])
	}
}

// ledgerStore is an in-memory SQLExecutor speaking only the ledger's queries.
// Its mutex stands in for the row lock the real statement takes.
type ledgerStore struct {
	mu           sync.Mutex
	balances     map[string]int
	transactions map[string][]storedTransaction
	seq          int
}

type storedTransaction struct {
	id        string
	amount    int
	txType    string
	createdAt time.Time
}

func newLedgerStore() *ledgerStore {
	return &ledgerStore{
		balances:     make(map[string]int),
		transactions: make(map[string][]storedTransaction),
	}
}

func (s *ledgerStore) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	if query != sqlinline.QEnsureCreditBalance {
		return pgconn.CommandTag{}, fmt.Errorf("unexpected exec query: %s", query)
	}
	userID, _ := args[0].(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.balances[userID]; !ok {
		s.balances[userID] = 0
	}
	return pgconn.CommandTag{}, nil
}

func (s *ledgerStore) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch query {
	case sqlinline.QApplyCreditDelta:
		userID, _ := args[0].(string)
		delta, _ := args[1].(int)
		amount, _ := args[2].(int)
		txType, _ := args[3].(string)
		balance, ok := s.balances[userID]
		if !ok || balance+delta < 0 {
			return scanRow{err: pgx.ErrNoRows}
		}
		s.balances[userID] = balance + delta
		s.seq++
		s.transactions[userID] = append(s.transactions[userID], storedTransaction{
			id:        fmt.Sprintf("tx-%d", s.seq),
			amount:    amount,
			txType:    txType,
			createdAt: time.Now(),
		})
		newBalance := s.balances[userID]
		return scanRow{scan: func(dest ...any) error {
			if v, ok := dest[0].(*int); ok {
				*v = newBalance
				return nil
			}
			return fmt.Errorf("balance dest must be *int")
		}}
	case sqlinline.QSelectCreditBalance:
		userID, _ := args[0].(string)
		balance, ok := s.balances[userID]
		if !ok {
			return scanRow{err: pgx.ErrNoRows}
		}
		return scanRow{scan: func(dest ...any) error {
			if v, ok := dest[0].(*int); ok {
				*v = balance
				return nil
			}
			return fmt.Errorf("balance dest must be *int")
		}}
	default:
		return scanRow{err: fmt.Errorf("unexpected query: %s", query)}
	}
}

func (s *ledgerStore) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	if query != sqlinline.QListCreditTransactions {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	userID, _ := args[0].(string)
	limit, _ := args[1].(int)
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.transactions[userID]
	// Newest first, as the real query orders.
	items := make([]storedTransaction, 0, len(stored))
	for i := len(stored) - 1; i >= 0 && len(items) < limit; i-- {
		items = append(items, stored[i])
	}
	return &transactionRows{items: items}, nil
}

type scanRow struct {
	err  error
	scan func(dest ...any) error
}

func (r scanRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return r.scan(dest...)
}

type rowsBase struct{}

func (rowsBase) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (rowsBase) Conn() *pgx.Conn                              { return nil }
func (rowsBase) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (rowsBase) Values() ([]any, error)                       { return nil, fmt.Errorf("not supported") }
func (rowsBase) RawValues() [][]byte                          { return nil }

type transactionRows struct {
	rowsBase
	items []storedTransaction
	idx   int
}

func (r *transactionRows) Next() bool {
	if r.idx >= len(r.items) {
		return false
	}
	r.idx++
	return true
}

func (r *transactionRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.items) {
		return pgx.ErrNoRows
	}
	item := r.items[r.idx-1]
	if len(dest) != 4 {
		return fmt.Errorf("unexpected scan args: %d", len(dest))
	}
	if v, ok := dest[0].(*string); ok {
		*v = item.id
	}
	if v, ok := dest[1].(*int); ok {
		*v = item.amount
	}
	if v, ok := dest[2].(*string); ok {
		*v = item.txType
	}
	if v, ok := dest[3].(*time.Time); ok {
		*v = item.createdAt
	}
	return nil
}

func (r *transactionRows) Err() error { return nil }
func (r *transactionRows) Close()     {}
