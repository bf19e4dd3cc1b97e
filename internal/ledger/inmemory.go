package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type inMemoryLedger struct {
	mu        sync.RWMutex
	balances  map[string]int64
	deposits  map[string]DepositResult
	bills     map[string]Bill
	transfers []Transfer // append order; one entry per settled bill
}

// NewInMemory creates a concurrency-safe in-memory ledger used by tests and
// dev mode. The single mutex is the serialization guard for settlements.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		balances: make(map[string]int64),
		deposits: make(map[string]DepositResult),
		bills:    make(map[string]Bill),
	}
}

func (l *inMemoryLedger) EnsureAccount(_ context.Context, code string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.balances[code]; !exists {
		l.balances[code] = 0
	}
	return nil
}

func (l *inMemoryLedger) Balance(_ context.Context, code string) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	balance, exists := l.balances[code]
	if !exists {
		return 0, ErrAccountNotFound
	}
	return balance, nil
}

func (l *inMemoryLedger) Deposit(_ context.Context, code, clientTxID string, amount int64) (DepositResult, error) {
	if amount <= 0 {
		return DepositResult{}, ErrInsufficientFunds
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := "deposit:" + clientTxID
	if res, exists := l.deposits[key]; exists {
		return res, ErrDuplicateTransaction
	}

	balance, ok := l.balances[code]
	if !ok {
		return DepositResult{}, ErrAccountNotFound
	}

	balance += amount
	l.balances[code] = balance
	l.balances[CashFloatAccountCode] -= amount

	res := DepositResult{TransactionID: uuid.NewString(), Balance: balance}
	l.deposits[key] = res
	return res, nil
}

func (l *inMemoryLedger) CreateBill(_ context.Context, bill Bill) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bills[bill.ID] = bill
	return nil
}

func (l *inMemoryLedger) Bill(_ context.Context, id string) (Bill, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	bill, ok := l.bills[id]
	if !ok {
		return Bill{}, ErrBillNotFound
	}
	return bill, nil
}

func (l *inMemoryLedger) ListBills(_ context.Context) ([]Bill, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	bills := make([]Bill, 0, len(l.bills))
	for _, bill := range l.bills {
		bills = append(bills, bill)
	}
	sort.Slice(bills, func(i, j int) bool { return bills[i].CreatedAt.After(bills[j].CreatedAt) })
	return bills, nil
}

func (l *inMemoryLedger) SettleBillFromWallet(_ context.Context, billID, fromCode, toCode string) (SettlementResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bill, ok := l.bills[billID]
	if !ok {
		return SettlementResult{}, ErrBillNotFound
	}
	if bill.Status.Terminal() {
		return SettlementResult{}, ErrBillNotPending
	}

	fromBalance, ok := l.balances[fromCode]
	if !ok {
		return SettlementResult{}, ErrAccountNotFound
	}
	toBalance, ok := l.balances[toCode]
	if !ok {
		return SettlementResult{}, ErrAccountNotFound
	}
	if fromBalance < bill.Amount {
		return SettlementResult{}, ErrInsufficientFunds
	}

	now := time.Now().UTC()
	fromBalance -= bill.Amount
	toBalance += bill.Amount
	l.balances[fromCode] = fromBalance
	l.balances[toCode] = toBalance

	transfer := Transfer{
		ID:          uuid.NewString(),
		BillID:      bill.ID,
		FromAccount: fromCode,
		ToAccount:   toCode,
		Amount:      bill.Amount,
		CreatedAt:   now,
	}
	l.transfers = append(l.transfers, transfer)

	bill.Status = BillSettledByBiometric
	bill.UpdatedAt = now
	l.bills[billID] = bill

	return SettlementResult{Transfer: transfer, FromBalance: fromBalance, ToBalance: toBalance}, nil
}

func (l *inMemoryLedger) SettleBillCash(_ context.Context, billID string) (Bill, error) {
	return l.transition(billID, BillSettledByCash)
}

func (l *inMemoryLedger) CancelBill(_ context.Context, billID string) (Bill, error) {
	return l.transition(billID, BillCancelled)
}

func (l *inMemoryLedger) transition(billID string, next BillStatus) (Bill, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bill, ok := l.bills[billID]
	if !ok {
		return Bill{}, ErrBillNotFound
	}
	if bill.Status.Terminal() {
		return Bill{}, ErrBillNotPending
	}

	bill.Status = next
	bill.UpdatedAt = time.Now().UTC()
	l.bills[billID] = bill
	return bill, nil
}

func (l *inMemoryLedger) TransfersForAccount(_ context.Context, code string) ([]Transfer, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Transfer
	for i := len(l.transfers) - 1; i >= 0; i-- {
		t := l.transfers[i]
		if t.FromAccount == code || t.ToAccount == code {
			out = append(out, t)
		}
	}
	return out, nil
}

