package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newPendingBill(t *testing.T, l Ledger, amount int64) Bill {
	t.Helper()
	bill := Bill{
		ID:         "bill-1",
		ShopID:     "shop-1",
		CustomerID: "customer-1",
		Amount:     amount,
		Status:     BillPending,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := l.CreateBill(context.Background(), bill); err != nil {
		t.Fatalf("create bill: %v", err)
	}
	return bill
}

func TestInMemoryLedger_SettleBillConservesBalance(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if err := l.EnsureAccount(ctx, "wallet:payer"); err != nil {
		t.Fatalf("ensure payer account: %v", err)
	}
	if err := l.EnsureAccount(ctx, "wallet:payee"); err != nil {
		t.Fatalf("ensure payee account: %v", err)
	}
	SeedBalance(l, "wallet:payer", 5_000)

	bill := newPendingBill(t, l, 3_000)

	res, err := l.SettleBillFromWallet(ctx, bill.ID, "wallet:payer", "wallet:payee")
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}

	if res.FromBalance != 2_000 {
		t.Fatalf("expected payer balance 2000, got %d", res.FromBalance)
	}
	if res.ToBalance != 3_000 {
		t.Fatalf("expected payee balance 3000, got %d", res.ToBalance)
	}
	if res.Transfer.BillID != bill.ID || res.Transfer.Amount != 3_000 {
		t.Fatalf("unexpected transfer: %+v", res.Transfer)
	}

	impl := l.(*inMemoryLedger)
	if total := impl.balances["wallet:payer"] + impl.balances["wallet:payee"]; total != 5_000 {
		t.Fatalf("ledger not balanced, total=%d", total)
	}

	settled, err := l.Bill(ctx, bill.ID)
	if err != nil {
		t.Fatalf("load bill: %v", err)
	}
	if settled.Status != BillSettledByBiometric {
		t.Fatalf("expected SETTLED_BY_BIOMETRIC, got %s", settled.Status)
	}
}

func TestInMemoryLedger_SettleBillInsufficientFunds(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:payer")
	l.EnsureAccount(ctx, "wallet:payee")
	SeedBalance(l, "wallet:payer", 2_999)

	bill := newPendingBill(t, l, 3_000)

	if _, err := l.SettleBillFromWallet(ctx, bill.ID, "wallet:payer", "wallet:payee"); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	// No partial effect: balances and bill state unchanged.
	if bal, _ := l.Balance(ctx, "wallet:payer"); bal != 2_999 {
		t.Fatalf("payer balance mutated: %d", bal)
	}
	if bal, _ := l.Balance(ctx, "wallet:payee"); bal != 0 {
		t.Fatalf("payee balance mutated: %d", bal)
	}
	after, _ := l.Bill(ctx, bill.ID)
	if after.Status != BillPending {
		t.Fatalf("bill left PENDING state: %s", after.Status)
	}
}

func TestInMemoryLedger_SettleBillAtMostOnce(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:payer")
	l.EnsureAccount(ctx, "wallet:payee")
	SeedBalance(l, "wallet:payer", 100_000)

	bill := newPendingBill(t, l, 1_000)

	const attempts = 16
	var succeeded, notPending atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.SettleBillFromWallet(ctx, bill.ID, "wallet:payer", "wallet:payee")
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, ErrBillNotPending):
				notPending.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded.Load() != 1 {
		t.Fatalf("expected exactly one successful settlement, got %d", succeeded.Load())
	}
	if notPending.Load() != attempts-1 {
		t.Fatalf("expected %d not-pending failures, got %d", attempts-1, notPending.Load())
	}

	transfers, err := l.TransfersForAccount(ctx, "wallet:payer")
	if err != nil {
		t.Fatalf("list transfers: %v", err)
	}
	if len(transfers) != 1 {
		t.Fatalf("expected exactly one transfer, got %d", len(transfers))
	}
	if bal, _ := l.Balance(ctx, "wallet:payer"); bal != 99_000 {
		t.Fatalf("payer debited more than once: %d", bal)
	}
}

func TestInMemoryLedger_CashSettlementLeavesBalancesAlone(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:payer")
	SeedBalance(l, "wallet:payer", 4_000)

	bill := newPendingBill(t, l, 1_000)

	settled, err := l.SettleBillCash(ctx, bill.ID)
	if err != nil {
		t.Fatalf("cash settle failed: %v", err)
	}
	if settled.Status != BillSettledByCash {
		t.Fatalf("expected SETTLED_BY_CASH, got %s", settled.Status)
	}
	if bal, _ := l.Balance(ctx, "wallet:payer"); bal != 4_000 {
		t.Fatalf("cash settlement touched a balance: %d", bal)
	}

	// Terminal states reject every further transition.
	if _, err := l.SettleBillCash(ctx, bill.ID); !errors.Is(err, ErrBillNotPending) {
		t.Fatalf("expected not pending, got %v", err)
	}
	if _, err := l.CancelBill(ctx, bill.ID); !errors.Is(err, ErrBillNotPending) {
		t.Fatalf("expected not pending, got %v", err)
	}
	if _, err := l.SettleBillFromWallet(ctx, bill.ID, "wallet:payer", "wallet:payer"); !errors.Is(err, ErrBillNotPending) {
		t.Fatalf("expected not pending, got %v", err)
	}
}

func TestInMemoryLedger_CancelBill(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	bill := newPendingBill(t, l, 1_000)

	cancelled, err := l.CancelBill(ctx, bill.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != BillCancelled {
		t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
	}

	if _, err := l.CancelBill(ctx, "missing"); !errors.Is(err, ErrBillNotFound) {
		t.Fatalf("expected bill not found, got %v", err)
	}
}

func TestInMemoryLedger_DepositIdempotent(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:a")
	l.EnsureAccount(ctx, CashFloatAccountCode)

	res, err := l.Deposit(ctx, "wallet:a", "client-1", 2_000)
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if res.Balance != 2_000 {
		t.Fatalf("expected balance 2000, got %d", res.Balance)
	}

	dup, err := l.Deposit(ctx, "wallet:a", "client-1", 2_000)
	if !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if dup.Balance != 2_000 {
		t.Fatalf("duplicate deposit applied twice: %d", dup.Balance)
	}
}

func TestInMemoryLedger_TransfersNewestFirst(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:payer")
	l.EnsureAccount(ctx, "wallet:payee")
	SeedBalance(l, "wallet:payer", 10_000)

	for _, id := range []string{"b1", "b2", "b3"} {
		bill := Bill{ID: id, ShopID: "shop", CustomerID: "cust", Amount: 100, Status: BillPending, CreatedAt: time.Now().UTC()}
		if err := l.CreateBill(ctx, bill); err != nil {
			t.Fatalf("create bill %s: %v", id, err)
		}
		if _, err := l.SettleBillFromWallet(ctx, id, "wallet:payer", "wallet:payee"); err != nil {
			t.Fatalf("settle %s: %v", id, err)
		}
	}

	transfers, err := l.TransfersForAccount(ctx, "wallet:payee")
	if err != nil {
		t.Fatalf("list transfers: %v", err)
	}
	if len(transfers) != 3 {
		t.Fatalf("expected 3 transfers, got %d", len(transfers))
	}
	if transfers[0].BillID != "b3" || transfers[2].BillID != "b1" {
		t.Fatalf("transfers not newest first: %+v", transfers)
	}
}
