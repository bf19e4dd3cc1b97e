package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInsufficientFunds occurs when the paying account lacks available
	// balance to cover a requested posting.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicateTransaction indicates the provided client transaction
	// identifier already exists and the operation should be treated as
	// idempotent.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrAccountNotFound indicates an unknown ledger account code.
	ErrAccountNotFound = errors.New("account not found")

	// ErrBillNotFound indicates an unknown bill identifier.
	ErrBillNotFound = errors.New("bill not found")

	// ErrBillNotPending indicates the bill already reached a terminal state
	// and cannot be settled or cancelled again.
	ErrBillNotPending = errors.New("bill is not pending")
)

// CashFloatAccountCode is the ledger account balancing cash deposits into wallets.
const CashFloatAccountCode = "float:cash"

// BillStatus is the settlement state of a bill.
type BillStatus string

const (
	// BillPending is the only state a bill can be settled or cancelled from.
	BillPending BillStatus = "PENDING"
	// BillSettledByBiometric marks a bill paid from the customer wallet after
	// a successful face authentication.
	BillSettledByBiometric BillStatus = "SETTLED_BY_BIOMETRIC"
	// BillSettledByCash marks a bill paid in cash outside the wallet system.
	BillSettledByCash BillStatus = "SETTLED_BY_CASH"
	// BillCancelled marks a bill withdrawn by the shop.
	BillCancelled BillStatus = "CANCELLED"
)

// Terminal reports whether the status permits no further transition.
func (s BillStatus) Terminal() bool { return s != BillPending }

// Bill is a payment request issued by a shop against a customer for a fixed
// amount in minor units.
type Bill struct {
	ID         string
	ShopID     string
	CustomerID string
	Amount     int64
	Status     BillStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Transfer is the immutable record of one completed movement of funds. It
// references exactly one bill, and a bill can have at most one transfer.
type Transfer struct {
	ID          string
	BillID      string
	FromAccount string
	ToAccount   string
	Amount      int64
	CreatedAt   time.Time
}

// SettlementResult captures the outcome of a wallet settlement posting.
type SettlementResult struct {
	Transfer    Transfer
	FromBalance int64
	ToBalance   int64
}

// DepositResult captures the outcome of a cash deposit into a wallet account.
type DepositResult struct {
	TransactionID string
	Balance       int64
}

// Ledger is the persistent store for accounts, bills and transfers. The
// multi-effect operations (SettleBillFromWallet in particular) are atomic:
// either every effect commits or none does, and concurrent attempts against
// the same bill are serialized so at most one transfer per bill ever exists.
type Ledger interface {
	EnsureAccount(ctx context.Context, code string) error
	Balance(ctx context.Context, code string) (int64, error)
	Deposit(ctx context.Context, code, clientTxID string, amount int64) (DepositResult, error)

	CreateBill(ctx context.Context, bill Bill) error
	Bill(ctx context.Context, id string) (Bill, error)
	ListBills(ctx context.Context) ([]Bill, error)

	// SettleBillFromWallet atomically re-checks the bill is pending, verifies
	// the paying account covers the bill amount, debits it, credits the payee
	// account, records the transfer and flips the bill to
	// SETTLED_BY_BIOMETRIC.
	SettleBillFromWallet(ctx context.Context, billID, fromCode, toCode string) (SettlementResult, error)
	SettleBillCash(ctx context.Context, billID string) (Bill, error)
	CancelBill(ctx context.Context, billID string) (Bill, error)

	// TransfersForAccount lists transfers touching the account, most recent first.
	TransfersForAccount(ctx context.Context, code string) ([]Transfer, error)
}
