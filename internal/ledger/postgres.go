package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger persists accounts, bills and transfers in PostgreSQL. The
// settlement path runs as a single transaction with row locks on the bill and
// both accounts, which is the serialization guard guaranteeing at most one
// transfer per bill.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// EnsureAccount guarantees an account exists for the provided code.
func (l *PostgresLedger) EnsureAccount(ctx context.Context, code string) error {
	_, err := l.db.Exec(ctx, `INSERT INTO accounts (id, code) VALUES ($1, $2)
        ON CONFLICT (code) DO NOTHING`, uuid.New(), code)
	return err
}

// Balance returns the summed entry balance for the specified account code.
func (l *PostgresLedger) Balance(ctx context.Context, code string) (int64, error) {
	const query = `
        SELECT COALESCE(SUM(e.amount), 0)
        FROM entries e
        INNER JOIN accounts a ON a.id = e.account_id
        WHERE a.code = $1`
	var balance int64
	if err := l.db.QueryRow(ctx, query, code).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, code)
		}
		return 0, err
	}
	return balance, nil
}

// Deposit credits the wallet account and debits the cash float, idempotent on
// the client transaction identifier.
func (l *PostgresLedger) Deposit(ctx context.Context, code, clientTxID string, amount int64) (DepositResult, error) {
	if amount <= 0 {
		return DepositResult{}, fmt.Errorf("amount must be positive")
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return DepositResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	walletAccountID, err := accountIDForCode(ctx, tx, code)
	if err != nil {
		return DepositResult{}, err
	}
	floatAccountID, err := accountIDForCode(ctx, tx, CashFloatAccountCode)
	if err != nil {
		return DepositResult{}, err
	}

	const existingQuery = `SELECT id FROM transactions WHERE client_tx_id = $1 AND kind = 'deposit'`
	var existingTxID uuid.UUID
	if err := tx.QueryRow(ctx, existingQuery, clientTxID).Scan(&existingTxID); err == nil {
		balance, balErr := balanceForAccount(ctx, tx, walletAccountID)
		if balErr != nil {
			return DepositResult{}, balErr
		}
		return DepositResult{TransactionID: existingTxID.String(), Balance: balance}, ErrDuplicateTransaction
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return DepositResult{}, err
	}

	txID := uuid.New()
	if _, err := tx.Exec(ctx, `INSERT INTO transactions (id, client_tx_id, kind, status) VALUES ($1, $2, 'deposit', 'completed')`, txID, clientTxID); err != nil {
		return DepositResult{}, err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO entries (id, transaction_id, account_id, amount) VALUES ($1, $2, $3, $4)`, uuid.New(), txID, walletAccountID, amount); err != nil {
		return DepositResult{}, err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO entries (id, transaction_id, account_id, amount) VALUES ($1, $2, $3, $4)`, uuid.New(), txID, floatAccountID, -amount); err != nil {
		return DepositResult{}, err
	}

	balance, err := balanceForAccount(ctx, tx, walletAccountID)
	if err != nil {
		return DepositResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return DepositResult{}, err
	}

	return DepositResult{TransactionID: txID.String(), Balance: balance}, nil
}

// CreateBill inserts a bill record.
func (l *PostgresLedger) CreateBill(ctx context.Context, bill Bill) error {
	_, err := l.db.Exec(ctx, `INSERT INTO bills (id, shop_id, customer_id, amount, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		bill.ID, bill.ShopID, bill.CustomerID, bill.Amount, string(bill.Status), bill.CreatedAt.UTC(), bill.UpdatedAt.UTC())
	return err
}

// Bill fetches a bill by identifier.
func (l *PostgresLedger) Bill(ctx context.Context, id string) (Bill, error) {
	row := l.db.QueryRow(ctx, `SELECT id, shop_id, customer_id, amount, status, created_at, updated_at
        FROM bills WHERE id = $1`, id)
	return scanBill(row)
}

// ListBills returns every bill, most recent first.
func (l *PostgresLedger) ListBills(ctx context.Context) ([]Bill, error) {
	rows, err := l.db.Query(ctx, `SELECT id, shop_id, customer_id, amount, status, created_at, updated_at
        FROM bills ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}
	return bills, rows.Err()
}

// SettleBillFromWallet performs the four settlement effects in one transaction:
// pending re-check, balance debit, balance credit plus transfer record, and the
// bill status transition.
func (l *PostgresLedger) SettleBillFromWallet(ctx context.Context, billID, fromCode, toCode string) (SettlementResult, error) {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return SettlementResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	bill, err := billForUpdate(ctx, tx, billID)
	if err != nil {
		return SettlementResult{}, err
	}
	if bill.Status.Terminal() {
		return SettlementResult{}, ErrBillNotPending
	}

	fromAccountID, err := accountIDForCode(ctx, tx, fromCode)
	if err != nil {
		return SettlementResult{}, err
	}
	toAccountID, err := accountIDForCode(ctx, tx, toCode)
	if err != nil {
		return SettlementResult{}, err
	}

	fromBalance, err := balanceForAccount(ctx, tx, fromAccountID)
	if err != nil {
		return SettlementResult{}, err
	}
	if fromBalance < bill.Amount {
		return SettlementResult{}, ErrInsufficientFunds
	}
	toBalance, err := balanceForAccount(ctx, tx, toAccountID)
	if err != nil {
		return SettlementResult{}, err
	}

	now := time.Now().UTC()
	txID := uuid.New()
	if _, err := tx.Exec(ctx, `INSERT INTO transactions (id, client_tx_id, kind, status) VALUES ($1, $2, 'bill_settlement', 'completed')`, txID, bill.ID); err != nil {
		return SettlementResult{}, err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO entries (id, transaction_id, account_id, amount) VALUES ($1, $2, $3, $4)`, uuid.New(), txID, fromAccountID, -bill.Amount); err != nil {
		return SettlementResult{}, err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO entries (id, transaction_id, account_id, amount) VALUES ($1, $2, $3, $4)`, uuid.New(), txID, toAccountID, bill.Amount); err != nil {
		return SettlementResult{}, err
	}

	// transfers.bill_id carries a UNIQUE constraint, the database-level
	// backstop for the one-transfer-per-bill invariant.
	transferID := uuid.New()
	if _, err := tx.Exec(ctx, `INSERT INTO transfers (id, bill_id, from_account_id, to_account_id, amount, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`, transferID, bill.ID, fromAccountID, toAccountID, bill.Amount, now); err != nil {
		return SettlementResult{}, err
	}

	if _, err := tx.Exec(ctx, `UPDATE bills SET status = $1, updated_at = $2 WHERE id = $3`,
		string(BillSettledByBiometric), now, bill.ID); err != nil {
		return SettlementResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return SettlementResult{}, err
	}

	transfer := Transfer{
		ID:          transferID.String(),
		BillID:      bill.ID,
		FromAccount: fromCode,
		ToAccount:   toCode,
		Amount:      bill.Amount,
		CreatedAt:   now,
	}
	return SettlementResult{
		Transfer:    transfer,
		FromBalance: fromBalance - bill.Amount,
		ToBalance:   toBalance + bill.Amount,
	}, nil
}

// SettleBillCash transitions a pending bill to SETTLED_BY_CASH without
// touching any balance.
func (l *PostgresLedger) SettleBillCash(ctx context.Context, billID string) (Bill, error) {
	return l.transition(ctx, billID, BillSettledByCash)
}

// CancelBill transitions a pending bill to CANCELLED.
func (l *PostgresLedger) CancelBill(ctx context.Context, billID string) (Bill, error) {
	return l.transition(ctx, billID, BillCancelled)
}

func (l *PostgresLedger) transition(ctx context.Context, billID string, next BillStatus) (Bill, error) {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Bill{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	bill, err := billForUpdate(ctx, tx, billID)
	if err != nil {
		return Bill{}, err
	}
	if bill.Status.Terminal() {
		return Bill{}, ErrBillNotPending
	}

	now := time.Now().UTC()
	if _, err := tx.Exec(ctx, `UPDATE bills SET status = $1, updated_at = $2 WHERE id = $3`,
		string(next), now, bill.ID); err != nil {
		return Bill{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Bill{}, err
	}

	bill.Status = next
	bill.UpdatedAt = now
	return bill, nil
}

// TransfersForAccount lists transfers touching the account code, most recent first.
func (l *PostgresLedger) TransfersForAccount(ctx context.Context, code string) ([]Transfer, error) {
	const query = `
        SELECT t.id, t.bill_id, fa.code, ta.code, t.amount, t.created_at
        FROM transfers t
        INNER JOIN accounts fa ON fa.id = t.from_account_id
        INNER JOIN accounts ta ON ta.id = t.to_account_id
        WHERE fa.code = $1 OR ta.code = $1
        ORDER BY t.created_at DESC`
	rows, err := l.db.Query(ctx, query, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []Transfer
	for rows.Next() {
		var (
			t         Transfer
			id        uuid.UUID
			createdAt time.Time
		)
		if err := rows.Scan(&id, &t.BillID, &t.FromAccount, &t.ToAccount, &t.Amount, &createdAt); err != nil {
			return nil, err
		}
		t.ID = id.String()
		t.CreatedAt = createdAt.UTC()
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}

func billForUpdate(ctx context.Context, tx pgx.Tx, billID string) (Bill, error) {
	row := tx.QueryRow(ctx, `SELECT id, shop_id, customer_id, amount, status, created_at, updated_at
        FROM bills WHERE id = $1 FOR UPDATE`, billID)
	return scanBill(row)
}

func scanBill(row pgx.Row) (Bill, error) {
	var (
		bill      Bill
		status    string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&bill.ID, &bill.ShopID, &bill.CustomerID, &bill.Amount, &status, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bill{}, ErrBillNotFound
		}
		return Bill{}, err
	}
	bill.Status = BillStatus(status)
	bill.CreatedAt = createdAt.UTC()
	bill.UpdatedAt = updatedAt.UTC()
	return bill, nil
}

func accountIDForCode(ctx context.Context, tx pgx.Tx, code string) (uuid.UUID, error) {
	const query = `SELECT id FROM accounts WHERE code = $1 FOR UPDATE`
	var id uuid.UUID
	if err := tx.QueryRow(ctx, query, code).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("%w: %s", ErrAccountNotFound, code)
		}
		return uuid.Nil, err
	}
	return id, nil
}

func balanceForAccount(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM entries WHERE account_id = $1`
	var balance int64
	if err := tx.QueryRow(ctx, query, accountID).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return balance, nil
}
