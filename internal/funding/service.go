package funding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/visagepay/visagepay/internal/ledger"
	"github.com/visagepay/visagepay/internal/money"
	"github.com/visagepay/visagepay/internal/notification"
	"github.com/visagepay/visagepay/internal/wallet"
)

// Service coordinates cash loads into wallets, balanced against the cash
// float account.
type Service struct {
	ledger   ledger.Ledger
	wallets  *wallet.Service
	notifier notification.Notifier
}

// NewService prepares a funding service ensuring the cash float account exists.
func NewService(ctx context.Context, ledgerBackend ledger.Ledger, wallets *wallet.Service, notifier notification.Notifier) (*Service, error) {
	if wallets == nil {
		return nil, fmt.Errorf("wallet service is required")
	}
	if err := ledgerBackend.EnsureAccount(ctx, ledger.CashFloatAccountCode); err != nil {
		return nil, err
	}
	return &Service{ledger: ledgerBackend, wallets: wallets, notifier: notifier}, nil
}

// AddMoneyInput captures the required data for a cash load.
type AddMoneyInput struct {
	WalletID   string
	Amount     int64
	ClientTxID string
}

// FundingResult represents the domain outcome of a cash load.
type FundingResult struct {
	TransactionID string
	WalletBalance int64
	CompletedAt   time.Time
}

// AddMoney records a cash deposit into the specified wallet.
func (s *Service) AddMoney(ctx context.Context, input AddMoneyInput) (FundingResult, error) {
	if input.Amount <= 0 {
		return FundingResult{}, money.ErrInvalidAmount
	}
	if input.ClientTxID == "" {
		input.ClientTxID = uuid.NewString()
	}

	w, err := s.wallets.Get(ctx, input.WalletID)
	if err != nil {
		return FundingResult{}, err
	}

	deposit, err := s.ledger.Deposit(ctx, w.AccountCode, input.ClientTxID, input.Amount)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateTransaction) {
			return FundingResult{
				TransactionID: deposit.TransactionID,
				WalletBalance: deposit.Balance,
				CompletedAt:   time.Now().UTC(),
			}, err
		}
		return FundingResult{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindFundsAdded,
			Destination: w.OwnerID,
			Body:        fmt.Sprintf("wallet funded with %s", money.Format(input.Amount)),
		})
	}

	return FundingResult{
		TransactionID: deposit.TransactionID,
		WalletBalance: deposit.Balance,
		CompletedAt:   time.Now().UTC(),
	}, nil
}
