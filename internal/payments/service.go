// Package payments issues bills and settles them, either from the customer
// wallet after a face authentication or as cash taken at the counter.
package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/visagepay/visagepay/internal/biometric"
	"github.com/visagepay/visagepay/internal/identity"
	"github.com/visagepay/visagepay/internal/ledger"
	"github.com/visagepay/visagepay/internal/money"
	"github.com/visagepay/visagepay/internal/notification"
	"github.com/visagepay/visagepay/internal/wallet"
)

var (
	// ErrAuthenticationFailed indicates the live capture did not match the
	// customer's enrolled template.
	ErrAuthenticationFailed = errors.New("biometric authentication failed")

	// ErrNoBiometricEnrolled indicates the billed customer has no template
	// on file.
	ErrNoBiometricEnrolled = errors.New("customer has no biometric enrolled")

	// ErrNotBillOwner indicates the caller's shop did not issue the bill.
	ErrNotBillOwner = errors.New("bill belongs to another shop")
)

// Verifier decides whether a live capture matches an identity's enrolled
// template.
type Verifier interface {
	Verify(ctx context.Context, ownerID string, live []byte) (bool, error)
}

// Service wires bills, biometric verification and ledger settlement.
type Service struct {
	ledger     ledger.Ledger
	wallets    *wallet.Service
	identities *identity.Service
	verifier   Verifier
	notifier   notification.Notifier
	logger     *slog.Logger
}

// NewService constructs a payments service.
func NewService(ledgerBackend ledger.Ledger, wallets *wallet.Service, identities *identity.Service, verifier Verifier, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{
		ledger:     ledgerBackend,
		wallets:    wallets,
		identities: identities,
		verifier:   verifier,
		notifier:   notifier,
		logger:     logger,
	}
}

// CreateBillInput captures the data a shop provides when issuing a bill.
type CreateBillInput struct {
	ShopID     string
	CustomerID string
	Amount     int64
}

// CreateBill issues a pending bill from the shop against the customer.
func (s *Service) CreateBill(ctx context.Context, input CreateBillInput) (ledger.Bill, error) {
	if input.Amount <= 0 {
		return ledger.Bill{}, money.ErrInvalidAmount
	}

	customer, err := s.identities.ByID(ctx, input.CustomerID)
	if err != nil {
		return ledger.Bill{}, err
	}
	if customer.Role != identity.RoleCustomer {
		return ledger.Bill{}, fmt.Errorf("user %s is not a customer", customer.ID)
	}

	now := time.Now().UTC()
	bill := ledger.Bill{
		ID:         uuid.NewString(),
		ShopID:     input.ShopID,
		CustomerID: customer.ID,
		Amount:     input.Amount,
		Status:     ledger.BillPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.ledger.CreateBill(ctx, bill); err != nil {
		return ledger.Bill{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindBillIssued,
			Destination: customer.ID,
			Body:        fmt.Sprintf("bill for %s is awaiting payment", money.Format(bill.Amount)),
		})
	}

	return bill, nil
}

// Bill retrieves one bill.
func (s *Service) Bill(ctx context.Context, id string) (ledger.Bill, error) {
	return s.ledger.Bill(ctx, id)
}

// Bills lists all bills, newest first.
func (s *Service) Bills(ctx context.Context) ([]ledger.Bill, error) {
	return s.ledger.ListBills(ctx)
}

// PayBillInput carries the live capture presented against a bill.
type PayBillInput struct {
	BillID string
	Image  []byte
}

// PayResult describes a completed wallet settlement.
type PayResult struct {
	Bill        ledger.Bill
	Transfer    ledger.Transfer
	FromBalance int64
	ToBalance   int64
}

// PayBill settles a pending bill from the customer wallet after the live
// capture matches the customer's enrolled face. A failed match changes
// nothing: no balance moves and the bill stays pending.
func (s *Service) PayBill(ctx context.Context, input PayBillInput) (PayResult, error) {
	bill, err := s.ledger.Bill(ctx, input.BillID)
	if err != nil {
		return PayResult{}, err
	}
	if bill.Status.Terminal() {
		return PayResult{}, ledger.ErrBillNotPending
	}

	match, err := s.verifier.Verify(ctx, bill.CustomerID, input.Image)
	if err != nil {
		if errors.Is(err, biometric.ErrTemplateNotFound) {
			return PayResult{}, ErrNoBiometricEnrolled
		}
		if errors.Is(err, biometric.ErrModalityNotImplemented) {
			s.logger.Warn("unverifiable modality on file", "bill_id", bill.ID, "customer_id", bill.CustomerID, "error", err)
			return PayResult{}, ErrAuthenticationFailed
		}
		return PayResult{}, err
	}
	if !match {
		s.logger.Info("bill payment rejected", "bill_id", bill.ID, "customer_id", bill.CustomerID)
		return PayResult{}, ErrAuthenticationFailed
	}

	customerWallet, err := s.wallets.GetByOwner(ctx, bill.CustomerID)
	if err != nil {
		return PayResult{}, err
	}
	shopWallet, err := s.wallets.GetByOwner(ctx, bill.ShopID)
	if err != nil {
		return PayResult{}, err
	}

	settlement, err := s.ledger.SettleBillFromWallet(ctx, bill.ID, customerWallet.AccountCode, shopWallet.AccountCode)
	if err != nil {
		return PayResult{}, err
	}

	settled, err := s.ledger.Bill(ctx, bill.ID)
	if err != nil {
		return PayResult{}, err
	}

	s.logger.Info("bill settled from wallet", "bill_id", bill.ID, "transfer_id", settlement.Transfer.ID)
	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindPaymentReceived,
			Destination: bill.ShopID,
			Body:        fmt.Sprintf("bill %s paid: %s received", bill.ID, money.Format(bill.Amount)),
		})
	}

	return PayResult{
		Bill:        settled,
		Transfer:    settlement.Transfer,
		FromBalance: settlement.FromBalance,
		ToBalance:   settlement.ToBalance,
	}, nil
}

// PayCash marks a pending bill as settled in cash. No funds move in the
// ledger.
func (s *Service) PayCash(ctx context.Context, billID, requestorShopID string) (ledger.Bill, error) {
	if err := s.authorizeShop(ctx, billID, requestorShopID); err != nil {
		return ledger.Bill{}, err
	}
	return s.ledger.SettleBillCash(ctx, billID)
}

// Cancel withdraws a pending bill.
func (s *Service) Cancel(ctx context.Context, billID, requestorShopID string) (ledger.Bill, error) {
	if err := s.authorizeShop(ctx, billID, requestorShopID); err != nil {
		return ledger.Bill{}, err
	}
	return s.ledger.CancelBill(ctx, billID)
}

func (s *Service) authorizeShop(ctx context.Context, billID, requestorShopID string) error {
	if requestorShopID == "" {
		return nil
	}
	bill, err := s.ledger.Bill(ctx, billID)
	if err != nil {
		return err
	}
	if bill.ShopID != requestorShopID {
		return ErrNotBillOwner
	}
	return nil
}
