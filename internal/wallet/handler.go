package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/visagepay/visagepay/internal/money"
)

// Handler exposes wallet endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a wallet handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Balance returns the current wallet balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	bal, err := h.service.Balance(c.UserContext(), c.Params("walletId"))
	if err != nil {
		return mapWalletError(err)
	}
	return c.JSON(fiber.Map{
		"wallet_id": bal.WalletID,
		"balance":   money.Format(bal.Amount),
		"as_of":     bal.AsOf,
	})
}

type transferResponse struct {
	ID          string    `json:"id"`
	BillID      string    `json:"bill_id"`
	FromAccount string    `json:"from_account"`
	ToAccount   string    `json:"to_account"`
	Amount      string    `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// Transfers lists the wallet's transfer history, most recent first.
func (h *Handler) Transfers(c *fiber.Ctx) error {
	transfers, err := h.service.Transfers(c.UserContext(), c.Params("walletId"))
	if err != nil {
		return mapWalletError(err)
	}

	out := make([]transferResponse, 0, len(transfers))
	for _, tr := range transfers {
		out = append(out, transferResponse{
			ID:          tr.ID,
			BillID:      tr.BillID,
			FromAccount: tr.FromAccount,
			ToAccount:   tr.ToAccount,
			Amount:      money.Format(tr.Amount),
			CreatedAt:   tr.CreatedAt,
		})
	}
	return c.JSON(out)
}

func mapWalletError(err error) error {
	if errors.Is(err, ErrWalletNotFound) {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	return fiber.NewError(http.StatusInternalServerError, err.Error())
}
