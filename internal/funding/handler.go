package funding

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/visagepay/visagepay/internal/ledger"
	"github.com/visagepay/visagepay/internal/money"
	"github.com/visagepay/visagepay/internal/wallet"
)

// Handler exposes HTTP endpoints for wallet funding flows.
type Handler struct {
	service *Service
}

// NewHandler constructs a funding handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// AddMoney processes cash loads onto a wallet.
func (h *Handler) AddMoney(c *fiber.Ctx) error {
	walletID := c.Params("walletId")
	var req AddMoneyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.AddMoney(c.UserContext(), AddMoneyInput{
		WalletID:   walletID,
		Amount:     amount,
		ClientTxID: req.ClientTxID,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrDuplicateTransaction):
			return c.Status(http.StatusOK).JSON(toResponse(result))
		case errors.Is(err, wallet.ErrWalletNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(toResponse(result))
}

func toResponse(result FundingResult) AddMoneyResponse {
	return AddMoneyResponse{
		TransactionID: result.TransactionID,
		WalletBalance: money.Format(result.WalletBalance),
	}
}
