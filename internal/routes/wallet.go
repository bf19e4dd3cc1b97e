package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/visagepay/visagepay/internal/identity"
	"github.com/visagepay/visagepay/internal/money"
	"github.com/visagepay/visagepay/internal/wallet"
)

// RegisterWalletRoutes wires wallet endpoints, including the current caller's
// wallet view.
func RegisterWalletRoutes(r fiber.Router, wallets *wallet.Service, h *wallet.Handler, idRepo identity.Repository) {
	r.Get("/wallet", func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		if uid == "" {
			return fiber.NewError(http.StatusUnauthorized, "unauthorized")
		}
		user, err := idRepo.FindByID(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusNotFound, "user not found")
		}
		w, err := wallets.GetByOwner(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		}
		bal, err := wallets.Balance(c.UserContext(), w.ID)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{
			"user": fiber.Map{
				"id":       user.ID,
				"username": user.Username,
				"role":     user.Role,
			},
			"wallet": fiber.Map{
				"id":           w.ID,
				"account_code": w.AccountCode,
				"status":       w.Status,
				"created_at":   w.CreatedAt,
				"balance":      money.Format(bal.Amount),
				"as_of":        bal.AsOf,
			},
		})
	})

	r.Get("/wallets/:walletId/balance", h.Balance)
	r.Get("/wallets/:walletId/transfers", h.Transfers)
}
