package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/visagepay/visagepay/internal/funding"
)

// RegisterFundingRoutes wires cash-load endpoints. Only staff take cash.
func RegisterFundingRoutes(r fiber.Router, h *funding.Handler, staff fiber.Handler) {
	r.Post("/wallets/:walletId/deposits", staff, h.AddMoney)
}
