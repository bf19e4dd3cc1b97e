package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/visagepay/visagepay/internal/payments"
)

// RegisterBillRoutes wires bill issuance and settlement endpoints. All of
// them run at the shop counter, so the staff role gate applies throughout.
func RegisterBillRoutes(r fiber.Router, h *payments.Handler, staff fiber.Handler) {
	group := r.Group("/bills", staff)
	group.Post("/", h.CreateBill)
	group.Get("/", h.ListBills)
	group.Get("/:billId", h.GetBill)
	group.Post("/:billId/pay", h.PayBill)
	group.Post("/:billId/cash", h.PayCash)
	group.Post("/:billId/cancel", h.Cancel)
}
