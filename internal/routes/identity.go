package routes

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/visagepay/visagepay/internal/identity"
	"github.com/visagepay/visagepay/internal/middleware"
	"github.com/visagepay/visagepay/internal/wallet"
)

// RegisterIdentityRoutes wires staff account management and customer lookup
// endpoints. Shop owner accounts are created by an admin; customers come in
// through enrollment instead.
func RegisterIdentityRoutes(r fiber.Router, ids *identity.Service, wallets *wallet.Service) {
	adminOnly := middleware.RequireRole(identity.RoleAdmin)

	r.Post("/identity/register", adminOnly, func(c *fiber.Ctx) error {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}

		user, err := ids.Register(c.UserContext(), identity.RegisterInput{
			Username: req.Username,
			Password: req.Password,
			Role:     identity.Role(req.Role),
		})
		if err != nil {
			if errors.Is(err, identity.ErrUsernameTaken) {
				return fiber.NewError(http.StatusConflict, err.Error())
			}
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}

		w, err := wallets.Create(c.UserContext(), user.ID)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}

		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"user_id":   user.ID,
			"username":  user.Username,
			"role":      user.Role,
			"wallet_id": w.ID,
		})
	})

	staff := middleware.RequireRole(identity.RoleAdmin, identity.RoleShopOwner)
	r.Get("/customers", staff, func(c *fiber.Ctx) error {
		customers, err := ids.Customers(c.UserContext())
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		out := make([]fiber.Map, 0, len(customers))
		for _, u := range customers {
			out = append(out, fiber.Map{
				"user_id":    u.ID,
				"username":   u.Username,
				"created_at": u.CreatedAt,
			})
		}
		return c.JSON(out)
	})
}
