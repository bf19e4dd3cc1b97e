package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/visagepay/visagepay/internal/identity"
	"github.com/visagepay/visagepay/internal/wallet"
)

// Handler exposes the login endpoint.
type Handler struct {
	ids     *identity.Service
	svc     *Service
	wallets *wallet.Service
}

// NewHandler constructs an auth handler.
func NewHandler(ids *identity.Service, svc *Service, wallets *wallet.Service) *Handler {
	return &Handler{ids: ids, svc: svc, wallets: wallets}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID      string `json:"user_id"`
	Role        string `json:"role"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	WalletID    string `json:"wallet_id,omitempty"`
}

// Login validates credentials and returns an access token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.ids.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}

	token, err := h.svc.Login(user)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	var walletID string
	if h.wallets != nil {
		if w, err := h.wallets.GetByOwner(c.UserContext(), user.ID); err == nil {
			walletID = w.ID
		}
	}

	return c.JSON(loginResponse{
		UserID:      user.ID,
		Role:        string(user.Role),
		AccessToken: token.AccessToken,
		ExpiresIn:   token.ExpiresIn,
		WalletID:    walletID,
	})
}
