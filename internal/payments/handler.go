package payments

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/visagepay/visagepay/internal/face"
	"github.com/visagepay/visagepay/internal/identity"
	"github.com/visagepay/visagepay/internal/ledger"
	"github.com/visagepay/visagepay/internal/money"
	"github.com/visagepay/visagepay/internal/wallet"
)

// Handler exposes bill endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a payments handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createBillRequest struct {
	CustomerID string `json:"customer_id"`
	Amount     string `json:"amount"`
}

// billResponse is the API representation of a bill.
type billResponse struct {
	ID         string    `json:"id"`
	ShopID     string    `json:"shop_id"`
	CustomerID string    `json:"customer_id"`
	Amount     string    `json:"amount"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateBill issues a new pending bill on behalf of the calling shop.
func (h *Handler) CreateBill(c *fiber.Ctx) error {
	var req createBillRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	shopID, _ := c.Locals("user_id").(string)
	bill, err := h.service.CreateBill(c.UserContext(), CreateBillInput{
		ShopID:     shopID,
		CustomerID: req.CustomerID,
		Amount:     amount,
	})
	if err != nil {
		return mapBillError(err)
	}

	return c.Status(http.StatusCreated).JSON(toBillResponse(bill))
}

// ListBills returns all bills, newest first.
func (h *Handler) ListBills(c *fiber.Ctx) error {
	bills, err := h.service.Bills(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]billResponse, 0, len(bills))
	for _, b := range bills {
		out = append(out, toBillResponse(b))
	}
	return c.JSON(out)
}

// GetBill returns one bill.
func (h *Handler) GetBill(c *fiber.Ctx) error {
	bill, err := h.service.Bill(c.UserContext(), c.Params("billId"))
	if err != nil {
		return mapBillError(err)
	}
	return c.JSON(toBillResponse(bill))
}

// PayBill settles a bill from the customer wallet after a face check. The
// live capture arrives as a multipart file.
func (h *Handler) PayBill(c *fiber.Ctx) error {
	header, err := c.FormFile("image")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "image file is required")
	}
	file, err := header.Open()
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "image file is unreadable")
	}
	defer file.Close()
	image, err := io.ReadAll(file)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "image file is unreadable")
	}

	result, err := h.service.PayBill(c.UserContext(), PayBillInput{
		BillID: c.Params("billId"),
		Image:  image,
	})
	if err != nil {
		return mapBillError(err)
	}

	return c.JSON(fiber.Map{
		"bill":         toBillResponse(result.Bill),
		"transfer_id":  result.Transfer.ID,
		"from_balance": money.Format(result.FromBalance),
		"to_balance":   money.Format(result.ToBalance),
	})
}

// PayCash marks a bill settled in cash.
func (h *Handler) PayCash(c *fiber.Ctx) error {
	shopID, _ := c.Locals("user_id").(string)
	bill, err := h.service.PayCash(c.UserContext(), c.Params("billId"), shopID)
	if err != nil {
		return mapBillError(err)
	}
	return c.JSON(toBillResponse(bill))
}

// Cancel withdraws a pending bill.
func (h *Handler) Cancel(c *fiber.Ctx) error {
	shopID, _ := c.Locals("user_id").(string)
	bill, err := h.service.Cancel(c.UserContext(), c.Params("billId"), shopID)
	if err != nil {
		return mapBillError(err)
	}
	return c.JSON(toBillResponse(bill))
}

func toBillResponse(bill ledger.Bill) billResponse {
	return billResponse{
		ID:         bill.ID,
		ShopID:     bill.ShopID,
		CustomerID: bill.CustomerID,
		Amount:     money.Format(bill.Amount),
		Status:     string(bill.Status),
		CreatedAt:  bill.CreatedAt,
		UpdatedAt:  bill.UpdatedAt,
	}
}

func mapBillError(err error) error {
	switch {
	case errors.Is(err, ErrAuthenticationFailed):
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrNotBillOwner):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ledger.ErrBillNotFound),
		errors.Is(err, identity.ErrUserNotFound),
		errors.Is(err, wallet.ErrWalletNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrBillNotPending):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ErrNoBiometricEnrolled),
		errors.Is(err, face.ErrInvalidImage),
		errors.Is(err, face.ErrNoFaceDetected),
		errors.Is(err, face.ErrMultipleFacesDetected),
		errors.Is(err, money.ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
