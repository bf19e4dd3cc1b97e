package enrollment

import (
	"errors"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/visagepay/visagepay/internal/biometric"
	"github.com/visagepay/visagepay/internal/face"
	"github.com/visagepay/visagepay/internal/identity"
)

// Handler exposes HTTP endpoints for customer enrollment.
type Handler struct {
	service *Service
}

// NewHandler constructs an enrollment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// EnrollResponse is the API representation of a completed enrollment.
type EnrollResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	WalletID string `json:"wallet_id"`
	Modality string `json:"modality"`
}

// Enroll registers a customer from a multipart form carrying credentials and
// one face capture.
func (h *Handler) Enroll(c *fiber.Ctx) error {
	modality, err := biometric.ParseModality(formValueOrDefault(c, "modality", string(biometric.ModalityFace)))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	image, err := readImage(c)
	if err != nil {
		return err
	}

	enrollment, err := h.service.Enroll(c.UserContext(), EnrollInput{
		Username: c.FormValue("username"),
		Password: c.FormValue("password"),
		Modality: modality,
		Image:    image,
	})
	if err != nil {
		return mapEnrollError(err)
	}

	return c.Status(http.StatusCreated).JSON(EnrollResponse{
		UserID:   enrollment.User.ID,
		Username: enrollment.User.Username,
		WalletID: enrollment.Wallet.ID,
		Modality: string(modality),
	})
}

// ReEnroll replaces the stored template for an existing customer.
func (h *Handler) ReEnroll(c *fiber.Ctx) error {
	modality, err := biometric.ParseModality(formValueOrDefault(c, "modality", string(biometric.ModalityFace)))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	image, err := readImage(c)
	if err != nil {
		return err
	}

	if err := h.service.ReEnroll(c.UserContext(), c.Params("userId"), modality, image); err != nil {
		return mapEnrollError(err)
	}

	return c.SendStatus(http.StatusNoContent)
}

func readImage(c *fiber.Ctx) ([]byte, error) {
	header, err := c.FormFile("image")
	if err != nil {
		return nil, fiber.NewError(http.StatusBadRequest, "image file is required")
	}

	file, err := header.Open()
	if err != nil {
		return nil, fiber.NewError(http.StatusBadRequest, "image file is unreadable")
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		return nil, fiber.NewError(http.StatusBadRequest, "image file is unreadable")
	}
	return image, nil
}

func formValueOrDefault(c *fiber.Ctx, key, fallback string) string {
	if v := c.FormValue(key); v != "" {
		return v
	}
	return fallback
}

func mapEnrollError(err error) error {
	switch {
	case errors.Is(err, face.ErrInvalidImage),
		errors.Is(err, face.ErrNoFaceDetected),
		errors.Is(err, face.ErrMultipleFacesDetected),
		errors.Is(err, biometric.ErrUnknownModality),
		errors.Is(err, identity.ErrWeakPassword):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, identity.ErrUsernameTaken):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, identity.ErrUserNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
