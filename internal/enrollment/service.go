// Package enrollment registers customers together with their face template
// and wallet in one pipeline.
package enrollment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/visagepay/visagepay/internal/biometric"
	"github.com/visagepay/visagepay/internal/face"
	"github.com/visagepay/visagepay/internal/identity"
	"github.com/visagepay/visagepay/internal/wallet"
)

// Service enrolls customers: it validates the capture, creates the identity
// and wallet, and persists the canonical template.
type Service struct {
	identities *identity.Service
	wallets    *wallet.Service
	templates  biometric.TemplateStore
	normalizer face.Normalizer
	logger     *slog.Logger
}

// NewService constructs the enrollment pipeline.
func NewService(identities *identity.Service, wallets *wallet.Service, templates biometric.TemplateStore, normalizer face.Normalizer, logger *slog.Logger) *Service {
	return &Service{
		identities: identities,
		wallets:    wallets,
		templates:  templates,
		normalizer: normalizer,
		logger:     logger,
	}
}

// EnrollInput captures the data required to enroll one customer.
type EnrollInput struct {
	Username string
	Password string
	Modality biometric.Modality
	Image    []byte
}

// Enrollment is the outcome of a successful enrollment.
type Enrollment struct {
	User   identity.User
	Wallet wallet.Wallet
}

// Enroll registers a customer with a biometric template and a zero-balance
// wallet. The capture is canonicalized before any record is created, so a
// rejected image leaves no partial customer behind.
func (s *Service) Enroll(ctx context.Context, input EnrollInput) (Enrollment, error) {
	canonical, err := s.canonicalize(input.Modality, input.Image)
	if err != nil {
		return Enrollment{}, err
	}

	user, err := s.identities.Register(ctx, identity.RegisterInput{
		Username: input.Username,
		Password: input.Password,
		Role:     identity.RoleCustomer,
	})
	if err != nil {
		return Enrollment{}, err
	}

	w, err := s.wallets.Create(ctx, user.ID)
	if err != nil {
		return Enrollment{}, fmt.Errorf("provision wallet: %w", err)
	}

	if err := s.templates.Save(ctx, biometric.Template{
		OwnerID:   user.ID,
		Modality:  input.Modality,
		Canonical: canonical,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return Enrollment{}, fmt.Errorf("store template: %w", err)
	}

	s.logger.Info("customer enrolled", "user_id", user.ID, "wallet_id", w.ID, "modality", input.Modality)
	return Enrollment{User: user, Wallet: w}, nil
}

// ReEnroll replaces the customer's stored template with one derived from a
// fresh capture. The previous template is discarded wholesale.
func (s *Service) ReEnroll(ctx context.Context, userID string, modality biometric.Modality, image []byte) error {
	user, err := s.identities.ByID(ctx, userID)
	if err != nil {
		return err
	}

	canonical, err := s.canonicalize(modality, image)
	if err != nil {
		return err
	}

	if err := s.templates.Save(ctx, biometric.Template{
		OwnerID:   user.ID,
		Modality:  modality,
		Canonical: canonical,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("store template: %w", err)
	}

	s.logger.Info("customer re-enrolled", "user_id", user.ID, "modality", modality)
	return nil
}

func (s *Service) canonicalize(modality biometric.Modality, image []byte) ([]byte, error) {
	switch modality {
	case biometric.ModalityFace:
		return s.normalizer.Normalize(image)
	case biometric.ModalityVein:
		// No vein pipeline exists. The raw capture is stored as-is; every
		// verification against it fails with the typed not-implemented error.
		return append([]byte(nil), image...), nil
	default:
		return nil, fmt.Errorf("%w: %s", biometric.ErrUnknownModality, modality)
	}
}
