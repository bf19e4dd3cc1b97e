package enrollment

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/visagepay/visagepay/internal/biometric"
	"github.com/visagepay/visagepay/internal/face"
	"github.com/visagepay/visagepay/internal/identity"
	"github.com/visagepay/visagepay/internal/ledger"
	"github.com/visagepay/visagepay/internal/logging"
	"github.com/visagepay/visagepay/internal/wallet"
)

type stubNormalizer struct {
	out []byte
	err error
}

func (s stubNormalizer) Normalize(_ []byte) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.out, nil
}

type fixture struct {
	service    *Service
	identities *identity.Service
	wallets    *wallet.Service
	templates  biometric.TemplateStore
}

func newFixture(normalizer face.Normalizer) fixture {
	identities := identity.NewService(identity.NewMemoryRepository())
	wallets := wallet.NewService(wallet.NewMemoryRepository(), ledger.NewInMemory())
	templates := biometric.NewMemoryStore()
	return fixture{
		service:    NewService(identities, wallets, templates, normalizer, logging.Discard()),
		identities: identities,
		wallets:    wallets,
		templates:  templates,
	}
}

func TestEnrollCreatesUserWalletAndTemplate(t *testing.T) {
	ctx := context.Background()
	canonical := []byte("canonical-face")
	fx := newFixture(stubNormalizer{out: canonical})

	enrollment, err := fx.service.Enroll(ctx, EnrollInput{
		Username: "amira",
		Password: "correct horse",
		Modality: biometric.ModalityFace,
		Image:    []byte("raw capture"),
	})
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}

	if enrollment.User.Role != identity.RoleCustomer {
		t.Fatalf("expected customer role, got %s", enrollment.User.Role)
	}

	if _, err := fx.wallets.GetByOwner(ctx, enrollment.User.ID); err != nil {
		t.Fatalf("wallet missing: %v", err)
	}

	tpl, err := fx.templates.Load(ctx, enrollment.User.ID)
	if err != nil {
		t.Fatalf("template missing: %v", err)
	}
	if !bytes.Equal(tpl.Canonical, canonical) {
		t.Fatal("stored template differs from normalized capture")
	}
}

func TestEnrollRejectedCaptureLeavesNoPartialCustomer(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(stubNormalizer{err: face.ErrNoFaceDetected})

	_, err := fx.service.Enroll(ctx, EnrollInput{
		Username: "bruno",
		Password: "long enough",
		Modality: biometric.ModalityFace,
		Image:    []byte("no face here"),
	})
	if !errors.Is(err, face.ErrNoFaceDetected) {
		t.Fatalf("expected no-face error, got %v", err)
	}

	if _, err := fx.identities.ByUsername(ctx, "bruno"); !errors.Is(err, identity.ErrUserNotFound) {
		t.Fatalf("rejected enrollment must not create the user, got %v", err)
	}
}

func TestEnrollVeinStoresRawCapture(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(stubNormalizer{err: face.ErrInvalidImage})

	raw := []byte("palm scan")
	enrollment, err := fx.service.Enroll(ctx, EnrollInput{
		Username: "vera",
		Password: "long enough",
		Modality: biometric.ModalityVein,
		Image:    raw,
	})
	if err != nil {
		t.Fatalf("vein enrollment must not run the face pipeline: %v", err)
	}

	tpl, err := fx.templates.Load(ctx, enrollment.User.ID)
	if err != nil {
		t.Fatalf("template missing: %v", err)
	}
	if tpl.Modality != biometric.ModalityVein {
		t.Fatalf("expected VEIN modality, got %s", tpl.Modality)
	}
	if !bytes.Equal(tpl.Canonical, raw) {
		t.Fatal("vein template must hold the raw capture bytes")
	}
}

func TestReEnrollReplacesTemplate(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(stubNormalizer{out: []byte("first")})

	enrollment, err := fx.service.Enroll(ctx, EnrollInput{
		Username: "chidi",
		Password: "long enough",
		Modality: biometric.ModalityFace,
		Image:    []byte("capture one"),
	})
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}

	fx.service.normalizer = stubNormalizer{out: []byte("second")}
	if err := fx.service.ReEnroll(ctx, enrollment.User.ID, biometric.ModalityFace, []byte("capture two")); err != nil {
		t.Fatalf("re-enroll: %v", err)
	}

	tpl, err := fx.templates.Load(ctx, enrollment.User.ID)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if !bytes.Equal(tpl.Canonical, []byte("second")) {
		t.Fatal("re-enrollment must replace the stored template")
	}
}

func TestReEnrollUnknownUser(t *testing.T) {
	fx := newFixture(stubNormalizer{out: []byte("x")})

	err := fx.service.ReEnroll(context.Background(), "missing", biometric.ModalityFace, []byte("capture"))
	if !errors.Is(err, identity.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}
