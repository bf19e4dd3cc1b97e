package biometric

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/visagepay/visagepay/internal/face"
)

// Authenticator resolves an identity's stored template and checks a live
// capture against it. Numeric match scores never leave this package; callers
// only see the boolean decision, which keeps the threshold unprobeable.
type Authenticator struct {
	templates  TemplateStore
	normalizer face.Normalizer
	matcher    face.Matcher
	logger     *slog.Logger
}

// NewAuthenticator wires the verification hub.
func NewAuthenticator(templates TemplateStore, normalizer face.Normalizer, matcher face.Matcher, logger *slog.Logger) *Authenticator {
	return &Authenticator{templates: templates, normalizer: normalizer, matcher: matcher, logger: logger}
}

// Verify returns whether the live capture matches the identity's enrolled
// template. Missing templates surface as ErrTemplateNotFound and live-capture
// normalization failures as the face package's typed errors; a comparator
// fault is degraded to a plain mismatch, since a failed biometric check is a
// business outcome, not a system fault. Operators still see the fault in logs.
func (a *Authenticator) Verify(ctx context.Context, ownerID string, live []byte) (bool, error) {
	tpl, err := a.templates.Load(ctx, ownerID)
	if err != nil {
		return false, err
	}

	switch tpl.Modality {
	case ModalityFace:
	default:
		return false, fmt.Errorf("%w: %s", ErrModalityNotImplemented, tpl.Modality)
	}

	liveCanonical, err := a.normalizer.Normalize(live)
	if err != nil {
		return false, err
	}

	distance, match, err := a.matcher.Match(tpl.Canonical, liveCanonical)
	if err != nil {
		a.logger.Error("face comparison fault", "owner_id", ownerID, "error", err)
		return false, nil
	}

	a.logger.Debug("face comparison", "owner_id", ownerID, "distance", distance, "match", match)
	return match, nil
}
