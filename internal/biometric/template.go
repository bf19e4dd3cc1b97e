// Package biometric owns enrolled templates and the verification hub that
// turns a live capture into a pass/fail identity decision.
package biometric

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Modality tags the kind of biometric a template holds.
type Modality string

const (
	// ModalityFace is the only implemented modality.
	ModalityFace Modality = "FACE"
	// ModalityVein is declared but has no verifier; matching a VEIN template
	// always fails with ErrModalityNotImplemented.
	ModalityVein Modality = "VEIN"
)

var (
	// ErrUnknownModality indicates an unrecognized modality tag.
	ErrUnknownModality = errors.New("unknown biometric modality")

	// ErrModalityNotImplemented indicates a declared modality with no verifier.
	ErrModalityNotImplemented = errors.New("biometric modality not implemented")

	// ErrTemplateNotFound indicates the identity has no stored template.
	ErrTemplateNotFound = errors.New("biometric template not found")
)

// ParseModality validates a modality tag from an enrollment payload.
func ParseModality(s string) (Modality, error) {
	switch m := Modality(strings.ToUpper(strings.TrimSpace(s))); m {
	case ModalityFace, ModalityVein:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownModality, s)
	}
}

// Template is the canonical stored representation for one enrolled identity.
// Created at enrollment and replaced wholesale on re-enrollment, never
// mutated in place.
type Template struct {
	OwnerID   string
	Modality  Modality
	Canonical []byte
	CreatedAt time.Time
}

// TemplateStore persists at most one template per identity. Load after Save
// returns bit-identical canonical bytes so repeated matching is deterministic.
type TemplateStore interface {
	Save(ctx context.Context, tpl Template) error
	Load(ctx context.Context, ownerID string) (Template, error)
}
