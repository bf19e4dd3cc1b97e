package biometric

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	canonical := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff, 0x10, 0x20}
	tpl := Template{
		OwnerID:   "owner-1",
		Modality:  ModalityFace,
		Canonical: canonical,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := store.Save(ctx, tpl); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(ctx, "owner-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(loaded.Canonical, canonical) {
		t.Fatalf("canonical bytes not bit-identical: %v vs %v", loaded.Canonical, canonical)
	}
	if loaded.Modality != ModalityFace {
		t.Fatalf("modality lost: %s", loaded.Modality)
	}
	if !loaded.CreatedAt.Equal(tpl.CreatedAt) {
		t.Fatalf("created_at lost: %v", loaded.CreatedAt)
	}
}

func TestFileStoreReplaceOnReEnroll(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	first := Template{OwnerID: "owner-1", Modality: ModalityFace, Canonical: []byte("first"), CreatedAt: time.Now().UTC()}
	second := Template{OwnerID: "owner-1", Modality: ModalityFace, Canonical: []byte("second"), CreatedAt: time.Now().UTC()}
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	loaded, err := store.Load(ctx, "owner-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(loaded.Canonical, []byte("second")) {
		t.Fatalf("re-enrollment did not replace template: %q", loaded.Canonical)
	}
}

func TestFileStoreMissingTemplate(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if _, err := store.Load(context.Background(), "nobody"); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}
