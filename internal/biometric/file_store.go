package biometric

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileStore keeps one JSON envelope per identity on the local filesystem.
// The canonical bytes travel base64-encoded inside the envelope, so the
// round trip is lossless. Writes go through a temp file plus rename, which
// makes re-enrollment an atomic replacement.
type FileStore struct {
	dir string
}

// NewFileStore creates the storage directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create template dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

type templateEnvelope struct {
	Modality  string    `json:"modality"`
	CreatedAt time.Time `json:"created_at"`
	Canonical []byte    `json:"template"`
}

// Save writes or replaces the identity's template.
func (s *FileStore) Save(_ context.Context, tpl Template) error {
	payload, err := json.Marshal(templateEnvelope{
		Modality:  string(tpl.Modality),
		CreatedAt: tpl.CreatedAt.UTC(),
		Canonical: tpl.Canonical,
	})
	if err != nil {
		return fmt.Errorf("encode template: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "template-*")
	if err != nil {
		return fmt.Errorf("stage template: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("stage template: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("stage template: %w", err)
	}

	if err := os.Rename(tmpName, s.path(tpl.OwnerID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store template: %w", err)
	}
	return nil
}

// Load returns the identity's template or ErrTemplateNotFound.
func (s *FileStore) Load(_ context.Context, ownerID string) (Template, error) {
	payload, err := os.ReadFile(s.path(ownerID))
	if err != nil {
		if os.IsNotExist(err) {
			return Template{}, ErrTemplateNotFound
		}
		return Template{}, fmt.Errorf("read template: %w", err)
	}

	var env templateEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Template{}, fmt.Errorf("decode template: %w", err)
	}

	return Template{
		OwnerID:   ownerID,
		Modality:  Modality(env.Modality),
		Canonical: env.Canonical,
		CreatedAt: env.CreatedAt,
	}, nil
}

func (s *FileStore) path(ownerID string) string {
	return filepath.Join(s.dir, ownerID+".json")
}
