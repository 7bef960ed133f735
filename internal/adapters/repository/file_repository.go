package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hudeditor/hudstore/internal/domain/entities"
)

// FileRepository keeps each slot in its own file. The default slot lives at
// the configured target path; "slotN" lives next to it as <base>_slotN<ext>.
type FileRepository struct {
	path string
	mode os.FileMode
}

// NewFileRepository creates a file-backed repository rooted at path
func NewFileRepository(path string, mode os.FileMode) *FileRepository {
	if mode == 0 {
		mode = 0o644
	}
	return &FileRepository{path: path, mode: mode}
}

// Save replaces the slot's file. Content is written to a temporary file in the
// same directory and renamed over the target, so readers never observe a
// partially written document and a failed write leaves the old one in place.
func (r *FileRepository) Save(ctx context.Context, slot entities.Slot, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := r.pathFor(slot)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not make dir for %q: %w", target, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temp file for %q: %w", target, err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once the rename has succeeded.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write %q: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("could not sync %q: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close %q: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, r.mode); err != nil {
		return fmt.Errorf("could not chmod %q: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("could not replace %q: %w", target, err)
	}
	return nil
}

// Load reads the slot's file
func (r *FileRepository) Load(ctx context.Context, slot entities.Slot) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target := r.pathFor(slot)
	content, err := os.ReadFile(target)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%q: %w", target, entities.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read %q: %w", target, err)
	}
	return content, nil
}

// Ping checks that the directory holding the target file exists or can be made
func (r *FileRepository) Ping(ctx context.Context) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("data directory %q: %w", dir, err)
	}
	return nil
}

// Close is a no-op for the file backend
func (r *FileRepository) Close() error {
	return nil
}

func (r *FileRepository) pathFor(slot entities.Slot) string {
	if slot.IsDefault() {
		return r.path
	}
	ext := filepath.Ext(r.path)
	base := strings.TrimSuffix(r.path, ext)
	return base + "_" + slot.String() + ext
}
