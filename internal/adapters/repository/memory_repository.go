package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/hudeditor/hudstore/internal/domain/entities"
)

// MemoryRepository is a DocumentRepository powered by a map, to be used for
// testing or throwaway instances.
type MemoryRepository struct {
	mu   sync.RWMutex
	docs map[entities.Slot][]byte
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		docs: make(map[entities.Slot][]byte),
	}
}

func (r *MemoryRepository) Save(ctx context.Context, slot entities.Slot, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.docs[slot] = dup(content)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Load(ctx context.Context, slot entities.Slot) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	content, ok := r.docs[slot]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%q: %w", slot, entities.ErrDocumentNotFound)
	}
	return dup(content), nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) Close() error {
	return nil
}

func dup(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
