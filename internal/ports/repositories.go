package ports

import (
	"context"

	"github.com/hudeditor/hudstore/internal/domain/entities"
)

// DocumentRepository stores one JSON document per slot. Implementations replace
// a slot's content atomically: a concurrent Load sees the old or the new bytes.
type DocumentRepository interface {
	// Save overwrites the document stored under slot with content.
	Save(ctx context.Context, slot entities.Slot, content []byte) error

	// Load should return entities.ErrDocumentNotFound (possibly wrapped) if
	// nothing has been saved under slot yet.
	Load(ctx context.Context, slot entities.Slot) ([]byte, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// StatsProvider is implemented by repositories that can report backend statistics
type StatsProvider interface {
	Stats() map[string]interface{}
}
