package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/hudeditor/hudstore/internal/domain/entities"
	"github.com/hudeditor/hudstore/internal/infrastructure/logger"
	"github.com/hudeditor/hudstore/internal/ports"
)

// DocumentService handles saving and loading the editor document
type DocumentService struct {
	repo   ports.DocumentRepository
	logger *logger.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(repo ports.DocumentRepository, logger *logger.Logger) *DocumentService {
	return &DocumentService{
		repo:   repo,
		logger: logger,
	}
}

// Save validates body and stores it verbatim under slot. Nothing is written
// unless body is UTF-8 encoded JSON.
func (s *DocumentService) Save(ctx context.Context, slotName string, body []byte) error {
	slot, err := entities.ParseSlot(slotName)
	if err != nil {
		return err
	}

	if !utf8.Valid(body) {
		return entities.ErrInvalidEncoding
	}
	if !json.Valid(body) {
		return entities.ErrInvalidDocument
	}

	if err := s.repo.Save(ctx, slot, body); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	s.logger.Infow("Document saved", "slot", slot, "bytes", len(body))

	return nil
}

// Load returns the document stored under slot, or an empty object if the slot
// has never been saved.
func (s *DocumentService) Load(ctx context.Context, slotName string) (json.RawMessage, error) {
	slot, err := entities.ParseSlot(slotName)
	if err != nil {
		return nil, err
	}

	content, err := s.repo.Load(ctx, slot)
	if errors.Is(err, entities.ErrDocumentNotFound) {
		return json.RawMessage(entities.EmptyDocument), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	if !json.Valid(content) {
		s.logger.Errorw("Stored document is not valid JSON", "slot", slot, "bytes", len(content))
		return nil, fmt.Errorf("slot %q: %w", slot, entities.ErrCorruptDocument)
	}

	return json.RawMessage(content), nil
}

// Ready reports whether the storage backend can serve requests
func (s *DocumentService) Ready(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("storage not ready: %w", err)
	}
	return nil
}
