package ports

import (
	"context"
	"encoding/json"
)

// DocumentService interface for save/load operations
type DocumentService interface {
	Save(ctx context.Context, slot string, body []byte) error
	Load(ctx context.Context, slot string) (json.RawMessage, error)
	Ready(ctx context.Context) error
}

// StatusResponse acknowledges a successful save
type StatusResponse struct {
	Status string `json:"status"`
}

// SlotQuery holds the optional slot query parameter
type SlotQuery struct {
	Slot string `query:"slot" validate:"omitempty,slot"`
}
