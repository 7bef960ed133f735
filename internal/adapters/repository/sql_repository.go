package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hudeditor/hudstore/internal/domain/entities"
	"github.com/hudeditor/hudstore/internal/infrastructure/database"
)

// SQLRepository stores documents in the documents table. Works with both the
// postgres and sqlite3 drivers; queries are rebound to the driver's bindvars.
type SQLRepository struct {
	db *database.DB

	upsertQuery string
	selectQuery string
}

// NewSQLRepository creates a repository on an already migrated database
func NewSQLRepository(db *database.DB) *SQLRepository {
	return &SQLRepository{
		db: db,
		upsertQuery: db.DB.Rebind(`
			INSERT INTO documents (slot, content, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT (slot) DO UPDATE
			SET content = excluded.content, updated_at = excluded.updated_at`),
		selectQuery: db.DB.Rebind(`SELECT content FROM documents WHERE slot = ?`),
	}
}

func (r *SQLRepository) Save(ctx context.Context, slot entities.Slot, content []byte) error {
	_, err := r.db.DB.ExecContext(ctx, r.upsertQuery, slot.String(), string(content), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save document %q: %w", slot, err)
	}
	return nil
}

func (r *SQLRepository) Load(ctx context.Context, slot entities.Slot) ([]byte, error) {
	var content string
	err := r.db.DB.GetContext(ctx, &content, r.selectQuery, slot.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%q: %w", slot, entities.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %q: %w", slot, err)
	}
	return []byte(content), nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// Stats returns connection pool statistics
func (r *SQLRepository) Stats() map[string]interface{} {
	return r.db.GetConnectionInfo()
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}
