package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/luminary/luminary-backend/internal/docprocessing/domain"
	"github.com/luminary/luminary-backend/pkg/database"
)

const auditSchema = `
	CREATE TABLE IF NOT EXISTS challan_extraction_audit (
		id UUID PRIMARY KEY,
		original_name TEXT NOT NULL,
		mime_type TEXT NOT NULL DEFAULT '',
		processor TEXT NOT NULL DEFAULT '',
		outcome VARCHAR(32) NOT NULL,
		vehicle_no VARCHAR(32) NOT NULL DEFAULT '',
		qty DOUBLE PRECISION NOT NULL DEFAULT 0,
		unit VARCHAR(8) NOT NULL DEFAULT '',
		duration_ms BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

const auditIndex = `
	CREATE INDEX IF NOT EXISTS idx_challan_extraction_audit_created_at
		ON challan_extraction_audit (created_at DESC)`

// AuditRepository persists extraction attempts
type AuditRepository struct {
	db *database.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *database.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// EnsureSchema creates the audit table and index if missing
func (r *AuditRepository) EnsureSchema(ctx context.Context) error {
	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, auditSchema); err != nil {
			return fmt.Errorf("create audit table: %w", err)
		}
		if _, err := tx.ExecContext(ctx, auditIndex); err != nil {
			return fmt.Errorf("create audit index: %w", err)
		}
		return nil
	})
}

// Record inserts one audit row
func (r *AuditRepository) Record(ctx context.Context, e *domain.ExtractionAuditEntry) error {
	query := `
		INSERT INTO challan_extraction_audit
			(id, original_name, mime_type, processor, outcome, vehicle_no, qty, unit, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.OriginalName, e.MIMEType, e.Processor, e.Outcome,
		e.VehicleNo, e.Qty, e.Unit, e.DurationMs, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent returns the latest entries, newest first
func (r *AuditRepository) Recent(ctx context.Context, limit int) ([]domain.ExtractionAuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, original_name, mime_type, processor, outcome, vehicle_no, qty, unit, duration_ms, created_at
		FROM challan_extraction_audit
		ORDER BY created_at DESC
		LIMIT $1
	`

	var entries []domain.ExtractionAuditEntry
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
