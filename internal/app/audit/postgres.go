package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/R3E-Network/bizhub/internal/logging"
)

// PostgresSink persists entries into the audit_entries table.
type PostgresSink struct {
	db  *sqlx.DB
	log *logging.Logger
}

// NewPostgresSink returns a sink writing through db.
func NewPostgresSink(db *sqlx.DB, log *logging.Logger) *PostgresSink {
	if log == nil {
		log = logging.NewDefault("audit")
	}
	return &PostgresSink{db: db, log: log}
}

// Write implements Sink.
func (s *PostgresSink) Write(ctx context.Context, entry Entry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (id, tenant_id, user_id, action, entity, entity_id, outcome, trace_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, entry.ID, entry.TenantID, entry.UserID, entry.Action, entry.Entity, entry.EntityID,
		string(entry.Outcome), entry.TraceID, metadata, entry.Time)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

var _ Reader = (*PostgresSink)(nil)

// Recent loads the latest entries of a tenant, newest first.
func (s *PostgresSink) Recent(ctx context.Context, tenantID int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, tenant_id, user_id, action, entity, entity_id, outcome, trace_id, metadata, created_at
		FROM audit_entries
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e   Entry
			raw []byte
		)
		if err := rows.Scan(&e.ID, &e.TenantID, &e.UserID, &e.Action, &e.Entity, &e.EntityID, &e.Outcome, &e.TraceID, &raw, &e.Time); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Metadata); err != nil {
				s.log.WithContext(ctx).WithError(err).WithField("entry_id", e.ID).Debug("unreadable audit metadata")
				e.Metadata = nil
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
