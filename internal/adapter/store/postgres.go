package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/arturoeanton/go-gitstat/internal/domain"
)

// AuditStore persists request audit records in Postgres.
type AuditStore struct {
	db *sql.DB
}

// NewAuditStore opens a connection and returns a store instance.
func NewAuditStore(databaseURL string) (*AuditStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &AuditStore{db: db}, nil
}

// Close closes the database connection.
func (s *AuditStore) Close() error {
	return s.db.Close()
}

// WriteAudit implements middleware.AuditWriter.
func (s *AuditStore) WriteAudit(action, resource, resourceID, details, ip, userAgent string) error {
	query := `INSERT INTO audit_logs (action, resource, resource_id, details, ip, user_agent)
	          VALUES ($1, $2, $3, $4::jsonb, $5, $6)`
	_, err := s.db.ExecContext(context.Background(), query,
		action, resource, resourceID, details, ip, userAgent,
	)
	return err
}

// ListAuditLogs returns recent audit logs with optional filters.
func (s *AuditStore) ListAuditLogs(ctx context.Context, limit int, action string) ([]domain.AuditLog, error) {
	query := `SELECT id, action, resource, resource_id, details, ip, user_agent, created_at
	          FROM audit_logs`
	args := []interface{}{}
	argIdx := 1

	if action != "" {
		query += fmt.Sprintf(" WHERE action = $%d", argIdx)
		args = append(args, action)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var l domain.AuditLog
		if err := rows.Scan(
			&l.ID, &l.Action, &l.Resource, &l.ResourceID,
			&l.Details, &l.IP, &l.UserAgent, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, nil
}
