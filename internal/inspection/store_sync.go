package inspection

import (
	"context"
	"fmt"

	"facet/internal/checksum"
)

// SessionDigestRows returns the identity and revision of every session in
// the viewer's scope, ready for digest computation. An empty operator scopes
// to all sessions. Paging never affects this query; a digest always covers
// the whole scope.
func (s *Store) SessionDigestRows(ctx context.Context, operator string) ([]checksum.Row, error) {
	ctx = ensureContext(ctx)

	query := "SELECT id, revision FROM sessions"
	var args []any
	if operator != "" {
		query += " WHERE operator = ?"
		args = append(args, operator)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("session digest rows: %w", err)
	}
	defer rows.Close()

	var out []checksum.Row
	for rows.Next() {
		row := checksum.Row{Kind: "session"}
		if err := rows.Scan(&row.ID, &row.Revision); err != nil {
			return nil, fmt.Errorf("scan digest row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate digest rows: %w", err)
	}
	return out, nil
}

// ScanDigestRows returns the identity and revision of every scan belonging
// to one session.
func (s *Store) ScanDigestRows(ctx context.Context, sessionID int64) ([]checksum.Row, error) {
	ctx = ensureContext(ctx)

	rows, err := s.db.QueryContext(ctx, "SELECT id, revision FROM scans WHERE session_id = ?", sessionID)
	if err != nil {
		return nil, fmt.Errorf("scan digest rows: %w", err)
	}
	defer rows.Close()

	var out []checksum.Row
	for rows.Next() {
		row := checksum.Row{Kind: "scan"}
		if err := rows.Scan(&row.ID, &row.Revision); err != nil {
			return nil, fmt.Errorf("scan digest row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate digest rows: %w", err)
	}
	return out, nil
}

// SessionDigest computes the current digest for the viewer's session list.
func (s *Store) SessionDigest(ctx context.Context, operator string) (string, error) {
	rows, err := s.SessionDigestRows(ctx, operator)
	if err != nil {
		return "", err
	}
	return checksum.Compute(rows), nil
}

// ScanDigest computes the current digest for one session's scan list.
func (s *Store) ScanDigest(ctx context.Context, sessionID int64) (string, error) {
	rows, err := s.ScanDigestRows(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return checksum.Compute(rows), nil
}
