package inspection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"facet/internal/services"
)

// CreateSession opens a new active session for the operator. The storage
// layer enforces one open session per operator; a second start while one is
// open fails with ErrConflict and the caller can fetch the existing session.
func (s *Store) CreateSession(ctx context.Context, operator string, now time.Time) (*Session, error) {
	operator = strings.TrimSpace(operator)
	if operator == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "create session", "operator is required", nil)
	}

	publicID := uuid.NewString()
	stamp := formatTime(now)
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO sessions (public_id, operator, status, started_at, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		publicID, operator, string(StatusActive), stamp, stamp, stamp,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, services.Wrap(services.ErrConflict, "store", "create session",
				fmt.Sprintf("operator %q already has an open session", operator), nil)
		}
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("session insert id: %w", err)
	}
	return s.SessionByID(ctx, id)
}

// SessionByID fetches a single session.
func (s *Store) SessionByID(ctx context.Context, id int64) (*Session, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "session",
			fmt.Sprintf("session %d", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch session %d: %w", id, err)
	}
	return session, nil
}

// SessionByPublicID fetches a session by its external identifier.
func (s *Store) SessionByPublicID(ctx context.Context, publicID string) (*Session, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE public_id = ?", publicID)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "session",
			fmt.Sprintf("session %q", publicID), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch session %q: %w", publicID, err)
	}
	return session, nil
}

// OpenSessionForOperator returns the operator's active or paused session,
// or ErrNotFound when none is open.
func (s *Store) OpenSessionForOperator(ctx context.Context, operator string) (*Session, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE operator = ? AND status IN (?, ?)",
		operator, string(StatusActive), string(StatusPaused),
	)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "open session",
			fmt.Sprintf("no open session for operator %q", operator), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch open session for %q: %w", operator, err)
	}
	return session, nil
}

// PauseSession moves an active session to paused.
func (s *Store) PauseSession(ctx context.Context, id int64, now time.Time) (*Session, error) {
	return s.transition(ctx, id, "pause", []Status{StatusActive}, StatusPaused, now)
}

// ResumeSession moves a paused session back to active.
func (s *Store) ResumeSession(ctx context.Context, id int64, now time.Time) (*Session, error) {
	return s.transition(ctx, id, "resume", []Status{StatusPaused}, StatusActive, now)
}

// CompleteSession finishes an open session. Final rates are locked in
// from the final counters, and throughput is recomputed over the whole
// session duration (zero when the duration is zero) so the historical
// record reflects the full run rather than the moment of the last frame.
func (s *Store) CompleteSession(ctx context.Context, id int64, now time.Time) (*Session, error) {
	stamp := formatTime(now)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE sessions
         SET status = ?,
             ended_at = ?,
             defect_rate = CASE WHEN total_frames > 0 THEN ROUND(100.0 * defect_count / total_frames, 2) ELSE 0 END,
             good_rate = CASE WHEN total_frames > 0 THEN ROUND(100.0 * good_count / total_frames, 2) ELSE 0 END,
             throughput_fps = CASE
                 WHEN (julianday(?) - julianday(started_at)) * 86400.0 > 0
                 THEN ROUND(total_frames / ((julianday(?) - julianday(started_at)) * 86400.0), 3)
                 ELSE 0
             END,
             updated_at = ?,
             revision = revision + 1
         WHERE id = ? AND status IN (?, ?)`,
		string(StatusCompleted), stamp, stamp, stamp, stamp,
		id, string(StatusActive), string(StatusPaused),
	)
	if err != nil {
		return nil, fmt.Errorf("stop session %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("stop session %d: %w", id, err)
	}
	if affected == 0 {
		current, fetchErr := s.SessionByID(ctx, id)
		if fetchErr != nil {
			return nil, fetchErr
		}
		return current, services.Wrap(services.ErrConflict, "store", "stop",
			fmt.Sprintf("session %d is %s", id, current.Status), nil)
	}
	return s.SessionByID(ctx, id)
}

// transition performs a guarded status change. The status predicate lives
// in the WHERE clause so two racing transitions cannot both win; the loser
// observes zero affected rows and reports the session's current status.
func (s *Store) transition(ctx context.Context, id int64, op string, from []Status, to Status, now time.Time) (*Session, error) {
	placeholders := make([]string, len(from))
	args := make([]any, 0, len(from)+3)
	args = append(args, string(to), formatTime(now), id)
	for i, status := range from {
		placeholders[i] = "?"
		args = append(args, string(status))
	}

	res, err := s.execWithRetry(
		ctx,
		`UPDATE sessions
         SET status = ?, updated_at = ?, revision = revision + 1
         WHERE id = ? AND status IN (`+strings.Join(placeholders, ",")+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("%s session %d: %w", op, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%s session %d: %w", op, id, err)
	}
	if affected == 0 {
		current, fetchErr := s.SessionByID(ctx, id)
		if fetchErr != nil {
			return nil, fetchErr
		}
		return current, services.Wrap(services.ErrConflict, "store", op,
			fmt.Sprintf("session %d is %s", id, current.Status), nil)
	}
	return s.SessionByID(ctx, id)
}

// ListSessions returns sessions newest first, optionally filtered.
func (s *Store) ListSessions(ctx context.Context, opts ListOptions) ([]*Session, error) {
	ctx = ensureContext(ctx)

	query := "SELECT " + sessionColumns + " FROM sessions"
	var (
		clauses []string
		args    []any
	)
	if opts.Operator != "" {
		clauses = append(clauses, "operator = ?")
		args = append(args, opts.Operator)
	}
	if opts.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(opts.Status))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY started_at DESC, id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSession removes a session and, via the schema's cascade, its scans.
func (s *Store) DeleteSession(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session %d: %w", id, err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "store", "delete session",
			fmt.Sprintf("session %d", id), nil)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
