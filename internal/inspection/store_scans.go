package inspection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"facet/internal/services"
)

// RecordFrameScan folds one frame verdict into the session counters and
// persists the scan row. Both writes run in a single transaction: a failed
// insert rolls the counter move back, so a counted frame always has a scan
// row behind it and vice versa. The counter increment and the rate
// recomputation happen against the stored values, so concurrent recorders
// never lose a count, and the frame index is assigned from the running
// total after the increment. Frames are accepted while paused; a completed
// session rejects them with ErrInvalidState alongside its current row.
func (s *Store) RecordFrameScan(ctx context.Context, record *Scan, now time.Time) (*Session, *Scan, error) {
	if record == nil {
		return nil, nil, services.Wrap(services.ErrValidation, "store", "record frame", "nil scan", nil)
	}
	if record.SessionID == 0 {
		return nil, nil, services.Wrap(services.ErrValidation, "store", "record frame", "missing session id", nil)
	}

	defectDelta, goodDelta := int64(0), int64(1)
	if record.IsDefect() {
		defectDelta, goodDelta = 1, 0
	}
	stamp := formatTime(now)

	var (
		session *Session
		scanID  int64
	)
	txErr := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(
			ctx,
			`UPDATE sessions
	         SET total_frames = total_frames + 1,
	             defect_count = defect_count + ?,
	             good_count = good_count + ?,
	             defect_rate = ROUND(100.0 * (defect_count + ?) / (total_frames + 1), 2),
	             good_rate = ROUND(100.0 * (good_count + ?) / (total_frames + 1), 2),
	             throughput_fps = ROUND((total_frames + 1) / MAX((julianday(?) - julianday(started_at)) * 86400.0, 0.001), 3),
	             updated_at = ?,
	             revision = revision + 1
	         WHERE id = ? AND status IN (?, ?)`,
			defectDelta, goodDelta,
			defectDelta, goodDelta,
			stamp, stamp,
			record.SessionID, string(StatusActive), string(StatusPaused),
		)
		if err != nil {
			return fmt.Errorf("record frame for session %d: %w", record.SessionID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("record frame for session %d: %w", record.SessionID, err)
		}

		row := tx.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE id = ?", record.SessionID)
		session, err = scanSession(row)
		if errors.Is(err, sql.ErrNoRows) {
			return services.Wrap(services.ErrNotFound, "store", "record frame",
				fmt.Sprintf("session %d", record.SessionID), nil)
		}
		if err != nil {
			return fmt.Errorf("fetch session %d: %w", record.SessionID, err)
		}
		if affected == 0 {
			return services.Wrap(services.ErrInvalidState, "store", "record frame",
				fmt.Sprintf("session %d is %s", record.SessionID, session.Status), nil)
		}
		record.FrameIndex = session.TotalFrames

		ins, err := tx.ExecContext(
			ctx,
			`INSERT INTO scans (session_id, frame_index, decision, anomaly_score, confidence_level, threshold,
	                            defects_json, preprocessing_ms, inference_ms, postprocessing_ms,
	                            annotated_image_path, captured_at, created_at)
	         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.SessionID,
			record.FrameIndex,
			record.Decision,
			record.AnomalyScore,
			record.ConfidenceLevel,
			record.Threshold,
			nullableString(record.DefectsJSON),
			record.PreprocessMS,
			record.InferenceMS,
			record.PostprocessMS,
			nullableString(record.AnnotatedImagePath),
			formatTime(record.CapturedAt),
			formatTime(record.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert scan: %w", err)
		}
		scanID, err = ins.LastInsertId()
		if err != nil {
			return fmt.Errorf("scan insert id: %w", err)
		}
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, services.ErrInvalidState) {
			return session, nil, txErr
		}
		return nil, nil, txErr
	}

	// Scan rows are insert-only, so reading outside the transaction is safe.
	stored, err := s.ScanByID(ctx, scanID)
	if err != nil {
		return nil, nil, err
	}
	return session, stored, nil
}

// ScanByID fetches a single scan record.
func (s *Store) ScanByID(ctx context.Context, id int64) (*Scan, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+scanColumns+" FROM scans WHERE id = ?", id)
	record, err := scanScan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "scan",
			fmt.Sprintf("scan %d", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch scan %d: %w", id, err)
	}
	return record, nil
}

// ListScans returns a session's scans oldest first.
func (s *Store) ListScans(ctx context.Context, sessionID int64, limit, offset int) ([]*Scan, error) {
	ctx = ensureContext(ctx)

	query := "SELECT " + scanColumns + " FROM scans WHERE session_id = ? ORDER BY frame_index ASC, id ASC"
	args := []any{sessionID}
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scans for session %d: %w", sessionID, err)
	}
	defer rows.Close()

	var records []*Scan
	for rows.Next() {
		record, err := scanScan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scans: %w", err)
	}
	return records, nil
}

// CountScans returns the number of scans recorded for a session.
func (s *Store) CountScans(ctx context.Context, sessionID int64) (int64, error) {
	ctx = ensureContext(ctx)
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM scans WHERE session_id = ?", sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count scans for session %d: %w", sessionID, err)
	}
	return count, nil
}
