package inspection

import (
	"database/sql"
	"errors"
	"time"
)

const sessionColumns = "id, public_id, operator, status, total_frames, defect_count, good_count, defect_rate, good_rate, throughput_fps, started_at, ended_at, created_at, updated_at, revision"

const scanColumns = "id, session_id, frame_index, decision, anomaly_score, confidence_level, threshold, defects_json, preprocessing_ms, inference_ms, postprocessing_ms, annotated_image_path, captured_at, created_at, revision"

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		id          int64
		publicID    string
		operator    string
		statusStr   string
		totalFrames int64
		defectCount int64
		goodCount   int64
		defectRate  float64
		goodRate    float64
		throughput  float64
		startedRaw  sql.NullString
		endedRaw    sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
		revision    int64
	)

	if err := scanner.Scan(
		&id,
		&publicID,
		&operator,
		&statusStr,
		&totalFrames,
		&defectCount,
		&goodCount,
		&defectRate,
		&goodRate,
		&throughput,
		&startedRaw,
		&endedRaw,
		&createdRaw,
		&updatedRaw,
		&revision,
	); err != nil {
		return nil, err
	}

	session := &Session{
		ID:            id,
		PublicID:      publicID,
		Operator:      operator,
		Status:        Status(statusStr),
		TotalFrames:   totalFrames,
		DefectCount:   defectCount,
		GoodCount:     goodCount,
		DefectRate:    defectRate,
		GoodRate:      goodRate,
		ThroughputFPS: throughput,
		Revision:      revision,
	}
	if started, err := parseTimeString(startedRaw.String); err == nil {
		session.StartedAt = started
	}
	if endedRaw.Valid {
		if ended, err := parseTimeString(endedRaw.String); err == nil {
			session.EndedAt = &ended
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		session.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		session.UpdatedAt = updated
	}
	return session, nil
}

func scanScan(scanner interface{ Scan(dest ...any) error }) (*Scan, error) {
	var (
		id            int64
		sessionID     int64
		frameIndex    int64
		decision      string
		anomalyScore  float64
		confidence    string
		threshold     float64
		defectsJSON   sql.NullString
		preprocessMS  float64
		inferenceMS   float64
		postprocessMS float64
		imagePath     sql.NullString
		capturedRaw   sql.NullString
		createdRaw    sql.NullString
		revision      int64
	)

	if err := scanner.Scan(
		&id,
		&sessionID,
		&frameIndex,
		&decision,
		&anomalyScore,
		&confidence,
		&threshold,
		&defectsJSON,
		&preprocessMS,
		&inferenceMS,
		&postprocessMS,
		&imagePath,
		&capturedRaw,
		&createdRaw,
		&revision,
	); err != nil {
		return nil, err
	}

	record := &Scan{
		ID:                 id,
		SessionID:          sessionID,
		FrameIndex:         frameIndex,
		Decision:           decision,
		AnomalyScore:       anomalyScore,
		ConfidenceLevel:    confidence,
		Threshold:          threshold,
		DefectsJSON:        defectsJSON.String,
		PreprocessMS:       preprocessMS,
		InferenceMS:        inferenceMS,
		PostprocessMS:      postprocessMS,
		AnnotatedImagePath: imagePath.String,
		Revision:           revision,
	}
	if captured, err := parseTimeString(capturedRaw.String); err == nil {
		record.CapturedAt = captured
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		record.CreatedAt = created
	}
	return record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
