package live

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"facet/internal/inspection"
	"facet/internal/logging"
	"facet/internal/services"
)

// ScanOutcome is the result of one processed frame: the persisted scan and
// the session snapshot after its counters absorbed the verdict.
type ScanOutcome struct {
	Session *inspection.Session
	Scan    *inspection.Scan
}

// ProcessFrame runs one captured frame through the detection pipeline:
// verify the session accepts frames, obtain the detector's verdict, fold
// the verdict into the session counters, persist the scan record, and
// store the annotated image when the verdict is a defect.
//
// A detector failure drops the frame entirely. No counter moves, no scan
// row appears, and the caller receives the classified error. The frame is
// never resubmitted; the feed's next frame supersedes it.
func (m *Machine) ProcessFrame(ctx context.Context, sessionID int64, image []byte, filename string, capturedAt time.Time) (*ScanOutcome, error) {
	if len(image) == 0 {
		return nil, services.Wrap(services.ErrValidation, "live", "process frame", "empty image payload", nil)
	}

	session, err := m.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Status.Open() {
		return nil, services.Wrap(services.ErrInvalidState, "live", "process frame",
			fmt.Sprintf("session %d is %s", sessionID, session.Status), nil)
	}

	// The detector call happens outside the session lock; only the
	// persistence below needs serialization.
	verdict, err := m.detector.Detect(ctx, image, filename, capturedAt)
	if err != nil {
		m.logger.Warn("frame dropped",
			logging.Int64(logging.FieldSessionID, sessionID),
			logging.Error(err))
		return nil, err
	}
	isDefect := verdict.IsDefect()

	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	// The lock serializes all recorders for this session, and transitions
	// take it too, so the frame index the store will assign is knowable
	// here. The annotated image file is named after it.
	current, err := m.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !current.Status.Open() {
		return nil, services.Wrap(services.ErrInvalidState, "live", "process frame",
			fmt.Sprintf("session %d is %s", sessionID, current.Status), nil)
	}

	record := &inspection.Scan{
		SessionID:       sessionID,
		FrameIndex:      current.TotalFrames + 1,
		Decision:        verdict.FinalDecision,
		AnomalyScore:    verdict.AnomalyScore,
		ConfidenceLevel: verdict.ConfidenceLevel,
		PreprocessMS:    verdict.Timings.PreprocessMS,
		InferenceMS:     verdict.Timings.InferenceMS,
		PostprocessMS:   verdict.Timings.PostprocessMS,
		CapturedAt:      capturedAt,
		CreatedAt:       m.clock(),
	}
	if verdict.Threshold != nil {
		record.Threshold = *verdict.Threshold
	}
	if len(verdict.Defects) > 0 {
		payload, marshalErr := json.Marshal(verdict.Defects)
		if marshalErr != nil {
			return nil, fmt.Errorf("encode defects: %w", marshalErr)
		}
		record.DefectsJSON = string(payload)
	}

	// Annotated frames are only worth keeping when something was found.
	if isDefect && verdict.AnnotatedImage != "" && m.images != nil {
		decoded, decodeErr := base64.StdEncoding.DecodeString(verdict.AnnotatedImage)
		if decodeErr != nil {
			m.logger.Warn("discarding malformed annotated image",
				logging.Int64(logging.FieldSessionID, sessionID),
				logging.Error(decodeErr))
		} else if path, saveErr := m.images.Save(sessionID, record.FrameIndex, decoded); saveErr != nil {
			m.logger.Warn("annotated image not saved",
				logging.Int64(logging.FieldSessionID, sessionID),
				logging.Error(saveErr))
		} else {
			record.AnnotatedImagePath = path
		}
	}

	// One transaction carries both the counter move and the scan row, so a
	// persistence failure drops the frame without tearing the two apart.
	updated, stored, err := m.store.RecordFrameScan(ctx, record, m.clock())
	if err != nil {
		return nil, err
	}

	m.logger.Debug("frame processed",
		logging.Int64(logging.FieldSessionID, sessionID),
		logging.Int64(logging.FieldScanID, stored.ID),
		logging.String("decision", stored.Decision),
		logging.Float64("anomaly_score", stored.AnomalyScore))

	return &ScanOutcome{Session: updated, Scan: stored}, nil
}
