package live

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"facet/internal/inspection"
	"facet/internal/logging"
	"facet/internal/services"
	"facet/internal/services/detector"
)

// Detector is the slice of the detection client the machine needs. The
// concrete implementation lives in services/detector; tests substitute
// fakes.
type Detector interface {
	Health(ctx context.Context) error
	Detect(ctx context.Context, image []byte, filename string, capturedAt time.Time) (*detector.Response, error)
}

// Machine owns session lifecycle transitions and frame ingestion. One
// in-process lock per session serializes transitions against ingestion so
// a stop cannot interleave with a half-recorded frame.
type Machine struct {
	store    *inspection.Store
	detector Detector
	images   *ImageStore
	logger   *slog.Logger
	clock    func() time.Time

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewMachine wires the session machine.
func NewMachine(store *inspection.Store, det Detector, images *ImageStore, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Machine{
		store:    store,
		detector: det,
		images:   images,
		logger:   logging.NewComponentLogger(logger, "live"),
		clock:    time.Now,
		locks:    make(map[int64]*sync.Mutex),
	}
}

func (m *Machine) sessionLock(id int64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[id] = lock
	}
	return lock
}

func (m *Machine) releaseLock(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, id)
}

// Start opens a new session for the operator. The detector must pass its
// health probe first; an unhealthy detector fails the start without
// creating any row. A duplicate start returns the operator's existing open
// session alongside ErrConflict so clients can resynchronize.
func (m *Machine) Start(ctx context.Context, operator string) (*inspection.Session, error) {
	if err := m.detector.Health(ctx); err != nil {
		m.logger.Warn("detector health gate failed",
			logging.String(logging.FieldOperator, operator),
			logging.Error(err))
		return nil, err
	}

	session, err := m.store.CreateSession(ctx, operator, m.clock())
	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			if existing, fetchErr := m.store.OpenSessionForOperator(ctx, operator); fetchErr == nil {
				return existing, err
			}
		}
		return nil, err
	}

	m.logger.Info("session started",
		logging.Int64(logging.FieldSessionID, session.ID),
		logging.String(logging.FieldOperator, operator))
	return session, nil
}

// Pause suspends an active session. Frames keep flowing into a paused
// session; only the operator's intent is recorded.
func (m *Machine) Pause(ctx context.Context, sessionID int64) (*inspection.Session, error) {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := m.store.PauseSession(ctx, sessionID, m.clock())
	if err == nil {
		m.logger.Info("session paused", logging.Int64(logging.FieldSessionID, sessionID))
	}
	return session, err
}

// Resume reactivates a paused session.
func (m *Machine) Resume(ctx context.Context, sessionID int64) (*inspection.Session, error) {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := m.store.ResumeSession(ctx, sessionID, m.clock())
	if err == nil {
		m.logger.Info("session resumed", logging.Int64(logging.FieldSessionID, sessionID))
	}
	return session, err
}

// Stop completes a session. The counters and rates at the moment of the
// stop become the session's permanent record.
func (m *Machine) Stop(ctx context.Context, sessionID int64) (*inspection.Session, error) {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := m.store.CompleteSession(ctx, sessionID, m.clock())
	if err != nil {
		return session, err
	}
	m.releaseLock(sessionID)
	m.logger.Info("session completed",
		logging.Int64(logging.FieldSessionID, sessionID),
		logging.Int64("total_frames", session.TotalFrames),
		logging.Float64("defect_rate", session.DefectRate))
	return session, nil
}

// Session returns the current snapshot of one session.
func (m *Machine) Session(ctx context.Context, sessionID int64) (*inspection.Session, error) {
	return m.store.SessionByID(ctx, sessionID)
}

// Current returns the operator's open session, if any.
func (m *Machine) Current(ctx context.Context, operator string) (*inspection.Session, error) {
	return m.store.OpenSessionForOperator(ctx, operator)
}
