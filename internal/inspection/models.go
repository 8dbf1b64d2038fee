package inspection

import "time"

// Status represents the lifecycle of an inspection session.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	// StatusAborted is reserved for sessions terminated without a normal
	// stop. No code path currently produces it; it exists so stored rows
	// from external tooling still render.
	StatusAborted Status = "aborted"
)

var allStatuses = []Status{StatusActive, StatusPaused, StatusCompleted, StatusAborted}

// ValidStatus reports whether value is a known session status.
func ValidStatus(value Status) bool {
	for _, status := range allStatuses {
		if status == value {
			return true
		}
	}
	return false
}

// Open reports whether the status admits further frames.
func (s Status) Open() bool {
	return s == StatusActive || s == StatusPaused
}

// Session is one inspection run owned by a single operator.
//
// DefectCount plus GoodCount always equals TotalFrames; the store enforces
// this by incrementing both the bucket and the total in one statement.
// Rates are percentages rounded to two decimals, throughput is frames per
// second rounded to three. Once a session completes the stored rates are
// final; nothing recomputes them afterwards.
type Session struct {
	ID            int64
	PublicID      string
	Operator      string
	Status        Status
	TotalFrames   int64
	DefectCount   int64
	GoodCount     int64
	DefectRate    float64
	GoodRate      float64
	ThroughputFPS float64
	StartedAt     time.Time
	EndedAt       *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Revision      int64
}

// Scan is the persisted verdict for one processed frame.
type Scan struct {
	ID                 int64
	SessionID          int64
	FrameIndex         int64
	Decision           string
	AnomalyScore       float64
	ConfidenceLevel    string
	Threshold          float64
	DefectsJSON        string
	PreprocessMS       float64
	InferenceMS        float64
	PostprocessMS      float64
	AnnotatedImagePath string
	CapturedAt         time.Time
	CreatedAt          time.Time
	Revision           int64
}

// IsDefect reports whether the scan recorded a defect verdict.
func (s *Scan) IsDefect() bool {
	return s.Decision == "defect"
}

// ListOptions controls session listing. A zero value lists every session
// newest first.
type ListOptions struct {
	Operator string
	Status   Status
	Limit    int
	Offset   int
}
