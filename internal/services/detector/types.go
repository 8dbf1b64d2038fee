package detector

import "strings"

// Decision labels returned by the detection service.
const (
	DecisionDefect = "defect"
	DecisionGood   = "good"
)

// Confidence levels, ordered from weakest to strongest.
const (
	ConfidenceLow      = "low"
	ConfidenceMedium   = "medium"
	ConfidenceHigh     = "high"
	ConfidenceVeryHigh = "very_high"
)

// DefaultThreshold is assumed when the service omits the anomaly threshold.
const DefaultThreshold = 0.3

// HealthResponse is the payload of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// Healthy reports whether the service considers itself ready for detection.
func (h HealthResponse) Healthy() bool {
	switch strings.ToLower(strings.TrimSpace(h.Status)) {
	case "healthy", "ok":
		return true
	default:
		return false
	}
}

// BoundingBox is the pixel-space location of a single detection.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Defect is one detected defect region within a frame.
type Defect struct {
	Label       string      `json:"label"`
	Confidence  float64     `json:"confidence"`
	Severity    string      `json:"severity"`
	AreaPercent float64     `json:"area_percent"`
	Box         BoundingBox `json:"bounding_box"`
}

// Timings is the per-stage processing breakdown, in milliseconds.
type Timings struct {
	PreprocessMS  float64 `json:"preprocessing_ms"`
	InferenceMS   float64 `json:"inference_ms"`
	PostprocessMS float64 `json:"postprocessing_ms"`
}

// Response is the payload of POST /detect/frame. Optional fields are
// pointers so Normalize can distinguish "absent" from zero values.
type Response struct {
	FinalDecision   string   `json:"final_decision"`
	AnomalyScore    float64  `json:"anomaly_score"`
	ConfidenceLevel string   `json:"anomaly_confidence_level"`
	Threshold       *float64 `json:"threshold,omitempty"`
	Defects         []Defect `json:"defects"`
	Timings         Timings  `json:"processing_time_breakdown"`
	// AnnotatedImage is a base64-encoded annotated frame, present only when
	// the service rendered one.
	AnnotatedImage string `json:"annotated_image,omitempty"`
}

// Normalize backfills documented defaults for optional fields and
// canonicalizes enum-like values. A response missing optional fields is
// valid; only an empty decision is a contract violation, reported by the
// client before Normalize runs.
func (r *Response) Normalize() {
	r.FinalDecision = strings.ToLower(strings.TrimSpace(r.FinalDecision))
	r.ConfidenceLevel = normalizeConfidence(r.ConfidenceLevel)
	if r.Threshold == nil {
		threshold := DefaultThreshold
		r.Threshold = &threshold
	}
	for i := range r.Defects {
		r.Defects[i].Label = strings.TrimSpace(r.Defects[i].Label)
		r.Defects[i].Severity = strings.ToLower(strings.TrimSpace(r.Defects[i].Severity))
	}
}

// IsDefect reports whether the verdict flags the frame. The decision field
// alone decides; an empty defect list on a defect verdict is still a defect.
func (r *Response) IsDefect() bool {
	return r.FinalDecision == DecisionDefect
}

func normalizeConfidence(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	switch normalized {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh, ConfidenceVeryHigh:
		return normalized
	default:
		return ConfidenceLow
	}
}
