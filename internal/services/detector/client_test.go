package detector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"facet/internal/services"
)

func TestHealthAcceptsHealthyAndOK(t *testing.T) {
	for _, status := range []string{"healthy", "ok", "OK"} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/health" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"` + status + `"}`))
		}))
		client := NewClient(srv.URL)
		if err := client.Health(context.Background()); err != nil {
			t.Errorf("Health with status %q: %v", status, err)
		}
		srv.Close()
	}
}

func TestHealthRejectsUnhealthyService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"degraded"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.Health(context.Background())
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestHealthUnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, WithHealthTimeout(500*time.Millisecond))
	err := client.Health(context.Background())
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestDetectParsesDefectVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect/frame" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if r.FormValue("captured_at") == "" {
			t.Error("missing captured_at field")
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Errorf("missing image part: %v", err)
		} else {
			file.Close()
			if header.Filename != "frame-7.jpg" {
				t.Errorf("filename = %q", header.Filename)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"final_decision": "DEFECT",
			"anomaly_score": 0.91,
			"anomaly_confidence_level": "very high",
			"defects": [
				{"label": " scratch ", "confidence": 0.88, "severity": "High",
				 "area_percent": 1.4, "bounding_box": {"x": 10, "y": 20, "width": 30, "height": 40}}
			],
			"processing_time_breakdown": {"preprocessing_ms": 3.1, "inference_ms": 41.7, "postprocessing_ms": 2.2},
			"annotated_image": "aGVsbG8="
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	verdict, err := client.Detect(context.Background(), []byte("jpegdata"), "frame-7.jpg", time.Now())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if !verdict.IsDefect() {
		t.Fatalf("expected defect verdict, got %q", verdict.FinalDecision)
	}
	if verdict.ConfidenceLevel != ConfidenceVeryHigh {
		t.Errorf("confidence = %q, want %q", verdict.ConfidenceLevel, ConfidenceVeryHigh)
	}
	if verdict.Threshold == nil || *verdict.Threshold != DefaultThreshold {
		t.Errorf("expected default threshold backfill, got %v", verdict.Threshold)
	}
	if len(verdict.Defects) != 1 {
		t.Fatalf("defects = %d, want 1", len(verdict.Defects))
	}
	if verdict.Defects[0].Label != "scratch" || verdict.Defects[0].Severity != "high" {
		t.Errorf("defect not normalized: %+v", verdict.Defects[0])
	}
	if verdict.AnnotatedImage == "" {
		t.Error("expected annotated image payload")
	}
}

func TestDetectMissingDecisionIsContractViolation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"anomaly_score": 0.1}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Detect(context.Background(), []byte("jpegdata"), "frame.jpg", time.Now())
	if !errors.Is(err, services.ErrDetection) {
		t.Fatalf("expected ErrDetection, got %v", err)
	}
	if !strings.Contains(err.Error(), "final_decision") {
		t.Fatalf("error should name the missing field: %v", err)
	}
}

func TestDetectServerErrorClassifiesAsDetection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Detect(context.Background(), []byte("jpegdata"), "frame.jpg", time.Now())
	if !errors.Is(err, services.ErrDetection) {
		t.Fatalf("expected ErrDetection, got %v", err)
	}
}

func TestDetectTimeoutClassifiesAsDetection(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(srv.URL, WithDetectTimeout(100*time.Millisecond))
	_, err := client.Detect(context.Background(), []byte("jpegdata"), "frame.jpg", time.Now())
	if !errors.Is(err, services.ErrDetection) {
		t.Fatalf("expected ErrDetection on timeout, got %v", err)
	}
}

func TestDetectRejectsEmptyImage(t *testing.T) {
	client := NewClient("http://localhost:1")
	_, err := client.Detect(context.Background(), nil, "frame.jpg", time.Now())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
