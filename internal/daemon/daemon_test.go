package daemon_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"facet/internal/client"
	"facet/internal/daemon"
	"facet/internal/logging"
	"facet/internal/testsupport"
)

func newDetectorStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			json.NewEncoder(w).Encode(map[string]any{"status": "healthy"})
		case "/detect/frame":
			json.NewEncoder(w).Encode(map[string]any{"final_decision": "GOOD"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDaemonStartStop(t *testing.T) {
	det := newDetectorStub(t)
	cfg := testsupport.NewConfig(t, testsupport.WithDetectorURL(det.URL))

	d, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	status := d.Status()
	if !status.Running {
		t.Fatal("expected running status")
	}
	if status.APIAddress == "" {
		t.Fatal("expected bound api address")
	}

	c, err := client.New(status.APIAddress, "", "line-a")
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	apiStatus, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("api status: %v", err)
	}
	if !apiStatus.Running {
		t.Fatal("api reports not running")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected stopped status")
	}
}

func TestDaemonSingleInstanceLock(t *testing.T) {
	det := newDetectorStub(t)
	cfg := testsupport.NewConfig(t, testsupport.WithDetectorURL(det.URL))

	first, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	defer first.Close()

	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	second, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New (second): %v", err)
	}
	defer second.Close()

	if err := second.Start(context.Background()); err == nil {
		t.Fatal("expected second instance to fail lock acquisition")
	}
}

func TestDaemonSessionRoundTrip(t *testing.T) {
	det := newDetectorStub(t)
	cfg := testsupport.NewConfig(t, testsupport.WithDetectorURL(det.URL))

	d, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	defer d.Close()

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	c, err := client.New(d.Addr(), "", "line-a")
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	session, err := c.StartSession(ctx)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if session.Status != "active" {
		t.Fatalf("status = %q, want active", session.Status)
	}

	frame, err := c.IngestFrame(ctx, session.ID, testsupport.FrameBytes(t, 2048), "frame-1.jpg", time.Now())
	if err != nil {
		t.Fatalf("IngestFrame: %v", err)
	}
	if frame.Session.TotalFrames != 1 || frame.Scan.FrameIndex != 1 {
		t.Fatalf("unexpected frame response: %+v", frame)
	}

	stopped, err := c.StopSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("StopSession: %v", err)
	}
	if stopped.Status != "completed" {
		t.Fatalf("status = %q, want completed", stopped.Status)
	}
}
