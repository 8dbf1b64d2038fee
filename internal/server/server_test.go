package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"facet/internal/api"
	"facet/internal/config"
	"facet/internal/inspection"
	"facet/internal/live"
	"facet/internal/services"
	"facet/internal/services/detector"
	"facet/internal/settings"
)

type stubDetector struct {
	healthErr error
	decision  string
}

func (d *stubDetector) Health(ctx context.Context) error { return d.healthErr }

func (d *stubDetector) Detect(ctx context.Context, image []byte, filename string, capturedAt time.Time) (*detector.Response, error) {
	resp := &detector.Response{FinalDecision: d.decision, AnomalyScore: 0.5}
	resp.Normalize()
	return resp, nil
}

type testEnv struct {
	srv      *httptest.Server
	store    *inspection.Store
	detector *stubDetector
}

func newTestEnv(t *testing.T, token string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	store, err := inspection.OpenPath(filepath.Join(dir, "facet.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	det := &stubDetector{decision: detector.DecisionGood}
	machine := live.NewMachine(store, det, live.NewImageStore(filepath.Join(dir, "images")), nil)
	settingsStore := settings.NewStore(filepath.Join(dir, "settings.json"))

	cfg := config.Default()
	cfg.Paths.APIToken = token
	cfg.Detector.BaseURL = "http://detector.test"

	server := New(&cfg, machine, store, settingsStore, nil)
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, store: store, detector: det}
}

func (e *testEnv) request(t *testing.T, method, path, operator string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if operator != "" {
		req.Header.Set("X-Operator", operator)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func startSession(t *testing.T, env *testEnv, operator string) api.SessionSnapshot {
	t.Helper()
	resp := env.request(t, http.MethodPost, "/api/sessions", operator, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start session: status %d", resp.StatusCode)
	}
	return decode[api.SessionResponse](t, resp).Session
}

func TestStartSessionAndDuplicateConflict(t *testing.T) {
	env := newTestEnv(t, "")

	session := startSession(t, env, "alice")
	if session.Status != "active" || session.Operator != "alice" {
		t.Fatalf("session = %+v", session)
	}

	resp := env.request(t, http.MethodPost, "/api/sessions", "alice", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate start: status %d, want 409", resp.StatusCode)
	}
	conflict := decode[api.ErrorResponse](t, resp)
	if conflict.Code != "conflict" {
		t.Fatalf("code = %q", conflict.Code)
	}
	if conflict.Session == nil || conflict.Session.ID != session.ID {
		t.Fatalf("conflict should include the existing session, got %+v", conflict.Session)
	}
}

func TestStartSessionGatedOnDetector(t *testing.T) {
	env := newTestEnv(t, "")
	env.detector.healthErr = services.Wrap(services.ErrUnavailable, "detector", "health", "down", nil)

	resp := env.request(t, http.MethodPost, "/api/sessions", "alice", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	payload := decode[api.ErrorResponse](t, resp)
	if payload.Code != "service_unavailable" {
		t.Fatalf("code = %q", payload.Code)
	}
}

func TestLifecycleEndpointsEnforceOwnership(t *testing.T) {
	env := newTestEnv(t, "")
	session := startSession(t, env, "alice")
	base := fmt.Sprintf("/api/sessions/%d", session.ID)

	resp := env.request(t, http.MethodPost, base+"/pause", "mallory", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign pause: status %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.request(t, http.MethodPost, base+"/pause", "alice", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pause: status %d", resp.StatusCode)
	}
	if got := decode[api.SessionResponse](t, resp).Session.Status; got != "paused" {
		t.Fatalf("status = %q, want paused", got)
	}

	resp = env.request(t, http.MethodPost, base+"/resume", "alice", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resume: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.request(t, http.MethodPost, base+"/stop", "alice", nil)
	if got := decode[api.SessionResponse](t, resp).Session; got.Status != "completed" || got.EndedAt == "" {
		t.Fatalf("stopped session = %+v", got)
	}

	// Illegal transition reports the current status for resync.
	resp = env.request(t, http.MethodPost, base+"/pause", "alice", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("pause completed: status %d, want 409", resp.StatusCode)
	}
	conflict := decode[api.ErrorResponse](t, resp)
	if conflict.Session == nil || conflict.Session.Status != "completed" {
		t.Fatalf("conflict payload = %+v", conflict)
	}
}

func multipartFrame(t *testing.T, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "frame.jpg")
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(image); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestIngestFrameMultipart(t *testing.T) {
	env := newTestEnv(t, "")
	session := startSession(t, env, "alice")

	env.detector.decision = detector.DecisionDefect
	body, contentType := multipartFrame(t, []byte("jpegdata"))
	req, err := http.NewRequest(http.MethodPost, env.srv.URL+fmt.Sprintf("/api/sessions/%d/frames", session.ID), body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Operator", "alice")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d: %s", resp.StatusCode, raw)
	}
	frame := decode[api.FrameResponse](t, resp)
	if frame.Scan.Decision != "defect" || frame.Session.TotalFrames != 1 || frame.Session.DefectCount != 1 {
		t.Fatalf("frame response = %+v", frame)
	}
	if frame.Session.DefectRate != 100.00 {
		t.Fatalf("defect rate = %v, want 100.00", frame.Session.DefectRate)
	}
}

func TestListChecksumStableAcrossPaging(t *testing.T) {
	env := newTestEnv(t, "")
	startSession(t, env, "alice")
	startSession(t, env, "bob")
	startSession(t, env, "carol")

	full := decode[api.SessionListResponse](t, env.request(t, http.MethodGet, "/api/sessions", "", nil))
	paged := decode[api.SessionListResponse](t, env.request(t, http.MethodGet, "/api/sessions?limit=1&offset=1", "", nil))
	if len(full.Sessions) != 3 || len(paged.Sessions) != 1 {
		t.Fatalf("sessions = %d/%d", len(full.Sessions), len(paged.Sessions))
	}
	if full.Checksum != paged.Checksum {
		t.Fatal("paging must not change the list checksum")
	}
	if full.SyncIntervalSeconds <= 0 {
		t.Fatal("expected advertised sync interval")
	}

	check := decode[api.ChecksumResponse](t, env.request(t, http.MethodGet, "/api/sessions/check", "", nil))
	if check.Checksum != full.Checksum {
		t.Fatal("check endpoint must agree with the list endpoint")
	}

	// A mutation moves the digest.
	startSession(t, env, "dave")
	after := decode[api.ChecksumResponse](t, env.request(t, http.MethodGet, "/api/sessions/check", "", nil))
	if after.Checksum == check.Checksum {
		t.Fatal("insert should change the checksum")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	env := newTestEnv(t, "")

	doc := decode[settings.Document](t, env.request(t, http.MethodGet, "/api/settings", "", nil))
	if doc.Revision != 0 {
		t.Fatalf("fresh revision = %d", doc.Revision)
	}

	patch := strings.NewReader(`{"refresh_seconds": 2, "sound_alerts": true}`)
	updated := decode[settings.Document](t, env.request(t, http.MethodPatch, "/api/settings", "", patch))
	if updated.RefreshSeconds != 2 || !updated.SoundAlerts || updated.Revision != 1 {
		t.Fatalf("updated = %+v", updated)
	}

	bad := strings.NewReader(`{"refresh_seconds": 0}`)
	resp := env.request(t, http.MethodPatch, "/api/settings", "", bad)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid patch: status %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t, "secret")

	resp := env.request(t, http.MethodGet, "/api/status", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated: status %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("authed request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authed: status %d, want 200", resp.StatusCode)
	}
	status := decode[api.DaemonStatus](t, resp)
	if !status.Running || status.PID == 0 {
		t.Fatalf("status = %+v", status)
	}
}

func TestFrameSocketIngest(t *testing.T) {
	env := newTestEnv(t, "")
	session := startSession(t, env, "alice")

	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") +
		fmt.Sprintf("/ws/sessions/%d/frames", session.ID)
	header := http.Header{"X-Operator": []string{"alice"}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("dial: %v (resp %+v)", err, resp)
	}
	defer conn.Close()

	for i := 0; i < 3; i++ {
		if err := conn.WriteMessage(websocket.BinaryMessage, []byte("jpegdata")); err != nil {
			t.Fatalf("write frame %d: %v", i, err)
		}
		var frame api.FrameResponse
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read response %d: %v", i, err)
		}
		if frame.Session.TotalFrames != int64(i+1) {
			t.Fatalf("total = %d, want %d", frame.Session.TotalFrames, i+1)
		}
	}
}
