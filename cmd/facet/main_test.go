package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"facet/internal/api"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "facet.toml")

	output, err := executeCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(output, "Wrote sample configuration") {
		t.Fatalf("unexpected output: %s", output)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[detector]") {
		t.Fatal("sample config missing detector section")
	}

	if _, err := executeCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if _, err := executeCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestSessionsCommandRendersTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(api.SessionListResponse{
			Sessions: []api.SessionSnapshot{
				{
					ID:            3,
					Operator:      "line-a",
					Status:        "active",
					TotalFrames:   120,
					DefectCount:   6,
					DefectRate:    5.0,
					ThroughputFPS: 2.4,
					StartedAt:     "2026-08-28T08:00:00Z",
				},
			},
			Checksum: "deadbeef",
		})
	}))
	defer srv.Close()

	output, err := executeCommand(t, "--address", srv.URL, "sessions")
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	for _, want := range []string{"line-a", "Active", "Checksum: deadbeef"} {
		if !strings.Contains(output, want) {
			t.Fatalf("output missing %q:\n%s", want, output)
		}
	}
}

func TestSessionStartRequiresOperator(t *testing.T) {
	t.Setenv("FACET_OPERATOR", "")
	if _, err := executeCommand(t, "--address", "127.0.0.1:1", "session", "start"); err == nil {
		t.Fatal("expected missing-operator error")
	}
}

func TestStatusCommandUnreachableDaemon(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := executeCommand(t, "--address", addr, "status")
	if err == nil {
		t.Fatal("expected error against closed daemon")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Fatalf("expected friendly unreachable error, got %v", err)
	}
}
