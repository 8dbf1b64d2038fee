package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"facet/internal/api"
	"facet/internal/client"
)

func TestNewNormalizesBindAddress(t *testing.T) {
	if _, err := client.New("", "", ""); err == nil {
		t.Fatal("expected error for empty address")
	}
	if _, err := client.New("127.0.0.1:7419", "", "line-a"); err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.New("http://127.0.0.1:7419", "", "line-a"); err != nil {
		t.Fatalf("New with scheme: %v", err)
	}
}

func TestClientSendsAuthAndOperatorHeaders(t *testing.T) {
	var gotAuth, gotOperator string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotOperator = r.Header.Get("X-Operator")
		json.NewEncoder(w).Encode(api.DaemonStatus{Running: true})
	}))
	defer srv.Close()

	c, err := client.New(srv.URL, "secret", "line-a")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	status, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running {
		t.Fatal("expected running status")
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotOperator != "line-a" {
		t.Fatalf("X-Operator = %q", gotOperator)
	}
}

func TestClientDecodesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(api.ErrorResponse{
			Error:   "operator line-a already has an open session",
			Code:    "conflict",
			Session: &api.SessionSnapshot{ID: 7, Status: "active"},
		})
	}))
	defer srv.Close()

	c, err := client.New(srv.URL, "", "line-a")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.StartSession(context.Background())
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusConflict || apiErr.Code != "conflict" {
		t.Fatalf("unexpected error payload: %+v", apiErr)
	}
	if apiErr.Session == nil || apiErr.Session.ID != 7 {
		t.Fatalf("expected conflict session in payload, got %+v", apiErr.Session)
	}
}

func TestIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c, err := client.New(addr, "", "line-a")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Status(context.Background())
	if err == nil {
		t.Fatal("expected error against closed server")
	}
	if !client.IsUnavailable(err) {
		t.Fatalf("IsUnavailable(%v) = false", err)
	}
	if client.IsUnavailable(nil) {
		t.Fatal("IsUnavailable(nil) = true")
	}
	if client.IsUnavailable(errors.New("boom")) {
		t.Fatal("IsUnavailable(plain error) = true")
	}
}

func TestListSessionsQueryAndDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "25" {
			t.Errorf("limit = %q", got)
		}
		if got := r.URL.Query().Get("offset"); got != "50" {
			t.Errorf("offset = %q", got)
		}
		json.NewEncoder(w).Encode(api.SessionListResponse{
			Sessions:            []api.SessionSnapshot{{ID: 1}, {ID: 2}},
			Checksum:            "abc123",
			SyncIntervalSeconds: 5,
		})
	}))
	defer srv.Close()

	c, err := client.New(srv.URL, "", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	page, err := c.ListSessions(context.Background(), 25, 50)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(page.Sessions) != 2 || page.Checksum != "abc123" {
		t.Fatalf("unexpected page: %+v", page)
	}
}
