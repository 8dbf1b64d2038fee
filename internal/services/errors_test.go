package services

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesMarker(t *testing.T) {
	underlying := errors.New("socket closed")
	err := Wrap(ErrDetection, "detector", "detect", "request failed", underlying)
	if !errors.Is(err, ErrDetection) {
		t.Fatalf("expected marker to survive wrapping: %v", err)
	}
	if !errors.Is(err, underlying) {
		t.Fatalf("expected underlying error to survive wrapping: %v", err)
	}
}

func TestWrapNilMarkerDefaultsToValidation(t *testing.T) {
	err := Wrap(nil, "server", "decode", "bad payload", nil)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("nil marker should classify as validation: %v", err)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{ErrValidation, http.StatusBadRequest},
		{ErrForbidden, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{ErrInvalidState, http.StatusConflict},
		{ErrUnavailable, http.StatusServiceUnavailable},
		{ErrDetection, http.StatusBadGateway},
		{errors.New("mystery"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		wrapped := tc.err
		if wrapped != nil {
			wrapped = fmt.Errorf("%w: context", wrapped)
		}
		if got := HTTPStatus(wrapped); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestCodeMapping(t *testing.T) {
	if got := Code(Wrap(ErrConflict, "session", "pause", "not active", nil)); got != "conflict" {
		t.Fatalf("Code = %q, want conflict", got)
	}
	if got := Code(errors.New("boom")); got != "internal" {
		t.Fatalf("Code = %q, want internal", got)
	}
}
