package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", Validation("bad"), http.StatusBadRequest},
		{"not found", NotFound("missing"), http.StatusNotFound},
		{"conflict", Conflict("done"), http.StatusConflict},
		{"auth", Auth("nope"), http.StatusUnauthorized},
		{"config", Config("key"), http.StatusInternalServerError},
		{"internal", Internal("db", errors.New("boom")), http.StatusInternalServerError},
		{"untyped", errors.New("plain"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("outer: %w", NotFound("inner")), http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HTTPStatus(tc.err); got != tc.expected {
				t.Errorf("Expected status %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestMessage_HidesInternalDetail(t *testing.T) {
	err := Internal("failed to save patient", errors.New("pq: connection refused"))

	if Message(err) != "Internal server error" {
		t.Errorf("Expected generic message, got '%s'", Message(err))
	}
	if Message(Validation("Invalid user type")) != "Invalid user type" {
		t.Error("Expected validation message to pass through")
	}
}

func TestInternal_Unwraps(t *testing.T) {
	cause := errors.New("timeout")
	err := Internal("failed to load patient", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected wrapped cause to be reachable with errors.Is")
	}
	if !Is(err, KindInternal) {
		t.Error("Expected internal kind")
	}
	if Is(nil, KindInternal) {
		t.Error("Expected nil error to match no kind")
	}
}
