package client

import (
	"errors"
	"strings"
	"testing"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		errorClass ErrorClass
		expected   bool
	}{
		{name: "client error should not retry", errorClass: ErrorClassClient, expected: false},
		{name: "server error should retry", errorClass: ErrorClassServer, expected: true},
		{name: "rate limit should retry", errorClass: ErrorClassRateLimit, expected: true},
		{name: "network error should retry", errorClass: ErrorClassNetwork, expected: true},
		{name: "payload error should not retry", errorClass: ErrorClassPayload, expected: false},
		{name: "canceled should not retry", errorClass: ErrorClassCanceled, expected: false},
		{name: "empty error class should not retry", errorClass: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := shouldRetry(tt.errorClass); result != tt.expected {
				t.Errorf("shouldRetry(%q) = %v, want %v", tt.errorClass, result, tt.expected)
			}
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorClass
	}{
		{400, ErrorClassClient},
		{404, ErrorClassClient},
		{304, ErrorClassClient},
		{429, ErrorClassRateLimit},
		{500, ErrorClassServer},
		{503, ErrorClassServer},
	}

	for _, tt := range tests {
		if got := classifyStatus(tt.status); got != tt.want {
			t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestTransportError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *TransportError
		expected string
	}{
		{
			name: "error with wrapped error",
			err: &TransportError{
				Endpoint:   "detail",
				StatusCode: 500,
				ErrorClass: ErrorClassServer,
				Message:    "Internal Server Error",
				Err:        errors.New("upstream failure"),
			},
			expected: "people detail server error (status 500): Internal Server Error: upstream failure",
		},
		{
			name: "error without wrapped error",
			err: &TransportError{
				Endpoint:   "list",
				StatusCode: 404,
				ErrorClass: ErrorClassClient,
				Message:    "Not Found",
			},
			expected: "people list client error (status 404): Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestTransportError_Unwrap(t *testing.T) {
	err := &TransportError{Endpoint: "detail", ErrorClass: ErrorClassClient, Err: ErrMissingID}

	if !errors.Is(err, ErrMissingID) {
		t.Error("errors.Is should find the wrapped error")
	}

	var terr *TransportError
	wrapped := errors.Join(errors.New("outer"), err)
	if !errors.As(wrapped, &terr) {
		t.Fatal("errors.As should find TransportError")
	}
	if !strings.Contains(terr.Error(), "person id is required") {
		t.Errorf("unexpected message %q", terr.Error())
	}
}
