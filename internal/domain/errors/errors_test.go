package errors

import (
	stdErrors "errors"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"not found", ErrNotFound},
		{"already exists", ErrAlreadyExists},
		{"invalid credentials", ErrInvalidCredentials},
		{"invalid signature", ErrInvalidSignature},
		{"malformed payload", ErrMalformedPayload},
		{"ignored event", ErrIgnoredEvent},
		{"invalid order state", ErrInvalidOrderState},
		{"invalid amount", ErrInvalidAmount},
		{"invalid interval", ErrInvalidInterval},
		{"missing identity", ErrMissingIdentity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !stdErrors.Is(tc.err, tc.err) {
				t.Fatalf("expected error to match itself: %v", tc.err)
			}
		})
	}
}
