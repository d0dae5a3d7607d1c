package apimodel

import (
	"errors"
	"fmt"
	"testing"
)

func TestStatusError(t *testing.T) {
	tests := []struct {
		err       StatusError
		wantError string
	}{
		{StatusError{ErrStatusCode: 503}, "503"},
		{StatusError{ErrStatusCode: 401, ErrMessage: "Unauthorized"}, "401:Unauthorized"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.wantError {
			t.Errorf("Error() = %q, want %q", got, tt.wantError)
		}
	}
}

func TestStatusErrorAs(t *testing.T) {
	err := fmt.Errorf("price: %w", &StatusError{ErrStatusCode: 429})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("errors.As() = false")
	}
	if statusErr.StatusCode() != 429 {
		t.Errorf("StatusCode() = %d, want 429", statusErr.StatusCode())
	}
}
