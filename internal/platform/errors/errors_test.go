package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	base := New(CodeInventoryFull, "inventory is full")
	other := WithMetadata(CodeInventoryFull, "no room for item", map[string]string{"Item": "Rusty Sword"})

	if !stderrors.Is(other, base) {
		t.Errorf("errors.Is(other, base) = false, want true for matching codes")
	}

	mismatch := New(CodeNotFound, "missing")
	if stderrors.Is(other, mismatch) {
		t.Errorf("errors.Is(other, mismatch) = true, want false for different codes")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(CodeNarrativeUnavailable, "story generation failed", cause)

	if !stderrors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false, want true")
	}
	if err.Error() != "story generation failed" {
		t.Errorf("Error() = %q, want %q", err.Error(), "story generation failed")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"domain error", New(CodeSessionInvalid, "bad token"), CodeSessionInvalid},
		{"plain error", fmt.Errorf("boom"), CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		code Code
		want int
	}{
		{"not found", CodeNotFound, http.StatusNotFound},
		{"inventory full", CodeInventoryFull, http.StatusConflict},
		{"invalid credentials", CodeInvalidCredentials, http.StatusUnauthorized},
		{"insufficient credits", CodeInsufficientCredits, http.StatusPaymentRequired},
		{"narrative malformed", CodeNarrativeMalformed, http.StatusBadGateway},
		{"unknown", CodeUnknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.want {
				t.Errorf("%s.HTTPStatus() = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

func TestCodeRetryable(t *testing.T) {
	if !CodeNarrativeUnavailable.Retryable() {
		t.Errorf("CodeNarrativeUnavailable.Retryable() = false, want true")
	}
	if CodeInventoryFull.Retryable() {
		t.Errorf("CodeInventoryFull.Retryable() = true, want false")
	}
}
