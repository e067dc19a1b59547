package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeNotFound, "address not found")
	if !stderrors.Is(err, New(CodeNotFound, "other message")) {
		t.Fatal("expected errors with the same code to match")
	}
	if stderrors.Is(err, New(CodeAlreadyExists, "address not found")) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapUnwrapsCause(t *testing.T) {
	cause := stderrors.New("smtp: connection refused")
	err := Wrap(CodeSendFailed, "send notification", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable")
	}
	if got := err.Error(); got != "send notification: smtp: connection refused" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestCodeOfFollowsChain(t *testing.T) {
	err := fmt.Errorf("update address: %w", New(CodeInvalidToken, "token consumed"))
	if got := CodeOf(err); got != CodeInvalidToken {
		t.Fatalf("expected %s, got %s", CodeInvalidToken, got)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("expected %s, got %s", CodeUnknown, got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidArgument, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeInvalidToken, http.StatusGone},
		{CodeSendFailed, http.StatusBadGateway},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.code.HTTPStatus(); got != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.code, tt.want, got)
		}
	}
}

type codedError struct{}

func (codedError) Error() string { return "coded" }
func (codedError) Code() Code    { return CodeInvalidToken }

func TestCodeOfRecognisesCodedErrors(t *testing.T) {
	err := fmt.Errorf("revert: %w", codedError{})
	if got := CodeOf(err); got != CodeInvalidToken {
		t.Fatalf("expected %s, got %s", CodeInvalidToken, got)
	}
}
