package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNetworkErrorUnwrap(t *testing.T) {
	err := NewNetworkError("mpbr0", "start", ErrDaemonStartFailed)

	if !errors.Is(err, ErrDaemonStartFailed) {
		t.Error("expected errors.Is to match wrapped sentinel")
	}

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatal("expected errors.As to find NetworkError")
	}
	if netErr.Bridge != "mpbr0" {
		t.Errorf("expected bridge mpbr0, got %s", netErr.Bridge)
	}
}

func TestVaultErrorMessage(t *testing.T) {
	err := NewVaultError("focal", "remove", ErrImageNotFound)

	expected := "image focal: operation remove: image not found"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		msg     string
		wantNil bool
	}{
		{
			name:    "wraps non-nil error",
			err:     ErrTimeout,
			msg:     "waiting for daemon",
			wantNil: false,
		},
		{
			name:    "nil error stays nil",
			err:     nil,
			msg:     "ignored",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := Wrap(tt.err, tt.msg)
			if tt.wantNil {
				if wrapped != nil {
					t.Errorf("expected nil, got %v", wrapped)
				}
				return
			}
			if !errors.Is(wrapped, tt.err) {
				t.Error("wrapped error lost its chain")
			}
			if wrapped.Error() != fmt.Sprintf("%s: %v", tt.msg, tt.err) {
				t.Errorf("unexpected message: %s", wrapped.Error())
			}
		})
	}
}
