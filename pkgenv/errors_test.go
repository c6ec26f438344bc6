package pkgenv

import (
	"errors"
	"testing"
)

func TestFatalEnvironmentErrorUnwrap(t *testing.T) {
	inner := errors.New("exec: \"uname\": not found")
	err := &FatalEnvironmentError{Field: "MACHINE_ARCH", Err: inner}

	if !errors.Is(err, inner) {
		t.Fatalf("errors.Is did not see through Unwrap")
	}
	if got := err.Error(); got == "" {
		t.Fatalf("Error() returned empty string")
	}
}
