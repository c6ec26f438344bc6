package check

import (
	"strings"
	"testing"

	"pkgchk/pkgname"
)

func TestObsoletePathErrorMessage(t *testing.T) {
	err := &ObsoletePathError{Path: pkgname.Pkgpath{Category: "lang", Name: "foo"}}
	if !strings.Contains(err.Error(), "lang/foo") {
		t.Fatalf("Error() = %q, want it to mention the pkgpath", err.Error())
	}
}

func TestProvidesMismatchErrorMessage(t *testing.T) {
	err := &ProvidesMismatchError{
		Path: pkgname.Pkgpath{Category: "lang", Name: "foo"},
		Base: pkgname.Pkgbase("py39-foo"),
	}
	msg := err.Error()
	if !strings.Contains(msg, "lang/foo") || !strings.Contains(msg, "py39-foo") {
		t.Fatalf("Error() = %q, want it to mention both path and base", msg)
	}
}
