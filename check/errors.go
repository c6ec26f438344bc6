package check

import (
	"errors"
	"fmt"

	"pkgchk/pkgname"
)

// ObsoletePathError reports that a PKGPATH named by the config file
// or discovered from an installed package no longer has a Makefile
// under PKGSRCDIR — the package was moved or removed from the tree.
// LatestPkgnamesFromSource logs this rather than returning it, since
// one obsolete pkgpath among many should not abort the rest of a run.
type ObsoletePathError struct {
	Path pkgname.Pkgpath
}

func (e *ObsoletePathError) Error() string {
	return fmt.Sprintf("check: %s has no Makefile - package moved or obsolete", e.Path)
}

// ProvidesMismatchError reports that a pkgpath which previously
// provided an installed PKGBASE no longer does: asking make for
// PKGNAME_REQD matching that base comes back with something else.
// Like ObsoletePathError, this is logged and the caller moves on
// rather than aborting the whole run over one path.
type ProvidesMismatchError struct {
	Path pkgname.Pkgpath
	Base pkgname.Pkgbase
}

func (e *ProvidesMismatchError) Error() string {
	return fmt.Sprintf("check: %s no longer provides a package named like %s-[0-9]*", e.Path, e.Base)
}

// ErrCheckBuildVersionUnsupported is returned when Options.CheckBuildVersion
// is set and an installed package's version equals the latest one, the
// only case in which a build-version check would be needed. Verifying that an installed package was built from the exact
// source revision its PKGPATH is at now requires build-time provenance
// metadata (a recorded source checksum or VCS revision) that neither
// the pkg_summary format nor the installed package database carries
// in this module's target environment, so there is nothing to compare
// against. original pkg_chk never implemented this either ("-B" always
// threw), and this module keeps that boundary explicit rather than
// fake a comparison.
var ErrCheckBuildVersionUnsupported = errors.New("check: -B (check_build_version) is not supported")
