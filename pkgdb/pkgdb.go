// Package pkgdb queries the local installed-package database through
// the pkg_info tool: streaming the full list of installed pkgnames,
// checking a single pattern's installed-ness, and extracting a
// package's build-time dependencies.
//
// Grounded on original_source/lib/pkgxx/pkgdb.hxx
// (installed_pkgname_iterator, is_pkg_installed, build_depends) and
// wired through this module's own harness package rather than the
// original's raw popen, following the same "spawn once, stream
// stdout lazily" shape the teacher uses for pkg.GetInstalledPackages
// (pkg/pkg.go).
package pkgdb

import (
	"bufio"
	"context"
	"io"
	"strings"

	"pkgchk/harness"
	"pkgchk/pkgname"
	"pkgchk/strutil"
)

// InstalledPkgnameStream lazily yields every installed pkgname, one
// no-argument `pkg_info` invocation backing the whole stream. Close
// must be called once the caller is done, whether or not it consumed
// the stream to exhaustion.
type InstalledPkgnameStream struct {
	h       *harness.Harness
	scanner *bufio.Scanner
	err     error
}

// StreamInstalledPkgnames starts pkg_info with no arguments - its
// default mode lists every installed package, one PKGNAME per line -
// and returns a stream over its output. pkgInfoPath is the PKG_INFO
// tool from the environment (see pkgenv.Environment.PkgInfo).
func StreamInstalledPkgnames(pkgInfoPath string) (*InstalledPkgnameStream, error) {
	h, err := harness.New(pkgInfoPath, []string{})
	if err != nil {
		return nil, err
	}
	stdout, err := h.Stdout()
	if err != nil {
		h.Close()
		return nil, err
	}
	return &InstalledPkgnameStream{h: h, scanner: bufio.NewScanner(stdout)}, nil
}

// Next returns the next installed pkgname and true, or the zero value
// and false once the stream is exhausted or pkg_info output a line
// that doesn't parse as a pkgname. Call Err after Next returns false
// to distinguish "exhausted cleanly" from "failed".
func (s *InstalledPkgnameStream) Next() (pkgname.Pkgname, bool) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		n, err := pkgname.ParsePkgname(line)
		if err != nil {
			s.err = err
			return pkgname.Pkgname{}, false
		}
		return n, true
	}
	s.err = s.scanner.Err()
	return pkgname.Pkgname{}, false
}

// Err returns the error, if any, that stopped the stream.
func (s *InstalledPkgnameStream) Err() error {
	return s.err
}

// Close waits for the backing pkg_info process and releases its
// resources.
func (s *InstalledPkgnameStream) Close() error {
	return s.h.Close()
}

// All drains the stream into a slice, for callers that don't need
// laziness (mainly tests and the once-per-run environment futures).
func All(pkgInfoPath string) ([]pkgname.Pkgname, error) {
	s, err := StreamInstalledPkgnames(pkgInfoPath)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	var out []pkgname.Pkgname
	for {
		n, ok := s.Next()
		if !ok {
			break
		}
		out = append(out, n)
	}
	return out, s.Err()
}

// IsPkgInstalled reports whether any installed package matches
// pattern, by invoking `pkg_info -E <pattern>` and checking its exit
// status rather than scanning the whole installed-package list.
func IsPkgInstalled(ctx context.Context, pkgInfoPath string, pattern pkgname.Pkgpattern) (bool, error) {
	h, err := harness.New(pkgInfoPath, []string{"-E", pattern.String()}, harness.WithStderr(harness.StderrClose))
	if err != nil {
		return false, err
	}
	exited, err := h.WaitExit()
	if err != nil {
		return false, err
	}
	return exited.Code == 0, nil
}

// BuildDepends returns the @blddep entries recorded for the installed
// package name (its BUILD_DEPENDS and DEPENDS, but not TOOL_DEPENDS),
// by invoking `pkg_info -Nq <pkgname>` and parsing its
// whitespace-separated output as pkgnames.
func BuildDepends(pkgInfoPath string, name pkgname.Pkgname) ([]pkgname.Pkgname, error) {
	h, err := harness.New(pkgInfoPath, []string{"-Nq", name.String()})
	if err != nil {
		return nil, err
	}
	defer h.Close()

	stdout, err := h.Stdout()
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(stdout)
	if err != nil {
		return nil, err
	}

	var out []pkgname.Pkgname
	for _, word := range strutil.All(string(data), " \t\n") {
		dep, err := pkgname.ParsePkgname(word)
		if err != nil {
			continue
		}
		out = append(out, dep)
	}
	return out, nil
}
