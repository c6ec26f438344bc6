// Package summary reads pkg_summary records — the flattened view of
// either a source tree (one record per buildable package) or a binary
// package repository (one record per .tgz) — and indexes them for
// lookup. Both kinds of Summary are keyed by pkgname.
//
// Grounded directly on the original pkg_chk's summary reader
// (original_source/src/summary.cxx: read_summary, read_local_summary,
// read_remote_summary, and the pkgmap constructor), reusing this
// module's compstream decompressors for the low-level plumbing.
package summary

import (
	"bufio"
	"io"
	"strings"

	"pkgchk/pkgname"
)

// Pkgvars is a single pkg_summary record: the KEY=VALUE pairs pulled
// out of one blank-line-delimited block, keyed by variable name.
// Values are kept as raw strings; callers that need a typed view
// (PKGPATH as a Pkgpath, DEPENDS as a []Pkgpattern, and so on) parse
// the specific keys they use.
type Pkgvars map[string]string

// Get returns the named variable and whether it was present.
func (v Pkgvars) Get(key string) (string, bool) {
	s, ok := v[key]
	return s, ok
}

// Pkgname parses this record's PKGNAME field.
func (v Pkgvars) Pkgname() (pkgname.Pkgname, error) {
	return pkgname.ParsePkgname(v["PKGNAME"])
}

// Pkgpath parses this record's PKGPATH field.
func (v Pkgvars) Pkgpath() (pkgname.Pkgpath, error) {
	return pkgname.ParsePkgpath(v["PKGPATH"])
}

// List splits a space-separated multi-valued field such as DEPENDS or
// CATEGORIES into its component words.
func (v Pkgvars) List(key string) []string {
	s, ok := v[key]
	if !ok {
		return nil
	}
	return strings.Fields(s)
}

// Summary is the flat collection of every record read from one
// pkg_summary stream, keyed by pkgname. A later record with the same
// PKGNAME replaces an earlier one, matching how the original reader
// folds duplicate entries into a single map.
type Summary map[pkgname.Pkgname]Pkgvars

// Pkgmap is the summary reindexed by source location: for each
// pkgpath, the pkgbases that live at that path, and for each pkgbase,
// every pkgname (i.e. every version) recorded for it. This is the
// shape check.LatestPkgnamesFromBinary needs to answer "what is the
// newest version of each package built from pkgpath X".
type Pkgmap map[pkgname.Pkgpath]map[pkgname.Pkgbase]map[pkgname.Pkgname]Pkgvars

// NewPkgmap reindexes a Summary by PKGPATH. Records lacking a
// PKGPATH field (malformed input) are skipped.
func NewPkgmap(s Summary) Pkgmap {
	m := make(Pkgmap)
	for name, vars := range s {
		path, err := vars.Pkgpath()
		if err != nil {
			continue
		}
		byBase := m[path]
		if byBase == nil {
			byBase = make(map[pkgname.Pkgbase]map[pkgname.Pkgname]Pkgvars)
			m[path] = byBase
		}
		byName := byBase[name.Base]
		if byName == nil {
			byName = make(map[pkgname.Pkgname]Pkgvars)
			byBase[name.Base] = byName
		}
		byName[name] = vars
	}
	return m
}

// Read parses a pkg_summary stream: records are blocks of "KEY=VALUE"
// lines separated by one or more blank lines, with "#"-prefixed lines
// ignored as comments. A record is folded into the result keyed by
// its own PKGNAME; records missing either PKGNAME or PKGPATH, or
// where either fails to parse, are silently dropped, matching the
// original reader's tolerance of trailer garbage at end of file.
func Read(r io.Reader) (Summary, error) {
	sum := make(Summary)

	cur := make(Pkgvars)
	flush := func() {
		if len(cur) == 0 {
			return
		}
		if name, err := cur.Pkgname(); err == nil {
			if _, err := cur.Pkgpath(); err == nil {
				sum[name] = cur
			}
		}
		cur = make(Pkgvars)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		cur[key] = val
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sum, nil
}
