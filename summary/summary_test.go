package summary

import (
	"strings"
	"testing"

	"pkgchk/pkgname"
)

func TestReadEmptyStream(t *testing.T) {
	sum, err := Read(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(sum) != 0 {
		t.Fatalf("got %d records, want 0", len(sum))
	}
}

func TestReadBasicRecord(t *testing.T) {
	const input = `PKGNAME=foo-1.0
PKGPATH=category/foo
COMMENT=a thing

PKGNAME=bar-2.0
PKGPATH=category/bar
COMMENT=another thing
`
	sum, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(sum) != 2 {
		t.Fatalf("got %d records, want 2", len(sum))
	}

	foo := mustParseName(t, "foo-1.0")
	vars, ok := sum[foo]
	if !ok {
		t.Fatalf("missing record for %v", foo)
	}
	if got, _ := vars.Get("COMMENT"); got != "a thing" {
		t.Fatalf("COMMENT = %q", got)
	}
}

func TestReadDuplicatePkgnameLastWins(t *testing.T) {
	const input = `PKGNAME=foo-1.0
PKGPATH=category/foo
COMMENT=first

PKGNAME=foo-1.0
PKGPATH=category/foo
COMMENT=second
`
	sum, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(sum) != 1 {
		t.Fatalf("got %d records, want 1", len(sum))
	}
	foo := mustParseName(t, "foo-1.0")
	if got, _ := sum[foo].Get("COMMENT"); got != "second" {
		t.Fatalf("COMMENT = %q, want %q", got, "second")
	}
}

func TestReadSkipsCommentsAndMalformed(t *testing.T) {
	const input = `# a comment
PKGNAME=foo-1.0
PKGPATH=category/foo
COMMENT=ok
not-a-kv-line
`
	sum, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	foo := mustParseName(t, "foo-1.0")
	vars, ok := sum[foo]
	if !ok {
		t.Fatalf("missing record")
	}
	if _, ok := vars.Get("not-a-kv-line"); ok {
		t.Fatalf("malformed line should have been skipped")
	}
}

func TestReadRecordWithoutPkgnameDropped(t *testing.T) {
	const input = `COMMENT=orphan

PKGNAME=foo-1.0
PKGPATH=category/foo
COMMENT=kept
`
	sum, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(sum) != 1 {
		t.Fatalf("got %d records, want 1", len(sum))
	}
}

func TestReadRecordWithoutPkgpathDropped(t *testing.T) {
	const input = `PKGNAME=foo-1.0
COMMENT=no pkgpath, should be dropped

PKGNAME=bar-1.0
PKGPATH=category/bar
COMMENT=kept
`
	sum, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(sum) != 1 {
		t.Fatalf("got %d records, want 1", len(sum))
	}
	bar := mustParseName(t, "bar-1.0")
	if _, ok := sum[bar]; !ok {
		t.Fatalf("missing record for %v", bar)
	}
}

func TestPkgvarsList(t *testing.T) {
	v := Pkgvars{"DEPENDS": "foo>=1.0 bar-[0-9]*"}
	got := v.List("DEPENDS")
	if len(got) != 2 || got[0] != "foo>=1.0" || got[1] != "bar-[0-9]*" {
		t.Fatalf("got %v", got)
	}
}

func TestNewPkgmap(t *testing.T) {
	const input = `PKGNAME=foo-1.0
PKGPATH=category/foo

PKGNAME=foo-2.0
PKGPATH=category/foo

PKGNAME=bar-1.0
PKGPATH=category/bar
`
	sum, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	m := NewPkgmap(sum)

	fooPath := pkgname.Pkgpath{Category: "category", Name: "foo"}
	byBase, ok := m[fooPath]
	if !ok {
		t.Fatalf("missing pkgpath %v", fooPath)
	}
	versions, ok := byBase["foo"]
	if !ok {
		t.Fatalf("missing pkgbase foo")
	}
	if len(versions) != 2 {
		t.Fatalf("got %d versions, want 2", len(versions))
	}
}

func mustParseName(t *testing.T, s string) pkgname.Pkgname {
	t.Helper()
	n, err := pkgname.ParsePkgname(s)
	if err != nil {
		t.Fatalf("ParsePkgname(%q): %v", s, err)
	}
	return n
}
