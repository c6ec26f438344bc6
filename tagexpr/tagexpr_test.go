package tagexpr

import (
	"strings"
	"testing"

	"pkgchk/pkgname"
)

func TestParseAndApplyNoTagsAlwaysSelected(t *testing.T) {
	cfg, err := Parse(strings.NewReader("category/foo\n"))
	if err != nil {
		t.Fatal(err)
	}
	got := cfg.ApplyTags(nil, nil)
	if len(got) != 1 || got[0].String() != "category/foo" {
		t.Fatalf("got %v", got)
	}
}

func TestApplyTagsRequiresIntersection(t *testing.T) {
	cfg, err := Parse(strings.NewReader("category/foo desktop,laptop\n"))
	if err != nil {
		t.Fatal(err)
	}

	if got := cfg.ApplyTags(pkgname.NewTagset("server"), nil); len(got) != 0 {
		t.Fatalf("expected no match, got %v", got)
	}
	if got := cfg.ApplyTags(pkgname.NewTagset("laptop"), nil); len(got) != 1 {
		t.Fatalf("expected a match, got %v", got)
	}
}

func TestApplyTagsExclusionOverridesInclusion(t *testing.T) {
	cfg, err := Parse(strings.NewReader("category/foo desktop,!legacy\n"))
	if err != nil {
		t.Fatal(err)
	}

	got := cfg.ApplyTags(pkgname.NewTagset("desktop"), pkgname.NewTagset("legacy"))
	if len(got) != 0 {
		t.Fatalf("expected exclusion to win, got %v", got)
	}
}

func TestParseSkipsCommentsAndBlankLines(t *testing.T) {
	const input = "# comment\n\ncategory/foo\n"
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(cfg.Entries))
	}
}
