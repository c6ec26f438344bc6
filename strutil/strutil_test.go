package strutil

import "testing"

func TestWordsBasic(t *testing.T) {
	got := All("  foo\tbar  baz ")
	want := []string{"foo", "bar", "baz"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestWordsRestart(t *testing.T) {
	it := Words("a b c")
	first, _ := it.Next()
	if first != "a" {
		t.Fatalf("got %q, want a", first)
	}
	it.Reset()
	again, _ := it.Next()
	if again != "a" {
		t.Fatalf("reset did not rewind, got %q", again)
	}
}

func TestWordsEmpty(t *testing.T) {
	if got := All("   "); got != nil {
		t.Fatalf("expected nil for all-separator input, got %v", got)
	}
}

func TestTrim(t *testing.T) {
	if got := Trim("  hello  "); got != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestStartsEndsWith(t *testing.T) {
	if !StartsWith("pkg_summary.bz2", "pkg_summary") {
		t.Error("expected prefix match")
	}
	if !EndsWith("pkg_summary.bz2", ".bz2") {
		t.Error("expected suffix match")
	}
	if StartsWith("pkg_summary.bz2", "other") {
		t.Error("unexpected prefix match")
	}
}
