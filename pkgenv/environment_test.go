package pkgenv

import (
	"context"
	"testing"

	"pkgchk/pkglog"
	"pkgchk/pkgname"
)

func TestEnvironmentDefaults(t *testing.T) {
	t.Setenv("PKGSRCDIR", "")
	t.Setenv("PKG_INFO", "")

	e := New(pkglog.NoOpLogger{})
	dir, err := e.Pkgsrcdir.Get(context.Background())
	if err != nil {
		t.Fatalf("Pkgsrcdir: %v", err)
	}
	if dir != "/usr/pkgsrc" {
		t.Fatalf("Pkgsrcdir = %q, want default", dir)
	}

	pkgInfo, err := e.PkgInfo.Get(context.Background())
	if err != nil {
		t.Fatalf("PkgInfo: %v", err)
	}
	if pkgInfo != "pkg_info" {
		t.Fatalf("PkgInfo = %q, want default", pkgInfo)
	}
}

func TestEnvironmentPackagesHonorsOverride(t *testing.T) {
	t.Setenv("PACKAGES", "/custom/packages")

	e := New(pkglog.NoOpLogger{})
	got, err := e.Packages.Get(context.Background())
	if err != nil {
		t.Fatalf("Packages: %v", err)
	}
	if got != "/custom/packages" {
		t.Fatalf("Packages = %q, want override", got)
	}
}

func TestEnvironmentTagParsing(t *testing.T) {
	t.Setenv("PKGCHK_TAGS", "desktop, server  laptop")
	t.Setenv("PKGCHK_NOTAGS", "legacy")

	e := New(pkglog.NoOpLogger{})
	included, err := e.IncludedTags.Get(context.Background())
	if err != nil {
		t.Fatalf("IncludedTags: %v", err)
	}
	for _, want := range []string{"desktop", "server", "laptop"} {
		if !included.Has(pkgname.Tag(want)) {
			t.Fatalf("included tags missing %q: %v", want, included)
		}
	}

	excluded, err := e.ExcludedTags.Get(context.Background())
	if err != nil {
		t.Fatalf("ExcludedTags: %v", err)
	}
	if !excluded.Has(pkgname.Tag("legacy")) {
		t.Fatalf("excluded tags missing legacy: %v", excluded)
	}
}

func TestEnvironmentPkgPathParsesColonList(t *testing.T) {
	t.Setenv("PKG_PATH", "category/foo:other/bar")

	e := New(pkglog.NoOpLogger{})
	paths, err := e.PkgPath.Get(context.Background())
	if err != nil {
		t.Fatalf("PkgPath: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("got %d paths, want 2: %v", len(paths), paths)
	}
}
