package check

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"pkgchk/pkgenv"
	"pkgchk/pkglog"
	"pkgchk/pkgname"
	"pkgchk/pkgopts"
)

func TestPkgpathsToCheckCombinesInstalledAndConfig(t *testing.T) {
	dir := t.TempDir()
	confPath := filepath.Join(dir, "pkgchk.conf")
	if err := os.WriteFile(confPath, []byte("category/added desktop\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	env := &pkgenv.Environment{}
	env.InstalledPkgpaths = pkgenv.Ready([]pkgname.Pkgpath{
		{Category: "category", Name: "installed"},
	})
	env.PkgchkConf = pkgenv.Ready(confPath)
	env.IncludedTags = pkgenv.Ready(pkgname.NewTagset("desktop"))
	env.ExcludedTags = pkgenv.Ready(pkgname.Tagset(nil))

	got, err := PkgpathsToCheck(context.Background(), pkgopts.Options{
		Update:     true,
		AddMissing: true,
	}, env, pkglog.NoOpLogger{})
	if err != nil {
		t.Fatalf("PkgpathsToCheck: %v", err)
	}

	want := []pkgname.Pkgpath{
		{Category: "category", Name: "installed"},
		{Category: "category", Name: "added"},
	}
	for _, w := range want {
		if _, ok := got[w]; !ok {
			t.Fatalf("missing %v in %v", w, got)
		}
	}
	if len(got) != 2 {
		t.Fatalf("got %d pkgpaths, want 2: %v", len(got), got)
	}
}

func TestPkgpathsToCheckEmptyWithoutFlags(t *testing.T) {
	env := &pkgenv.Environment{}
	got, err := PkgpathsToCheck(context.Background(), pkgopts.Options{}, env, pkglog.NoOpLogger{})
	if err != nil {
		t.Fatalf("PkgpathsToCheck: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d pkgpaths, want 0: %v", len(got), got)
	}
}
