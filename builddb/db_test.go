package builddb

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := OpenDB(filepath.Join(dir, "pkgchk.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordRunRejectsEmptyPkgpath(t *testing.T) {
	db := openTestDB(t)
	if err := db.RecordRun(&PkgpathRun{StartTime: time.Now()}); err == nil {
		t.Fatal("expected error for empty pkgpath")
	}
}

func TestLatestRunUnknownPkgpathReturnsNil(t *testing.T) {
	db := openTestDB(t)
	got, err := db.LatestRun("category/never-checked")
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil", got)
	}
}

func TestLatestRunReturnsNewestByStartTime(t *testing.T) {
	db := openTestDB(t)
	base := time.Now()

	older := &PkgpathRun{Pkgpath: "category/foo", Status: PkgpathStatusMissingTodo, StartTime: base}
	newer := &PkgpathRun{Pkgpath: "category/foo", Status: PkgpathStatusOK, StartTime: base.Add(time.Minute)}
	if err := db.RecordRun(older); err != nil {
		t.Fatalf("RecordRun(older): %v", err)
	}
	if err := db.RecordRun(newer); err != nil {
		t.Fatalf("RecordRun(newer): %v", err)
	}

	got, err := db.LatestRun("category/foo")
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if got == nil || got.Status != PkgpathStatusOK {
		t.Fatalf("got %+v, want status %q", got, PkgpathStatusOK)
	}
}

func TestLatestRunDoesNotCrossPkgpaths(t *testing.T) {
	db := openTestDB(t)
	if err := db.RecordRun(&PkgpathRun{Pkgpath: "category/foo", Status: PkgpathStatusOK, StartTime: time.Now()}); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if err := db.RecordRun(&PkgpathRun{Pkgpath: "category/foobar", Status: PkgpathStatusMissingTodo, StartTime: time.Now()}); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	got, err := db.LatestRun("category/foo")
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if got == nil || got.Pkgpath != "category/foo" || got.Status != PkgpathStatusOK {
		t.Fatalf("got %+v, want category/foo OK (prefix scan must not bleed into category/foobar)", got)
	}
}

func TestCRCRoundtrip(t *testing.T) {
	db := openTestDB(t)

	if _, found, err := db.GetCRC("category/foo"); err != nil || found {
		t.Fatalf("GetCRC on unseen pkgpath: found=%v err=%v", found, err)
	}

	if err := db.UpdateCRC("category/foo", 0xdeadbeef); err != nil {
		t.Fatalf("UpdateCRC: %v", err)
	}

	crc, found, err := db.GetCRC("category/foo")
	if err != nil || !found {
		t.Fatalf("GetCRC: found=%v err=%v", found, err)
	}
	if crc != 0xdeadbeef {
		t.Fatalf("crc = %#x, want %#x", crc, 0xdeadbeef)
	}
}

func TestNeedsRecheck(t *testing.T) {
	db := openTestDB(t)

	needs, err := db.NeedsRecheck("category/foo", 1)
	if err != nil {
		t.Fatalf("NeedsRecheck: %v", err)
	}
	if !needs {
		t.Fatal("expected recheck needed for never-seen pkgpath")
	}

	if err := db.UpdateCRC("category/foo", 1); err != nil {
		t.Fatalf("UpdateCRC: %v", err)
	}

	needs, err = db.NeedsRecheck("category/foo", 1)
	if err != nil {
		t.Fatalf("NeedsRecheck: %v", err)
	}
	if needs {
		t.Fatal("expected no recheck needed when CRC unchanged")
	}

	needs, err = db.NeedsRecheck("category/foo", 2)
	if err != nil {
		t.Fatalf("NeedsRecheck: %v", err)
	}
	if !needs {
		t.Fatal("expected recheck needed when CRC changed")
	}
}

func TestComputePkgpathCRCStableAndSensitiveToContent(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Makefile"), []byte("# stub\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	crc1, err := ComputePkgpathCRC(dir)
	if err != nil {
		t.Fatalf("ComputePkgpathCRC: %v", err)
	}
	crc2, err := ComputePkgpathCRC(dir)
	if err != nil {
		t.Fatalf("ComputePkgpathCRC: %v", err)
	}
	if crc1 != crc2 {
		t.Fatalf("CRC not stable across calls: %#x != %#x", crc1, crc2)
	}

	if err := os.WriteFile(filepath.Join(dir, "Makefile"), []byte("# changed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	crc3, err := ComputePkgpathCRC(dir)
	if err != nil {
		t.Fatalf("ComputePkgpathCRC: %v", err)
	}
	if crc3 == crc1 {
		t.Fatal("expected CRC to change when file contents change")
	}
}

func TestComputePkgpathCRCSkipsWorkAndVCSDirs(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Makefile"), []byte("# stub\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	crcBefore, err := ComputePkgpathCRC(dir)
	if err != nil {
		t.Fatalf("ComputePkgpathCRC: %v", err)
	}

	workDir := filepath.Join(dir, "work")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(workDir, "build-artifact.o"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	crcAfter, err := ComputePkgpathCRC(dir)
	if err != nil {
		t.Fatalf("ComputePkgpathCRC: %v", err)
	}
	if crcBefore != crcAfter {
		t.Fatalf("CRC changed after adding work/ contents: %#x != %#x", crcBefore, crcAfter)
	}
}
