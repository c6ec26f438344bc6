package builddb

import (
	"testing"
	"time"
)

func TestInvocationLifecycle(t *testing.T) {
	db := openTestDB(t)
	start := time.Now()

	if err := db.StartInvocation("inv-1", start); err != nil {
		t.Fatalf("StartInvocation: %v", err)
	}

	runID, rec, err := db.ActiveInvocation()
	if err != nil {
		t.Fatalf("ActiveInvocation: %v", err)
	}
	if runID != "inv-1" || rec == nil {
		t.Fatalf("got runID=%q rec=%+v, want inv-1", runID, rec)
	}

	end := start.Add(time.Minute)
	stats := InvocationStats{Total: 3, OK: 1, MissingTodo: 1, MismatchTodo: 1}
	if err := db.FinishInvocation("inv-1", stats, end, false); err != nil {
		t.Fatalf("FinishInvocation: %v", err)
	}

	got, err := db.GetInvocation("inv-1")
	if err != nil {
		t.Fatalf("GetInvocation: %v", err)
	}
	if got.Stats != stats {
		t.Fatalf("stats = %+v, want %+v", got.Stats, stats)
	}
	if got.Aborted {
		t.Fatal("expected Aborted = false")
	}

	if _, rec, err := db.ActiveInvocation(); err != nil || rec != nil {
		t.Fatalf("expected no active invocation after finish, got rec=%+v err=%v", rec, err)
	}
}

func TestInvocationPkgpathRecords(t *testing.T) {
	db := openTestDB(t)
	if err := db.StartInvocation("inv-1", time.Now()); err != nil {
		t.Fatalf("StartInvocation: %v", err)
	}

	entries := []InvocationPkgpathRecord{
		{Pkgpath: "category/foo", Status: PkgpathStatusOK},
		{Pkgpath: "category/bar", Status: PkgpathStatusMissingTodo},
	}
	for i := range entries {
		if err := db.PutInvocationPkgpath("inv-1", &entries[i]); err != nil {
			t.Fatalf("PutInvocationPkgpath: %v", err)
		}
	}

	got, err := db.ListInvocationPkgpaths("inv-1")
	if err != nil {
		t.Fatalf("ListInvocationPkgpaths: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(got), got)
	}
}
