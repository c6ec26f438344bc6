package harness

import (
	"io"
	"strings"
	"testing"
)

func TestHarnessWaitSuccess(t *testing.T) {
	h, err := New("/bin/sh", []string{"-c", "exit 0"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestHarnessWaitSuccessNonzero(t *testing.T) {
	h, err := New("/bin/sh", []string{"-c", "exit 7"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = h.WaitSuccess()
	var nz *ExitNonzeroError
	if !errorsAs(err, &nz) {
		t.Fatalf("expected ExitNonzeroError, got %v", err)
	}
	if nz.Code != 7 {
		t.Fatalf("code = %d, want 7", nz.Code)
	}
}

func TestHarnessStdinStdout(t *testing.T) {
	h, err := New("/bin/sh", []string{"-c", "cat"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	stdin, err := h.Stdin()
	if err != nil {
		t.Fatalf("Stdin: %v", err)
	}
	stdout, err := h.Stdout()
	if err != nil {
		t.Fatalf("Stdout: %v", err)
	}

	go func() {
		io.WriteString(stdin, "hello\n")
		stdin.Close()
	}()

	out, err := io.ReadAll(stdout)
	if err != nil {
		t.Fatalf("read stdout: %v", err)
	}
	if strings.TrimSpace(string(out)) != "hello" {
		t.Fatalf("got %q", out)
	}

	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestHarnessSpawnFailed(t *testing.T) {
	_, err := New("/nonexistent/path/to/nothing", nil)
	var spawnErr *SpawnFailedError
	if !errorsAs(err, &spawnErr) {
		t.Fatalf("expected SpawnFailedError, got %v", err)
	}
}

func TestHarnessEnvModifier(t *testing.T) {
	h, err := New("/bin/sh", []string{"-c", "echo $FOO"}, WithEnvModifier(func(env map[string]string) {
		env["FOO"] = "bar"
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stdout, _ := h.Stdout()
	out, _ := io.ReadAll(stdout)
	if strings.TrimSpace(string(out)) != "bar" {
		t.Fatalf("got %q", out)
	}
	h.Close()
}

func TestStringifyArgv(t *testing.T) {
	got := StringifyArgv([]string{"make", "show-var", `VARNAME=PKGNAME with space`})
	want := `make show-var "VARNAME=PKGNAME with space"`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestHarnessDiedOfSignal(t *testing.T) {
	h, err := New("/bin/sh", []string{"-c", "kill -TERM $$"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = h.WaitExit()
	var sig *DiedOfSignalError
	if !errorsAs(err, &sig) {
		t.Fatalf("expected DiedOfSignalError, got %v", err)
	}
}

// errorsAs avoids importing errors just for As in this file's tests.
func errorsAs(err error, target interface{}) bool {
	switch t := target.(type) {
	case **ExitNonzeroError:
		if e, ok := err.(*ExitNonzeroError); ok {
			*t = e
			return true
		}
	case **SpawnFailedError:
		if e, ok := err.(*SpawnFailedError); ok {
			*t = e
			return true
		}
	case **DiedOfSignalError:
		if e, ok := err.(*DiedOfSignalError); ok {
			*t = e
			return true
		}
	}
	return false
}
