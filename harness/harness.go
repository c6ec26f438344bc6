// Package harness provides a scoped child-process handle with piped
// stdio and a typed termination status, the single primitive every
// other component in this module uses to reach an external tool.
//
// Grounded on the teacher's environment.ExecCommand/ExecResult
// (environment/environment.go) and on the original pkg_chk harness
// (pkgxx::harness), generalized from "run one command, capture
// output" to "own a child for its full lifetime, with independent
// stdin/stdout/stderr streams a caller can read and write
// incrementally".
package harness

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
)

// StderrAction selects what the child's stderr is connected to.
type StderrAction int

const (
	StderrInherit StderrAction = iota
	StderrClose
	StderrPipe
)

// ExitedStatus is the termination status of a process that called
// exit(3) or returned normally from main.
type ExitedStatus struct {
	Code int
}

// SignaledStatus is the termination status of a process killed by a
// signal.
type SignaledStatus struct {
	Signal     int
	CoreDumped bool
}

// Status is the tagged union of ways a child can terminate. Exactly
// one of Exited or Signaled is non-nil.
type Status struct {
	Exited   *ExitedStatus
	Signaled *SignaledStatus
}

// Option configures a Harness at construction time.
type Option func(*options)

type options struct {
	cwd          string
	envModifier  func(map[string]string)
	stderrAction StderrAction
}

// WithCwd sets the child's working directory.
func WithCwd(dir string) Option {
	return func(o *options) { o.cwd = dir }
}

// WithEnvModifier registers a callback that receives a fresh copy of
// the parent's environment variables and mutates it in place; the
// resulting map becomes the child's environment.
func WithEnvModifier(fn func(map[string]string)) Option {
	return func(o *options) { o.envModifier = fn }
}

// WithStderr selects what the child's stderr is connected to.
// Defaults to StderrInherit.
func WithStderr(action StderrAction) Option {
	return func(o *options) { o.stderrAction = action }
}

// Harness owns a running (or terminated) child process. Its stdin and
// stdout are always piped; stderr follows the configured
// StderrAction. The zero value is not usable; construct with New.
type Harness struct {
	cmd    string
	argv   []string
	cwd    string
	env    map[string]string
	proc   *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	mu     sync.Mutex
	status *Status
	waited bool
	closed bool
}

// New spawns cmd with the given argv (which excludes the command name
// itself). On spawn failure returns a *SpawnFailedError carrying the
// reconstructed command line.
func New(cmdPath string, argv []string, opts ...Option) (*Harness, error) {
	o := options{stderrAction: StderrInherit}
	for _, opt := range opts {
		opt(&o)
	}

	envMap := parentEnvMap()
	if o.envModifier != nil {
		o.envModifier(envMap)
	}

	proc := exec.Command(cmdPath, argv...)
	proc.Env = flattenEnv(envMap)
	if o.cwd != "" {
		proc.Dir = o.cwd
	}

	stdin, err := proc.StdinPipe()
	if err != nil {
		return nil, &SpawnFailedError{Cmd: cmdPath, Argv: argv, Cwd: o.cwd, Env: envMap, Err: err}
	}
	stdout, err := proc.StdoutPipe()
	if err != nil {
		return nil, &SpawnFailedError{Cmd: cmdPath, Argv: argv, Cwd: o.cwd, Env: envMap, Err: err}
	}

	var stderr io.ReadCloser
	switch o.stderrAction {
	case StderrInherit:
		proc.Stderr = os.Stderr
	case StderrClose:
		// Leave proc.Stderr nil: os/exec connects it to /dev/null.
	case StderrPipe:
		stderr, err = proc.StderrPipe()
		if err != nil {
			return nil, &SpawnFailedError{Cmd: cmdPath, Argv: argv, Cwd: o.cwd, Env: envMap, Err: err}
		}
	}

	if err := proc.Start(); err != nil {
		return nil, &SpawnFailedError{Cmd: cmdPath, Argv: argv, Cwd: o.cwd, Env: envMap, Err: err}
	}

	return &Harness{
		cmd:    cmdPath,
		argv:   argv,
		cwd:    o.cwd,
		env:    envMap,
		proc:   proc,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

// ErrInvalidState is returned by the stream accessors when the
// harness has been closed or the requested stream was not piped.
var ErrInvalidState = fmt.Errorf("harness: invalid state")

// Stdin returns the child's standard input stream.
func (h *Harness) Stdin() (io.WriteCloser, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.stdin == nil {
		return nil, ErrInvalidState
	}
	return h.stdin, nil
}

// Stdout returns the child's standard output stream.
func (h *Harness) Stdout() (io.ReadCloser, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.stdout == nil {
		return nil, ErrInvalidState
	}
	return h.stdout, nil
}

// Stderr returns the child's standard error stream. Fails with
// ErrInvalidState unless the harness was constructed with
// WithStderr(StderrPipe).
func (h *Harness) Stderr() (io.ReadCloser, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.stderr == nil {
		return nil, ErrInvalidState
	}
	return h.stderr, nil
}

// Wait blocks until the child terminates and returns its status.
// Subsequent calls return the cached status without waiting again.
func (h *Harness) Wait() (Status, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.waitLocked()
}

func (h *Harness) waitLocked() (Status, error) {
	if h.waited {
		return *h.status, nil
	}

	err := h.proc.Wait()
	h.waited = true

	var st Status
	if err == nil {
		st.Exited = &ExitedStatus{Code: 0}
	} else if exitErr, ok := err.(*exec.ExitError); ok {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			st.Signaled = &SignaledStatus{Signal: int(ws.Signal()), CoreDumped: ws.CoreDump()}
		} else {
			st.Exited = &ExitedStatus{Code: exitErr.ExitCode()}
		}
	} else {
		h.status = &st
		return st, err
	}

	h.status = &st
	return st, nil
}

// WaitExit is like Wait but fails with *DiedOfSignalError if the
// child was signaled rather than exiting normally.
func (h *Harness) WaitExit() (ExitedStatus, error) {
	st, err := h.Wait()
	if err != nil {
		return ExitedStatus{}, err
	}
	if st.Signaled != nil {
		return ExitedStatus{}, &DiedOfSignalError{Cmd: h.cmd, Signal: st.Signaled.Signal}
	}
	return *st.Exited, nil
}

// WaitSuccess is like WaitExit but additionally fails with
// *ExitNonzeroError if the child exited with a non-zero status.
func (h *Harness) WaitSuccess() error {
	exited, err := h.WaitExit()
	if err != nil {
		return err
	}
	if exited.Code != 0 {
		return &ExitNonzeroError{Cmd: h.cmd, Code: exited.Code}
	}
	return nil
}

// Signal sends sig to the child process, used by the nursery to
// cancel in-flight children on the first task failure. It does not
// take h.mu, so it is delivered even while Close is blocked waiting for
// the child; signalling a child that has already been reaped is a no-op.
func (h *Harness) Signal(sig os.Signal) error {
	if err := h.proc.Process.Signal(sig); err != nil && err != os.ErrProcessDone {
		return err
	}
	return nil
}

// Close waits for the child unless it has already been waited on,
// and propagates a non-success status as an error. Every Harness
// must be closed (typically via defer) before its owning scope exits;
// leaving a child un-waited is the "dropped zombie" bug this type
// exists to prevent.
func (h *Harness) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	_, err := h.waitLocked()
	if err != nil {
		return err
	}
	if h.status.Signaled != nil {
		return &DiedOfSignalError{Cmd: h.cmd, Signal: h.status.Signaled.Signal}
	}
	if h.status.Exited != nil && h.status.Exited.Code != 0 {
		return &ExitNonzeroError{Cmd: h.cmd, Code: h.status.Exited.Code}
	}
	return nil
}

func parentEnvMap() map[string]string {
	m := make(map[string]string)
	for _, kv := range os.Environ() {
		if idx := strings.IndexByte(kv, '='); idx >= 0 {
			m[kv[:idx]] = kv[idx+1:]
		}
	}
	return m
}

func flattenEnv(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	return out
}

// StringifyArgv renders argv for diagnostics, double-quoting any
// argument that contains whitespace and escaping embedded quotes.
func StringifyArgv(argv []string) string {
	var sb strings.Builder
	for i, arg := range argv {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if strings.ContainsAny(arg, " \t") {
			sb.WriteByte('"')
			sb.WriteString(strings.ReplaceAll(arg, `"`, `\"`))
			sb.WriteByte('"')
		} else {
			sb.WriteString(arg)
		}
	}
	return sb.String()
}
