// Package nursery implements structured concurrency for the check
// engine's per-pkgpath worker loop: a scope that tracks every task it
// spawns, blocks its own Wait until they have all finished, and
// cancels the rest as soon as one fails.
//
// Grounded on the teacher's own hand-rolled WaitGroup-and-channel
// fan-out (pkg/bulk.go's BulkQueue), generalized from "a fixed pool
// of workers pulling from a job channel" to "an open-ended group of
// tasks, each cancellable and each optionally backed by a child
// process that needs a signal on cancellation" — the nursery pattern
// original pkg_chk builds on top of pkgxx::nursery. Deliberately
// hand-rolled rather than reaching for golang.org/x/sync/errgroup,
// since nothing in this module's lineage imports it.
package nursery

import (
	"context"
	"sync"
	"syscall"

	"pkgchk/harness"
)

// Nursery is a scope that owns a set of concurrently running tasks.
// Construct with New, spawn tasks with Go, and block until they all
// finish (or one fails) with Wait. The zero value is not usable.
type Nursery struct {
	ctx    context.Context
	cancel context.CancelFunc

	wg sync.WaitGroup

	mu       sync.Mutex
	firstErr error
	children []*harness.Harness
}

// New returns a nursery whose task contexts are derived from parent.
// Cancelling parent cancels every task still running in the nursery.
func New(parent context.Context) *Nursery {
	ctx, cancel := context.WithCancel(parent)
	return &Nursery{ctx: ctx, cancel: cancel}
}

// Go spawns fn as a new task. fn receives the nursery's context,
// which is cancelled as soon as any task (including fn itself)
// returns a non-nil error. Go does not block.
func (n *Nursery) Go(fn func(context.Context) error) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := fn(n.ctx); err != nil {
			n.fail(err)
		}
	}()
}

// Track registers h as belonging to this nursery, so that a SIGTERM
// is sent to it if the nursery is cancelled while h is still running.
// Callers that spawn a harness.Harness from inside a nursery task
// should Track it immediately after construction.
func (n *Nursery) Track(h *harness.Harness) {
	n.mu.Lock()
	n.children = append(n.children, h)
	n.mu.Unlock()

	go func() {
		<-n.ctx.Done()
		h.Signal(syscall.SIGTERM)
	}()
}

// Wait blocks until every spawned task has returned, then returns the
// first non-nil error any of them produced (in the order tasks were
// observed to fail, not the order they were spawned), or nil if all
// succeeded.
func (n *Nursery) Wait() error {
	n.wg.Wait()
	n.cancel()
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.firstErr
}

// Cancel cancels every task in the nursery without waiting for them
// to finish, for callers that need to abandon a check run early (for
// example, in response to an interrupt from outside the nursery).
func (n *Nursery) Cancel() {
	n.cancel()
}

func (n *Nursery) fail(err error) {
	n.mu.Lock()
	if n.firstErr == nil {
		n.firstErr = err
	}
	n.mu.Unlock()
	n.cancel()
}
