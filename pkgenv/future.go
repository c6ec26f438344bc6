// Package pkgenv assembles the lazily-computed environment every
// other component reads from: machine and toolchain facts, the
// binary and source summaries, the set of currently installed
// packages, and the configured tag filters. Every field is computed
// at most once, on first use, regardless of how many goroutines ask
// for it concurrently — most check runs never touch most fields (a
// run without -r/-u never computes InstalledPkgpaths, for instance), so
// nothing is computed until something actually needs it.
//
// Grounded on original_source/src/pkgchkxx/environment.hxx, which
// defines exactly this field list as a struct of lazily-initialized
// members, and on the teacher's config.Config
// (config/config.go) for the surrounding "read from the OS
// environment with sensible defaults" idiom.
package pkgenv

import (
	"context"
	"sync"
)

// Future is a promise cell holding the result of a computation that
// runs at most once. The first caller to call Get runs compute;
// every other caller, whether concurrent or later, blocks until that
// first call finishes and then receives its cached result.
type Future[T any] struct {
	once    sync.Once
	compute func(context.Context) (T, error)
	value   T
	err     error
}

// NewFuture wraps compute in a Future. compute is not invoked until
// the first call to Get.
func NewFuture[T any](compute func(context.Context) (T, error)) *Future[T] {
	return &Future[T]{compute: compute}
}

// Ready wraps an already-known value in a Future, for fields a
// caller wants to override outright (tests, or a CLI flag that takes
// precedence over the environment).
func Ready[T any](value T) *Future[T] {
	f := &Future[T]{}
	f.once.Do(func() {})
	f.value = value
	return f
}

// Get returns the computed value, running compute on the first call
// and the cached result on every subsequent one.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	f.once.Do(func() {
		f.value, f.err = f.compute(ctx)
	})
	return f.value, f.err
}
