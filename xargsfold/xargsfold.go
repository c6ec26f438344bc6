// Package xargsfold implements the xargs-fold driver: pack a long
// argument list into argv-length-bounded chunks, spawn a fixed
// command once per chunk, parse each invocation's stdout
// concurrently, and fold the parsed results together.
//
// Grounded on the original pkg_chk's use of xargs_fold to drive
// `pkg_info -X` over however many binary package files exist
// (original_source/src/summary.cxx), and on the teacher's
// pkg.BulkQueue worker-pool (pkg/bulk.go), generalized from "a fixed
// pool of Makefile-query workers" to "a bounded number of
// argv-chunked child processes whose output is merged".
package xargsfold

import (
	"fmt"
	"io"
	"sync"

	"pkgchk/harness"
)

// DefaultMaxArgvBytes is the fallback ceiling used when no explicit
// limit is supplied, chosen conservatively below common OS
// ARG_MAX values so a single chunk's serialized argv is never
// rejected by exec(2).
const DefaultMaxArgvBytes = 128 * 1024

// Option configures a Fold invocation.
type Option func(*config)

type config struct {
	maxArgvBytes int
}

// WithMaxArgvBytes overrides the per-chunk argv byte budget.
func WithMaxArgvBytes(n int) Option {
	return func(c *config) { c.maxArgvBytes = n }
}

// Fold packs the arguments yielded by collect into chunks, invokes
// cmd with prefixArgv followed by each chunk, parses each
// invocation's stdout with parse (run concurrently with the other
// chunks), and folds the per-chunk results together with merge in
// input order. zero is the identity element merge starts from.
//
// If any chunk's spawn, parse, or exit fails, Fold returns the first
// such error (by chunk index) together with the fold of every chunk,
// earlier or later, that did succeed.
func Fold[T any](
	cmd string,
	prefixArgv []string,
	zero T,
	collect func(yield func(string)),
	parse func(io.Reader) (T, error),
	merge func(acc, next T) T,
	opts ...Option,
) (T, error) {
	cfg := config{maxArgvBytes: DefaultMaxArgvBytes}
	for _, opt := range opts {
		opt(&cfg)
	}

	var args []string
	collect(func(a string) { args = append(args, a) })

	chunks := chunkArgs(args, cfg.maxArgvBytes)
	if len(chunks) == 0 {
		return zero, nil
	}

	results := make([]T, len(chunks))
	errs := make([]error, len(chunks))

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk []string) {
			defer wg.Done()
			results[i], errs[i] = runChunk(cmd, prefixArgv, chunk, parse)
		}(i, chunk)
	}
	wg.Wait()

	acc := zero
	var firstErr error
	for i := range chunks {
		if errs[i] != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("xargsfold: chunk %d: %w", i, errs[i])
			}
			continue
		}
		acc = merge(acc, results[i])
	}
	return acc, firstErr
}

func runChunk[T any](cmd string, prefixArgv, chunk []string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T

	argv := make([]string, 0, len(prefixArgv)+len(chunk))
	argv = append(argv, prefixArgv...)
	argv = append(argv, chunk...)

	h, err := harness.New(cmd, argv)
	if err != nil {
		return zero, err
	}
	defer h.Close()

	stdout, err := h.Stdout()
	if err != nil {
		return zero, err
	}

	result, err := parse(stdout)
	if err != nil {
		return zero, err
	}

	if err := h.WaitSuccess(); err != nil {
		return zero, err
	}
	return result, nil
}

// chunkArgs packs args into the fewest chunks whose total serialized
// length (arguments plus one separating space each) does not exceed
// maxBytes. A single argument longer than maxBytes still gets its own
// chunk rather than being dropped.
func chunkArgs(args []string, maxBytes int) [][]string {
	var chunks [][]string
	var current []string
	currentLen := 0

	for _, a := range args {
		addLen := len(a) + 1
		if len(current) > 0 && currentLen+addLen > maxBytes {
			chunks = append(chunks, current)
			current = nil
			currentLen = 0
		}
		current = append(current, a)
		currentLen += addLen
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}
