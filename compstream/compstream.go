// Package compstream provides transparent input-stream adapters for
// the summary reader: identity passthrough, bzip2/gzip decompression,
// and an HTTP GET source, selected by the caller based on filename
// extension (see the localCandidates table in package summary).
package compstream

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
)

// Identity wraps r unchanged; used when a summary file is
// uncompressed ("pkg_summary.txt").
func Identity(r io.Reader) (io.Reader, error) {
	return r, nil
}

// Bunzip2 wraps r in a bzip2 decompressor. The standard library's
// compress/bzip2 only supports reading, which is all a summary
// consumer ever needs.
func Bunzip2(r io.Reader) (io.Reader, error) {
	return bzip2.NewReader(r), nil
}

// Gunzip wraps r in a gzip decompressor.
func Gunzip(r io.Reader) (io.Reader, error) {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	return gr, nil
}

// ErrRemoteUnavailable is returned by HTTPGet when the remote summary
// candidate could not be fetched (network error or non-2xx status),
// signalling the caller to try the next candidate filename.
type ErrRemoteUnavailable struct {
	URL    string
	Status string
	Err    error
}

func (e *ErrRemoteUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("compstream: %s unavailable: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("compstream: %s unavailable: %s", e.URL, e.Status)
}

func (e *ErrRemoteUnavailable) Unwrap() error {
	return e.Err
}

// HTTPGet fetches url and returns its body as an in-memory reader, or
// an *ErrRemoteUnavailable if the fetch failed.
func HTTPGet(url string) (io.Reader, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, &ErrRemoteUnavailable{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ErrRemoteUnavailable{URL: url, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ErrRemoteUnavailable{URL: url, Err: err}
	}
	return bytes.NewReader(body), nil
}
