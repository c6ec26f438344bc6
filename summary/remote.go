package summary

import (
	"strings"

	"pkgchk/compstream"
)

// ReadRemote fetches a binary package summary from a repository
// served over HTTP, trying pkg_summary.bz2, then .gz, then .txt at
// baseURL in turn and decompressing whichever responds successfully.
// Mirrors original pkg_chk's read_remote_summary, which walks the
// same three candidate names against a base URL rather than a local
// directory.
func ReadRemote(baseURL string) (Summary, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")

	var lastErr error = ErrNoSummaryAvailable
	for _, cand := range localCandidates {
		url := baseURL + "/" + cand.name
		body, err := compstream.HTTPGet(url)
		if err != nil {
			lastErr = &RemoteUnavailableError{URL: url, Err: err}
			continue
		}
		r, err := cand.decomp(body)
		if err != nil {
			lastErr = &RemoteUnavailableError{URL: url, Err: err}
			continue
		}
		sum, err := Read(r)
		if err != nil {
			lastErr = &RemoteUnavailableError{URL: url, Err: err}
			continue
		}
		return sum, nil
	}

	return nil, lastErr
}
