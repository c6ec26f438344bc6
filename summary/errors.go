package summary

import (
	"errors"
	"fmt"
)

// ErrNoSummaryAvailable is the error ReadRemote starts from before it
// tries any candidate filename. Because ReadRemote always tries at
// least one candidate, a failed ReadRemote returns the last
// *RemoteUnavailableError instead; ReadLocal returns an empty Summary,
// not this error, when no local summary exists.
var ErrNoSummaryAvailable = errors.New("no pkg_summary available")

// RemoteUnavailableError reports that a remote repository did not
// answer for any of the candidate summary filenames.
type RemoteUnavailableError struct {
	URL string
	Err error
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("summary: remote %s unavailable: %v", e.URL, e.Err)
}

func (e *RemoteUnavailableError) Unwrap() error {
	return e.Err
}

// MalformedRecordError describes a pkg_summary record that could not be
// parsed. Read does not return it: a malformed line is skipped without
// a message and the rest of the summary is still read, matching
// original pkg_chk's tolerance of a single bad record in an
// otherwise-usable summary.
type MalformedRecordError struct {
	Line string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("summary: malformed record: %q", e.Line)
}
