package pkgenv

import "fmt"

// FatalEnvironmentError reports that a Future computing a basic fact
// about the running system (machine architecture, opsys, OS release)
// could not be resolved at all, as opposed to resolving to an unusable
// value. Nothing downstream can reasonably guess MACHINE_ARCH or
// OPSYS on its own, so callers that see this wrapped in a Future's
// error should treat it as unrecoverable rather than retry.
type FatalEnvironmentError struct {
	Field string
	Err   error
}

func (e *FatalEnvironmentError) Error() string {
	return fmt.Sprintf("pkgenv: could not determine %s: %v", e.Field, e.Err)
}

func (e *FatalEnvironmentError) Unwrap() error {
	return e.Err
}
