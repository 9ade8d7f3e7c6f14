package atomicwrite

import "fmt"

// VerificationError reports a post-write size mismatch. It is always fatal;
// a write whose outcome cannot be confirmed is never silently accepted.
type VerificationError struct {
	Path     string
	Expected int64
	Actual   int64
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("write verification failed for %s: expected %d bytes, found %d",
		e.Path, e.Expected, e.Actual)
}

// WriteError reports a write that failed after exhausting its retry budget
// (or failed fatally before retrying was possible). Rollback has been
// attempted by the time this error is returned.
type WriteError struct {
	Path     string
	Attempts int
	Err      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write to %s failed after %d attempt(s): %v", e.Path, e.Attempts, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
