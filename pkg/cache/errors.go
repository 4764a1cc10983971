package cache

import "fmt"

// ClearError reports a Clear run in which some deletions failed. Every listed
// object was still attempted.
type ClearError struct {
	Deleted int
	Failed  int
	Err     error
}

func (e *ClearError) Error() string {
	return fmt.Sprintf("clear cache: %d of %d deletions failed: %v", e.Failed, e.Deleted+e.Failed, e.Err)
}

func (e *ClearError) Unwrap() error { return e.Err }
