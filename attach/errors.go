package attach

// AcquireError reports a failure from the acquire step. The task never held
// a resource, so nothing was released.
type AcquireError struct {
	Err error
}

func (e *AcquireError) Error() string { return "attach: acquire failed: " + e.Err.Error() }

func (e *AcquireError) Unwrap() error { return e.Err }

// ReleaseError reports a failure from Release during teardown. The release
// attempt still counts: the library never calls Release a second time.
type ReleaseError struct {
	Err error
}

func (e *ReleaseError) Error() string { return "attach: release failed: " + e.Err.Error() }

func (e *ReleaseError) Unwrap() error { return e.Err }
