package attach

// Disposable is an acquired side effect paired with the single capability
// that undoes it, e.g. a registered listener and its detach call. Release is
// called at most once by this package; idempotency is the caller's concern.
type Disposable interface {
	Release() error
}

// DisposeFunc adapts a plain function to the Disposable interface.
type DisposeFunc func() error

func (f DisposeFunc) Release() error { return f() }
