package attach

import "context"

// AwaitCancellation parks the calling goroutine until ctx is cancelled, then
// releases d. The release runs in a deferred block so it happens on every
// unwind path, including when ctx was already cancelled on entry. The return
// value is ctx's error, or a *ReleaseError if Release failed; the function
// has no other way out.
func AwaitCancellation(ctx context.Context, d Disposable) (err error) {
	defer func() {
		if rerr := d.Release(); rerr != nil {
			err = &ReleaseError{Err: rerr}
		}
	}()
	<-ctx.Done()
	return ctx.Err()
}
