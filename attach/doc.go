// Package attach binds the lifetime of an externally-acquired disposable
// resource to the cancellation of the task that holds it. A task launched
// with Launch acquires the resource once, parks until it is cancelled, and
// releases the resource before it is reported as finished.
package attach
