package engine

import "errors"

// Classified engine faults. The engine is the single source of fault
// classification; the front-ends map these to protocol statuses and never
// re-interpret them.
var (
	// ErrNotReady is returned when search is invoked before both the
	// embedding model and the vector index are confirmed live. Callers
	// should retry later.
	ErrNotReady = errors.New("engine not ready")

	// ErrAlreadyInitialized is returned by a second Initialize call after a
	// successful one.
	ErrAlreadyInitialized = errors.New("engine already initialized")

	// ErrInitialization wraps a failure to load the model or connect to
	// the index at startup.
	ErrInitialization = errors.New("engine initialization failed")

	// ErrDependency wraps embedding or index failures on the query path.
	// The underlying cause is logged, never surfaced to callers.
	ErrDependency = errors.New("dependency failure")
)
