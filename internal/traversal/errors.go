package traversal

import "errors"

// Sentinel errors for the traversal error taxonomy. Callers classify with
// errors.Is; everything except classification misses short-circuits the
// request with no partial results.
var (
	// ErrStartNotFound means the start node does not resolve in the graph.
	ErrStartNotFound = errors.New("start node not found")

	// ErrInvalidRequest means a request field failed validation before any
	// traversal work was done.
	ErrInvalidRequest = errors.New("invalid traversal request")

	// ErrCancelled means the caller withdrew the request.
	ErrCancelled = errors.New("traversal cancelled")

	// ErrAdapter means the graph store failed to respond mid-traversal.
	ErrAdapter = errors.New("graph adapter error")
)
