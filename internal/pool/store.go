// Package pool supplies the candidate record pool to the linkage engine.
// The pool is read-only to the core: stores load it, the cache decorator
// keeps hot copies, and assessments borrow it for the duration of one call.
package pool

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"

	"eligo/internal/linkage"
)

// Store loads the ordered candidate pool. Order matters downstream only
// for tie-breaking in ambiguity reporting, so implementations must return
// records in a stable order.
type Store interface {
	// List returns every candidate record in the pool.
	List(ctx context.Context) ([]linkage.Candidate, error)
}
