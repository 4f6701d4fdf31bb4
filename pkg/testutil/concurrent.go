package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	"f2f-cri/pkg/platform/sentinel"
)

// ConcurrentResult tracks outcomes of concurrent test operations.
type ConcurrentResult struct {
	Successes int32
	Conflicts int32
	Rejected  int32
	Errors    int32
}

func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Conflicts + r.Rejected + r.Errors
}

// Failures counts every call that did not succeed.
func (r *ConcurrentResult) Failures() int32 {
	return r.Total() - r.Successes
}

// RunConcurrent starts goroutines calls of fn together and waits for all of
// them. Errors wrapping sentinel.ErrConflict count as conflicts and those
// wrapping sentinel.ErrInvalidState or reject as rejections.
func RunConcurrent(goroutines int, fn func(idx int) error, reject ...error) *ConcurrentResult {
	var wg sync.WaitGroup
	var successes, conflicts, rejected, errs atomic.Int32
	start := make(chan struct{})

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			case errors.Is(err, sentinel.ErrInvalidState) || matchesAny(err, reject):
				rejected.Add(1)
			default:
				errs.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	return &ConcurrentResult{
		Successes: successes.Load(),
		Conflicts: conflicts.Load(),
		Rejected:  rejected.Load(),
		Errors:    errs.Load(),
	}
}

func matchesAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
