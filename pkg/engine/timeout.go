package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// EvalTimeout is the hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// ErrSuperseded is returned when a newer evaluation started before this one
// finished.
var ErrSuperseded = errors.New("evaluation superseded by newer request")

// evalResult passes an evaluation outcome through a channel.
type evalResult struct {
	result *EvalResult
	err    error
}

// waitWithTimeout waits for a result from ch, or fails once EvalTimeout has
// elapsed. Results whose generation is no longer current are discarded.
//
// On timeout the evaluating goroutine may still be running; its result is
// dropped when it completes because ch is buffered and nobody reads it.
func waitWithTimeout(
	ch <-chan evalResult,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
) (*EvalResult, error) {
	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return nil, ErrSuperseded
		}
		return res.result, res.err

	case <-timer.C:
		return nil, fmt.Errorf("evaluation timed out after %s", EvalTimeout)
	}
}
