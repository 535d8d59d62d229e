package guard

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"
)

// FailureKind classifies a resource-limit violation.
type FailureKind string

const (
	KindTimeout     FailureKind = "timeout"
	KindOutOfMemory FailureKind = "out-of-memory"
)

// LimitError is the typed failure returned when a guarded computation
// exceeds its wall-clock or memory budget.
type LimitError struct {
	Kind    FailureKind
	Context string
	Limit   string
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("resource limit exceeded (%s, limit %s): %s", e.Kind, e.Limit, e.Context)
}

// AsLimit unwraps err into a LimitError, if it is one.
func AsLimit(err error) (*LimitError, bool) {
	var le *LimitError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// Limits bounds one guarded computation. A zero or negative Timeout disables
// the clock; a zero or negative MemoryMB disables the memory ceiling.
type Limits struct {
	Timeout  time.Duration
	MemoryMB int
}

const memCheckInterval = 20 * time.Millisecond

// Run executes work under the given limits. The work closure receives a
// context that is cancelled on any breach; well-behaved work observes the
// cancellation and returns early, but the guard does not wait for it. On
// breach the closure is abandoned and a typed LimitError is returned.
// describe is called lazily, only when a diagnostic is actually produced.
//
// The memory ceiling is enforced by sampling heap allocation growth against
// a baseline taken at entry, so it bounds the allocation burst of this
// invocation rather than process-wide usage.
func Run[T any](limits Limits, describe func() string, work func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			// A panicking engine must not take the host process down.
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("guarded computation panicked: %v", r)}
			}
		}()
		v, err := work(ctx)
		done <- outcome{value: v, err: err}
	}()

	var deadline <-chan time.Time
	if limits.Timeout > 0 {
		timer := time.NewTimer(limits.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	var memTick <-chan time.Time
	var baseline uint64
	if limits.MemoryMB > 0 {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		baseline = m.Alloc
		ticker := time.NewTicker(memCheckInterval)
		defer ticker.Stop()
		memTick = ticker.C
	}

	budget := uint64(limits.MemoryMB) * 1024 * 1024
	for {
		select {
		case out := <-done:
			return out.value, out.err
		case <-deadline:
			cancel()
			return zero, &LimitError{
				Kind:    KindTimeout,
				Context: describe(),
				Limit:   limits.Timeout.String(),
			}
		case <-memTick:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			if m.Alloc > baseline && m.Alloc-baseline > budget {
				cancel()
				return zero, &LimitError{
					Kind:    KindOutOfMemory,
					Context: describe(),
					Limit:   fmt.Sprintf("%dMB", limits.MemoryMB),
				}
			}
		}
	}
}
