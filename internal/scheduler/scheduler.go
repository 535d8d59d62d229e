// Package scheduler orders and parallelizes per-target work across a fixed
// worker pool.
package scheduler

import (
	"context"
	"sort"
	"sync"
)

// Map runs f over every item and returns one result per item dispatched.
// Items are first sorted by decreasing size so the largest, slowest jobs
// enter the pool first, which keeps tail latency down under finite
// parallelism. Cancelling ctx stops dispatching: items not yet handed to a
// worker are never run and produce no result, while in-flight items still
// finish and report.
//
// With workers <= 1 execution is sequential in sorted order, which is
// deterministic and the mode tests rely on. With more workers, each item is
// one dispatch unit on a bounded goroutine pool; workers share nothing and
// communicate only through their input item and output result, so result
// order across workers is unspecified.
func Map[T any, R any](ctx context.Context, workers int, items []T, size func(T) int64, f func(T) R) []R {
	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return size(sorted[i]) > size(sorted[j])
	})

	if workers <= 1 {
		results := make([]R, 0, len(sorted))
		for _, item := range sorted {
			if ctx.Err() != nil {
				break
			}
			results = append(results, f(item))
		}
		return results
	}

	resultsChannel := make(chan R, len(sorted))
	guard := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, item := range sorted {
		if ctx.Err() != nil {
			break
		}
		guard <- struct{}{} // would block if guard channel is already filled
		wg.Add(1)
		go func(item T) {
			defer wg.Done()
			resultsChannel <- f(item)
			<-guard
		}(item)
	}
	wg.Wait()
	close(resultsChannel)

	results := make([]R, 0, len(sorted))
	for r := range resultsChannel {
		results = append(results, r)
	}
	return results
}
