package concurrent

import (
	"context"
	"sync"
)

// Result pairs one item's output with its error and original position.
type Result[T any] struct {
	Value T
	Error error
	Index int
}

// MapWithLimit runs fn over every item with at most maxConcurrent goroutines
// in flight. All items are attempted even when some fail; results keep input
// order.
func MapWithLimit[T any, R any](ctx context.Context, items []T, maxConcurrent int, fn func(ctx context.Context, item T) (R, error)) []Result[R] {
	if maxConcurrent <= 0 {
		maxConcurrent = len(items)
	}

	results := make([]Result[R], len(items))
	semaphore := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		go func() {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			value, err := fn(ctx, item)
			results[i] = Result[R]{Value: value, Error: err, Index: i}
		}()
	}

	wg.Wait()
	return results
}

// Values extracts the successful values from results, dropping failed entries.
func Values[T any](results []Result[T]) []T {
	values := make([]T, 0, len(results))
	for _, result := range results {
		if result.Error == nil {
			values = append(values, result.Value)
		}
	}
	return values
}
