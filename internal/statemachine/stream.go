package statemachine

import "context"

// The helpers below derive new streams from an observed one. Each starts a
// goroutine that exits when in is closed or ctx is done, closing its output.

// Map applies fn to every value of in.
func Map[T, U any](ctx context.Context, in <-chan T, fn func(T) U) <-chan U {
	out := make(chan U)
	go func() {
		defer close(out)
		for v := range in {
			if !send(ctx, out, fn(v)) {
				return
			}
		}
	}()
	return out
}

// Filter forwards only the values for which keep returns true.
func Filter[T any](ctx context.Context, in <-chan T, keep func(T) bool) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for v := range in {
			if keep(v) && !send(ctx, out, v) {
				return
			}
		}
	}()
	return out
}

// Distinct drops values equal to the previously forwarded one.
func Distinct[T any](ctx context.Context, in <-chan T, equal func(a, b T) bool) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		var last T
		first := true
		for v := range in {
			if !first && equal(last, v) {
				continue
			}
			first = false
			last = v
			if !send(ctx, out, v) {
				return
			}
		}
	}()
	return out
}

// DistinctBy drops values whose key equals the key of the previously
// forwarded value.
func DistinctBy[T any, K comparable](ctx context.Context, in <-chan T, key func(T) K) <-chan T {
	return Distinct(ctx, in, func(a, b T) bool { return key(a) == key(b) })
}

// SkipWhile drops leading values while skip returns true, then forwards
// everything.
func SkipWhile[T any](ctx context.Context, in <-chan T, skip func(T) bool) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		skipping := true
		for v := range in {
			if skipping && skip(v) {
				continue
			}
			skipping = false
			if !send(ctx, out, v) {
				return
			}
		}
	}()
	return out
}

func send[T any](ctx context.Context, out chan<- T, v T) bool {
	select {
	case out <- v:
		return true
	case <-ctx.Done():
		return false
	}
}
