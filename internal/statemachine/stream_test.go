package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func feed[T any](values ...T) <-chan T {
	ch := make(chan T, len(values))
	for _, v := range values {
		ch <- v
	}
	close(ch)
	return ch
}

func drain[T any](ch <-chan T) []T {
	var out []T
	for v := range ch {
		out = append(out, v)
	}
	return out
}

func TestStreamHelpers(t *testing.T) {
	t.Parallel()

	ctx := t.Context()

	t.Run("map", func(t *testing.T) {
		got := drain(Map(ctx, feed(1, 2, 3), func(v int) int { return v * 10 }))
		assert.Equal(t, []int{10, 20, 30}, got)
	})

	t.Run("filter", func(t *testing.T) {
		got := drain(Filter(ctx, feed(1, 2, 3, 4), func(v int) bool { return v%2 == 0 }))
		assert.Equal(t, []int{2, 4}, got)
	})

	t.Run("distinct", func(t *testing.T) {
		got := drain(Distinct(ctx, feed(1, 1, 2, 1, 1), func(a, b int) bool { return a == b }))
		assert.Equal(t, []int{1, 2, 1}, got)
	})

	t.Run("distinct by key", func(t *testing.T) {
		type pair struct {
			k string
			v int
		}
		got := drain(DistinctBy(ctx, feed(pair{"a", 1}, pair{"a", 2}, pair{"b", 3}), func(p pair) string { return p.k }))
		assert.Equal(t, []pair{{"a", 1}, {"b", 3}}, got)
	})

	t.Run("skip while", func(t *testing.T) {
		got := drain(SkipWhile(ctx, feed(false, false, true, false), func(v bool) bool { return !v }))
		assert.Equal(t, []bool{true, false}, got)
	})
}
