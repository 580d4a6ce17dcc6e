// Package statemachine is a small unidirectional state container.
//
// A Machine owns one state value of type S. Actions are dispatched into a
// single inbox and folded, one at a time, by a pure Reducer on a dedicated
// worker goroutine. Effects run alongside the worker: each one consumes the
// action stream, the state stream, or actions plus a snapshot accessor, and
// may emit further actions which re-enter the same inbox as external
// dispatches. Once an action reaches the reducer its origin is irrelevant.
//
// # Guarantees
//
//   - The reducer is never invoked concurrently.
//   - The current state is written exactly once per accepted action.
//   - Observers receive the latest state immediately on attach, then only
//     genuine changes. No two consecutive deliveries are equal.
//   - A panic inside an effect stops that effect only. It is logged,
//     counted, and optionally converted into an action via OnFailure.
//   - Dispatch never blocks and is a no-op after Close.
//
// # Usage
//
//	m, err := statemachine.New(statemachine.Config[Counter]{
//	    Name:    "counter",
//	    Reducer: reduce,
//	    Equal:   func(a, b Counter) bool { return a == b },
//	    Effects: []statemachine.Effect[Counter]{ticker},
//	})
//	if err != nil {
//	    return err
//	}
//	defer m.Close()
//
//	states := m.Observe(ctx)
//	m.Dispatch(Increment{})
package statemachine
