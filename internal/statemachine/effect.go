package statemachine

import "context"

// Effect is a unit of reactive logic registered with a Machine for its
// whole lifetime. Build one with ActionEffect, StateEffect or
// ActionStateEffect.
//
// The run function must return once ctx is cancelled or its input channels
// are closed. It must never block the caller of emit for long; emit itself
// does not block.
type Effect[S any] struct {
	name         string
	wantsActions bool
	wantsStates  bool
	run          func(ctx context.Context, in inputs[S], emit Emitter)
	onFailure    func(error) Action
}

// inputs carries whichever streams an effect declared.
type inputs[S any] struct {
	actions <-chan Action
	states  <-chan S
	current func() S
}

// ActionEffect builds an effect driven by the action stream only.
func ActionEffect[S any](name string, fn func(ctx context.Context, actions <-chan Action, emit Emitter)) Effect[S] {
	return Effect[S]{
		name:         name,
		wantsActions: true,
		run: func(ctx context.Context, in inputs[S], emit Emitter) {
			fn(ctx, in.actions, emit)
		},
	}
}

// StateEffect builds an effect driven by the state stream only. The stream
// starts with the state current at registration and then carries every
// distinct change.
func StateEffect[S any](name string, fn func(ctx context.Context, states <-chan S, emit Emitter)) Effect[S] {
	return Effect[S]{
		name:        name,
		wantsStates: true,
		run: func(ctx context.Context, in inputs[S], emit Emitter) {
			fn(ctx, in.states, emit)
		},
	}
}

// ActionStateEffect builds an effect driven by actions that may consult the
// instantaneous state through current.
func ActionStateEffect[S any](name string, fn func(ctx context.Context, actions <-chan Action, current func() S, emit Emitter)) Effect[S] {
	return Effect[S]{
		name:         name,
		wantsActions: true,
		run: func(ctx context.Context, in inputs[S], emit Emitter) {
			fn(ctx, in.actions, in.current, emit)
		},
	}
}

// OnFailure returns a copy of e that dispatches fn(err) when the effect
// panics. Without it a panic is only logged.
func (e Effect[S]) OnFailure(fn func(error) Action) Effect[S] {
	e.onFailure = fn
	return e
}

// Name returns the name the effect was registered under.
func (e Effect[S]) Name() string {
	return e.name
}
