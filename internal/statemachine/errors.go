package statemachine

import "errors"

var (
	// ErrNilReducer is returned by New when Config.Reducer is nil.
	ErrNilReducer = errors.New("statemachine: reducer is required")

	// ErrNilEqual is returned by New when Config.Equal is nil.
	ErrNilEqual = errors.New("statemachine: equality function is required")

	// ErrEffectPanic wraps the value recovered from a panicking effect.
	ErrEffectPanic = errors.New("statemachine: effect panicked")
)
