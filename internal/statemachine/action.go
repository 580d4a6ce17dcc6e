package statemachine

// Action describes something that happened. Implementations should be
// immutable value types.
type Action interface {
	// ActionName identifies the action kind in logs and metric labels.
	ActionName() string
}

// Reducer folds one action into the previous state. It must be pure and
// total: unknown actions return the state unchanged.
type Reducer[S any] func(state S, action Action) S

// Emitter feeds an action produced by an effect back into the machine.
type Emitter func(Action)

// Logger is the logging surface the machine needs.
// *logging.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
