package statemachine

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
)

const defaultName = "statemachine"

// Config configures a Machine.
type Config[S any] struct {
	// Name labels logs and metrics. Defaults to "statemachine".
	Name string

	// Initial is the state before any action is reduced.
	Initial S

	Reducer Reducer[S]

	// Equal decides whether two states are the same for deduplication.
	Equal func(a, b S) bool

	// Effects are started once, in order, when the machine is created.
	Effects []Effect[S]

	// Logger receives effect failures and lifecycle events. Optional.
	Logger Logger
}

// Machine owns a single state value and serialises every change to it.
//
// Thread Safety:
//   - Dispatch, Current, Observe and Close are safe for concurrent use.
//   - Close must not be called from inside an effect.
type Machine[S any] struct {
	name    string
	reducer Reducer[S]
	equal   func(a, b S) bool
	logger  Logger

	inbox *mailbox[Action]

	mu         sync.RWMutex
	current    S
	observers  map[uint64]*mailbox[S]
	nextID     uint64
	stateSubs  []*mailbox[S]
	actionSubs []*mailbox[Action]
	closed     bool

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a Machine, registers its effects and starts the worker.
//
// Parameters:
//   - cfg: Machine configuration; Reducer and Equal are required
//
// Returns:
//   - *Machine[S]: Running machine; call Close to release it
//   - error: ErrNilReducer or ErrNilEqual
func New[S any](cfg Config[S]) (*Machine[S], error) {
	if cfg.Reducer == nil {
		return nil, ErrNilReducer
	}
	if cfg.Equal == nil {
		return nil, ErrNilEqual
	}

	name := cfg.Name
	if name == "" {
		name = defaultName
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Machine[S]{
		name:      name,
		reducer:   cfg.Reducer,
		equal:     cfg.Equal,
		logger:    logger,
		inbox:     newMailbox[Action](),
		current:   cfg.Initial,
		observers: make(map[uint64]*mailbox[S]),
		ctx:       ctx,
		cancel:    cancel,
	}

	// Mailboxes exist before the worker runs so no effect misses an action.
	for _, e := range cfg.Effects {
		in := inputs[S]{current: m.Current}
		var boxes []interface{ close() }

		if e.wantsActions {
			mb := newMailbox[Action]()
			m.actionSubs = append(m.actionSubs, mb)
			in.actions = startPump(&m.wg, mb)
			boxes = append(boxes, mb)
		}
		if e.wantsStates {
			mb := newMailbox[S]()
			mb.put(m.current)
			m.stateSubs = append(m.stateSubs, mb)
			in.states = startPump(&m.wg, mb)
			boxes = append(boxes, mb)
		}

		m.wg.Add(1)
		go m.runEffect(e, in, boxes)
	}

	m.wg.Add(1)
	go m.loop()

	logger.Debug("state machine started", "machine", name, "effects", len(cfg.Effects))
	return m, nil
}

// Dispatch enqueues an action. It never blocks and does nothing once the
// machine is closed.
func (m *Machine[S]) Dispatch(a Action) {
	if a == nil {
		return
	}
	if m.inbox.put(a) {
		inboxDepth.WithLabelValues(m.name).Set(float64(m.inbox.len()))
	}
}

// Current returns a snapshot of the state.
func (m *Machine[S]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Observe returns a channel that first yields the current state and then
// every distinct change, in order. The channel is closed when ctx is done
// or the machine is closed. A machine that is already closed returns a
// closed channel.
func (m *Machine[S]) Observe(ctx context.Context) <-chan S {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		out := make(chan S)
		close(out)
		return out
	}

	mb := newMailbox[S]()
	mb.put(m.current)
	id := m.nextID
	m.nextID++
	m.observers[id] = mb
	out := startPump(&m.wg, mb)

	stop := context.AfterFunc(ctx, func() { m.unsubscribe(id) })
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		<-mb.stop
		stop()
	}()
	m.mu.Unlock()

	return out
}

// Close stops every effect and observer and waits for all goroutines the
// machine started. It is idempotent.
func (m *Machine[S]) Close() {
	m.closeOnce.Do(func() {
		m.inbox.close()
		m.cancel()

		m.mu.Lock()
		m.closed = true
		for id, mb := range m.observers {
			mb.close()
			delete(m.observers, id)
		}
		for _, mb := range m.stateSubs {
			mb.close()
		}
		for _, mb := range m.actionSubs {
			mb.close()
		}
		m.mu.Unlock()

		m.wg.Wait()
		inboxDepth.DeleteLabelValues(m.name)
		m.logger.Debug("state machine closed", "machine", m.name)
	})
}

func (m *Machine[S]) unsubscribe(id uint64) {
	m.mu.Lock()
	mb, ok := m.observers[id]
	delete(m.observers, id)
	m.mu.Unlock()
	if ok {
		mb.close()
	}
}

// loop is the single worker that folds actions into state.
func (m *Machine[S]) loop() {
	defer m.wg.Done()
	for {
		a, ok := m.inbox.next(m.ctx.Done())
		if !ok {
			return
		}
		inboxDepth.WithLabelValues(m.name).Set(float64(m.inbox.len()))
		m.step(a)
	}
}

func (m *Machine[S]) step(a Action) {
	actionsReduced.WithLabelValues(m.name, a.ActionName()).Inc()

	m.mu.Lock()
	prev := m.current
	next := m.reducer(prev, a)
	m.current = next
	if !m.equal(prev, next) {
		stateChanges.WithLabelValues(m.name).Inc()
		for _, mb := range m.stateSubs {
			mb.put(next)
		}
		for _, mb := range m.observers {
			mb.put(next)
		}
	}
	m.mu.Unlock()

	for _, mb := range m.actionSubs {
		mb.put(a)
	}
}

func (m *Machine[S]) runEffect(e Effect[S], in inputs[S], boxes []interface{ close() }) {
	defer m.wg.Done()
	defer func() {
		// Stop feeding an effect that is no longer reading.
		for _, b := range boxes {
			b.close()
		}
	}()
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err := fmt.Errorf("%w: %s: %v", ErrEffectPanic, e.name, r)
		effectPanics.WithLabelValues(m.name, e.name).Inc()
		m.logger.Error("effect panicked",
			"machine", m.name,
			"effect", e.name,
			"panic", r,
			"stack", string(debug.Stack()),
		)
		if e.onFailure != nil {
			m.Dispatch(e.onFailure(err))
		}
	}()

	emissions := effectEmissions.WithLabelValues(m.name, e.name)
	e.run(m.ctx, in, func(a Action) {
		emissions.Inc()
		m.Dispatch(a)
	})
}

func startPump[T any](wg *sync.WaitGroup, mb *mailbox[T]) <-chan T {
	out := make(chan T)
	wg.Add(1)
	go func() {
		defer wg.Done()
		mb.pump(out)
	}()
	return out
}
