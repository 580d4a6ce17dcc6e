package statemachine

import "sync"

// mailbox is an unbounded FIFO. put never blocks; a closed mailbox drops
// everything put into it.
type mailbox[T any] struct {
	mu     sync.Mutex
	queue  []T
	closed bool

	signal chan struct{}
	stop   chan struct{}
	once   sync.Once
}

func newMailbox[T any]() *mailbox[T] {
	return &mailbox[T]{
		signal: make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}
}

// put enqueues v and reports whether it was accepted.
func (m *mailbox[T]) put(v T) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.queue = append(m.queue, v)
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
	return true
}

// next blocks until a value is available, the mailbox is closed, or done
// fires. The boolean is false in the latter two cases.
func (m *mailbox[T]) next(done <-chan struct{}) (T, bool) {
	var zero T
	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return zero, false
		}
		if len(m.queue) > 0 {
			v := m.queue[0]
			m.queue[0] = zero
			m.queue = m.queue[1:]
			m.mu.Unlock()
			return v, true
		}
		m.mu.Unlock()

		select {
		case <-m.signal:
		case <-m.stop:
			return zero, false
		case <-done:
			return zero, false
		}
	}
}

func (m *mailbox[T]) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *mailbox[T]) close() {
	m.once.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.queue = nil
		m.mu.Unlock()
		close(m.stop)
	})
}

// pump forwards queued values to out in order until the mailbox is closed,
// then closes out.
func (m *mailbox[T]) pump(out chan<- T) {
	defer close(out)
	for {
		v, ok := m.next(nil)
		if !ok {
			return
		}
		select {
		case out <- v:
		case <-m.stop:
			return
		}
	}
}
