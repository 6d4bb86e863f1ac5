package translation

import "sync"

// listenerSet is a multi-subscriber callback registry. add returns a
// remove capability scoped to exactly the added listener, so callers
// cannot leak or unhook each other's subscriptions.
type listenerSet[T any] struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(T)
}

func (s *listenerSet[T]) add(listener func(T)) (remove func()) {
	if listener == nil {
		return func() {}
	}

	s.mu.Lock()
	if s.listeners == nil {
		s.listeners = map[int]func(T){}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *listenerSet[T]) emit(value T) {
	s.mu.Lock()
	listeners := make([]func(T), 0, len(s.listeners))
	for _, listener := range s.listeners {
		listeners = append(listeners, listener)
	}
	s.mu.Unlock()

	for _, listener := range listeners {
		listener(value)
	}
}
