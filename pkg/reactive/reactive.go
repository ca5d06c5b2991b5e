package reactive

// Unsubscribe removes a subscriber. Calling it more than once is a no-op.
type Unsubscribe func()

// Emit pushes a value to every current subscriber of a cell.
type Emit[T any] func(value T)

// Teardown releases whatever an activation acquired. It may be nil.
type Teardown func()

// Activate runs when a cell gains its first subscriber.
type Activate[T any] func(emit Emit[T]) Teardown

// Cell is a multicast value stream with a cached last value.
type Cell[T any] interface {
	// Value returns the last emitted value, false if nothing was emitted yet.
	Value() (T, bool)
	Subscribe(fn func(T)) Unsubscribe
}

type handler[T any] struct {
	fn   func(T)
	live bool
}

// Reactive is the base cell. Its activation runs exactly when the subscriber
// count goes 0→1 and its teardown exactly when it goes 1→0.
type Reactive[T any] struct {
	activate Activate[T]
	teardown Teardown
	active   bool

	handlers []*handler[T]

	value    T
	hasValue bool
}

// New is the cell factory.
func New[T any](activate Activate[T]) *Reactive[T] {
	return &Reactive[T]{activate: activate}
}

func (r *Reactive[T]) Value() (T, bool) {
	return r.value, r.hasValue
}

// Subscribers returns the current subscriber count.
func (r *Reactive[T]) Subscribers() int {
	return len(r.handlers)
}

func (r *Reactive[T]) emit(v T) {
	r.value = v
	r.hasValue = true
	if len(r.handlers) == 0 {
		return
	}

	// subscribers added while emitting are replayed on subscribe, ones
	// removed while emitting must not be called
	handlers := make([]*handler[T], len(r.handlers))
	copy(handlers, r.handlers)
	for _, h := range handlers {
		if h.live {
			h.fn(v)
		}
	}
}

func (r *Reactive[T]) Subscribe(fn func(T)) Unsubscribe {
	h := &handler[T]{fn: fn, live: true}
	r.handlers = append(r.handlers, h)

	if len(r.handlers) == 1 && !r.active {
		r.start(h)
	} else if r.hasValue {
		fn(r.value)
	}

	return func() {
		r.unsubscribe(h)
	}
}

func (r *Reactive[T]) start(h *handler[T]) {
	started := false
	defer func() {
		if !started {
			r.active = false
			r.remove(h)
		}
	}()

	r.active = true
	var td Teardown
	if r.activate != nil {
		td = r.activate(r.emit)
	}
	started = true

	if len(r.handlers) == 0 {
		// everyone left while activating
		r.active = false
		if td != nil {
			td()
		}
		return
	}
	r.teardown = td
}

func (r *Reactive[T]) remove(h *handler[T]) bool {
	if !h.live {
		return false
	}
	h.live = false
	for i, other := range r.handlers {
		if other == h {
			copy(r.handlers[i:], r.handlers[i+1:])
			r.handlers[len(r.handlers)-1] = nil
			r.handlers = r.handlers[:len(r.handlers)-1]
			break
		}
	}
	return true
}

func (r *Reactive[T]) unsubscribe(h *handler[T]) {
	if !r.remove(h) || len(r.handlers) > 0 || !r.active {
		return
	}
	td := r.teardown
	r.teardown = nil
	r.active = false
	if td != nil {
		td()
	}
}
