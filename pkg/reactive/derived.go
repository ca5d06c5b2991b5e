package reactive

// Scheduler defers work to the host's microtask boundary.
type Scheduler interface {
	Microtask(fn func())
}

// Derived maps every emission of src through fn. fn is never called while
// the derived cell has no subscribers.
func Derived[T, U any](src Cell[T], fn func(T) U) *Reactive[U] {
	return New(func(emit Emit[U]) Teardown {
		unsub := src.Subscribe(func(v T) {
			emit(fn(v))
		})
		return Teardown(unsub)
	})
}

// Map is Derived with the argument order of a method chain.
func Map[T, U any](src Cell[T], fn func(T) U) *Reactive[U] {
	return Derived(src, fn)
}

// DerivedAll maps the combined snapshot of srcs through fn.
func DerivedAll[T, U any](s Scheduler, srcs []Cell[T], fn func([]T) U) *Reactive[U] {
	return Derived[[]T, U](Combine(s, srcs...), fn)
}

// Combine emits a snapshot of every source's latest value. The first
// snapshot is emitted synchronously on activation. After that, any number
// of source updates in the same synchronous turn produce a single emission
// at the next microtask boundary.
func Combine[T any](s Scheduler, cells ...Cell[T]) *Reactive[[]T] {
	return New(func(emit Emit[[]T]) Teardown {
		values := make([]T, len(cells))
		snapshot := func() []T {
			out := make([]T, len(values))
			copy(out, values)
			return out
		}

		var (
			armed  bool
			closed bool
		)
		notify := func() {
			if !armed {
				return
			}
			armed = false
			s.Microtask(func() {
				if closed {
					return
				}
				armed = true
				emit(snapshot())
			})
		}

		unsubs := make([]Unsubscribe, 0, len(cells))
		for i, c := range cells {
			i := i
			unsubs = append(unsubs, c.Subscribe(func(v T) {
				values[i] = v
				notify()
			}))
		}

		armed = true
		emit(snapshot())

		return func() {
			closed = true
			for _, unsub := range unsubs {
				unsub()
			}
		}
	})
}

// Watch calls fn with every emission and the one before it. first is true
// for the initial call, when prev is the zero value.
func Watch[T any](c Cell[T], fn func(next, prev T, first bool)) Unsubscribe {
	var (
		prev T
		seen bool
	)
	return c.Subscribe(func(v T) {
		fn(v, prev, !seen)
		prev = v
		seen = true
	})
}
