package reactive

// Writable is a cell whose value is set from outside. Every Set re-emits,
// even when the value did not change.
type Writable[T any] struct {
	*Reactive[T]

	value T
	push  Emit[T]
}

func NewWritable[T any](initial T) *Writable[T] {
	w := &Writable[T]{value: initial}
	w.Reactive = New(func(emit Emit[T]) Teardown {
		w.push = emit
		emit(w.value)
		return func() {
			w.push = nil
		}
	})
	return w
}

// Value always reports the current value, subscribed or not.
func (w *Writable[T]) Value() (T, bool) {
	return w.value, true
}

func (w *Writable[T]) Get() T {
	return w.value
}

func (w *Writable[T]) Set(v T) {
	w.value = v
	if w.push != nil {
		w.push(v)
	}
}

func (w *Writable[T]) Update(fn func(old T) T) {
	w.Set(fn(w.value))
}
