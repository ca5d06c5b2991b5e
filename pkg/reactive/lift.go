package reactive

import (
	"errors"
	"fmt"
)

var ErrNotLiftable = errors.New("reactive: value is neither a cell nor the cell's element type")

// Of lifts a plain value into a cell that emits it once per activation.
func Of[T any](v T) *Reactive[T] {
	return New(func(emit Emit[T]) Teardown {
		emit(v)
		return nil
	})
}

// Lift resolves v into a Cell[T]. Cells pass through unchanged, plain T
// values are lifted with Of. Anything else is a programming error.
func Lift[T any](v any) Cell[T] {
	switch v := v.(type) {
	case Cell[T]:
		return v
	case T:
		return Of(v)
	default:
		var zero T
		panic(fmt.Errorf("%w: got %T, want %T", ErrNotLiftable, v, zero))
	}
}

// IsCell reports whether v is a Cell[T].
func IsCell[T any](v any) bool {
	_, ok := v.(Cell[T])
	return ok
}
