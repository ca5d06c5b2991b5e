package scope

import (
	"errors"
	"fmt"
)

var (
	// ErrContextUnavailable is returned when a scoped API is used with an
	// empty scope stack, i.e. outside of any render.
	ErrContextUnavailable = errors.New("scope: no current context")
	// ErrNotProvided is returned by Inject when no ancestor provides the key.
	ErrNotProvided = errors.New("scope: key not provided")
)

// Tracer observes scope creation and destruction.
type Tracer interface {
	Created(n *Node)
	Destroyed(n *Node)
}

// Stack is the current-scope stack. Every scoped render pushes a node on
// entry and pops it on every exit path, panics included.
type Stack struct {
	// entries may hold nil when a manager re-enters a root-level capture
	entries []*Node
	nextID  uint64
	tracer  Tracer
}

func NewStack() *Stack {
	return &Stack{}
}

func (s *Stack) SetTracer(t Tracer) {
	s.tracer = t
}

func (s *Stack) top() *Node {
	if len(s.entries) == 0 {
		return nil
	}
	return s.entries[len(s.entries)-1]
}

func (s *Stack) push(n *Node) int {
	s.entries = append(s.entries, n)
	return len(s.entries) - 1
}

func (s *Stack) popTo(depth int) {
	for i := depth; i < len(s.entries); i++ {
		s.entries[i] = nil
	}
	s.entries = s.entries[:depth]
}

// Depth is the number of entries on the stack.
func (s *Stack) Depth() int {
	return len(s.entries)
}

// Current returns the innermost scope.
func (s *Stack) Current() (*Node, error) {
	if n := s.top(); n != nil {
		return n, nil
	}
	return nil, ErrContextUnavailable
}

// Create pushes a new scope whose parent is the current one, registers its
// destroy on the parent, and runs init with it. The scope is popped however
// init returns.
func Create[T any](s *Stack, init func(n *Node) T) T {
	parent := s.top()
	s.nextID++
	n := &Node{
		id:     s.nextID,
		stack:  s,
		parent: parent,
	}
	if parent != nil {
		n.reg = parent.destroy.Add(n.Destroy)
	}
	if s.tracer != nil {
		s.tracer.Created(n)
	}

	depth := s.push(n)
	defer s.popTo(depth)
	return init(n)
}

// enter makes n the current scope until the returned func is called.
func (s *Stack) enter(n *Node) func() {
	depth := s.push(n)
	return func() { s.popTo(depth) }
}

func (s *Stack) OnMount(fn Hook) error {
	n, err := s.Current()
	if err != nil {
		return fmt.Errorf("on mount: %w", err)
	}
	n.OnMount(fn)
	return nil
}

func (s *Stack) OnDestroy(fn Hook) error {
	n, err := s.Current()
	if err != nil {
		return fmt.Errorf("on destroy: %w", err)
	}
	n.OnDestroy(fn)
	return nil
}

func (s *Stack) Provide(key string, value any) error {
	n, err := s.Current()
	if err != nil {
		return fmt.Errorf("provide %q: %w", key, err)
	}
	n.Provide(key, value)
	return nil
}

func (s *Stack) Inject(key string) (any, error) {
	n, err := s.Current()
	if err != nil {
		return nil, fmt.Errorf("inject %q: %w", key, err)
	}
	v, ok := n.Inject(key)
	if !ok {
		return nil, fmt.Errorf("inject %q: %w", key, ErrNotProvided)
	}
	return v, nil
}

// Key is a typed provider key.
type Key[T any] string

func Provide[T any](s *Stack, key Key[T], value T) error {
	return s.Provide(string(key), value)
}

// Use injects key and asserts its type.
func Use[T any](s *Stack, key Key[T]) (T, error) {
	var zero T
	v, err := s.Inject(string(key))
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("inject %q: provided %T, want %T", string(key), v, zero)
	}
	return t, nil
}
