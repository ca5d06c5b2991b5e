package scope

// Manager re-enters the scope that was current when it was created and runs
// renders in child scopes of it. It is the only sanctioned way to reach a
// scope across an asynchronous gap.
type Manager interface {
	Run(fn func(n *Node))
}

// Within runs fn through m and returns its result.
func Within[T any](m Manager, fn func(n *Node) T) T {
	var out T
	m.Run(func(n *Node) {
		out = fn(n)
	})
	return out
}

// SingleManager keeps at most one live child: every Run destroys the
// previous child before creating the next.
type SingleManager struct {
	stack    *Stack
	captured *Node
	current  *Node
}

func Single(s *Stack) *SingleManager {
	return &SingleManager{stack: s, captured: s.top()}
}

func (m *SingleManager) Captured() *Node {
	return m.captured
}

// Current is the live child, nil before the first Run or after Reset.
func (m *SingleManager) Current() *Node {
	if m.current != nil && m.current.destroyed {
		return nil
	}
	return m.current
}

func (m *SingleManager) Run(fn func(n *Node)) {
	leave := m.stack.enter(m.captured)
	defer leave()

	m.Reset()
	Create(m.stack, func(n *Node) struct{} {
		m.current = n
		fn(n)
		return struct{}{}
	})
}

// Reset destroys the live child, if any.
func (m *SingleManager) Reset() {
	if m.current != nil {
		prev := m.current
		m.current = nil
		prev.Destroy()
	}
}

// ManyManager creates an independent child per Run and never destroys
// siblings. Callers own the returned scopes.
type ManyManager struct {
	stack    *Stack
	captured *Node
}

func Many(s *Stack) *ManyManager {
	return &ManyManager{stack: s, captured: s.top()}
}

func (m *ManyManager) Captured() *Node {
	return m.captured
}

func (m *ManyManager) Run(fn func(n *Node)) {
	leave := m.stack.enter(m.captured)
	defer leave()

	Create(m.stack, func(n *Node) struct{} {
		fn(n)
		return struct{}{}
	})
}
