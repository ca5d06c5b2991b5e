package scope

// Node is one scope of the render tree. It owns its mount and destroy hooks,
// a provider map, and every child scope created while it was current.
type Node struct {
	id    uint64
	stack *Stack

	// parent is a back reference only, a node never destroys its parent
	parent *Node
	// reg is this node's entry in the parent's destroy list
	reg *Registration

	mount   HookList
	destroy HookList

	providers map[string]any
	output    any

	mounted   bool
	destroyed bool
}

func (n *Node) ID() uint64 {
	return n.id
}

func (n *Node) Parent() *Node {
	return n.parent
}

func (n *Node) Root() *Node {
	root := n
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// Depth is 0 for a root scope.
func (n *Node) Depth() int {
	d := 0
	for p := n.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

func (n *Node) OnMount(fn Hook) {
	n.mount.Add(fn)
}

func (n *Node) OnDestroy(fn Hook) *Registration {
	return n.destroy.Add(fn)
}

// RemoveDestroy drops a hook added with OnDestroy before it fires.
func (n *Node) RemoveDestroy(r *Registration) bool {
	return n.destroy.Remove(r)
}

func (n *Node) Provide(key string, value any) {
	if n.providers == nil {
		n.providers = map[string]any{}
	}
	n.providers[key] = value
}

// Inject walks the parent chain, nearest provider wins.
func (n *Node) Inject(key string) (any, bool) {
	for o := n; o != nil; o = o.parent {
		if v, ok := o.providers[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// SetOutput records the output node produced by this scope's render.
func (n *Node) SetOutput(out any) {
	n.output = out
}

func (n *Node) Output() any {
	return n.output
}

func (n *Node) Mounted() bool {
	return n.mounted
}

func (n *Node) Destroyed() bool {
	return n.destroyed
}

// Mount runs the mount hooks, once.
func (n *Node) Mount() {
	if n.mounted || n.destroyed {
		return
	}
	n.mounted = true
	n.mount.Run()
}

// Destroy unregisters the node from its parent and runs its destroy hooks in
// registration order. Child scopes registered themselves on this list when
// they were created, so they are destroyed transitively. Destroying twice is
// a no-op.
func (n *Node) Destroy() {
	if n.destroyed {
		return
	}
	n.destroyed = true

	if n.parent != nil {
		n.parent.destroy.Remove(n.reg)
		n.reg = nil
	}

	n.destroy.Run()
	n.mount = HookList{}
	n.providers = nil

	if n.stack != nil && n.stack.tracer != nil {
		n.stack.tracer.Destroyed(n)
	}
}
