package scope

// Hook is a lifecycle callback.
type Hook func()

// Registration is a handle to one entry of a HookList.
type Registration struct {
	fn   Hook
	live bool
}

// HookList is an ordered list of hooks whose entries can be removed by
// handle. Go funcs are not comparable so removal goes through the
// Registration returned by Add.
type HookList struct {
	entries []*Registration
}

func (l *HookList) Add(fn Hook) *Registration {
	r := &Registration{fn: fn, live: true}
	l.entries = append(l.entries, r)
	return r
}

// Remove drops r from the list. It reports false if r was already gone.
func (l *HookList) Remove(r *Registration) bool {
	if r == nil || !r.live {
		return false
	}
	r.live = false
	for i, e := range l.entries {
		if e == r {
			l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
			break
		}
	}
	return true
}

func (l *HookList) Len() int {
	return len(l.entries)
}

// Run calls every hook in registration order and empties the list. Hooks
// removed by an earlier hook during the run are skipped.
func (l *HookList) Run() {
	entries := l.entries
	l.entries = nil
	for _, e := range entries {
		if !e.live {
			continue
		}
		e.live = false
		e.fn()
	}
}
