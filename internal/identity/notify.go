package identity

import "sync"

// stateNotifier fans authentication state changes out to subscribers. Both
// providers embed it; they publish after every sign-in, sign-out and identity
// deletion, which serializes all session-store updates by construction.
type stateNotifier struct {
	mu      sync.Mutex
	nextID  int
	subs    map[int]func(*Identity)
	current *Identity
}

func (n *stateNotifier) Subscribe(fn func(*Identity)) func() {
	n.mu.Lock()
	if n.subs == nil {
		n.subs = make(map[int]func(*Identity))
	}
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	current := n.current
	n.mu.Unlock()

	// Initial callback mirrors the platform SDK: subscribers always learn the
	// current state without waiting for the next transition.
	fn(current)

	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

func (n *stateNotifier) publish(ident *Identity) {
	n.mu.Lock()
	n.current = ident
	fns := make([]func(*Identity), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(ident)
	}
}
