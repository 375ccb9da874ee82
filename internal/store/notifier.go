package store

import "sync"

// notifier fans out per-user change signals to in-process watchers.
// Signals are coalescing: a subscriber that has not drained its channel
// sees one pending signal, not a backlog.
type notifier struct {
	mu   sync.Mutex
	subs map[string]map[int]chan struct{}
	next int
}

func newNotifier() *notifier {
	return &notifier{
		subs: make(map[string]map[int]chan struct{}),
	}
}

// subscribe registers a watcher for userID and returns its signal channel
// and a cancel function.
func (n *notifier) subscribe(userID string) (<-chan struct{}, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subs[userID] == nil {
		n.subs[userID] = make(map[int]chan struct{})
	}

	id := n.next
	n.next++
	ch := make(chan struct{}, 1)
	n.subs[userID][id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs[userID], id)
		if len(n.subs[userID]) == 0 {
			delete(n.subs, userID)
		}
	}
	return ch, cancel
}

// publish signals every watcher of userID without blocking.
func (n *notifier) publish(userID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs[userID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
