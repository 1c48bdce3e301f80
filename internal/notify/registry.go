package notify

import "sync"

// Registry maps topics to the set of currently connected listeners. It is the
// only place the connection→topic mapping exists: nothing is persisted, and
// the gateway rebuilds entries as clients re-declare interest after
// reconnecting.
//
// The lock serializes gateway mutations against the dispatcher's
// read-then-iterate so a connection removed mid-broadcast is never half-seen.
type Registry struct {
	mu     sync.RWMutex
	topics map[Topic]map[string]struct{}
	byConn map[string]map[Topic]struct{}
}

// NewRegistry creates an empty registry. One instance lives for the process
// lifetime and is passed to the gateway and dispatcher explicitly.
func NewRegistry() *Registry {
	return &Registry{
		topics: make(map[Topic]map[string]struct{}),
		byConn: make(map[string]map[Topic]struct{}),
	}
}

// Subscribe registers (connID, topic). Idempotent: repeating the same pair
// has no additional effect.
func (r *Registry) Subscribe(connID string, topic Topic) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.topics[topic] == nil {
		r.topics[topic] = make(map[string]struct{})
	}
	r.topics[topic][connID] = struct{}{}

	if r.byConn[connID] == nil {
		r.byConn[connID] = make(map[Topic]struct{})
	}
	r.byConn[connID][topic] = struct{}{}
}

// Unsubscribe removes (connID, topic). No error if the pair was never
// registered.
func (r *Registry) Unsubscribe(connID string, topic Topic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(connID, topic)
}

// DropConnection removes connID from every topic it was subscribed to.
// Called unconditionally on disconnect; safe to repeat.
func (r *Registry) DropConnection(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for topic := range r.byConn[connID] {
		r.remove(connID, topic)
	}
}

// Subscribers returns a snapshot of the connection ids registered for a
// topic. An empty result is a normal no-op for the dispatcher, not an error.
func (r *Registry) Subscribers(topic Topic) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.topics[topic]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// remove expects r.mu held for writing.
func (r *Registry) remove(connID string, topic Topic) {
	if set := r.topics[topic]; set != nil {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.topics, topic)
		}
	}
	if set := r.byConn[connID]; set != nil {
		delete(set, topic)
		if len(set) == 0 {
			delete(r.byConn, connID)
		}
	}
}
