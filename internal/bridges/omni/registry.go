package omni

import (
	"sort"
	"sync"
)

// Registry holds the sessions for all configured controllers, keyed by
// host:port. Sessions are created once per address and shared; two
// callers asking for the same controller get the same session.
type Registry struct {
	dial Dialer

	mu       sync.Mutex
	sessions map[string]*Session

	loggerMu sync.Mutex
	logger   Logger
}

// NewRegistry creates an empty registry whose sessions dial through
// the given dialer.
func NewRegistry(dial Dialer) *Registry {
	return &Registry{
		dial:     dial,
		sessions: make(map[string]*Session),
	}
}

// SetLogger installs a logger that is passed to every session the
// registry creates.
func (r *Registry) SetLogger(l Logger) {
	r.loggerMu.Lock()
	r.logger = l
	r.loggerMu.Unlock()
}

// GetOrCreate returns the session for cfg's address, creating it if
// none exists. When a session already exists but any connection option
// changed, the stale session is closed and replaced; the replacement
// reconnects on the next update tick.
func (r *Registry) GetOrCreate(cfg Config) (*Session, error) {
	cfg.applyDefaults()
	addr := cfg.Address()

	var stale *Session

	r.mu.Lock()
	if sess, ok := r.sessions[addr]; ok {
		if sess.cfg == cfg {
			r.mu.Unlock()
			return sess, nil
		}
		stale = sess
		delete(r.sessions, addr)
	}

	sess, err := NewSession(cfg, r.dial)
	if err != nil {
		r.mu.Unlock()
		if stale != nil {
			stale.Close() //nolint:errcheck // Close never fails
		}
		return nil, err
	}
	r.loggerMu.Lock()
	if r.logger != nil {
		sess.SetLogger(r.logger)
	}
	r.loggerMu.Unlock()

	r.sessions[addr] = sess
	r.mu.Unlock()

	if stale != nil {
		stale.Close() //nolint:errcheck // Close never fails
	}
	return sess, nil
}

// Get returns the session for an address, if one exists.
func (r *Registry) Get(address string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[address]
	return sess, ok
}

// Remove closes and forgets the session for an address.
func (r *Registry) Remove(address string) {
	r.mu.Lock()
	sess, ok := r.sessions[address]
	delete(r.sessions, address)
	r.mu.Unlock()

	if ok {
		sess.Close() //nolint:errcheck // Close never fails
	}
}

// List returns all sessions ordered by address.
func (r *Registry) List() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	addrs := make([]string, 0, len(r.sessions))
	for addr := range r.sessions {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	sessions := make([]*Session, 0, len(addrs))
	for _, addr := range addrs {
		sessions = append(sessions, r.sessions[addr])
	}
	return sessions
}

// UpdateAll advances every session once. Intended to be called from a
// single periodic update loop.
func (r *Registry) UpdateAll() {
	for _, sess := range r.List() {
		sess.Update()
	}
}

// CloseAll closes every session and empties the registry.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, sess := range sessions {
		sess.Close() //nolint:errcheck // Close never fails
	}
}
