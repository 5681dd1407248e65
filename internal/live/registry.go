package live

import (
	"log/slog"
	"sync"
)

// Conn is one live client connection bound to a single identity after its
// handshake. Deliver must not block: implementations queue the event or
// return an error so a slow client never stalls a fan-out.
type Conn interface {
	ID() string
	Deliver(evt Event) error
	Close()
}

// Registry maps identity IDs to their currently open connections. A single
// identity may hold any number of simultaneous connections (one per device
// or tab); a connection belongs to at most one identity at a time. Entries
// live exactly as long as the transport connection: disconnect is the only
// removal trigger.
type Registry struct {
	mu       sync.Mutex
	byUser   map[string]map[string]Conn
	identity map[string]string
	logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		byUser:   map[string]map[string]Conn{},
		identity: map[string]string{},
		logger:   log.With(slog.String("component", "registry")),
	}
}

// Register adds conn to the identity's connection set. A connection already
// registered under a different identity is moved, keeping the one-identity
// invariant.
func (r *Registry) Register(identityID string, conn Conn) {
	if identityID == "" || conn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.identity[conn.ID()]; ok {
		r.removeLocked(prev, conn.ID())
	}
	set, ok := r.byUser[identityID]
	if !ok {
		set = map[string]Conn{}
		r.byUser[identityID] = set
	}
	set[conn.ID()] = conn
	r.identity[conn.ID()] = identityID

	r.logger.Debug("channel registered",
		slog.String("identity_id", identityID),
		slog.String("conn_id", conn.ID()),
		slog.Int("devices", len(set)),
	)
}

// Unregister removes conn from whatever identity set contains it. It is
// idempotent: unregistering twice, or a connection never registered, is a
// no-op.
func (r *Registry) Unregister(conn Conn) {
	if conn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	identityID, ok := r.identity[conn.ID()]
	if !ok {
		return
	}
	r.removeLocked(identityID, conn.ID())

	r.logger.Debug("channel unregistered",
		slog.String("identity_id", identityID),
		slog.String("conn_id", conn.ID()),
	)
}

// ChannelsFor returns a snapshot of the identity's connections. The snapshot
// does not observe registrations or removals made after it is taken, so
// dispatch never iterates under the registry lock.
func (r *Registry) ChannelsFor(identityID string) []Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.byUser[identityID]
	if len(set) == 0 {
		return nil
	}
	snapshot := make([]Conn, 0, len(set))
	for _, conn := range set {
		snapshot = append(snapshot, conn)
	}
	return snapshot
}

func (r *Registry) removeLocked(identityID, connID string) {
	set := r.byUser[identityID]
	if set == nil {
		return
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(r.byUser, identityID)
	}
	delete(r.identity, connID)
}
