package live

import "log/slog"

// Dispatcher delivers events to every connection registered for the target
// identity. Delivery is fire-and-forget: no retry, no durable queue, no
// acknowledgment surfaced to the emitter.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(log *slog.Logger, registry *Registry) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		logger:   log.With(slog.String("component", "dispatcher")),
	}
}

// Emit fans the event out to the target's current connections. Zero
// connections is a silent drop. A failed connection is unregistered and
// closed without affecting delivery to the identity's other connections.
func (d *Dispatcher) Emit(evt Event) {
	conns := d.registry.ChannelsFor(evt.Target)
	if len(conns) == 0 {
		d.logger.Debug("event dropped, no channels",
			slog.String("identity_id", evt.Target),
			slog.String("kind", evt.Kind),
		)
		return
	}
	for _, conn := range conns {
		if err := conn.Deliver(evt); err != nil {
			d.logger.Warn("delivery failed, dropping channel",
				slog.String("identity_id", evt.Target),
				slog.String("conn_id", conn.ID()),
				slog.String("kind", evt.Kind),
				slog.Any("error", err),
			)
			d.registry.Unregister(conn)
			conn.Close()
		}
	}
}
