package live_test

import (
	"testing"

	"github.com/heartlinkapp/heartlink/internal/live"
)

// fakeConn implements live.Conn and records delivered events.
type fakeConn struct {
	id        string
	delivered []live.Event
	failWith  error
	closed    int
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Deliver(evt live.Event) error {
	if c.failWith != nil {
		return c.failWith
	}
	c.delivered = append(c.delivered, evt)
	return nil
}

func (c *fakeConn) Close() { c.closed++ }

func TestRegistry_MultiDevice(t *testing.T) {
	t.Parallel()
	reg := live.NewRegistry(nil)

	phone := &fakeConn{id: "phone"}
	laptop := &fakeConn{id: "laptop"}
	reg.Register("u1", phone)
	reg.Register("u1", laptop)

	conns := reg.ChannelsFor("u1")
	if len(conns) != 2 {
		t.Fatalf("ChannelsFor(u1) returned %d conns, want 2", len(conns))
	}
}

func TestRegistry_IdentityIsolation(t *testing.T) {
	t.Parallel()
	reg := live.NewRegistry(nil)

	reg.Register("u1", &fakeConn{id: "c1"})
	reg.Register("u2", &fakeConn{id: "c2"})

	conns := reg.ChannelsFor("u1")
	if len(conns) != 1 || conns[0].ID() != "c1" {
		t.Fatalf("ChannelsFor(u1) = %v, want only c1", conns)
	}
	if got := reg.ChannelsFor("u3"); got != nil {
		t.Fatalf("ChannelsFor(u3) = %v, want nil", got)
	}
}

func TestRegistry_UnregisterIdempotent(t *testing.T) {
	t.Parallel()
	reg := live.NewRegistry(nil)

	conn := &fakeConn{id: "c1"}
	reg.Register("u1", conn)
	reg.Unregister(conn)
	reg.Unregister(conn)

	if got := reg.ChannelsFor("u1"); got != nil {
		t.Fatalf("ChannelsFor(u1) after unregister = %v, want nil", got)
	}
}

func TestRegistry_UnregisterNeverRegistered(t *testing.T) {
	t.Parallel()
	reg := live.NewRegistry(nil)
	reg.Unregister(&fakeConn{id: "ghost"})
}

func TestRegistry_ReregisterMovesConn(t *testing.T) {
	t.Parallel()
	reg := live.NewRegistry(nil)

	conn := &fakeConn{id: "c1"}
	reg.Register("u1", conn)
	reg.Register("u2", conn)

	if got := reg.ChannelsFor("u1"); got != nil {
		t.Fatalf("ChannelsFor(u1) = %v, want nil after move", got)
	}
	conns := reg.ChannelsFor("u2")
	if len(conns) != 1 || conns[0].ID() != "c1" {
		t.Fatalf("ChannelsFor(u2) = %v, want c1", conns)
	}
}

func TestRegistry_SnapshotUnaffectedByLaterChanges(t *testing.T) {
	t.Parallel()
	reg := live.NewRegistry(nil)

	conn := &fakeConn{id: "c1"}
	reg.Register("u1", conn)

	snapshot := reg.ChannelsFor("u1")
	reg.Unregister(conn)

	if len(snapshot) != 1 {
		t.Fatalf("snapshot length = %d, want 1 after concurrent unregister", len(snapshot))
	}
	if err := snapshot[0].Deliver(live.Event{Target: "u1", Kind: live.EventNewMatch}); err != nil {
		t.Fatalf("Deliver on snapshot conn: %v", err)
	}
}
