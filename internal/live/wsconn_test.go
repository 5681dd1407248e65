package live_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/heartlinkapp/heartlink/internal/live"
)

// wsPair upgrades one connection on an httptest server and returns both ends.
func wsPair(t *testing.T) (server *websocket.Conn, client *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	serverSide := make(chan *websocket.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sock, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		serverSide <- sock
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientSock, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = clientSock.Close() })

	select {
	case sock := <-serverSide:
		t.Cleanup(func() { _ = sock.Close() })
		return sock, clientSock
	case <-time.After(2 * time.Second):
		t.Fatal("server side of websocket never arrived")
		return nil, nil
	}
}

func TestWSConn_DeliverAndPump(t *testing.T) {
	serverSock, clientSock := wsPair(t)

	conn := live.NewWSConn(nil, serverSock, 4, time.Second)
	go conn.WritePump()

	evt := mustEvent(t, "u1", live.EventNewMessage, map[string]string{"preview": "hey"})
	if err := conn.Deliver(evt); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	var got live.Event
	_ = clientSock.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := clientSock.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.Target != "u1" || got.Kind != live.EventNewMessage {
		t.Fatalf("got event (%q, %q), want (u1, %q)", got.Target, got.Kind, live.EventNewMessage)
	}
}

func TestWSConn_DeliverAfterClose(t *testing.T) {
	serverSock, _ := wsPair(t)

	conn := live.NewWSConn(nil, serverSock, 4, time.Second)
	conn.Close()
	conn.Close()

	err := conn.Deliver(live.Event{Target: "u1", Kind: live.EventNewMatch})
	if err != live.ErrConnClosed {
		t.Fatalf("Deliver after Close = %v, want ErrConnClosed", err)
	}
}

func TestWSConn_QueueFull(t *testing.T) {
	serverSock, _ := wsPair(t)

	// No WritePump running, so the queue never drains.
	conn := live.NewWSConn(nil, serverSock, 1, time.Second)
	t.Cleanup(conn.Close)

	if err := conn.Deliver(live.Event{Target: "u1", Kind: live.EventNewMatch}); err != nil {
		t.Fatalf("first Deliver: %v", err)
	}
	err := conn.Deliver(live.Event{Target: "u1", Kind: live.EventNewMatch})
	if err != live.ErrQueueFull {
		t.Fatalf("second Deliver = %v, want ErrQueueFull", err)
	}
}

func TestWSConn_UniqueIDs(t *testing.T) {
	serverSock, _ := wsPair(t)

	a := live.NewWSConn(nil, serverSock, 1, 0)
	b := live.NewWSConn(nil, serverSock, 1, 0)
	if a.ID() == b.ID() {
		t.Fatalf("two conns share ID %q", a.ID())
	}
}
