package handlers_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/heartlinkapp/heartlink/internal/auth"
	"github.com/heartlinkapp/heartlink/internal/boot"
	"github.com/heartlinkapp/heartlink/internal/handlers"
	"github.com/heartlinkapp/heartlink/internal/identity"
	"github.com/heartlinkapp/heartlink/internal/live"
	"github.com/heartlinkapp/heartlink/internal/users"
)

const wsSecret = "ws-secret"

type wsResolver struct {
	suspended map[string]bool
}

func (r *wsResolver) ResolveIdentity(_ context.Context, userID string) (identity.Identity, error) {
	if userID == "missing" {
		return identity.Identity{}, users.ErrUnknownIdentity
	}
	return identity.Identity{ID: userID, Role: identity.RoleMember, Suspended: r.suspended[userID]}, nil
}

type wsFixture struct {
	url        string
	registry   *live.Registry
	dispatcher *live.Dispatcher
}

func newWSFixture(t *testing.T, resolver auth.IdentityResolver) *wsFixture {
	t.Helper()
	rc := &boot.RuntimeConfig{
		JWTSecret:      wsSecret,
		HandshakeGrace: time.Second,
		WriteTimeout:   time.Second,
		OutboundBuffer: 8,
	}
	registry := live.NewRegistry(nil)
	h := handlers.NewWSHandler(slog.Default(), rc, registry, resolver)

	e := echo.New()
	h.Register(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return &wsFixture{
		url:        "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
		registry:   registry,
		dispatcher: live.NewDispatcher(nil, registry),
	}
}

func wsToken(t *testing.T, userID string) string {
	t.Helper()
	token, _, err := auth.GenerateToken(userID, wsSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func waitForChannels(t *testing.T, registry *live.Registry, userID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(registry.ChannelsFor(userID)) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("registry never reached %d channels for %s", want, userID)
}

func TestWS_QueryTokenHandshakeAndDelivery(t *testing.T) {
	t.Parallel()
	f := newWSFixture(t, &wsResolver{})

	sock, _, err := websocket.DefaultDialer.Dial(f.url+"?token="+wsToken(t, "u1"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer sock.Close()
	waitForChannels(t, f.registry, "u1", 1)

	evt, err := live.NewEvent("u1", live.EventNewMatch, map[string]string{"match_id": "m1"})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	f.dispatcher.Emit(evt)

	var got live.Event
	_ = sock.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := sock.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.Kind != live.EventNewMatch || got.Target != "u1" {
		t.Fatalf("event = (%q, %q), want (new_match, u1)", got.Kind, got.Target)
	}
}

func TestWS_AuthFrameHandshake(t *testing.T) {
	t.Parallel()
	f := newWSFixture(t, &wsResolver{})

	sock, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer sock.Close()

	if err := sock.WriteJSON(map[string]string{"token": wsToken(t, "u1")}); err != nil {
		t.Fatalf("write auth frame: %v", err)
	}
	waitForChannels(t, f.registry, "u1", 1)
}

func TestWS_InvalidQueryTokenRejectedBeforeUpgrade(t *testing.T) {
	t.Parallel()
	f := newWSFixture(t, &wsResolver{})

	_, resp, err := websocket.DefaultDialer.Dial(f.url+"?token=garbage", nil)
	if err == nil {
		t.Fatal("dial with invalid token succeeded, want handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("handshake response = %v, want 401", resp)
	}
}

func TestWS_SuspendedIdentityRejected(t *testing.T) {
	t.Parallel()
	f := newWSFixture(t, &wsResolver{suspended: map[string]bool{"u1": true}})

	_, resp, err := websocket.DefaultDialer.Dial(f.url+"?token="+wsToken(t, "u1"), nil)
	if err == nil {
		t.Fatal("dial with suspended identity succeeded, want handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("handshake response = %v, want 401", resp)
	}
}

func TestWS_BadAuthFrameClosesSocket(t *testing.T) {
	t.Parallel()
	f := newWSFixture(t, &wsResolver{})

	sock, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer sock.Close()

	if err := sock.WriteJSON(map[string]string{"token": "garbage"}); err != nil {
		t.Fatalf("write auth frame: %v", err)
	}
	_ = sock.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := sock.ReadMessage(); err == nil {
		t.Fatal("socket stayed open after bad auth frame")
	}
	if got := f.registry.ChannelsFor("u1"); got != nil {
		t.Fatalf("registry = %v, want no channels after rejected handshake", got)
	}
}

func TestWS_DisconnectUnregisters(t *testing.T) {
	t.Parallel()
	f := newWSFixture(t, &wsResolver{})

	sock, _, err := websocket.DefaultDialer.Dial(f.url+"?token="+wsToken(t, "u1"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitForChannels(t, f.registry, "u1", 1)

	_ = sock.Close()
	waitForChannels(t, f.registry, "u1", 0)
}

func TestWS_MultipleDevicesBothReceive(t *testing.T) {
	t.Parallel()
	f := newWSFixture(t, &wsResolver{})

	phone, _, err := websocket.DefaultDialer.Dial(f.url+"?token="+wsToken(t, "u1"), nil)
	if err != nil {
		t.Fatalf("dial phone: %v", err)
	}
	defer phone.Close()
	laptop, _, err := websocket.DefaultDialer.Dial(f.url+"?token="+wsToken(t, "u1"), nil)
	if err != nil {
		t.Fatalf("dial laptop: %v", err)
	}
	defer laptop.Close()
	waitForChannels(t, f.registry, "u1", 2)

	evt, err := live.NewEvent("u1", live.EventNewMessage, map[string]string{"preview": "hi"})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	f.dispatcher.Emit(evt)

	for name, sock := range map[string]*websocket.Conn{"phone": phone, "laptop": laptop} {
		var got live.Event
		_ = sock.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := sock.ReadJSON(&got); err != nil {
			t.Fatalf("%s ReadJSON: %v", name, err)
		}
		if got.Kind != live.EventNewMessage {
			t.Fatalf("%s got kind %q, want new_message", name, got.Kind)
		}
	}
}
