package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// helper: receive one transport event of the expected kind, with a timeout
// so tests never hang.
func mustEvent(t *testing.T, ch <-chan Event, kind EventKind) Event {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				return ev
			}
			t.Fatalf("expected event kind %d, got %d (%q)", kind, ev.Kind, ev.Text)
		case <-deadline:
			t.Fatalf("timed out waiting for event kind %d", kind)
		}
	}
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	b := NewBackoff(time.Second, 10*time.Second)

	if d := b.Next(); d != time.Second {
		t.Fatalf("first delay = %v, want 1s", d)
	}
	if d := b.Next(); d != 2*time.Second {
		t.Fatalf("second delay = %v, want 2s", d)
	}
	if d := b.Next(); d != 4*time.Second {
		t.Fatalf("third delay = %v, want 4s", d)
	}
	if d := b.Next(); d != 8*time.Second {
		t.Fatalf("fourth delay = %v, want 8s", d)
	}
	// Capped at the ceiling from here on.
	if d := b.Next(); d != 10*time.Second {
		t.Fatalf("fifth delay = %v, want 10s", d)
	}
	if d := b.Next(); d != 10*time.Second {
		t.Fatalf("sixth delay = %v, want 10s", d)
	}

	b.Reset()
	if d := b.Next(); d != time.Second {
		t.Fatalf("delay after reset = %v, want 1s", d)
	}
}

func TestWithAPIKey(t *testing.T) {
	cases := []struct {
		endpoint string
		key      string
		want     string
	}{
		{"ws://host/ws/game", "secret", "ws://host/ws/game?key=secret"},
		{"ws://host/ws/game?x=1", "secret", "ws://host/ws/game?key=secret&x=1"},
		{"ws://host/ws/game?key=already", "secret", "ws://host/ws/game?key=already"},
		{"ws://host/ws/game", "", "ws://host/ws/game"},
	}
	for _, c := range cases {
		if got := withAPIKey(c.endpoint, c.key); got != c.want {
			t.Fatalf("withAPIKey(%q, %q) = %q, want %q", c.endpoint, c.key, got, c.want)
		}
	}
}

func TestConnectSendReceiveAndRemoteClose(t *testing.T) {
	gotKey := make(chan string, 1)
	gotFrame := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey <- r.URL.Query().Get("key")
		ws, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		ctx := r.Context()
		if err := ws.Write(ctx, websocket.MessageText, []byte(`{"event":"hello"}`)); err != nil {
			return
		}
		_, data, err := ws.Read(ctx)
		if err != nil {
			return
		}
		gotFrame <- string(data)
		ws.Close(websocket.StatusNormalClosure, "bye")
	}))
	defer srv.Close()

	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn := New(endpoint, Options{APIKey: "test-key"}, nopLogger())
	defer conn.Close()

	conn.Connect(context.Background())

	mustEvent(t, conn.Events(), EventConnected)
	if !conn.Connected() {
		t.Fatalf("state = %v after connect", conn.State())
	}
	if key := <-gotKey; key != "test-key" {
		t.Fatalf("server saw key %q", key)
	}

	ev := mustEvent(t, conn.Events(), EventMessage)
	if ev.Text != `{"event":"hello"}` {
		t.Fatalf("frame = %q", ev.Text)
	}

	conn.Send(`{"event":"player_connected","player_id":"tmp-1"}`)
	select {
	case frame := <-gotFrame:
		if frame != `{"event":"player_connected","player_id":"tmp-1"}` {
			t.Fatalf("server got %q", frame)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("server never received frame")
	}

	// Ordinary remote close surfaces as Disconnected, not Error.
	mustEvent(t, conn.Events(), EventDisconnected)
}

func TestSendWhileDisconnectedIsSilent(t *testing.T) {
	conn := New("ws://localhost:1/ws", Options{}, nopLogger())
	// Must not panic or block.
	conn.Send(`{"event":"noop"}`)
	if conn.State() != StateDisconnected {
		t.Fatalf("state = %v", conn.State())
	}
}

func TestDialFailureEmitsErrorWithoutReconnect(t *testing.T) {
	conn := New("ws://127.0.0.1:1/ws", Options{AutoReconnect: false}, nopLogger())
	conn.Connect(context.Background())
	mustEvent(t, conn.Events(), EventError)
	if conn.State() != StateDisconnected {
		t.Fatalf("state = %v", conn.State())
	}
}
