package core

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chronosync/chronosync-go/internal/config"
	"github.com/chronosync/chronosync-go/internal/replication"
	"github.com/chronosync/chronosync-go/internal/session"
	"github.com/chronosync/chronosync-go/internal/transport"
	"github.com/rs/zerolog"
)

// fakeLink scripts the transport: tests push events and inspect sends.
type fakeLink struct {
	mu        sync.Mutex
	sent      []string
	connected bool
	events    chan transport.Event
}

func newFakeLink() *fakeLink {
	return &fakeLink{events: make(chan transport.Event, 64)}
}

func (f *fakeLink) Connect(ctx context.Context) {
	f.mu.Lock()
	f.connected = true
	f.mu.Unlock()
	f.events <- transport.Event{Kind: transport.EventConnected}
}

func (f *fakeLink) Close() {
	f.mu.Lock()
	f.connected = false
	f.mu.Unlock()
}

func (f *fakeLink) Send(text string) {
	f.mu.Lock()
	f.sent = append(f.sent, text)
	f.mu.Unlock()
}

func (f *fakeLink) Events() <-chan transport.Event { return f.events }

func (f *fakeLink) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeLink) State() transport.State {
	if f.Connected() {
		return transport.StateConnected
	}
	return transport.StateDisconnected
}

func (f *fakeLink) message(raw string) {
	f.events <- transport.Event{Kind: transport.EventMessage, Text: raw}
}

func (f *fakeLink) sentFrames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *fakeLink) sentContaining(sub string) int {
	n := 0
	for _, s := range f.sentFrames() {
		if strings.Contains(s, sub) {
			n++
		}
	}
	return n
}

func testCore(t *testing.T) (*Core, *fakeLink, context.CancelFunc) {
	t.Helper()
	l := zerolog.Nop()
	link := newFakeLink()
	c := newCore(link, config.Default(), nil, &l)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("run loop did not stop")
		}
	})
	return c, link, cancel
}

func waitSignal[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for %s", what)
		panic("unreachable")
	}
}

func TestIdentityFlowEndToEnd(t *testing.T) {
	c, link, _ := testCore(t)

	ready := make(chan string, 1)
	c.SetCallbacks(Callbacks{
		OnReady: func(id, name string) { ready <- id + "/" + name },
	})
	c.SetPlayerID("tmp-1")
	c.SetDisplayName("Alice")
	c.Connect(context.Background())

	// Connected: the placeholder id goes out, the display name does not.
	link.message(`{"event":"player_connected","player_id":"srv-42"}`)

	if got := waitSignal(t, ready, "identity ready"); got != "srv-42/Alice" {
		t.Fatalf("ready = %s", got)
	}
	sent := link.sentFrames()
	if len(sent) != 3 {
		t.Fatalf("sent = %v", sent)
	}
	if !strings.Contains(sent[0], `"player_id":"tmp-1"`) {
		t.Fatalf("announce = %s", sent[0])
	}
	if !strings.Contains(sent[1], `"set_display_name"`) || !strings.Contains(sent[1], `"Alice"`) {
		t.Fatalf("display name = %s", sent[1])
	}
	// With no lobby held, the browser listing is refreshed.
	if !strings.Contains(sent[2], `"request_lobby_list"`) {
		t.Fatalf("lobby list request = %s", sent[2])
	}
	if c.PlayerID() != "srv-42" {
		t.Fatalf("player id = %s", c.PlayerID())
	}
}

func TestLobbyRosterAndKick(t *testing.T) {
	c, link, _ := testCore(t)

	ready := make(chan struct{}, 1)
	roster := make(chan []session.Member, 8)
	left := make(chan string, 1)
	c.SetCallbacks(Callbacks{
		OnReady:         func(string, string) { ready <- struct{}{} },
		OnRosterChanged: func(m []session.Member) { roster <- m },
		OnLobbyLeft:     func(lobby, reason string) { left <- lobby + "/" + reason },
	})
	c.Connect(context.Background())
	link.message(`{"event":"player_connected","player_id":"srv-42"}`)
	waitSignal(t, ready, "identity ready")

	c.CreateLobby("alpha", 2)
	if n := link.sentContaining(`"match_start"`); n != 1 {
		t.Fatalf("match_start sent %d times", n)
	}

	// Snapshot includes ourselves; the roster keeps peers only.
	link.message(`{"event":"lobby_members","lobby":"alpha","members":[{"player_id":"srv-42","display_name":"Alice"},{"player_id":"p2","display_name":"Bob"}]}`)
	members := waitSignal(t, roster, "roster snapshot")
	if len(members) != 1 || members[0].ID != "p2" || members[0].DisplayName != "Bob" {
		t.Fatalf("members = %v", members)
	}

	// A snapshot for some other lobby is ignored.
	link.message(`{"event":"lobby_members","lobby":"omega","members":[{"player_id":"p9"}]}`)

	// Peer departure.
	link.message(`{"event":"player_left_lobby","lobby":"alpha","player_id":"p2"}`)
	members = waitSignal(t, roster, "roster after leave")
	if len(members) != 0 {
		t.Fatalf("members = %v", members)
	}

	// Kick addressed to us: unconditional exit, no leave_lobby of our own.
	link.message(`{"event":"remove_from_lobby","lobby":"alpha","player_id":"srv-42"}`)
	if got := waitSignal(t, left, "lobby left"); got != "alpha/kicked" {
		t.Fatalf("left = %s", got)
	}
	if n := link.sentContaining(`"leave_lobby"`); n != 0 {
		t.Fatalf("leave_lobby sent %d times after kick", n)
	}
	if lobby, _ := c.Lobby(); lobby != "" {
		t.Fatalf("still in lobby %q", lobby)
	}
}

func TestGuestReentryAfterReconnect(t *testing.T) {
	c, link, _ := testCore(t)

	ready := make(chan struct{}, 2)
	c.SetCallbacks(Callbacks{OnReady: func(string, string) { ready <- struct{}{} }})
	c.Connect(context.Background())
	link.message(`{"event":"player_connected","player_id":"srv-42"}`)
	waitSignal(t, ready, "first identity")

	c.JoinLobby("alpha")
	if n := link.sentContaining(`"join_lobby"`); n != 1 {
		t.Fatalf("join_lobby sent %d times", n)
	}

	// Drop and reconnect: after the new assignment, the guest re-joins.
	link.events <- transport.Event{Kind: transport.EventDisconnected}
	link.events <- transport.Event{Kind: transport.EventConnected}
	link.message(`{"event":"player_connected","player_id":"srv-42"}`)
	waitSignal(t, ready, "second identity")

	if n := link.sentContaining(`"join_lobby"`); n != 2 {
		t.Fatalf("join_lobby sent %d times after reconnect", n)
	}
	if n := link.sentContaining(`"request_lobby_members"`); n < 2 {
		t.Fatalf("request_lobby_members sent %d times", n)
	}
}

func TestErrorAndDisconnectCallbacks(t *testing.T) {
	c, link, _ := testCore(t)

	drops := make(chan string, 2)
	errs := make(chan string, 2)
	c.SetCallbacks(Callbacks{
		OnDisconnect: func(reason string) { drops <- reason },
		OnError:      func(reason string) { errs <- reason },
	})
	c.Connect(context.Background())

	link.events <- transport.Event{Kind: transport.EventError, Text: "dial tcp: connection refused"}
	if got := waitSignal(t, errs, "error callback"); got != "dial tcp: connection refused" {
		t.Fatalf("error = %s", got)
	}

	// An orderly server close is a disconnect, not an error.
	link.events <- transport.Event{Kind: transport.EventDisconnected}
	if got := waitSignal(t, drops, "disconnect callback"); got != "disconnected" {
		t.Fatalf("disconnect = %s", got)
	}
	select {
	case r := <-drops:
		t.Fatalf("error leaked into OnDisconnect: %s", r)
	default:
	}
}

func TestChatRouting(t *testing.T) {
	c, link, _ := testCore(t)

	chat := make(chan session.ChatMessage, 8)
	ready := make(chan struct{}, 1)
	c.SetCallbacks(Callbacks{
		OnReady: func(string, string) { ready <- struct{}{} },
		OnChat:  func(m session.ChatMessage) { chat <- m },
	})
	c.Connect(context.Background())
	link.message(`{"event":"player_connected","player_id":"srv-42"}`)
	waitSignal(t, ready, "identity")

	link.message(`{"event":"chat_message","lobby":"alpha","message":{"player_id":"p2","display_name":"Bob","message":"hello"}}`)
	msg := waitSignal(t, chat, "lobby chat")
	if msg.Sender() != "Bob" || msg.Text != "hello" || msg.Private {
		t.Fatalf("chat = %+v", msg)
	}

	link.message(`{"event":"private_message","from":"p2","message":"psst"}`)
	msg = waitSignal(t, chat, "private chat")
	if !msg.Private || msg.Text != "psst" {
		t.Fatalf("chat = %+v", msg)
	}

	link.message(`{"event":"chat_history","lobby":"alpha","messages":[{"player_id":"p2","message":"old1"},{"player_id":"p3","message":"old2"}]}`)
	if m := waitSignal(t, chat, "history 1"); m.Text != "old1" {
		t.Fatalf("history = %+v", m)
	}
	if m := waitSignal(t, chat, "history 2"); m.Text != "old2" {
		t.Fatalf("history = %+v", m)
	}
}

func TestStateUpdateRoutedToFollower(t *testing.T) {
	c, link, _ := testCore(t)

	ready := make(chan struct{}, 1)
	c.SetCallbacks(Callbacks{OnReady: func(string, string) { ready <- struct{}{} }})
	c.Connect(context.Background())
	link.message(`{"event":"player_connected","player_id":"srv-42"}`)
	waitSignal(t, ready, "identity")

	e := replication.NewEntity("p2", false, c.TransformParams())
	c.RegisterEntity(e)

	link.message(`{"event":"state_update","player_id":"p2","entity_id":"p2","state":{"position":{"x":5,"y":0,"z":0},"rotation":{"x":0,"y":0,"z":0,"w":1},"scale":{"x":1,"y":1,"z":1},"velocity":{"x":0,"y":0,"z":0}}}`)

	waitCondition(t, func() bool {
		ent, ok := c.Entity("p2")
		return ok && ent.Transform.HasRemote()
	}, "remote state applied")
	if got := e.Transform.Visible().Position.X; got != 5 {
		t.Fatalf("position x = %v", got)
	}

	// Our own echoes are ignored.
	link.message(`{"event":"state_update","player_id":"srv-42","entity_id":"srv-42","state":{"position":{"x":1,"y":0,"z":0}}}`)
	link.message(`{"event":"chat_message_global","message":"sync"}`) // ordering fence
}

func waitCondition(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}
