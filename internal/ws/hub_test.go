package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", DefaultRoomCode},
		{"   ", DefaultRoomCode},
		{"main", DefaultRoomCode},
		{" abc123 ", "ABC123"},
	}
	for _, tt := range tests {
		if got := NormalizeCode(tt.in); got != tt.want {
			t.Fatalf("NormalizeCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReleaseKeepsRoomWithQueuedConnect(t *testing.T) {
	hub := NewHub(context.Background(), testConfig())
	defer hub.Shutdown()

	// not running, so the inbox holds what we put there
	r := NewRoom("IDLE", testConfig())
	hub.rooms[r.Code] = r
	if !r.TrySubmit(Connect{ConnID: "late", Conn: newFakeConn()}) {
		t.Fatal("inbox refused connect")
	}

	if hub.release(r) {
		t.Fatalf("room released with a queued connect")
	}
	if got, err := hub.Get("idle"); err != nil || got != r {
		t.Fatalf("Get = %v, %v", got, err)
	}

	hub.cleanupIdleRooms(time.Now().Add(time.Hour), time.Minute)
	if _, err := hub.Get("IDLE"); err != nil {
		t.Fatalf("cleanup took a room with a queued connect")
	}

	<-r.inbox
	if !hub.release(r) {
		t.Fatalf("empty room not released")
	}
	if _, err := hub.Get("IDLE"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("released room still listed: %v", err)
	}
	if r.Submit(Inspect{Reply: make(chan View, 1)}) {
		t.Fatalf("released room accepted a command")
	}
}

func TestAttachAfterReleaseStartsFreshRoom(t *testing.T) {
	hub := NewHub(context.Background(), testConfig())
	defer hub.Shutdown()

	a := newFakeConn()
	first, err := hub.Attach("lobby", "a", a)
	if err != nil {
		t.Fatal(err)
	}
	recvText(t, a, MsgWelcome)
	first.Submit(Disconnect{ConnID: "a"})
	select {
	case <-first.Done():
	case <-time.After(within):
		t.Fatalf("room kept running without connections")
	}
	if hub.GetOrCreate("LOBBY") == first {
		t.Fatalf("stopped room handed out")
	}

	b := newFakeConn()
	second, err := hub.Attach("LOBBY", "b", b)
	if err != nil {
		t.Fatal(err)
	}
	if second == first {
		t.Fatalf("connect routed to the stopped room")
	}
	var w WelcomePayload
	if err := json.Unmarshal(recvText(t, b, MsgWelcome), &w); err != nil {
		t.Fatal(err)
	}
	if w.ConnectionID != "b" || w.RoomCode != "LOBBY" {
		t.Fatalf("welcome = %+v", w)
	}
}
