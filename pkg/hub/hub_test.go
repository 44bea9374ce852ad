package hub

import (
	"testing"
	"time"
)

func TestBroadcastReachesRegisteredClients(t *testing.T) {
	h := New("test")
	go h.Run()

	c := &Client{hub: h, send: make(chan []byte, 256)}
	h.register <- c

	h.Broadcast([]byte("hello"))

	select {
	case msg := <-c.send:
		if string(msg) != "hello" {
			t.Errorf("unexpected message: %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestBroadcastJSON(t *testing.T) {
	h := New("test")
	go h.Run()

	c := &Client{hub: h, send: make(chan []byte, 256)}
	h.register <- c

	if err := h.BroadcastJSON(map[string]string{"event": "reply"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case msg := <-c.send:
		if string(msg) != `{"event":"reply"}` {
			t.Errorf("unexpected message: %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestSlowClientDropped(t *testing.T) {
	h := New("test")
	go h.Run()

	// Unbuffered send channel with no reader fills immediately.
	slow := &Client{hub: h, send: make(chan []byte)}
	h.register <- slow

	h.Broadcast([]byte("x"))

	deadline := time.Now().Add(time.Second)
	for h.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("slow client was not dropped")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestUnregister(t *testing.T) {
	h := New("test")
	go h.Run()

	c := &Client{hub: h, send: make(chan []byte, 256)}
	h.register <- c

	deadline := time.Now().Add(time.Second)
	for h.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	h.unregister <- c
	deadline = time.Now().Add(time.Second)
	for h.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never unregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Channel is closed after unregister.
	if _, ok := <-c.send; ok {
		t.Error("expected send channel closed")
	}
}
