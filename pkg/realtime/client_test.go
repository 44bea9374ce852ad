package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeServer upgrades incoming connections and exposes the raw conn.
type fakeServer struct {
	*httptest.Server
	conns chan *websocket.Conn
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	upgrader := websocket.Upgrader{}
	fs := &fakeServer{conns: make(chan *websocket.Conn, 1)}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", got)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		fs.conns <- conn
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) wsURL() string {
	return "ws" + strings.TrimPrefix(fs.URL, "http")
}

func (fs *fakeServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-fs.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("no connection arrived")
		return nil
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]any
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestConnectConfiguresSession(t *testing.T) {
	fs := newFakeServer(t)

	c := NewClient("test-key", WithURL(fs.wsURL()), WithInstructions("be brief"))
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	conn := fs.accept(t)
	msg := readEvent(t, conn)

	if msg["type"] != "session.update" {
		t.Fatalf("expected session.update, got %v", msg["type"])
	}
	session := msg["session"].(map[string]any)
	if session["instructions"] != "be brief" {
		t.Errorf("unexpected instructions: %v", session["instructions"])
	}
	if session["input_audio_format"] != "pcm16" {
		t.Errorf("unexpected input format: %v", session["input_audio_format"])
	}
}

func TestSendAudioEncodesBase64(t *testing.T) {
	fs := newFakeServer(t)

	c := NewClient("test-key", WithURL(fs.wsURL()))
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	conn := fs.accept(t)
	readEvent(t, conn) // session.update

	pcm := []byte{1, 2, 3, 4}
	if err := c.SendAudio(pcm); err != nil {
		t.Fatalf("send audio: %v", err)
	}
	if err := c.CommitAudio(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := c.RequestResponse(); err != nil {
		t.Fatalf("request response: %v", err)
	}

	msg := readEvent(t, conn)
	if msg["type"] != "input_audio_buffer.append" {
		t.Fatalf("expected append, got %v", msg["type"])
	}
	if msg["audio"] != base64.StdEncoding.EncodeToString(pcm) {
		t.Errorf("unexpected audio payload: %v", msg["audio"])
	}

	if msg := readEvent(t, conn); msg["type"] != "input_audio_buffer.commit" {
		t.Errorf("expected commit, got %v", msg["type"])
	}
	if msg := readEvent(t, conn); msg["type"] != "response.create" {
		t.Errorf("expected response.create, got %v", msg["type"])
	}
}

func TestAudioDeltaDispatch(t *testing.T) {
	fs := newFakeServer(t)

	c := NewClient("test-key", WithURL(fs.wsURL()))

	deltas := make(chan []byte, 1)
	done := make(chan struct{}, 1)
	c.OnAudioDelta = func(pcm []byte) { deltas <- pcm }
	c.OnAudioDone = func() { done <- struct{}{} }

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	conn := fs.accept(t)
	readEvent(t, conn)

	pcm := []byte{10, 20, 30}
	event, _ := json.Marshal(map[string]any{
		"type":  "response.audio.delta",
		"delta": base64.StdEncoding.EncodeToString(pcm),
	})
	if err := conn.WriteMessage(websocket.TextMessage, event); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"response.audio.done"}`))

	select {
	case got := <-deltas:
		if string(got) != string(pcm) {
			t.Errorf("unexpected delta: %v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no delta delivered")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("no done event delivered")
	}
}

func TestSessionCreatedMarksReady(t *testing.T) {
	fs := newFakeServer(t)

	c := NewClient("test-key", WithURL(fs.wsURL()))
	created := make(chan struct{}, 1)
	c.OnSessionCreated = func() { created <- struct{}{} }

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	conn := fs.accept(t)
	readEvent(t, conn)

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"session.created"}`))

	select {
	case <-created:
	case <-time.After(2 * time.Second):
		t.Fatal("session.created not delivered")
	}
	if !c.IsReady() {
		t.Error("expected session ready")
	}
}

func TestSendBeforeConnect(t *testing.T) {
	c := NewClient("test-key")
	if err := c.SendAudio([]byte{1}); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}
