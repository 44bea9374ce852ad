package llm_test

import (
	"context"
	"testing"

	"github.com/nila-labs/nila/pkg/llm"
)

func TestMockEcho(t *testing.T) {
	m := llm.NewMock()
	reply, err := m.Reply(context.Background(), "hello", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "You said: hello" {
		t.Errorf("unexpected reply: %q", reply)
	}
	if m.Stats().Turns != 1 {
		t.Errorf("expected 1 turn recorded, got %d", m.Stats().Turns)
	}
}

func TestMockCustomFunc(t *testing.T) {
	m := llm.NewMock()
	m.ReplyFunc = func(ctx context.Context, msg, language string) (string, error) {
		return "fixed", nil
	}
	reply, err := m.Reply(context.Background(), "anything", "ml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "fixed" {
		t.Errorf("unexpected reply: %q", reply)
	}
}
