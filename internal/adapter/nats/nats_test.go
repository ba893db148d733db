package nats

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Strob0t/AgentForge/internal/logger"
	"github.com/Strob0t/AgentForge/internal/port/messagequeue"
)

// testConnect connects to NATS or skips the test if NATS_URL is not set.
func testConnect(t *testing.T) *Queue {
	t.Helper()

	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}

	q, err := Connect(context.Background(), url, "AGENTFORGE_TEST")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		if err := q.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return q
}

func TestContextFromHeaders(t *testing.T) {
	h := nats.Header{}
	h.Set(headerRequestID, "req-42")
	ctx := contextFromHeaders(context.Background(), h)
	if got := logger.RequestID(ctx); got != "req-42" {
		t.Fatalf("RequestID = %q, want req-42", got)
	}

	ctx = contextFromHeaders(context.Background(), nil)
	if got := logger.RequestID(ctx); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
}

func TestQueue_PublishSubscribe(t *testing.T) {
	q := testConnect(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	got := make(chan messagequeue.SessionStatusPayload, 1)
	gotReqID := make(chan string, 1)
	stop, err := q.Subscribe(ctx, messagequeue.SubjectSessionStatus, func(ctx context.Context, _ string, data []byte) error {
		var p messagequeue.SessionStatusPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		gotReqID <- logger.RequestID(ctx)
		got <- p
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	want := messagequeue.SessionStatusPayload{SessionID: "s-" + t.Name(), Status: "executing"}
	data, _ := json.Marshal(want)
	if err := q.Publish(logger.WithRequestID(ctx, "req-1"), messagequeue.SubjectSessionStatus, data); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case p := <-got:
		if p.SessionID != want.SessionID || p.Status != want.Status {
			t.Fatalf("got %+v, want %+v", p, want)
		}
		if id := <-gotReqID; id != "req-1" {
			t.Fatalf("request id = %q, want req-1", id)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestQueue_PublishRejectsInvalid(t *testing.T) {
	q := testConnect(t)
	err := q.Publish(context.Background(), messagequeue.SubjectSessionStatus, []byte(`{"status":"x"}`))
	if err == nil {
		t.Fatal("expected schema validation error")
	}
}

func TestQueue_IsConnected(t *testing.T) {
	q := testConnect(t)
	if !q.IsConnected() {
		t.Fatal("expected connected queue")
	}
}
