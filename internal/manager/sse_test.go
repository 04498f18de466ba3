package manager

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/tejzpr/privacy-portal/internal/db"
)

func testRecord(id string) db.DeletionRequest {
	return db.DeletionRequest{
		RequestID:  id,
		Identifier: "a@example.com",
		Channel:    "whatsapp",
		Status:     db.StatusReceived,
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSSEBrokerSubscribeUnsubscribe(t *testing.T) {
	b := NewSSEBroker()

	ch := b.Subscribe()
	if ch == nil {
		t.Fatal("expected non-nil channel")
	}

	b.mu.RLock()
	count := len(b.clients)
	b.mu.RUnlock()
	if count != 1 {
		t.Errorf("expected 1 client, got %d", count)
	}

	b.Unsubscribe(ch)

	b.mu.RLock()
	count = len(b.clients)
	b.mu.RUnlock()
	if count != 0 {
		t.Errorf("expected 0 clients after unsubscribe, got %d", count)
	}
}

func TestSSEBrokerPublish(t *testing.T) {
	b := NewSSEBroker()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(testRecord("req-42"))

	select {
	case msg := <-ch:
		var data struct {
			RequestID  string `json:"request_id"`
			Identifier string `json:"identifier"`
			Channel    string `json:"channel"`
			Status     string `json:"status"`
			Seq        *uint  `json:"seq"`
		}
		if err := json.Unmarshal([]byte(msg), &data); err != nil {
			t.Fatalf("failed to parse message: %v", err)
		}
		if data.RequestID != "req-42" {
			t.Errorf("expected request_id 'req-42', got %q", data.RequestID)
		}
		if data.Channel != "whatsapp" {
			t.Errorf("expected channel 'whatsapp', got %q", data.Channel)
		}
		if data.Status != "received" {
			t.Errorf("expected status 'received', got %q", data.Status)
		}
		if data.Seq != nil {
			t.Error("internal seq must not be published")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestSSEBrokerPublishMultipleClients(t *testing.T) {
	b := NewSSEBroker()

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	ch3 := b.Subscribe()
	defer b.Unsubscribe(ch1)
	defer b.Unsubscribe(ch2)
	defer b.Unsubscribe(ch3)

	b.Publish(testRecord("r1"))

	for i, ch := range []chan string{ch1, ch2, ch3} {
		select {
		case msg := <-ch:
			if msg == "" {
				t.Errorf("client %d received empty message", i)
			}
		case <-time.After(time.Second):
			t.Errorf("client %d timed out", i)
		}
	}
}

func TestSSEBrokerPublishNoClients(t *testing.T) {
	b := NewSSEBroker()
	// Should not panic
	b.Publish(testRecord("r1"))
}

func TestSSEBrokerPublishDropsWhenFull(t *testing.T) {
	b := NewSSEBroker()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// buffer capacity is 16
	for i := 0; i < 20; i++ {
		b.Publish(testRecord(fmt.Sprintf("r%d", i)))
	}

	count := 0
	for {
		select {
		case <-ch:
			count++
		default:
			goto done
		}
	}
done:
	if count != 16 {
		t.Errorf("expected 16 buffered messages, got %d", count)
	}
}
