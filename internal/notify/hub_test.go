package notify

import (
	"encoding/json"
	"testing"
	"time"
)

func TestHubDeliversToReceiverOnly(t *testing.T) {
	h := NewHub(nil) // no Redis: local delivery path
	go h.Run()

	receiver := &Client{hub: h, send: make(chan []byte, 1), userID: 7}
	bystander := &Client{hub: h, send: make(chan []byte, 1), userID: 8}
	h.register <- receiver
	h.register <- bystander

	h.MessageSent(42, 7, "alice", "hello")

	select {
	case payload := <-receiver.send:
		var ev Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if ev.MessageID != 42 || ev.ReceiverID != 7 || ev.From != "alice" || ev.Subject != "hello" {
			t.Fatalf("unexpected event %#v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("receiver got no event")
	}

	select {
	case payload := <-bystander.send:
		t.Fatalf("bystander received %s", payload)
	default:
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	h := NewHub(nil)
	go h.Run()

	c := &Client{hub: h, send: make(chan []byte, 1), userID: 7}
	h.register <- c
	h.unregister <- c

	select {
	case _, ok := <-c.send:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}

	// Events for an unregistered user are dropped, not delivered.
	h.MessageSent(1, 7, "alice", "gone")
}
