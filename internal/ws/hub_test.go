package ws

import (
	"encoding/json"
	"testing"
)

func newHubClient(id string) *Client {
	return &Client{
		ID:   id,
		send: make(chan []byte, 16),
	}
}

func drainOne(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case data := <-c.send:
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("Malformed frame: %v", err)
		}
		return env
	default:
		t.Fatal("Expected a frame, send buffer empty")
		return Envelope{}
	}
}

func assertEmpty(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("Expected no frame for %s, got %s", c.ID, data)
	default:
	}
}

func TestPublishExcludesOriginator(t *testing.T) {
	h := NewHub()
	a, b, outsider := newHubClient("a"), newHubClient("b"), newHubClient("x")
	for _, c := range []*Client{a, b, outsider} {
		h.Register(c)
	}
	h.Subscribe("r", a)
	h.Subscribe("r", b)

	h.Publish("r", EventCodeUpdate, "print(1)", a.ID)

	env := drainOne(t, b)
	if env.Event != EventCodeUpdate {
		t.Errorf("Expected %s, got %s", EventCodeUpdate, env.Event)
	}
	var code string
	if err := json.Unmarshal(env.Data, &code); err != nil || code != "print(1)" {
		t.Errorf("Unexpected payload %s (%v)", env.Data, err)
	}

	assertEmpty(t, a)
	assertEmpty(t, outsider)
}

func TestPublishToAllIncludesOriginator(t *testing.T) {
	h := NewHub()
	a, b := newHubClient("a"), newHubClient("b")
	h.Register(a)
	h.Register(b)
	h.Subscribe("r", a)
	h.Subscribe("r", b)

	h.PublishToAll("r", EventAllUsers, []string{"alice", "bob"})

	for _, c := range []*Client{a, b} {
		if env := drainOne(t, c); env.Event != EventAllUsers {
			t.Errorf("Expected %s for %s, got %s", EventAllUsers, c.ID, env.Event)
		}
	}
}

func TestPublishPreservesOrder(t *testing.T) {
	h := NewHub()
	a := newHubClient("a")
	h.Register(a)
	h.Subscribe("r", a)

	for i := 0; i < 5; i++ {
		h.PublishToAll("r", EventCodeUpdate, i)
	}

	for i := 0; i < 5; i++ {
		env := drainOne(t, a)
		var got int
		if err := json.Unmarshal(env.Data, &got); err != nil || got != i {
			t.Fatalf("Frame %d out of order: %s", i, env.Data)
		}
	}
}

func TestSendTo(t *testing.T) {
	h := NewHub()
	a := newHubClient("a")
	h.Register(a)

	if !h.SendTo("a", EventAccessApproved, AccessApprovedNotice{RoomID: "r"}) {
		t.Fatal("SendTo known client should succeed")
	}
	if env := drainOne(t, a); env.Event != EventAccessApproved {
		t.Errorf("Expected %s, got %s", EventAccessApproved, env.Event)
	}

	if h.SendTo("ghost", EventAccessApproved, nil) {
		t.Error("SendTo unknown client should report failure")
	}
}

func TestNilPayloadOmitsData(t *testing.T) {
	h := NewHub()
	a := newHubClient("a")
	h.Register(a)
	h.Subscribe("r", a)

	h.PublishToAll("r", EventClearOutput, nil)

	env := drainOne(t, a)
	if env.Event != EventClearOutput {
		t.Errorf("Expected %s, got %s", EventClearOutput, env.Event)
	}
	if env.Data != nil {
		t.Errorf("Expected no data field, got %s", env.Data)
	}
}

func TestUnregisterDropsSubscriptions(t *testing.T) {
	h := NewHub()
	a, b := newHubClient("a"), newHubClient("b")
	h.Register(a)
	h.Register(b)
	h.Subscribe("r", a)
	h.Subscribe("r", b)

	h.Unregister(a)

	h.PublishToAll("r", EventCodeUpdate, "x")
	assertEmpty(t, a)
	drainOne(t, b)

	if h.ClientCount() != 1 {
		t.Errorf("Expected 1 client, got %d", h.ClientCount())
	}
	if h.SendTo("a", EventCodeUpdate, "x") {
		t.Error("SendTo unregistered client should fail")
	}
}

func TestEnqueueAfterOverflowDropsFrames(t *testing.T) {
	c := &Client{ID: "a", send: make(chan []byte, 1)}

	c.enqueue([]byte("one"))
	// Buffer full: this marks the client closed.
	c.enqueue([]byte("two"))
	// Frames after close must be dropped, not sent on the closed channel.
	c.enqueue([]byte("three"))

	if data := <-c.send; string(data) != "one" {
		t.Errorf("Expected buffered frame preserved, got %s", data)
	}
	if _, ok := <-c.send; ok {
		t.Error("Expected send channel closed after overflow")
	}
}

func TestCloseIsIdempotentAndStopsEnqueue(t *testing.T) {
	c := &Client{ID: "a", send: make(chan []byte, 4)}

	c.Close()
	c.Close()
	c.enqueue([]byte("late"))

	if _, ok := <-c.send; ok {
		t.Error("Expected no frame after Close")
	}
}

func TestPublishSurvivesStalledSubscriber(t *testing.T) {
	h := NewHub()
	stalled := &Client{ID: "stalled", send: make(chan []byte, 1)}
	healthy := newHubClient("healthy")
	h.Register(stalled)
	h.Register(healthy)
	h.Subscribe("r", stalled)
	h.Subscribe("r", healthy)

	// Fill the stalled client's buffer, then keep publishing: the overflow
	// closes it, and later publishes must still reach everyone else.
	for i := 0; i < 4; i++ {
		h.PublishToAll("r", EventCodeUpdate, i)
	}

	for i := 0; i < 4; i++ {
		env := drainOne(t, healthy)
		var got int
		if err := json.Unmarshal(env.Data, &got); err != nil || got != i {
			t.Fatalf("Healthy subscriber missed frame %d: %s", i, env.Data)
		}
	}
}

func TestUnsubscribeStopsRoomDelivery(t *testing.T) {
	h := NewHub()
	a := newHubClient("a")
	h.Register(a)
	h.Subscribe("r", a)
	h.Unsubscribe("r", a.ID)

	h.PublishToAll("r", EventCodeUpdate, "x")
	assertEmpty(t, a)

	// Still reachable directly.
	if !h.SendTo("a", EventCodeUpdate, "x") {
		t.Error("Unsubscribed client should stay directly reachable")
	}
}
