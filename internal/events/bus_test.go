package events

import "testing"

func TestNotifyReachesAllSubscribers(t *testing.T) {
	bus := NewBus()
	var a, b int
	bus.Subscribe(TopicCartUpdated, func() { a++ })
	bus.Subscribe(TopicCartUpdated, func() { b++ })

	bus.Notify(TopicCartUpdated)
	bus.Notify(TopicCartUpdated)

	if a != 2 || b != 2 {
		t.Fatalf("expected both subscribers invoked twice, got a=%d b=%d", a, b)
	}
}

func TestNotifyWithoutSubscribersIsSilent(t *testing.T) {
	bus := NewBus()
	bus.Notify(TopicCartUpdated)
	bus.Notify("unknown-topic")
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	var calls int
	cancel := bus.Subscribe(TopicCartUpdated, func() { calls++ })

	bus.Notify(TopicCartUpdated)
	cancel()
	cancel() // idempotent
	bus.Notify(TopicCartUpdated)

	if calls != 1 {
		t.Fatalf("expected one delivery, got %d", calls)
	}
}

func TestPanickingSubscriberDoesNotPoisonDispatch(t *testing.T) {
	bus := NewBus()
	var delivered int
	bus.Subscribe(TopicCartUpdated, func() { panic("listener bug") })
	bus.Subscribe(TopicCartUpdated, func() { delivered++ })

	bus.Notify(TopicCartUpdated)

	if delivered != 1 {
		t.Fatalf("expected surviving subscriber to run, got %d", delivered)
	}
}

func TestTopicsAreIsolated(t *testing.T) {
	bus := NewBus()
	var cart, other int
	bus.Subscribe(TopicCartUpdated, func() { cart++ })
	bus.Subscribe("orderPlaced", func() { other++ })

	bus.Notify(TopicCartUpdated)

	if cart != 1 || other != 0 {
		t.Fatalf("expected topic isolation, got cart=%d other=%d", cart, other)
	}
}
