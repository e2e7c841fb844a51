package events

import "sync"

// TopicCartUpdated is broadcast after every successful cart mutation.
const TopicCartUpdated = "cartUpdated"

// Bus is an in-process, fire-and-forget broadcast signal. Dispatch carries no
// payload and never reports failure to the sender: a panicking subscriber is
// recovered and skipped.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func()
}

func NewBus() *Bus {
	return &Bus{subs: map[string]map[int]func(){}}
}

// Subscribe registers fn for the topic and returns an unsubscribe func.
// The returned func is idempotent.
func (b *Bus) Subscribe(topic string, fn func()) func() {
	if b == nil || fn == nil {
		return func() {}
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = map[int]func(){}
	}
	id := b.nextID
	b.nextID++
	b.subs[topic][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[topic], id)
		})
	}
}

// Notify invokes every subscriber of the topic synchronously. It never
// returns an error and never panics.
func (b *Bus) Notify(topic string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	listeners := make([]func(), 0, len(b.subs[topic]))
	for _, fn := range b.subs[topic] {
		listeners = append(listeners, fn)
	}
	b.mu.Unlock()

	for _, fn := range listeners {
		dispatch(fn)
	}
}

func dispatch(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}
