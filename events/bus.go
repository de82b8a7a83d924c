package events

import (
	"context"
	"errors"
	"sync"
)

// DefaultCapacity is the number of events a subscriber may fall behind by before it
// starts losing the oldest ones.
const DefaultCapacity = 1024

var ErrClosed = errors.New("events: subscription closed")

// Publisher is the sending half of the bus.
type Publisher interface {
	Publish(ev MediaEvent)
}

// Bus is a bounded broadcast channel. Every event lands in a fixed-size ring and each
// Subscription reads the ring through its own cursor, so a slow subscriber never holds up
// the publisher or its peers. A subscriber that falls more than a ring's worth behind skips
// ahead to the oldest retained event.
type Bus struct {
	mu          sync.Mutex
	ring        []MediaEvent
	next        uint64 // sequence number the next published event will get
	wake        chan struct{}
	subscribers int
}

func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{
		ring: make([]MediaEvent, capacity),
		wake: make(chan struct{}),
	}
}

// Publish never blocks and never fails. With no subscribers the event is simply retained
// in the ring until it is overwritten.
func (b *Bus) Publish(ev MediaEvent) {
	b.mu.Lock()
	b.ring[b.next%uint64(len(b.ring))] = ev
	b.next++
	receivers := b.subscribers
	wake := b.wake
	b.wake = make(chan struct{})
	b.mu.Unlock()

	close(wake)

	metricEventsPublished.WithLabelValues(string(ev.Kind())).Inc()
	if receivers == 0 {
		metricEventsUnobserved.Inc()
	}
}

// Subscribe returns a cursor positioned after the most recently published event.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers++
	metricSubscribers.Inc()
	return &Subscription{bus: b, cursor: b.next}
}

// Subscribers reports how many subscriptions are open.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.subscribers
}

// Subscription is a single consumer's view of the Bus. It is meant to be read from one
// goroutine.
type Subscription struct {
	bus    *Bus
	cursor uint64
	missed uint64
	closed bool
}

// Recv blocks until an event is available, the context is done or the subscription is
// closed.
func (s *Subscription) Recv(ctx context.Context) (MediaEvent, error) {
	for {
		ev, wake, err := s.poll()
		if err != nil {
			return nil, err
		}
		if ev != nil {
			return ev, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wake:
		}
	}
}

// TryRecv returns the next event without blocking.
func (s *Subscription) TryRecv() (MediaEvent, bool) {
	ev, _, err := s.poll()
	if err != nil || ev == nil {
		return nil, false
	}
	return ev, true
}

// Missed reports how many events this subscription skipped because it fell behind.
func (s *Subscription) Missed() uint64 {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	return s.missed
}

func (s *Subscription) Close() {
	b := s.bus
	b.mu.Lock()
	if s.closed {
		b.mu.Unlock()
		return
	}
	s.closed = true
	b.subscribers--
	wake := b.wake
	b.wake = make(chan struct{})
	b.mu.Unlock()

	metricSubscribers.Dec()
	// Wake any Recv blocked on this subscription so it can observe the close.
	close(wake)
}

func (s *Subscription) poll() (MediaEvent, <-chan struct{}, error) {
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.closed {
		return nil, nil, ErrClosed
	}

	capacity := uint64(len(b.ring))
	if b.next-s.cursor > capacity {
		oldest := b.next - capacity
		skipped := oldest - s.cursor
		s.missed += skipped
		s.cursor = oldest
		metricEventsLagged.Add(float64(skipped))
	}

	if s.cursor < b.next {
		ev := b.ring[s.cursor%capacity]
		s.cursor++
		return ev, nil, nil
	}
	return nil, b.wake, nil
}
