package hci

import (
	"sync"

	"github.com/bryanperris/btle"
	"github.com/bryanperris/btle/hci/evt"
)

// EventFilter selects the events a Subscription receives: plain event codes,
// and subevent codes nested in LE Meta events.
type EventFilter struct {
	Events    []int
	Subevents []int
}

// SubOption configures a Subscription.
type SubOption func(*Subscription)

// WithBuffer sets the depth of the subscription's delivery channel. The
// default is 16.
func WithBuffer(n int) SubOption {
	return func(s *Subscription) {
		if n > 0 {
			s.depth = n
		}
	}
}

// WithDropOldest makes a full subscription evict its oldest undelivered
// event instead of discarding the incoming one.
func WithDropOldest() SubOption {
	return func(s *Subscription) { s.dropOldest = true }
}

// A Subscription is a long-lived registration of interest in a subset of
// event codes. It is owned by the caller that created it and ends only on
// explicit cancellation or engine shutdown, never implicitly.
type Subscription struct {
	events    map[int]bool
	subevents map[int]bool

	ch         chan *EventPacket
	depth      int
	dropOldest bool

	mu     sync.Mutex
	active bool
	err    error
	done   chan struct{}

	d *dispatcher
}

// C is the stream of matching decoded events. It is closed on cancellation
// or engine shutdown; consult Err afterwards.
func (s *Subscription) C() <-chan *EventPacket { return s.ch }

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Err reports why the subscription ended. It is nil while active and after
// caller-initiated cancellation; ErrTransportClosed after transport death.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancel ends the subscription. Delivery stops immediately: the dispatcher
// rechecks the active flag right before each handoff, and a delivery already
// past that check lands in the buffer as a harmless leftover, never a fault.
func (s *Subscription) Cancel() {
	s.d.cancel(s, nil)
}

func (s *Subscription) matches(code int, subevent int, isMeta bool) bool {
	if s.events[code] {
		return true
	}
	return isMeta && s.subevents[subevent]
}

// deliver hands off the event without waiting for the subscriber. A full
// buffer is resolved by the subscription's own overflow policy; the
// dispatcher never blocks on a slow consumer.
func (s *Subscription) deliver(e *EventPacket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	for {
		select {
		case s.ch <- e:
			return
		default:
		}
		if !s.dropOldest {
			return // drop the incoming event
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// end terminates the subscription with err and closes its channels.
func (s *Subscription) end(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	s.err = err
	close(s.done)
	close(s.ch)
}

// dispatcher fans decoded events out to subscriptions. Events arrive from
// the engine's single read loop, so deliveries preserve exact transport
// order; each subscription consumes independently.
type dispatcher struct {
	mu     sync.Mutex
	subs   []*Subscription
	closed bool
	err    error
	log    btle.Logger
}

func newDispatcher(log btle.Logger) *dispatcher {
	return &dispatcher{log: log}
}

func (d *dispatcher) subscribe(f EventFilter, opts ...SubOption) *Subscription {
	s := &Subscription{
		events:    make(map[int]bool),
		subevents: make(map[int]bool),
		depth:     16,
		active:    true,
		done:      make(chan struct{}),
		d:         d,
	}
	for _, c := range f.Events {
		s.events[c] = true
	}
	for _, c := range f.Subevents {
		s.subevents[c] = true
	}
	for _, o := range opts {
		o(s)
	}
	s.ch = make(chan *EventPacket, s.depth)

	d.mu.Lock()
	if d.closed {
		err := d.err
		d.mu.Unlock()
		// The engine is dead; hand back a subscription that already
		// carries the terminal error instead of one nothing will end.
		s.end(err)
		return s
	}
	d.subs = append(d.subs, s)
	d.mu.Unlock()
	return s
}

func (d *dispatcher) cancel(s *Subscription, err error) {
	d.mu.Lock()
	for i, q := range d.subs {
		if q == s {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			break
		}
	}
	d.mu.Unlock()
	s.end(err)
}

// dispatch offers e to every matching subscription. The correlator has
// already seen the event by the time this runs; Command Complete events may
// legitimately interest observer layers too, so consumption there does not
// suppress fan-out.
func (d *dispatcher) dispatch(e *EventPacket) {
	subevent := -1
	isMeta := e.Code == evt.LEMetaCode
	if isMeta {
		if sub, _, err := e.Subevent(); err == nil {
			subevent = int(sub)
		}
	}

	d.mu.Lock()
	subs := make([]*Subscription, len(d.subs))
	copy(subs, d.subs)
	d.mu.Unlock()

	for _, s := range subs {
		if s.matches(int(e.Code), subevent, isMeta) {
			s.deliver(e)
		}
	}
}

// close ends every subscription with err (engine shutdown or transport
// death).
func (d *dispatcher) close(err error) {
	d.mu.Lock()
	subs := d.subs
	d.subs = nil
	d.closed = true
	d.err = err
	d.mu.Unlock()
	for _, s := range subs {
		s.end(err)
	}
}
