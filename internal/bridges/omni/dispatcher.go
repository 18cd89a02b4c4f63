package omni

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// EventType classifies an event delivered to subscribers.
type EventType int

const (
	// EventStatus reports a decoded object status change.
	EventStatus EventType = iota

	// EventAlarm reports alarms newly raised in an area since its last
	// known status.
	EventAlarm

	// EventOther reports a named system event (phone line, AC power,
	// battery, energy cost).
	EventOther

	// EventDisconnect reports that the session lost its connection.
	EventDisconnect

	// EventReconnect reports that the session reestablished its
	// connection and finished resynchronizing.
	EventReconnect
)

func (t EventType) String() string {
	switch t {
	case EventStatus:
		return "status"
	case EventAlarm:
		return "alarm"
	case EventOther:
		return "other"
	case EventDisconnect:
		return "disconnect"
	case EventReconnect:
		return "reconnect"
	}
	return "unknown"
}

// Event is one change delivered to subscribers. Address identifies the
// originating session. The per-kind state pointers are set for
// EventStatus; Alarms for EventAlarm; Name for EventOther.
type Event struct {
	Type    EventType
	Address string
	Kind    ObjectKind
	Number  int

	Area   *AreaState
	Zone   *ZoneState
	Unit   *UnitState
	Alarms []string
	Name   string
}

// Subscriber receives events. Subscribers run on the dispatcher's
// delivery goroutine; slow subscribers delay delivery but cannot block
// the session's receive path.
type Subscriber func(Event)

// Dispatcher fans events out to subscribers through a bounded queue
// drained by a single goroutine, so subscribers observe events in the
// order the session emitted them. Status events are dropped when the
// queue is full; lifecycle events (disconnect, reconnect) always get
// through.
type Dispatcher struct {
	mu   sync.RWMutex
	subs map[string]Subscriber

	queue   chan Event
	dropped atomic.Uint64

	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}
}

// NewDispatcher creates a dispatcher with the given queue capacity and
// starts its delivery goroutine.
func NewDispatcher(queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	d := &Dispatcher{
		subs:   make(map[string]Subscriber),
		queue:  make(chan Event, queueSize),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go d.deliverLoop()
	return d
}

// Subscribe registers a subscriber and returns its id for Unsubscribe.
func (d *Dispatcher) Subscribe(fn Subscriber) string {
	id := uuid.NewString()
	d.mu.Lock()
	d.subs[id] = fn
	d.mu.Unlock()
	return id
}

// Unsubscribe removes a subscriber. Unknown ids are ignored.
func (d *Dispatcher) Unsubscribe(id string) {
	d.mu.Lock()
	delete(d.subs, id)
	d.mu.Unlock()
}

// Publish queues an event for delivery. Status events are dropped if
// the queue is full; disconnect and reconnect events block so their
// ordering relative to surrounding status events is preserved.
func (d *Dispatcher) Publish(ev Event) {
	select {
	case <-d.closed:
		return
	default:
	}

	if ev.Type == EventDisconnect || ev.Type == EventReconnect {
		select {
		case d.queue <- ev:
		case <-d.closed:
		}
		return
	}

	select {
	case d.queue <- ev:
	default:
		d.dropped.Add(1)
	}
}

// Dropped returns the number of events discarded due to queue overflow.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Close stops delivery. Events already queued are discarded.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.closed)
		<-d.done
	})
}

func (d *Dispatcher) deliverLoop() {
	defer close(d.done)
	for {
		select {
		case <-d.closed:
			return
		case ev := <-d.queue:
			d.deliver(ev)
		}
	}
}

func (d *Dispatcher) deliver(ev Event) {
	d.mu.RLock()
	subs := make([]Subscriber, 0, len(d.subs))
	for _, fn := range d.subs {
		subs = append(subs, fn)
	}
	d.mu.RUnlock()

	for _, fn := range subs {
		func() {
			defer func() {
				// A panicking subscriber must not take down delivery
				// for the others.
				_ = recover()
			}()
			fn(ev)
		}()
	}
}
