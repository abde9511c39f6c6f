package taskhub

import (
	"fmt"
	"sort"
	"sync"
)

// Dispatcher routes events to registered listeners. Any number of listeners
// may watch the same event; each registration is removed only through the
// closure returned by On.
type Dispatcher struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string]map[uint64]func(any)
	logger Logger
}

// NewDispatcher constructs an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		subs:   make(map[string]map[uint64]func(any)),
		logger: noopLogger{},
	}
}

// SetLogger overrides the logger used for listener failures.
func (d *Dispatcher) SetLogger(l Logger) {
	if l == nil {
		return
	}
	d.mu.Lock()
	d.logger = l
	d.mu.Unlock()
}

// On registers fn for event and returns the closure that removes exactly this
// registration.
func (d *Dispatcher) On(event string, fn func(any)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	if d.subs[event] == nil {
		d.subs[event] = make(map[uint64]func(any))
	}
	d.subs[event][id] = fn

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subs[event], id)
	}
}

// Emit invokes every listener registered for event, in registration order.
// A panicking listener is logged and does not prevent the others from running.
func (d *Dispatcher) Emit(event string, payload any) {
	d.mu.Lock()
	logger := d.logger
	ids := make([]uint64, 0, len(d.subs[event]))
	for id := range d.subs[event] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(any), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, d.subs[event][id])
	}
	d.mu.Unlock()

	for _, fn := range fns {
		invoke(logger, event, fn, payload)
	}
}

// Clear drops every listener for every event.
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	d.subs = make(map[string]map[uint64]func(any))
	d.mu.Unlock()
}

func invoke(logger Logger, event string, fn func(any), payload any) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("listener panicked", map[string]any{
				"event": event,
				"panic": fmt.Sprint(r),
			})
		}
	}()
	fn(payload)
}
