package engine

import (
	"fmt"
	"sync"

	"github.com/gammazero/deque"
)

type Handle uint64

// Observer receives state changes. A returned error is reported to
// diagnostics and does not affect other observers.
type Observer func(StateChange) error

// DiagnosticsFunc receives observer failures.
type DiagnosticsFunc func(Handle, error)

// Notifier fans state changes out to observers. Each observer has its own
// queue and goroutine, so a slow or failing observer holds up nobody else.
type Notifier struct {
	mu     sync.Mutex
	next   Handle
	subs   []*subscriber
	diag   DiagnosticsFunc
	wg     sync.WaitGroup
	closed bool
}

func NewNotifier(diag DiagnosticsFunc) *Notifier {
	if diag == nil {
		diag = func(Handle, error) {}
	}
	return &Notifier{diag: diag}
}

// Subscribe registers fn for future changes. After Close it returns a
// handle that never receives anything.
func (n *Notifier) Subscribe(fn Observer) Handle {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.next++
	if n.closed {
		return n.next
	}
	s := &subscriber{
		handle: n.next,
		fn:     fn,
		wake:   make(chan struct{}, 1),
	}
	n.subs = append(n.subs, s)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		s.run(n.diag)
	}()
	return s.handle
}

// Unsubscribe stops delivery to h, dropping anything still queued for it.
func (n *Notifier) Unsubscribe(h Handle) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, s := range n.subs {
		if s.handle == h {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			s.stop()
			return true
		}
	}
	return false
}

func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// Publish queues c for every observer in subscription order. Empty changes
// are dropped.
func (n *Notifier) Publish(c StateChange) {
	if c.Empty() {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, s := range n.subs {
		s.push(c)
	}
}

// Close delivers what is already queued, then stops every observer.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		n.wg.Wait()
		return
	}
	n.closed = true
	subs := n.subs
	n.subs = nil
	for _, s := range subs {
		s.drain()
	}
	n.mu.Unlock()
	n.wg.Wait()
}

type subscriber struct {
	handle Handle
	fn     Observer
	wake   chan struct{}

	mu       sync.Mutex
	queue    deque.Deque[StateChange]
	stopped  bool
	draining bool
}

func (s *subscriber) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) push(c StateChange) {
	s.mu.Lock()
	if s.stopped || s.draining {
		s.mu.Unlock()
		return
	}
	s.queue.PushBack(c)
	s.mu.Unlock()
	s.signal()
}

func (s *subscriber) stop() {
	s.mu.Lock()
	s.stopped = true
	s.queue.Clear()
	s.mu.Unlock()
	s.signal()
}

func (s *subscriber) drain() {
	s.mu.Lock()
	s.draining = true
	s.mu.Unlock()
	s.signal()
}

func (s *subscriber) run(diag DiagnosticsFunc) {
	for {
		s.mu.Lock()
		for s.queue.Len() == 0 {
			if s.stopped || s.draining {
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
			<-s.wake
			s.mu.Lock()
		}
		if s.stopped {
			s.mu.Unlock()
			return
		}
		c := s.queue.PopFront()
		s.mu.Unlock()

		if err := s.deliver(c); err != nil {
			diag(s.handle, err)
		}
	}
}

func (s *subscriber) deliver(c StateChange) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panicked: %v", r)
		}
	}()
	return s.fn(c)
}
